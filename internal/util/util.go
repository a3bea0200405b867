package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns prefix + a ULID so ids sort by creation time.
func NewID(prefix string) string {
	return prefix + ulid.MustNew(ulid.Timestamp(NowUTC()), rand.Reader).String()
}

func NewSubmissionID() string { return NewID("sub_") }

func NewResultID() string { return NewID("res_") }

func NowUTC() time.Time {
	return time.Now().UTC()
}
