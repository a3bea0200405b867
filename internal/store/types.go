package store

import (
	"context"
	"errors"
	"time"

	"formnotif/internal/domain"
)

// Retention is how long a submission's dispatch log is kept.
const Retention = 7 * 24 * time.Hour

var ErrSubmissionIDRequired = errors.New("store: submission id required")

// LogStore is the per-submission dispatch log. Entries are append-only and
// listed in insertion order.
type LogStore interface {
	Append(ctx context.Context, submissionID string, r domain.DispatchResult) error
	List(ctx context.Context, submissionID string) ([]domain.DispatchResult, error)
}

// Expired reports whether a result written at ts is outside the retention
// window as of now.
func Expired(ts, now time.Time) bool {
	return !ts.IsZero() && now.Sub(ts) >= Retention
}
