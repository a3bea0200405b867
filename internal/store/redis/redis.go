package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"formnotif/internal/domain"
	"formnotif/internal/store"
)

const keyPrefix = "formnotif:dispatch_log:"

// Store keeps each submission's log as a Redis list that expires after
// store.Retention.
type Store struct {
	client     *goredis.Client
	tracer     trace.Tracer
	maxEntries int64
	now        func() time.Time
}

type Options struct {
	Addr       string
	Password   string
	DB         int
	MaxEntries int
}

func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func New(client *goredis.Client, maxEntries int) *Store {
	return &Store{
		client:     client,
		tracer:     otel.Tracer("formnotif.internal.store.redis"),
		maxEntries: int64(maxEntries),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func key(submissionID string) string { return keyPrefix + submissionID }

func (s *Store) Append(ctx context.Context, submissionID string, r domain.DispatchResult) error {
	if submissionID == "" {
		return store.ErrSubmissionIDRequired
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store/redis: marshal result: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "store.dispatch_log.append")
	defer span.End()

	k := key(submissionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, k, data)
	pipe.Expire(ctx, k, store.Retention)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, k, -s.maxEntries, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store/redis: append: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, submissionID string) ([]domain.DispatchResult, error) {
	if submissionID == "" {
		return nil, store.ErrSubmissionIDRequired
	}

	ctx, span := s.tracer.Start(ctx, "store.dispatch_log.list")
	defer span.End()

	raw, err := s.client.LRange(ctx, key(submissionID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []domain.DispatchResult{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("store/redis: list: %w", err)
	}

	now := s.now()
	out := make([]domain.DispatchResult, 0, len(raw))
	for _, item := range raw {
		var r domain.DispatchResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			span.RecordError(err)
			continue
		}
		if store.Expired(r.Timestamp, now) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
