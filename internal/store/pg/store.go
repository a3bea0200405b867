package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"formnotif/internal/domain"
	"formnotif/internal/store"
	"formnotif/internal/util"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	DB  DB
	Now func() time.Time
}

func New(db DB) *Store { return &Store{DB: db, Now: util.NowUTC} }

func (s *Store) Append(ctx context.Context, submissionID string, r domain.DispatchResult) error {
	if submissionID == "" {
		return store.ErrSubmissionIDRequired
	}
	if r.ID == "" {
		r.ID = util.NewResultID()
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = s.Now()
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO dispatch_logs (id, submission_id, form_id, recipient, audience, success, message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, r.ID, submissionID, r.FormID, r.Recipient, string(r.Audience), r.Success, r.Message, ts)
	if err != nil {
		return fmt.Errorf("store/pg: append: %w", err)
	}
	return nil
}

// List returns results still inside the retention window, oldest first.
func (s *Store) List(ctx context.Context, submissionID string) ([]domain.DispatchResult, error) {
	if submissionID == "" {
		return nil, store.ErrSubmissionIDRequired
	}
	cutoff := s.Now().Add(-store.Retention)
	rows, err := s.DB.Query(ctx, `
		SELECT id, submission_id, form_id, recipient, audience, success, message, created_at
		FROM dispatch_logs
		WHERE submission_id=$1 AND created_at > $2
		ORDER BY seq ASC
	`, submissionID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store/pg: list: %w", err)
	}
	defer rows.Close()

	out := []domain.DispatchResult{}
	for rows.Next() {
		var r domain.DispatchResult
		var audience string
		if err := rows.Scan(&r.ID, &r.SubmissionID, &r.FormID, &r.Recipient, &audience, &r.Success, &r.Message, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("store/pg: scan: %w", err)
		}
		r.Audience = domain.Audience(audience)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/pg: rows: %w", err)
	}
	return out, nil
}

// Prune deletes results older than the retention window and reports how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, now time.Time) (int64, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM dispatch_logs WHERE created_at <= $1`, now.Add(-store.Retention))
	if err != nil {
		return 0, fmt.Errorf("store/pg: prune: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.DB.QueryRow(ctx, `SELECT 1`).Scan(&one)
}
