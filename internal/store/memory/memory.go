package memory

import (
	"context"
	"sync"
	"time"

	"formnotif/internal/domain"
	"formnotif/internal/store"
)

// Store keeps dispatch logs in process. Each submission holds at most
// MaxEntries results (oldest dropped first) when MaxEntries > 0.
type Store struct {
	mu         sync.Mutex
	logs       map[string][]domain.DispatchResult
	MaxEntries int
	Now        func() time.Time
}

func New(maxEntries int) *Store {
	return &Store{
		logs:       make(map[string][]domain.DispatchResult),
		MaxEntries: maxEntries,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Append(_ context.Context, submissionID string, r domain.DispatchResult) error {
	if submissionID == "" {
		return store.ErrSubmissionIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := append(s.logs[submissionID], r)
	if s.MaxEntries > 0 && len(l) > s.MaxEntries {
		l = append([]domain.DispatchResult(nil), l[len(l)-s.MaxEntries:]...)
	}
	s.logs[submissionID] = l
	return nil
}

func (s *Store) List(_ context.Context, submissionID string) ([]domain.DispatchResult, error) {
	if submissionID == "" {
		return nil, store.ErrSubmissionIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	out := make([]domain.DispatchResult, 0, len(s.logs[submissionID]))
	for _, r := range s.logs[submissionID] {
		if store.Expired(r.Timestamp, now) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Prune drops results older than the retention window and forgets
// submissions left with none. It reports how many results were removed.
func (s *Store) Prune(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, l := range s.logs {
		kept := l[:0]
		for _, r := range l {
			if store.Expired(r.Timestamp, now) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.logs, id)
			continue
		}
		s.logs[id] = kept
	}
	return removed, nil
}

func (s *Store) submissions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}
