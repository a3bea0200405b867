package service

import (
	"context"
	"errors"
	"fmt"

	"formnotif/internal/domain"
	"formnotif/internal/observability"
	"formnotif/internal/store"
	"formnotif/internal/util"
)

var ErrNotFound = errors.New("no dispatch log for submission")

type Dispatcher interface {
	Dispatch(ctx context.Context, entry domain.SubmissionEntry, form domain.FormSchema) domain.DispatchSummary
}

type Queue interface {
	EnqueueSubmission(ctx context.Context, ev domain.SubmissionEvent) error
}

// SubmissionService accepts submission events. With a Queue the event is
// handed to the worker, otherwise it is dispatched before Accept returns.
type SubmissionService struct {
	Dispatcher Dispatcher
	Queue      Queue
	Store      store.LogStore
}

type Accepted struct {
	SubmissionID string                  `json:"submissionId"`
	Queued       bool                    `json:"queued"`
	Summary      *domain.DispatchSummary `json:"summary,omitempty"`
}

func (s *SubmissionService) Accept(ctx context.Context, ev domain.SubmissionEvent) (Accepted, error) {
	// 1) validate
	if err := ev.Validate(); err != nil {
		return Accepted{}, err
	}

	// 2) fill in what the host may omit
	if ev.Entry.ID == "" {
		ev.Entry.ID = util.NewSubmissionID()
	}
	if ev.Entry.FormID == 0 {
		ev.Entry.FormID = ev.Form.ID
	}
	if ev.Entry.CreatedAt.IsZero() {
		ev.Entry.CreatedAt = util.NowUTC()
	}

	// 3) hand off
	if s.Queue != nil {
		if err := s.Queue.EnqueueSubmission(ctx, ev); err != nil {
			observability.Enqueues.WithLabelValues("error").Inc()
			return Accepted{}, fmt.Errorf("service: enqueue submission: %w", err)
		}
		observability.Enqueues.WithLabelValues("ok").Inc()
		observability.Submissions.WithLabelValues("queued").Inc()
		return Accepted{SubmissionID: ev.Entry.ID, Queued: true}, nil
	}

	observability.Submissions.WithLabelValues("inline").Inc()
	sum := s.Dispatcher.Dispatch(ctx, ev.Entry, ev.Form)
	return Accepted{SubmissionID: ev.Entry.ID, Summary: &sum}, nil
}

func (s *SubmissionService) Logs(ctx context.Context, submissionID string) ([]domain.DispatchResult, error) {
	if s.Store == nil {
		return nil, ErrNotFound
	}
	out, err := s.Store.List(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
