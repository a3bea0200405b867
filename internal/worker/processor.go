package worker

import (
	"context"
	"errors"
	"log/slog"

	"formnotif/internal/domain"
	sqsqueue "formnotif/internal/queue/sqs"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, entry domain.SubmissionEntry, form domain.FormSchema) domain.DispatchSummary
}

// Processor runs queued submissions through the dispatcher. Send failures
// are recorded per recipient by the dispatcher, so only malformed jobs
// return an error.
type Processor struct {
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

func (p *Processor) Process(ctx context.Context, job sqsqueue.SubmissionJob) error {
	if job.Event.Entry.ID == "" {
		return errors.New("worker: job without submission id")
	}
	if err := job.Event.Validate(); err != nil {
		return err
	}

	sum := p.Dispatcher.Dispatch(ctx, job.Event.Entry, job.Event.Form)
	p.logger().Info("submission dispatched",
		"submission_id", sum.SubmissionID,
		"form_id", sum.FormID,
		"attempts", len(sum.Attempts),
		"success", sum.Success,
		"skipped", string(sum.Skipped),
		"customer_skipped", string(sum.CustomerSkipped),
		"queued_for", job.EnqueuedAt,
	)
	return nil
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
