package sqsqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"formnotif/internal/domain"
)

// API is the part of *sqs.Client the queue uses.
type API interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type Producer struct {
	SQS      API
	QueueURL string
	// FIFO queues need a group id and a deduplication id on every message.
	FIFO bool
}

// SubmissionJob carries one accepted submission to the worker.
type SubmissionJob struct {
	Event      domain.SubmissionEvent `json:"event"`
	EnqueuedAt time.Time              `json:"enqueuedAt"`
}

func (p *Producer) EnqueueSubmission(ctx context.Context, ev domain.SubmissionEvent) error {
	body, err := json.Marshal(SubmissionJob{Event: ev, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("sqsqueue: marshal job: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: str(string(body)),
	}
	if p.FIFO {
		// submissions of one form are dispatched in order
		in.MessageGroupId = str("form-" + strconv.Itoa(ev.Form.ID))
		in.MessageDeduplicationId = str(ev.Entry.ID)
	}
	if _, err := p.SQS.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqsqueue: send message: %w", err)
	}
	return nil
}

func str(s string) *string { return &s }
