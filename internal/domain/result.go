package domain

import "time"

type Audience string

const (
	AudienceAdmin    Audience = "admin"
	AudienceCustomer Audience = "customer"
)

// DispatchResult records one send attempt. It is never modified after it is
// appended to a submission's log.
type DispatchResult struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submissionId"`
	FormID       int       `json:"formId"`
	Recipient    string    `json:"recipient"`
	Audience     Audience  `json:"audience"`
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

type SkipReason string

const (
	SkipNone                 SkipReason = ""
	SkipFormNotEnabled       SkipReason = "form_not_enabled"
	SkipConfigIncomplete     SkipReason = "config_incomplete"
	SkipNoRecipients         SkipReason = "no_valid_recipients"
	SkipCustomerDisabled     SkipReason = "customer_disabled"
	SkipNoPhoneField         SkipReason = "no_phone_field"
	SkipInvalidCustomerPhone SkipReason = "invalid_customer_phone"
)

// DispatchSummary is what a single dispatch produced.
type DispatchSummary struct {
	SubmissionID    string           `json:"submissionId"`
	FormID          int              `json:"formId"`
	Skipped         SkipReason       `json:"skipped,omitempty"`
	CustomerSkipped SkipReason       `json:"customerSkipped,omitempty"`
	Attempts        []DispatchResult `json:"attempts"`
	Success         bool             `json:"success"`
}
