package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrDuplicateFieldID = errors.New("duplicate field id")
)

type SubInput struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// FieldDescriptor is one field of a form. Inputs is only meaningful for
// checkbox and compound (name/address) kinds.
type FieldDescriptor struct {
	ID     int        `json:"id" yaml:"id"`
	Kind   FieldKind  `json:"type" yaml:"type"`
	Label  string     `json:"label" yaml:"label"`
	Inputs []SubInput `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

type FormSchema struct {
	ID     int               `json:"id" yaml:"id"`
	Title  string            `json:"title" yaml:"title"`
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`
}

func (f FormSchema) Validate() error {
	if f.ID <= 0 {
		return ErrMissingFields
	}
	seen := make(map[int]struct{}, len(f.Fields))
	for _, fd := range f.Fields {
		if _, dup := seen[fd.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateFieldID, fd.ID)
		}
		seen[fd.ID] = struct{}{}
	}
	return nil
}

// FirstOfKind returns the first field of the given kind in declared order.
func (f FormSchema) FirstOfKind(kind FieldKind) (FieldDescriptor, bool) {
	for _, fd := range f.Fields {
		if fd.Kind == kind {
			return fd, true
		}
	}
	return FieldDescriptor{}, false
}

type SubmissionEntry struct {
	ID        string           `json:"id"`
	FormID    int              `json:"form_id"`
	CreatedAt time.Time        `json:"date_created"`
	Values    map[string]Value `json:"values"`
}

// Lookup resolves a field or sub-input id against the entry values.
func (e SubmissionEntry) Lookup(key string) (Value, bool) {
	return Lookup(e.Values, key)
}

// SubmissionEvent is the payload the host framework emits once a submission
// has been accepted.
type SubmissionEvent struct {
	Entry SubmissionEntry `json:"entry"`
	Form  FormSchema      `json:"form"`
}

func (ev SubmissionEvent) Validate() error {
	if err := ev.Form.Validate(); err != nil {
		return err
	}
	if ev.Entry.FormID != 0 && ev.Entry.FormID != ev.Form.ID {
		return fmt.Errorf("%w: entry form id %d does not match form %d", ErrMissingFields, ev.Entry.FormID, ev.Form.ID)
	}
	return nil
}
