package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formnotif/internal/config"
	"formnotif/internal/domain"
	"formnotif/internal/providers/starsender"
	"formnotif/internal/store/memory"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []starsender.SendRequest
	fail  map[string]string
}

func (f *fakeSender) Send(_ context.Context, req starsender.SendRequest) starsender.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if msg, ok := f.fail[req.To]; ok {
		return starsender.Result{Success: false, Message: msg, HTTPStatus: 200}
	}
	return starsender.Result{Success: true, Message: starsender.MsgSent, HTTPStatus: 200}
}

type failingLogs struct{}

func (failingLogs) Append(context.Context, string, domain.DispatchResult) error {
	return errors.New("log store down")
}

func (failingLogs) List(context.Context, string) ([]domain.DispatchResult, error) {
	return nil, nil
}

var now = time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T, s *config.Settings, sender starsender.Sender) (*Dispatcher, *memory.Store, *[]time.Duration) {
	t.Helper()
	logs := memory.New(0)
	d := New(s, sender, logs, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var pauses []time.Duration
	d.Sleep = func(_ context.Context, p time.Duration) { pauses = append(pauses, p) }
	d.Now = func() time.Time { return now }
	return d, logs, &pauses
}

func contactForm(withPhone bool) domain.FormSchema {
	f := domain.FormSchema{
		ID:    3,
		Title: "Contact",
		Fields: []domain.FieldDescriptor{
			{ID: 1, Kind: domain.KindText, Label: "Name"},
			{ID: 2, Kind: domain.KindHTML, Label: "Intro"},
		},
	}
	if withPhone {
		f.Fields = append(f.Fields, domain.FieldDescriptor{ID: 4, Kind: domain.KindPhone, Label: "WhatsApp"})
	}
	return f
}

func entry() domain.SubmissionEntry {
	return domain.SubmissionEntry{
		ID:        "sub-1",
		FormID:    3,
		CreatedAt: now,
		Values: map[string]domain.Value{
			"1": domain.StringValue("Jane"),
			"2": domain.StringValue("<b>ignored</b>"),
			"4": domain.StringValue("0811-2222-3333"),
		},
	}
}

func baseSettings() *config.Settings {
	s := &config.Settings{
		APIKey:        "key-1234567890",
		AdminNumbers:  config.NumberList{"0812345678", "+15551234567"},
		AdminTemplate: "New {form_title}: {field:Name}",
		EnabledForms:  []int{3},
	}
	s.Sanitize()
	return s
}

func TestDispatchSendsToEveryAdminWithPauseBetween(t *testing.T) {
	sender := &fakeSender{}
	d, logs, pauses := newTestDispatcher(t, baseSettings(), sender)

	sum := d.Dispatch(context.Background(), entry(), contactForm(false))

	require.Len(t, sender.calls, 2)
	assert.Equal(t, "62812345678", sender.calls[0].To)
	assert.Equal(t, "15551234567", sender.calls[1].To)
	assert.Equal(t, "New Contact: Jane", sender.calls[0].Body)
	assert.Equal(t, starsender.TypeText, sender.calls[0].Type)
	assert.Equal(t, []time.Duration{DefaultPause}, *pauses)

	assert.True(t, sum.Success)
	assert.Equal(t, domain.SkipNone, sum.Skipped)
	assert.Equal(t, domain.SkipCustomerDisabled, sum.CustomerSkipped)

	got, err := logs.List(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.AudienceAdmin, got[0].Audience)
	assert.Equal(t, now, got[0].Timestamp)
	assert.Equal(t, 3, got[1].FormID)
}

func TestDispatchSingleRecipientNoPause(t *testing.T) {
	s := baseSettings()
	s.AdminNumbers = config.NumberList{"6281234567890"}
	sender := &fakeSender{}
	d, _, pauses := newTestDispatcher(t, s, sender)

	d.Dispatch(context.Background(), entry(), contactForm(false))
	assert.Len(t, sender.calls, 1)
	assert.Empty(t, *pauses)
}

func TestDispatchFormNotEnabled(t *testing.T) {
	s := baseSettings()
	s.EnabledForms = []int{9}
	sender := &fakeSender{}
	d, logs, _ := newTestDispatcher(t, s, sender)

	sum := d.Dispatch(context.Background(), entry(), contactForm(true))
	assert.Equal(t, domain.SkipFormNotEnabled, sum.Skipped)
	assert.False(t, sum.Success)
	assert.Empty(t, sender.calls)
	got, _ := logs.List(context.Background(), "sub-1")
	assert.Empty(t, got)
}

func TestDispatchIncompleteConfigMakesNoCalls(t *testing.T) {
	for name, mutate := range map[string]func(*config.Settings){
		"no api key":       func(s *config.Settings) { s.APIKey = "" },
		"no admin numbers": func(s *config.Settings) { s.AdminNumbers = nil },
	} {
		t.Run(name, func(t *testing.T) {
			s := baseSettings()
			mutate(s)
			sender := &fakeSender{}
			d, _, _ := newTestDispatcher(t, s, sender)

			sum := d.Dispatch(context.Background(), entry(), contactForm(true))
			assert.Equal(t, domain.SkipConfigIncomplete, sum.Skipped)
			assert.Empty(t, sender.calls)
		})
	}
}

func TestDispatchFailureDoesNotAbortRemainingRecipients(t *testing.T) {
	sender := &fakeSender{fail: map[string]string{"62812345678": "bad number"}}
	d, logs, _ := newTestDispatcher(t, baseSettings(), sender)

	sum := d.Dispatch(context.Background(), entry(), contactForm(false))
	require.Len(t, sender.calls, 2)
	assert.False(t, sum.Success)
	require.Len(t, sum.Attempts, 2)
	assert.False(t, sum.Attempts[0].Success)
	assert.Equal(t, "bad number", sum.Attempts[0].Message)
	assert.True(t, sum.Attempts[1].Success)

	got, _ := logs.List(context.Background(), "sub-1")
	assert.Len(t, got, 2)
}

func TestDispatchCustomerWithoutPhoneField(t *testing.T) {
	s := baseSettings()
	s.SendToCustomer = true
	sender := &fakeSender{}
	d, _, _ := newTestDispatcher(t, s, sender)

	sum := d.Dispatch(context.Background(), entry(), contactForm(false))
	assert.Equal(t, domain.SkipNoPhoneField, sum.CustomerSkipped)
	assert.Len(t, sender.calls, 2)
	for _, a := range sum.Attempts {
		assert.Equal(t, domain.AudienceAdmin, a.Audience)
	}
	assert.True(t, sum.Success)
}

func TestDispatchCustomerCopyUsesFormCountryCode(t *testing.T) {
	s := baseSettings()
	s.SendToCustomer = true
	s.CustomerTemplate = "Thanks for {form_title}\n{fields}"
	s.CountryCodes = map[int]string{3: "60"}
	sender := &fakeSender{}
	d, logs, _ := newTestDispatcher(t, s, sender)

	sum := d.Dispatch(context.Background(), entry(), contactForm(true))
	require.Len(t, sender.calls, 3)
	last := sender.calls[2]
	assert.Equal(t, "6081122223333", last.To)
	assert.True(t, strings.HasPrefix(last.Body, "Thanks for Contact\n"))
	assert.Contains(t, last.Body, "*Name:* Jane")
	assert.NotContains(t, last.Body, "ignored")
	assert.Equal(t, domain.SkipNone, sum.CustomerSkipped)

	got, _ := logs.List(context.Background(), "sub-1")
	require.Len(t, got, 3)
	assert.Equal(t, domain.AudienceCustomer, got[2].Audience)
}

func TestDispatchCustomerEmptyPhone(t *testing.T) {
	s := baseSettings()
	s.SendToCustomer = true
	sender := &fakeSender{}
	d, _, _ := newTestDispatcher(t, s, sender)

	e := entry()
	delete(e.Values, "4")
	sum := d.Dispatch(context.Background(), e, contactForm(true))
	assert.Equal(t, domain.SkipInvalidCustomerPhone, sum.CustomerSkipped)
	assert.Len(t, sender.calls, 2)
}

func TestDispatchLogErrorsDoNotAbort(t *testing.T) {
	sender := &fakeSender{}
	d, _, _ := newTestDispatcher(t, baseSettings(), sender)
	d.Logs = failingLogs{}

	sum := d.Dispatch(context.Background(), entry(), contactForm(false))
	assert.Len(t, sender.calls, 2)
	assert.True(t, sum.Success)
}

func TestDispatchIgnoresCancellation(t *testing.T) {
	sender := &fakeSender{}
	d, _, _ := newTestDispatcher(t, baseSettings(), sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, entry(), contactForm(false))
	assert.Len(t, sender.calls, 2)
}
