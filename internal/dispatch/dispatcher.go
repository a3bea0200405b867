package dispatch

import (
	"context"
	"log/slog"
	"time"

	"formnotif/internal/config"
	"formnotif/internal/domain"
	"formnotif/internal/fields"
	"formnotif/internal/observability"
	"formnotif/internal/phone"
	"formnotif/internal/providers/starsender"
	"formnotif/internal/render"
	"formnotif/internal/store"
	"formnotif/internal/util"
)

// DefaultPause is the courtesy delay between two admin sends.
const DefaultPause = 500 * time.Millisecond

// Dispatcher sends the notifications for one accepted submission. Failures
// stay local to a recipient: they are logged and recorded, never returned.
type Dispatcher struct {
	Settings *config.Settings
	Sender   starsender.Sender
	Logs     store.LogStore
	Renderer render.Renderer

	Pause  time.Duration
	Sleep  func(ctx context.Context, d time.Duration)
	Now    func() time.Time
	Logger *slog.Logger
}

func New(settings *config.Settings, sender starsender.Sender, logs store.LogStore, loc *time.Location, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		Settings: settings,
		Sender:   sender,
		Logs:     logs,
		Renderer: render.Renderer{
			AdminTemplate:    settings.AdminTemplate,
			CustomerTemplate: settings.CustomerTemplate,
			Location:         loc,
		},
		Pause:  DefaultPause,
		Sleep:  sleep,
		Now:    util.NowUTC,
		Logger: logger,
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Dispatch runs to completion for every recipient; cancellation of ctx does
// not cut it short.
func (d *Dispatcher) Dispatch(ctx context.Context, entry domain.SubmissionEntry, form domain.FormSchema) domain.DispatchSummary {
	ctx = context.WithoutCancel(ctx)
	log := d.Logger.With("submission_id", entry.ID, "form_id", form.ID)
	sum := domain.DispatchSummary{SubmissionID: entry.ID, FormID: form.ID}

	// 1) form must be enabled
	if !d.Settings.FormEnabled(form.ID) {
		log.Debug("form not enabled, skipping")
		return d.skip(sum, domain.SkipFormNotEnabled)
	}

	// 2) never touch the network with an incomplete configuration
	if err := d.Settings.Complete(); err != nil {
		log.Warn("notification settings incomplete, skipping", "err", err)
		return d.skip(sum, domain.SkipConfigIncomplete)
	}

	// 3) admin message
	msg := d.Renderer.Admin(entry, form)

	// 4) + 5) send to every valid admin number and record each attempt
	recipients := d.adminRecipients()
	if len(recipients) == 0 {
		log.Warn("no valid admin numbers")
		sum.Skipped = domain.SkipNoRecipients
		observability.DispatchSkipped.WithLabelValues(string(domain.SkipNoRecipients)).Inc()
	}
	for i, to := range recipients {
		if i > 0 && d.Pause > 0 {
			d.Sleep(ctx, d.Pause)
		}
		sum.Attempts = append(sum.Attempts, d.send(ctx, log, entry, form, to, msg, domain.AudienceAdmin))
	}

	// 6) optional customer copy
	if reason := d.sendCustomer(ctx, log, entry, form, &sum); reason != domain.SkipNone {
		sum.CustomerSkipped = reason
		observability.DispatchSkipped.WithLabelValues(string(reason)).Inc()
	}

	sum.Success = sum.Skipped == domain.SkipNone && len(sum.Attempts) > 0
	for _, a := range sum.Attempts {
		if !a.Success {
			sum.Success = false
		}
	}
	return sum
}

func (d *Dispatcher) skip(sum domain.DispatchSummary, reason domain.SkipReason) domain.DispatchSummary {
	observability.DispatchSkipped.WithLabelValues(string(reason)).Inc()
	sum.Skipped = reason
	return sum
}

// adminRecipients re-normalizes the stored admin numbers with the global
// rules and drops anything that comes out empty or duplicated.
func (d *Dispatcher) adminRecipients() []string {
	out := make([]string, 0, len(d.Settings.AdminNumbers))
	seen := make(map[string]struct{}, len(d.Settings.AdminNumbers))
	for _, raw := range d.Settings.AdminNumbers {
		n, _ := phone.Normalize(raw, phone.Rules{}, false)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (d *Dispatcher) sendCustomer(ctx context.Context, log *slog.Logger, entry domain.SubmissionEntry, form domain.FormSchema, sum *domain.DispatchSummary) domain.SkipReason {
	if !d.Settings.SendToCustomer {
		return domain.SkipCustomerDisabled
	}
	field, ok := form.FirstOfKind(domain.KindPhone)
	if !ok {
		log.Info("no phone field in form, customer copy not sent")
		return domain.SkipNoPhoneField
	}

	raw := fields.Extract(field, entry)
	to, warn := phone.Normalize(raw, d.Settings.RulesFor(form.ID), false)
	if warn == phone.WarnNotInternational {
		log.Warn("customer number is not in international format", "field_id", field.ID)
	}
	if to == "" {
		log.Info("customer phone empty or invalid", "field_id", field.ID)
		return domain.SkipInvalidCustomerPhone
	}

	msg := d.Renderer.Customer(entry, form)
	sum.Attempts = append(sum.Attempts, d.send(ctx, log, entry, form, to, msg, domain.AudienceCustomer))
	return domain.SkipNone
}

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, entry domain.SubmissionEntry, form domain.FormSchema, to, body string, aud domain.Audience) domain.DispatchResult {
	res := d.Sender.Send(ctx, starsender.SendRequest{To: to, Body: body, Type: starsender.TypeText})

	r := domain.DispatchResult{
		ID:           util.NewResultID(),
		SubmissionID: entry.ID,
		FormID:       form.ID,
		Recipient:    to,
		Audience:     aud,
		Success:      res.Success,
		Message:      res.Message,
		Timestamp:    d.Now(),
	}

	result := "ok"
	if res.Success {
		log.Info("notification sent", "recipient", to, "region", phone.Region(to), "audience", aud)
	} else {
		result = "error"
		log.Warn("notification failed", "recipient", to, "region", phone.Region(to), "audience", aud, "message", res.Message, "http_status", res.HTTPStatus)
	}
	observability.Deliveries.WithLabelValues(string(aud), result).Inc()

	if d.Logs != nil {
		if err := d.Logs.Append(ctx, entry.ID, r); err != nil {
			log.Error("append dispatch log failed", "err", err)
		}
	}
	return r
}
