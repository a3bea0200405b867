package starsender

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"formnotif/internal/observability"
)

type Sender interface {
	Send(ctx context.Context, req SendRequest) Result
}

var errUnavailable = errors.New("starsender unavailable")

// Guarded puts a local rate limit and a circuit breaker in front of a
// Sender. Both are optional. Only transport errors and 5xx responses count
// against the breaker; an API-level rejection of one number does not.
type Guarded struct {
	Next      Sender
	Limiter   *rate.Limiter
	Breaker   *gobreaker.CircuitBreaker
	LimitWait time.Duration
}

func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, errUnavailable)
		},
	})
}

func (g *Guarded) Send(ctx context.Context, req SendRequest) Result {
	if g.Limiter != nil {
		wait := g.LimitWait
		if wait <= 0 {
			wait = 2 * time.Second
		}
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		err := g.Limiter.Wait(waitCtx)
		cancel()
		if err != nil {
			observability.ProviderSend.WithLabelValues("rate_limited_local", "0").Inc()
			return Result{Success: false, Message: "rate limited: " + err.Error()}
		}
	}

	start := time.Now()
	res, open := g.execute(ctx, req)
	if open {
		observability.ProviderSend.WithLabelValues("cb_open", "0").Inc()
		return res
	}
	observability.ProviderLatency.Observe(time.Since(start).Seconds())

	result := "ok"
	if !res.Success {
		result = "error"
	}
	observability.ProviderSend.WithLabelValues(result, strconv.Itoa(res.HTTPStatus)).Inc()
	return res
}

// execute reports open=true when the breaker refused the call.
func (g *Guarded) execute(ctx context.Context, req SendRequest) (res Result, open bool) {
	if g.Breaker == nil {
		return g.Next.Send(ctx, req), false
	}
	out, err := g.Breaker.Execute(func() (any, error) {
		res := g.Next.Send(ctx, req)
		if !res.Success && (res.HTTPStatus == 0 || res.HTTPStatus >= 500) {
			return res, errUnavailable
		}
		return res, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Result{Success: false, Message: "circuit breaker open: " + err.Error()}, true
	}
	res, _ = out.(Result)
	return res, false
}
