package httpserver

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a client's limiter is kept without requests.
// It is longer than a full refill, so evicting it forgets nothing.
const DefaultLimiterIdle = 10 * time.Minute

// ClientLimiter allows each client PerMinute requests in a burst, refilled
// evenly over a minute. Clients are keyed by remote address. X-Forwarded-For
// is only consulted when TrustProxy is set.
type ClientLimiter struct {
	PerMinute  int
	TrustProxy bool
	Idle       time.Duration
	Now        func() time.Time

	mu        sync.Mutex
	limiters  map[string]*clientEntry
	lastSweep time.Time
}

type clientEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewClientLimiter(perMinute int) *ClientLimiter {
	return &ClientLimiter{
		PerMinute: perMinute,
		Idle:      DefaultLimiterIdle,
		Now:       time.Now,
		limiters:  make(map[string]*clientEntry),
	}
}

func (l *ClientLimiter) Allow(r *http.Request) bool {
	if l == nil || l.PerMinute <= 0 {
		return true
	}
	key := l.clientKey(r)

	l.mu.Lock()
	now := l.Now()
	l.sweep(now)
	e, ok := l.limiters[key]
	if !ok {
		e = &clientEntry{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.PerMinute)), l.PerMinute)}
		l.limiters[key] = e
	}
	e.seen = now
	allowed := e.lim.AllowN(now, 1)
	l.mu.Unlock()

	return allowed
}

// sweep drops limiters idle for longer than l.Idle, at most once per Idle.
// Callers hold l.mu.
func (l *ClientLimiter) sweep(now time.Time) {
	idle := l.Idle
	if idle <= 0 {
		idle = DefaultLimiterIdle
	}
	if now.Sub(l.lastSweep) < idle {
		return
	}
	l.lastSweep = now
	for k, e := range l.limiters {
		if now.Sub(e.seen) > idle {
			delete(l.limiters, k)
		}
	}
}

func (l *ClientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *ClientLimiter) clientKey(r *http.Request) string {
	if l.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
