package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
)

const (
	DefaultPerSecond  = 20
	DefaultBurst      = 40
	DefaultTTL        = 5 * time.Minute
	DefaultMaxClients = 100_000
)

// Metrics is satisfied by metrics.ServerMetrics.
type Metrics interface {
	IncRateLimitDenied()
	IncRateLimitCapacity()
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// warned is set after the first denial is logged and cleared on eviction
	warned bool
}

// IPLimiter holds a token bucket per client address.
type IPLimiter struct {
	mu      sync.Mutex
	clients map[string]*client

	perSecond  rate.Limit
	burst      int
	ttl        time.Duration
	maxClients int
	now        func() time.Time

	logger  log.Logger
	metrics Metrics
}

type Option func(*IPLimiter)

// WithRate sets the refill rate and bucket size. WithRate(10, 50) allows 50
// requests at once, then 10 per second.
func WithRate(perSecond float64, burst int) Option {
	return func(l *IPLimiter) {
		l.perSecond = rate.Limit(perSecond)
		l.burst = burst
	}
}

// WithTTL sets how long an idle client stays tracked.
func WithTTL(d time.Duration) Option {
	return func(l *IPLimiter) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithMaxClients caps the client table. New clients past the cap share a
// single overflow bucket.
func WithMaxClients(n int) Option {
	return func(l *IPLimiter) {
		if n > 0 {
			l.maxClients = n
		}
	}
}

func WithLogger(L log.Logger) Option { return func(l *IPLimiter) { l.logger = L } }

func WithMetrics(m Metrics) Option { return func(l *IPLimiter) { l.metrics = m } }

const overflowKey = "overflow"

// New creates an IPLimiter. Idle clients are evicted until ctx ends.
func New(ctx context.Context, opts ...Option) *IPLimiter {
	l := &IPLimiter{
		clients:    make(map[string]*client),
		perSecond:  DefaultPerSecond,
		burst:      DefaultBurst,
		ttl:        DefaultTTL,
		maxClients: DefaultMaxClients,
		now:        time.Now,
		logger:     log.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	go l.evictLoop(ctx)
	return l
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ctx context.Context, ip string) bool {
	l.mu.Lock()
	now := l.now()
	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= l.maxClients {
			if l.metrics != nil {
				l.metrics.IncRateLimitCapacity()
			}
			ip = overflowKey
			c = l.clients[overflowKey]
		}
		if c == nil {
			c = &client{limiter: rate.NewLimiter(l.perSecond, l.burst)}
			l.clients[ip] = c
		}
	}
	c.lastSeen = now
	allowed := c.limiter.AllowN(now, 1)
	firstDenial := !allowed && !c.warned
	if firstDenial {
		c.warned = true
	}
	l.mu.Unlock()

	if allowed {
		return true
	}
	if l.metrics != nil {
		l.metrics.IncRateLimitDenied()
	}
	if firstDenial {
		l.logger.Warn(ctx, "client rate limited",
			"client.address", ip,
			"rate_per_second", float64(l.perSecond),
			"burst", l.burst,
		)
	}
	return false
}

// Len is the number of tracked clients.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *IPLimiter) evictLoop(ctx context.Context) {
	t := time.NewTicker(l.ttl / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evict(l.now())
		}
	}
}

func (l *IPLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, ip)
		}
	}
}

// Middleware answers 429 once the client's bucket is empty. It must run
// after httpmw.ClientIP.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Context(), httpmw.ClientIPFromContext(r.Context())) {
			w.Header().Set("Retry-After", "30")
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
