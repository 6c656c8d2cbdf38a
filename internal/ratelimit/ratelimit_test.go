package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
)

type spyMetrics struct {
	mu       sync.Mutex
	denied   int
	capacity int
}

func (s *spyMetrics) IncRateLimitDenied()   { s.mu.Lock(); s.denied++; s.mu.Unlock() }
func (s *spyMetrics) IncRateLimitCapacity() { s.mu.Lock(); s.capacity++; s.mu.Unlock() }

func newLimiter(t *testing.T, opts ...Option) *IPLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, opts...)
}

// frozen pins the limiter clock so buckets do not refill mid-test.
func frozen(l *IPLimiter) *time.Time {
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return &now
}

func TestAllow_BurstThenDeny(t *testing.T) {
	spy := &spyMetrics{}
	l := newLimiter(t, WithRate(1, 3), WithMetrics(spy))
	frozen(l)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "192.0.2.1") {
			t.Fatalf("request %d denied inside burst", i)
		}
	}
	if l.Allow(ctx, "192.0.2.1") {
		t.Fatal("request past burst allowed")
	}
	if !l.Allow(ctx, "192.0.2.2") {
		t.Fatal("other clients have their own bucket")
	}
	if spy.denied != 1 {
		t.Fatalf("denied = %d", spy.denied)
	}
}

func TestAllow_Refills(t *testing.T) {
	l := newLimiter(t, WithRate(1, 1))
	now := frozen(l)
	ctx := context.Background()

	if !l.Allow(ctx, "a") || l.Allow(ctx, "a") {
		t.Fatal("expected one allowed then denied")
	}
	*now = now.Add(time.Second)
	if !l.Allow(ctx, "a") {
		t.Fatal("bucket should refill after a second")
	}
}

func TestAllow_WarnsOnce(t *testing.T) {
	l := newLimiter(t, WithRate(1, 1))
	frozen(l)
	ctx := context.Background()
	l.Allow(ctx, "a")
	for i := 0; i < 3; i++ {
		l.Allow(ctx, "a")
	}
	l.mu.Lock()
	warned := l.clients["a"].warned
	l.mu.Unlock()
	if !warned {
		t.Fatal("first denial should mark the client")
	}
}

func TestAllow_Capacity(t *testing.T) {
	spy := &spyMetrics{}
	l := newLimiter(t, WithRate(1, 1), WithMaxClients(2), WithMetrics(spy))
	frozen(l)
	ctx := context.Background()

	l.Allow(ctx, "a")
	l.Allow(ctx, "b")
	if !l.Allow(ctx, "c") {
		t.Fatal("first overflow client should use the fresh overflow bucket")
	}
	if l.Allow(ctx, "d") {
		t.Fatal("overflow clients share one bucket")
	}
	if spy.capacity != 2 {
		t.Fatalf("capacity = %d", spy.capacity)
	}
	if l.Len() != 3 {
		t.Fatalf("tracked = %d, want a, b and overflow", l.Len())
	}
}

func TestEvict(t *testing.T) {
	l := newLimiter(t, WithTTL(time.Minute))
	now := frozen(l)
	ctx := context.Background()
	l.Allow(ctx, "old")
	*now = now.Add(45 * time.Second)
	l.Allow(ctx, "new")

	l.evict(now.Add(30 * time.Second))
	l.mu.Lock()
	_, oldOK := l.clients["old"]
	_, newOK := l.clients["new"]
	l.mu.Unlock()
	if oldOK || !newOK {
		t.Fatalf("old kept=%v new kept=%v", oldOK, newOK)
	}
}

func TestMiddleware(t *testing.T) {
	l := newLimiter(t, WithRate(1, 1))
	frozen(l)
	h := httpmw.ClientIP(httpmw.ClientIPOptions{})(l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.5:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}
	if rec := do(); rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func TestConnLimiter(t *testing.T) {
	c := NewConnLimiter(2)
	r1, ok1 := c.Acquire("a")
	_, ok2 := c.Acquire("a")
	_, ok3 := c.Acquire("a")
	if !ok1 || !ok2 || ok3 {
		t.Fatalf("acquire results %v %v %v", ok1, ok2, ok3)
	}
	if _, ok := c.Acquire("b"); !ok {
		t.Fatal("limit is per client")
	}

	r1()
	r1()
	if c.Open("a") != 1 {
		t.Fatalf("open = %d after double release", c.Open("a"))
	}
	if _, ok := c.Acquire("a"); !ok {
		t.Fatal("slot should be free after release")
	}
}

func TestConnLimiter_Disabled(t *testing.T) {
	var nilLimiter *ConnLimiter
	for _, c := range []*ConnLimiter{nilLimiter, NewConnLimiter(0)} {
		for i := 0; i < 10; i++ {
			if _, ok := c.Acquire("a"); !ok {
				t.Fatal("disabled limiter should always allow")
			}
		}
	}
}
