package slidehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-sections/internal/ratelimit"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slideshow"
)

type manualTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) stoppedSafe() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) NewTicker(time.Duration) slideshow.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// tick fires the most recently armed ticker.
func (c *manualClock) tick(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	if len(c.tickers) == 0 {
		c.mu.Unlock()
		t.Fatal("no ticker armed")
	}
	tk := c.tickers[len(c.tickers)-1]
	c.mu.Unlock()
	tk.c <- time.Now()
}

type spyMetrics struct {
	mu        sync.Mutex
	mounted   int
	unmounted int
	frames    int
}

func (s *spyMetrics) SlideshowMounted()   { s.mu.Lock(); s.mounted++; s.mu.Unlock() }
func (s *spyMetrics) SlideshowUnmounted() { s.mu.Lock(); s.unmounted++; s.mu.Unlock() }
func (s *spyMetrics) IncSlideshowFrames() { s.mu.Lock(); s.frames++; s.mu.Unlock() }

func (s *spyMetrics) snapshot() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted, s.unmounted, s.frames
}

type fixture struct {
	srv     *httptest.Server
	clock   *manualClock
	metrics *spyMetrics
	cancel  context.CancelFunc
}

func newFixture(t *testing.T, conns *ratelimit.ConnLimiter) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{clock: &manualClock{}, metrics: &spyMetrics{}, cancel: cancel}
	h := New(ctx, Options{
		MaxSlides: 4,
		Conns:     conns,
		Metrics:   f.metrics,
		Clock:     f.clock,
	})
	f.srv = httptest.NewServer(httpmw.ClientIP(httpmw.ClientIPOptions{})(h))
	t.Cleanup(func() {
		cancel()
		f.srv.Close()
	})
	return f
}

func (f *fixture) dial(t *testing.T, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + Path + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func (f *fixture) mustDial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := f.dial(t, query)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSession_MountAdvanceResize(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.mustDial(t, "?count=3")

	mount := readFrame(t, conn)
	if mount.Index != 0 || mount.Count != 3 || len(mount.Layers) != 3 {
		t.Fatalf("mount frame = %+v", mount)
	}
	if mount.Layers[0].Opacity != 1 || mount.Layers[1].Transform != "translateX(100%)" {
		t.Fatalf("mount layers = %+v", mount.Layers)
	}

	f.clock.tick(t)
	if fr := readFrame(t, conn); fr.Index != 1 || fr.Layers[0].Transform != "translateX(-100%)" {
		t.Fatalf("after tick = %+v", fr)
	}

	if err := conn.WriteJSON(map[string]int{"count": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	resized := readFrame(t, conn)
	if resized.Count != 2 || resized.Index != 1 {
		t.Fatalf("resized = %+v", resized)
	}

	f.clock.tick(t)
	if fr := readFrame(t, conn); fr.Index != 0 {
		t.Fatalf("wrap after resize = %+v", fr)
	}
}

func TestSession_CountCapped(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.mustDial(t, "?count=50")
	if fr := readFrame(t, conn); fr.Count != 4 {
		t.Fatalf("count = %d, want cap 4", fr.Count)
	}

	_ = conn.WriteJSON(map[string]int{"count": 99})
	if fr := readFrame(t, conn); fr.Count != 4 {
		t.Fatalf("resize count = %d, want cap 4", fr.Count)
	}
}

func TestSession_EmptyCarouselHasNoTimer(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.mustDial(t, "")
	if fr := readFrame(t, conn); fr.Count != 0 || len(fr.Layers) != 0 {
		t.Fatalf("frame = %+v", fr)
	}
	f.clock.mu.Lock()
	n := len(f.clock.tickers)
	f.clock.mu.Unlock()
	if n != 0 {
		t.Fatalf("tickers armed = %d", n)
	}
}

func TestSession_IgnoresUnknownMessages(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.mustDial(t, "?count=2")
	readFrame(t, conn)

	_ = conn.WriteJSON(map[string]string{"hello": "world"})
	f.clock.tick(t)
	if fr := readFrame(t, conn); fr.Index != 1 || fr.Count != 2 {
		t.Fatalf("frame = %+v", fr)
	}
}

func TestSession_DisconnectUnmounts(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.mustDial(t, "?count=2")
	readFrame(t, conn)
	_ = conn.Close()

	waitFor(t, func() bool {
		m, u, _ := f.metrics.snapshot()
		return m == 1 && u == 1
	})
	waitFor(t, func() bool {
		f.clock.mu.Lock()
		defer f.clock.mu.Unlock()
		return f.clock.tickers[0].stoppedSafe()
	})
	if _, _, frames := f.metrics.snapshot(); frames < 1 {
		t.Fatalf("frames = %d", frames)
	}
}

func TestSession_ShutdownClosesSockets(t *testing.T) {
	f := newFixture(t, nil)
	conn := f.mustDial(t, "?count=2")
	readFrame(t, conn)

	f.cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.CloseNormalClosure {
		t.Fatalf("err = %v, want normal close", err)
	}
}

func TestHandler_BadCount(t *testing.T) {
	f := newFixture(t, nil)
	for _, q := range []string{"?count=-1", "?count=abc"} {
		resp, err := http.Get(f.srv.URL + Path + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", q, resp.StatusCode)
		}
	}
}

func TestHandler_ConnLimit(t *testing.T) {
	f := newFixture(t, ratelimit.NewConnLimiter(1))
	first := f.mustDial(t, "?count=1")
	readFrame(t, first)

	_, resp, err := f.dial(t, "?count=1")
	if !errors.Is(err, websocket.ErrBadHandshake) || resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second dial err = %v resp = %v", err, resp)
	}

	_ = first.Close()
	waitFor(t, func() bool {
		_, u, _ := f.metrics.snapshot()
		return u == 1
	})
	if _, _, err := f.dial(t, "?count=1"); err != nil {
		t.Fatalf("slot should be free after close: %v", err)
	}
}

func TestHandler_PlainRequestRejected(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := http.Get(f.srv.URL + Path + "?count=1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if m, _, _ := f.metrics.snapshot(); m != 0 {
		t.Fatal("no carousel should mount without an upgrade")
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"3", 3, false},
		{"40", 32, false},
		{"-2", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCount(tt.raw, 32)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseCount(%q) = %d, %v", tt.raw, got, err)
		}
	}
}

func TestFrame_WireFields(t *testing.T) {
	st := slideshow.New(2).Snapshot()
	b, err := json.Marshal(Frame{Index: st.Index, Count: st.Count, Layers: st.Layers})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"index":0,"count":2,"layers":[` +
		`{"index":0,"offset":0,"transform":"translateX(0%)","opacity":1},` +
		`{"index":1,"offset":1,"transform":"translateX(100%)","opacity":0}]}`
	if string(b) != want {
		t.Fatalf("frame = %s\nwant   %s", b, want)
	}
}
