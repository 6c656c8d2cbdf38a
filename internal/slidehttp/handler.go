package slidehttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/ratelimit"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slideshow"
)

const (
	Path = "/-/slideshow"

	DefaultMaxSlides = 32

	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 4
)

var ErrBadCount = errors.New("slidehttp: count must be a non-negative integer")

// Metrics is satisfied by metrics.ServerMetrics.
type Metrics interface {
	SlideshowMounted()
	SlideshowUnmounted()
	IncSlideshowFrames()
}

type Options struct {
	Logger    log.Logger
	Interval  time.Duration
	MaxSlides int
	// Conns caps open sockets per client address. nil means no cap.
	Conns   *ratelimit.ConnLimiter
	Metrics Metrics
	Clock   slideshow.Clock
	// CheckOrigin overrides the same-origin check on upgrade.
	CheckOrigin func(*http.Request) bool
}

// Frame is the full visual state of one slideshow.
type Frame struct {
	Index  int               `json:"index"`
	Count  int               `json:"count"`
	Layers []slideshow.Layer `json:"layers"`
}

type command struct {
	Count *int `json:"count"`
}

type Handler struct {
	ctx      context.Context
	opts     Options
	upgrader websocket.Upgrader
}

// New builds the websocket handler. Open sessions are closed when ctx ends,
// since hijacked connections outlive http.Server.Shutdown.
func New(ctx context.Context, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Interval <= 0 {
		opts.Interval = slideshow.DefaultInterval
	}
	if opts.MaxSlides <= 0 {
		opts.MaxSlides = DefaultMaxSlides
	}
	if opts.Clock == nil {
		opts.Clock = slideshow.SystemClock()
	}
	return &Handler{
		ctx:  ctx,
		opts: opts,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  4096,
			CheckOrigin:      opts.CheckOrigin,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	L := log.FromContext(ctx)

	count, err := parseCount(r.URL.Query().Get("count"), h.opts.MaxSlides)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	release, ok := h.opts.Conns.Acquire(httpmw.ClientIPFromContext(ctx))
	if !ok {
		w.Header().Set("Retry-After", "30")
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the client
		L.Debug(ctx, "slideshow upgrade failed", "err", err)
		return
	}

	s := &session{
		conn:      conn,
		logger:    L,
		metrics:   h.opts.Metrics,
		maxSlides: h.opts.MaxSlides,
		frames:    make(chan Frame, sendBuffer),
	}
	s.carousel = slideshow.New(count,
		slideshow.WithClock(h.opts.Clock),
		slideshow.WithInterval(h.opts.Interval),
		slideshow.OnAdvance(func(int) { s.push() }),
	)
	s.run(h.ctx)
}

// parseCount accepts an empty value as zero and caps the result at max.
func parseCount(raw string, max int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrBadCount
	}
	return clamp(n, max), nil
}

func clamp(n, max int) int {
	switch {
	case n < 0:
		return 0
	case n > max:
		return max
	}
	return n
}
