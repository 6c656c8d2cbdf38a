// Package slideshow holds the hero carousel state: the current slide index of
// one mounted slideshow and the single repeating timer that advances it.
package slideshow

import (
	"context"
	"sync"
	"time"
)

// Carousel owns a current index and at most one pending timer. The zero
// value is not usable; construct with New.
type Carousel struct {
	clock     Clock
	interval  time.Duration
	onAdvance func(index int)

	mu      sync.Mutex
	index   int
	count   int
	started bool
	parent  context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Carousel)

func WithClock(c Clock) Option { return func(cr *Carousel) { cr.clock = c } }

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(cr *Carousel) {
		if d > 0 {
			cr.interval = d
		}
	}
}

// OnAdvance registers fn to run on the timer goroutine after every tick with
// the new index. fn must not call Stop or SetCount.
func OnAdvance(fn func(index int)) Option { return func(cr *Carousel) { cr.onAdvance = fn } }

func New(count int, opts ...Option) *Carousel {
	if count < 0 {
		count = 0
	}
	c := &Carousel{
		clock:    SystemClock(),
		interval: DefaultInterval,
		count:    count,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start mounts the carousel: the index resets to 0 and, when there is at least
// one slide, a repeating timer is armed. The timer is released when ctx ends
// or Stop is called. Starting a started carousel re-arms it.
func (c *Carousel) Start(ctx context.Context) {
	c.mu.Lock()
	done := c.disarmLocked()
	c.index = 0
	c.started = true
	c.parent = ctx
	c.armLocked()
	c.mu.Unlock()
	wait(done)
}

// SetCount changes the number of slides. When the count differs the pending
// timer is cancelled and, if the carousel is started and n > 0, a new one is
// armed. The current index is kept unless it falls past the new end, in
// which case it returns to 0.
func (c *Carousel) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	if n == c.count {
		c.mu.Unlock()
		return
	}
	done := c.disarmLocked()
	c.count = n
	if c.index >= n {
		c.index = 0
	}
	if c.started {
		c.armLocked()
	}
	c.mu.Unlock()
	wait(done)
}

// Stop unmounts the carousel and returns once the timer goroutine has exited.
// Safe to call more than once.
func (c *Carousel) Stop() {
	c.mu.Lock()
	done := c.disarmLocked()
	c.started = false
	c.parent = nil
	c.mu.Unlock()
	wait(done)
}

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Carousel) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Armed reports whether a timer is pending. A timer whose Start context has
// ended is no longer pending.
func (c *Carousel) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Carousel) Interval() time.Duration { return c.interval }

// State is a consistent view of a carousel at one instant.
type State struct {
	Index  int
	Count  int
	Layers []Layer
}

// Snapshot reads index, count and layers under one lock so a concurrent
// SetCount cannot split them.
func (c *Carousel) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Index: c.index, Count: c.count, Layers: Layers(c.count, c.index)}
}

func (c *Carousel) armLocked() {
	if c.count == 0 || c.parent == nil {
		return
	}
	ctx, cancel := context.WithCancel(c.parent)
	done := make(chan struct{})
	t := c.clock.NewTicker(c.interval)
	c.cancel = cancel
	c.done = done
	go c.run(ctx, t, done)
}

// disarmLocked cancels the pending timer and returns the channel closed when
// its goroutine exits, or nil.
func (c *Carousel) disarmLocked() chan struct{} {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	done := c.done
	c.cancel, c.done = nil, nil
	return done
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}

func (c *Carousel) run(ctx context.Context, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			idx, ok := c.advance(ctx)
			if !ok {
				return
			}
			if c.onAdvance != nil {
				c.onAdvance(idx)
			}
		}
	}
}

// advance moves to the next slide, wrapping to 0 after the last. It refuses
// once ctx is cancelled so a tick racing a disarm is dropped.
func (c *Carousel) advance(ctx context.Context) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.count == 0 {
		return c.index, false
	}
	c.index = (c.index + 1) % c.count
	return c.index, true
}
