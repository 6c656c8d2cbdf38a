package ratelimit

import "sync"

// ConnLimiter caps concurrent long-lived connections per client, such as
// slideshow sockets.
type ConnLimiter struct {
	mu    sync.Mutex
	open  map[string]int
	limit int
}

// NewConnLimiter allows limit concurrent connections per client. A
// non-positive limit disables the cap.
func NewConnLimiter(limit int) *ConnLimiter {
	return &ConnLimiter{open: make(map[string]int), limit: limit}
}

// Acquire reserves a slot for ip. The returned release must be called once
// when the connection closes; calling it again is a no-op.
func (c *ConnLimiter) Acquire(ip string) (release func(), ok bool) {
	if c == nil || c.limit <= 0 {
		return func() {}, true
	}
	c.mu.Lock()
	if c.open[ip] >= c.limit {
		c.mu.Unlock()
		return nil, false
	}
	c.open[ip]++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.open[ip]--; c.open[ip] <= 0 {
				delete(c.open, ip)
			}
		})
	}, true
}

// Open is the number of connections held by ip.
func (c *ConnLimiter) Open(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open[ip]
}
