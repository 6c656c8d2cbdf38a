// Package slidehttp streams hero slideshow state over a websocket.
//
// Each connection mounts one slideshow.Carousel sized by the count query
// parameter. The server pushes a Frame on mount and on every advance; the
// client may resize the carousel by sending {"count": n}. Closing the socket
// unmounts the carousel and releases its timer.
package slidehttp
