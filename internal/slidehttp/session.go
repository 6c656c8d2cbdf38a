package slidehttp

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slideshow"
)

// session is one mounted carousel bound to one socket.
type session struct {
	conn      *websocket.Conn
	carousel  *slideshow.Carousel
	logger    log.Logger
	metrics   Metrics
	maxSlides int
	frames    chan Frame
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if s.metrics != nil {
		s.metrics.SlideshowMounted()
		defer s.metrics.SlideshowUnmounted()
	}

	s.carousel.Start(ctx)
	s.push()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		s.readPump()
	}()

	s.writePump(ctx)

	s.carousel.Stop()
	_ = s.conn.Close()
	<-readDone
}

// push queues the current frame. Frames carry full state, so when the
// client is slow the oldest queued frame is dropped.
func (s *session) push() {
	st := s.carousel.Snapshot()
	f := Frame{Index: st.Index, Count: st.Count, Layers: st.Layers}
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd command
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Debug(context.Background(), "slideshow read ended", "err", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if cmd.Count == nil {
			continue
		}
		s.carousel.SetCount(clamp(*cmd.Count, s.maxSlides))
		s.push()
	}
}

func (s *session) writePump(ctx context.Context) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case f := <-s.frames:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				s.logger.Debug(ctx, "slideshow write failed", "err", err)
				return
			}
			if s.metrics != nil {
				s.metrics.IncSlideshowFrames()
			}
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
