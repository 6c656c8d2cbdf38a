package health

import (
	"context"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

// ContentState is satisfied by content.Manager.
type ContentState interface {
	PageCount() int
	LoadedAt() time.Time
}

// ContentLoaded fails until a snapshot with at least one page is active.
func ContentLoaded(s ContentState) CheckFunc {
	return func(context.Context) error {
		if s == nil || s.LoadedAt().IsZero() {
			return xerrors.New("content: no active snapshot")
		}
		if s.PageCount() == 0 {
			return xerrors.New("content: snapshot has no pages")
		}
		return nil
	}
}

// Staleness is satisfied by content.Watcher.
type Staleness interface {
	Stale() bool
}

// ContentFresh fails while the watcher reports its last good poll is older
// than the stale threshold. A nil watcher always passes.
func ContentFresh(w Staleness) CheckFunc {
	return func(context.Context) error {
		if w != nil && w.Stale() {
			return xerrors.New("content: watcher stale")
		}
		return nil
	}
}
