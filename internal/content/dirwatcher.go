package content

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/keithlinneman/linnemanlabs-sections/internal/cryptoutil"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

const DefaultDebounce = 500 * time.Millisecond

type DirWatcherOptions struct {
	Logger   log.Logger
	Dir      string
	Manager  *Manager
	Debounce time.Duration

	Validation *ValidationOptions
	OnSwap     func(snap *Snapshot)
	Metrics    WatcherMetrics
}

// DirWatcher reloads a local content directory when files under it change.
// Bursts of events inside Debounce collapse into one reload.
type DirWatcher struct {
	opts       DirWatcherOptions
	validation ValidationOptions
	logger     log.Logger
	reload     chan struct{}
}

func NewDirWatcher(opts DirWatcherOptions) *DirWatcher {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	validation := DefaultValidationOptions()
	if opts.Validation != nil {
		validation = *opts.Validation
	}
	return &DirWatcher{
		opts:       opts,
		validation: validation,
		logger:     opts.Logger,
		reload:     make(chan struct{}, 1),
	}
}

// Run watches until ctx ends.
func (d *DirWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return xerrors.Wrap(err, "create fsnotify watcher")
	}
	defer fw.Close()

	if err := addTree(fw, d.opts.Dir); err != nil {
		return err
	}
	d.logger.Info(ctx, "content dir watcher starting", "dir", d.opts.Dir, "debounce", d.opts.Debounce.String())

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(fw, ev.Name); err != nil {
						d.logger.Warn(ctx, "content dir watcher: cannot watch new directory", "dir", ev.Name, "err", err)
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(d.opts.Debounce, d.trigger)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			d.logger.Error(ctx, err, "content dir watcher: fsnotify error")
			d.countError("fsnotify")

		case <-d.reload:
			if err := d.Reload(ctx); err != nil {
				d.logger.Error(ctx, err, "content dir watcher: reload failed, keeping current content")
			}
		}
	}
}

func (d *DirWatcher) trigger() {
	select {
	case d.reload <- struct{}{}:
	default:
	}
}

// Reload loads, validates and swaps in the directory. An unchanged tree is
// not swapped.
func (d *DirWatcher) Reload(ctx context.Context) error {
	if d.opts.Metrics != nil {
		d.opts.Metrics.IncWatcherPolls()
	}
	start := time.Now()
	snap, err := LoadDir(d.opts.Dir)
	if d.opts.Metrics != nil {
		d.opts.Metrics.ObserveBundleLoadDuration(time.Since(start).Seconds())
	}
	if err != nil {
		d.countError("load")
		return err
	}
	if err := ValidateSnapshot(snap, d.validation); err != nil {
		d.countError("validation")
		return err
	}
	if d.opts.Metrics != nil {
		d.opts.Metrics.SetWatcherLastSuccess(float64(time.Now().Unix()))
	}
	if cryptoutil.HashEqual(snap.Meta.SHA256, d.opts.Manager.ContentHash()) {
		return nil
	}

	d.opts.Manager.Set(*snap)
	if d.opts.Metrics != nil {
		d.opts.Metrics.IncWatcherSwaps()
	}
	d.logger.Info(ctx, "content dir reloaded", "hash", truncHash(snap.Meta.SHA256), "pages", len(snap.Pages))
	if d.opts.OnSwap != nil {
		d.opts.OnSwap(snap)
	}
	return nil
}

func (d *DirWatcher) countError(kind string) {
	if d.opts.Metrics != nil {
		d.opts.Metrics.IncWatcherError(kind)
	}
}

func relevant(ev fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// addTree watches root and every directory below it; fsnotify is not
// recursive.
func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return xerrors.Wrapf(err, "walk %s", p)
		}
		if !de.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(de.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return xerrors.Wrapf(err, "watch %s", p)
		}
		return nil
	})
}
