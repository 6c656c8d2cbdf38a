package content

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/cryptoutil"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
)

const (
	DefaultPollInterval   = 30 * time.Second
	DefaultStaleThreshold = 30 * time.Minute

	maxBackoff = 5 * time.Minute
)

type pollResult int

const (
	pollNoChange pollResult = iota
	pollSwapped
	pollSSMError
	pollLoadError
	pollValidationError
)

// BundleFetcher is what the Watcher needs from a Loader.
type BundleFetcher interface {
	FetchCurrentBundleHash(ctx context.Context) (string, error)
	LoadHash(ctx context.Context, hash string) (*Snapshot, error)
}

// WatcherMetrics is implemented by the metrics package.
type WatcherMetrics interface {
	IncWatcherPolls()
	IncWatcherSwaps()
	IncWatcherError(kind string)
	ObserveBundleLoadDuration(seconds float64)
	SetWatcherLastSuccess(unixSeconds float64)
	SetWatcherStale(stale bool)
}

type WatcherOptions struct {
	Logger       log.Logger
	Loader       BundleFetcher
	Manager      *Manager
	PollInterval time.Duration

	// Validation defaults to DefaultValidationOptions.
	Validation *ValidationOptions

	// OnSwap runs on the poll goroutine after each swap. Panics are
	// recovered and logged.
	OnSwap func(snap *Snapshot)

	Metrics WatcherMetrics

	// StaleThreshold is how long SSM may fail before content is reported
	// stale.
	StaleThreshold time.Duration
}

// Watcher polls SSM for a new bundle digest and swaps the bundle in.
type Watcher struct {
	loader     BundleFetcher
	manager    *Manager
	logger     log.Logger
	interval   time.Duration
	validation ValidationOptions
	onSwap     func(*Snapshot)
	metrics    WatcherMetrics
	now        func() time.Time

	currentHash     string
	consecutiveErrs int

	staleThreshold time.Duration
	lastSuccessAt  time.Time
	stale          atomic.Bool

	polls int64
	swaps int64
}

func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StaleThreshold <= 0 {
		opts.StaleThreshold = DefaultStaleThreshold
	}
	validation := DefaultValidationOptions()
	if opts.Validation != nil {
		validation = *opts.Validation
	}

	w := &Watcher{
		loader:         opts.Loader,
		manager:        opts.Manager,
		logger:         opts.Logger,
		interval:       opts.PollInterval,
		validation:     validation,
		onSwap:         opts.OnSwap,
		metrics:        opts.Metrics,
		now:            time.Now,
		staleThreshold: opts.StaleThreshold,
	}
	// what was loaded at startup is not re-downloaded on the first poll
	if snap, ok := opts.Manager.Get(); ok && snap.Meta.Source == SourceS3 {
		w.currentHash = snap.Meta.SHA256
	}
	w.lastSuccessAt = w.now()
	return w
}

// Run polls until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "content watcher starting",
		"poll_interval", w.interval.String(),
		"current_hash", truncHash(w.currentHash),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "content watcher stopping", "polls", w.polls, "swaps", w.swaps)
			return ctx.Err()
		case <-ticker.C:
			if next, changed := w.afterPoll(ctx, w.checkOnce(ctx)); changed {
				ticker.Reset(next)
			}
		}
	}
}

// afterPoll updates backoff and staleness state. It reports the next
// interval when the cadence changes.
func (w *Watcher) afterPoll(ctx context.Context, result pollResult) (time.Duration, bool) {
	if result != pollSSMError {
		if w.stale.Load() {
			w.stale.Store(false)
			w.logger.Info(ctx, "content watcher: staleness recovered")
			w.setStale(false)
		}
		if w.consecutiveErrs == 0 {
			return 0, false
		}
		w.logger.Info(ctx, "content watcher: recovered", "consecutive_errors", w.consecutiveErrs)
		w.consecutiveErrs = 0
		return w.interval, true
	}

	w.consecutiveErrs++
	if since := w.now().Sub(w.lastSuccessAt); since > w.staleThreshold && !w.stale.Load() {
		w.stale.Store(true)
		w.logger.Error(ctx, fmt.Errorf("last successful SSM poll was %s ago", since.Truncate(time.Second)),
			"content watcher: content is stale",
		)
		w.setStale(true)
	}
	next := w.backoffDuration()
	w.logger.Warn(ctx, "content watcher: backing off",
		"consecutive_errors", w.consecutiveErrs,
		"next_poll_in", next.String(),
	)
	return next, true
}

func (w *Watcher) checkOnce(ctx context.Context) pollResult {
	w.polls++
	if w.metrics != nil {
		w.metrics.IncWatcherPolls()
	}

	hash, err := w.loader.FetchCurrentBundleHash(ctx)
	if err != nil {
		w.logger.Error(ctx, err, "content watcher: SSM poll failed")
		w.countError("ssm")
		return pollSSMError
	}
	w.lastSuccessAt = w.now()
	if w.metrics != nil {
		w.metrics.SetWatcherLastSuccess(float64(w.lastSuccessAt.Unix()))
	}

	if cryptoutil.HashEqual(hash, w.currentHash) {
		return pollNoChange
	}
	w.logger.Info(ctx, "content watcher: new bundle hash",
		"old_hash", truncHash(w.currentHash),
		"new_hash", truncHash(hash),
	)

	start := w.now()
	snap, err := w.loader.LoadHash(ctx, hash)
	if w.metrics != nil {
		w.metrics.ObserveBundleLoadDuration(w.now().Sub(start).Seconds())
	}
	if err != nil {
		w.logger.Error(ctx, err, "content watcher: bundle load failed", "hash", truncHash(hash))
		w.countError("load")
		return pollLoadError
	}

	if err := ValidateSnapshot(snap, w.validation); err != nil {
		w.logger.Error(ctx, err, "content watcher: bundle rejected, keeping current content",
			"rejected_hash", truncHash(hash),
			"current_hash", truncHash(w.currentHash),
		)
		w.countError("validation")
		return pollValidationError
	}

	w.manager.Set(*snap)
	w.currentHash = hash
	w.swaps++
	if w.metrics != nil {
		w.metrics.IncWatcherSwaps()
	}
	w.logger.Info(ctx, "content watcher: bundle swapped",
		"hash", truncHash(hash),
		"version", snap.Version(),
		"pages", len(snap.Pages),
		"total_swaps", w.swaps,
	)
	w.notify(ctx, snap)
	return pollSwapped
}

func (w *Watcher) notify(ctx context.Context, snap *Snapshot) {
	if w.onSwap == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, fmt.Errorf("OnSwap panic: %v", r), "content watcher: OnSwap panicked")
		}
	}()
	w.onSwap(snap)
}

func (w *Watcher) countError(kind string) {
	if w.metrics != nil {
		w.metrics.IncWatcherError(kind)
	}
}

// Stale reports whether SSM has been failing for longer than the stale
// threshold. Safe to call from any goroutine.
func (w *Watcher) Stale() bool { return w.stale.Load() }

func (w *Watcher) setStale(stale bool) {
	if w.metrics != nil {
		w.metrics.SetWatcherStale(stale)
	}
}

// backoffDuration doubles the interval per consecutive error up to
// maxBackoff.
func (w *Watcher) backoffDuration() time.Duration {
	d := w.interval
	for i := 0; i < w.consecutiveErrs && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func truncHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
