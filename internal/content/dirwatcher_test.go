package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newDirWatcher(t *testing.T, dir string, mgr *Manager, m *fakeMetrics) *DirWatcher {
	t.Helper()
	return NewDirWatcher(DirWatcherOptions{
		Logger:   log.Nop(),
		Dir:      dir,
		Manager:  mgr,
		Debounce: 20 * time.Millisecond,
		Metrics:  m,
	})
}

func TestDirWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, siteFiles())
	mgr := NewManager()
	m := newFakeMetrics()
	var swaps int
	d := newDirWatcher(t, dir, mgr, m)
	d.opts.OnSwap = func(*Snapshot) { swaps++ }

	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	first := mgr.ContentHash()
	if first == "" || mgr.Source() != SourceDir || swaps != 1 {
		t.Fatalf("hash=%q source=%q swaps=%d", first, mgr.Source(), swaps)
	}

	// unchanged tree is not swapped again
	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if swaps != 1 || m.swaps != 1 {
		t.Fatalf("swaps = %d/%d, want 1", swaps, m.swaps)
	}

	writeTree(t, dir, map[string]string{"pages/contact.md": "---\ntitle: Contact\n---\n"})
	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if mgr.ContentHash() == first || mgr.PageCount() != 3 {
		t.Fatalf("expected new snapshot with 3 pages, got %d", mgr.PageCount())
	}
}

func TestDirWatcher_ReloadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, siteFiles())
	mgr := NewManager()
	m := newFakeMetrics()
	d := newDirWatcher(t, dir, mgr, m)
	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	good := mgr.ContentHash()

	if err := os.Remove(filepath.Join(dir, "pages", "index.md")); err != nil {
		t.Fatal(err)
	}
	if err := d.Reload(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if mgr.ContentHash() != good {
		t.Fatal("invalid tree must not replace current content")
	}
	if m.errs["validation"] != 1 {
		t.Fatalf("errs = %v", m.errs)
	}
}

func TestDirWatcher_RunPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, siteFiles())
	mgr := NewManager()
	d := newDirWatcher(t, dir, mgr, newFakeMetrics())
	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// give the watcher time to register directories
	time.Sleep(50 * time.Millisecond)
	writeTree(t, dir, map[string]string{"pages/blog/first.md": "---\ntitle: First\n---\n"})

	deadline := time.Now().Add(3 * time.Second)
	for {
		if snap, ok := mgr.Get(); ok {
			if _, found := snap.Page("/blog/first"); found {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("new page never loaded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/c/pages/a.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/c/pages/a.md", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/c/pages/a.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/c/pages/.a.md.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.ev); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}
