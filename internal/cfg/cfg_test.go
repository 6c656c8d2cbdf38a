package cfg

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func wantErrContains(t *testing.T, err error, sub string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got <nil>", sub)
	}
	if !strings.Contains(err.Error(), sub) {
		t.Fatalf("error %q does not contain %q", err.Error(), sub)
	}
}

func newTestConfig(t *testing.T, args []string) (*flag.FlagSet, App) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	return fs, c
}

// Register

func TestRegister_DefaultsAreValid(t *testing.T) {
	_, c := newTestConfig(t, nil)
	if err := Validate(c); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.ContentSource != SourceSeed {
		t.Errorf("ContentSource = %q, want seed", c.ContentSource)
	}
	if c.SlideshowInterval != 3*time.Second {
		t.Errorf("SlideshowInterval = %s, want 3s", c.SlideshowInterval)
	}
	if c.HTTPPort != 8080 || c.AdminPort != 9000 {
		t.Errorf("ports = %d/%d", c.HTTPPort, c.AdminPort)
	}
}

func TestRegister_CLIOverrides(t *testing.T) {
	_, c := newTestConfig(t, []string{
		"-log-level=debug",
		"-http-port=9090",
		"-content-source=dir",
		"-content-dir=/srv/content",
		"-slideshow-interval=5s",
		"-slideshow-max-slides=8",
	})
	if c.LogLevel != "debug" || c.HTTPPort != 9090 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.ContentSource != SourceDir || c.ContentDir != "/srv/content" {
		t.Fatalf("content = %q %q", c.ContentSource, c.ContentDir)
	}
	if c.SlideshowInterval != 5*time.Second || c.SlideshowMaxSlides != 8 {
		t.Fatalf("slideshow = %s %d", c.SlideshowInterval, c.SlideshowMaxSlides)
	}
}

// FillFromEnv

func TestEnvKey(t *testing.T) {
	if got := EnvKey(EnvPrefix, "content-s3-bucket"); got != "LMSECTIONS_CONTENT_S3_BUCKET" {
		t.Fatalf("EnvKey = %q", got)
	}
}

func TestFillFromEnv_AppliesUnsetFlags(t *testing.T) {
	t.Setenv("LMSECTIONS_LOG_LEVEL", "warn")
	t.Setenv("LMSECTIONS_SLIDESHOW_MAX_SLIDES", "12")
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	_ = fs.Parse(nil)

	FillFromEnv(fs, EnvPrefix, nil)
	if c.LogLevel != "warn" || c.SlideshowMaxSlides != 12 {
		t.Fatalf("env not applied: level=%q max=%d", c.LogLevel, c.SlideshowMaxSlides)
	}
}

func TestFillFromEnv_CLIWins(t *testing.T) {
	t.Setenv("LMSECTIONS_HTTP_PORT", "7000")
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	_ = fs.Parse([]string{"-http-port=7100"})

	var logged []string
	FillFromEnv(fs, EnvPrefix, func(f string, a ...any) { logged = append(logged, f) })
	if c.HTTPPort != 7100 {
		t.Fatalf("HTTPPort = %d, want cli value 7100", c.HTTPPort)
	}
	if len(logged) != 1 {
		t.Fatalf("expected one override log line, got %d", len(logged))
	}
}

func TestFillFromEnv_InvalidKeepsPrevious(t *testing.T) {
	t.Setenv("LMSECTIONS_HTTP_PORT", "not-a-number")
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	_ = fs.Parse(nil)

	called := false
	FillFromEnv(fs, EnvPrefix, func(string, ...any) { called = true })
	if c.HTTPPort != 8080 {
		t.Fatalf("HTTPPort = %d, want default", c.HTTPPort)
	}
	if !called {
		t.Fatal("invalid env should be logged")
	}
}

// LoadEnvFile

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LMSECTIONS_TEST_FROM_FILE=yes\nLMSECTIONS_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LMSECTIONS_TEST_PRESET", "process")
	t.Setenv("LMSECTIONS_TEST_FROM_FILE", "")
	os.Unsetenv("LMSECTIONS_TEST_FROM_FILE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("LMSECTIONS_TEST_FROM_FILE"); got != "yes" {
		t.Errorf("FROM_FILE = %q, want yes", got)
	}
	if got := os.Getenv("LMSECTIONS_TEST_PRESET"); got != "process" {
		t.Errorf("PRESET = %q, process env should win", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("empty path should be ignored: %v", err)
	}
}

// Validate

func TestValidate(t *testing.T) {
	_, base := newTestConfig(t, nil)

	tests := []struct {
		name   string
		mutate func(*App)
		want   string
	}{
		{"bad port", func(c *App) { c.HTTPPort = 0 }, "HTTP_PORT"},
		{"same ports", func(c *App) { c.AdminPort = c.HTTPPort }, "must differ"},
		{"bad level", func(c *App) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"sample", func(c *App) { c.TraceSample = 2 }, "TRACE_SAMPLE"},
		{"tracing no endpoint", func(c *App) { c.EnableTracing = true }, "OTLP_ENDPOINT required"},
		{"tracing bad endpoint", func(c *App) { c.EnableTracing = true; c.OTLPEndpoint = "http://x" }, "host:port"},
		{"pyro", func(c *App) { c.EnablePyroscope = true }, "PYRO_SERVER"},
		{"pyro tenant", func(c *App) { c.EnablePyroscope = true; c.PyroServer = "http://p:4040" }, "PYRO_TENANT"},
		{"burst", func(c *App) { c.RateLimitBurst = 0 }, "RATE_LIMIT_BURST"},
		{"source", func(c *App) { c.ContentSource = "ftp" }, "CONTENT_SOURCE"},
		{"dir", func(c *App) { c.ContentSource = SourceDir; c.ContentDir = "" }, "CONTENT_DIR"},
		{"s3 bucket", func(c *App) { c.ContentSource = SourceS3 }, "CONTENT_S3_BUCKET"},
		{"poll", func(c *App) {
			c.ContentSource = SourceS3
			c.ContentS3Bucket = "b"
			c.ContentPollInterval = time.Millisecond
		}, "CONTENT_POLL_INTERVAL"},
		{"interval", func(c *App) { c.SlideshowInterval = time.Millisecond }, "SLIDESHOW_INTERVAL"},
		{"max slides", func(c *App) { c.SlideshowMaxSlides = 0 }, "SLIDESHOW_MAX_SLIDES"},
		{"links", func(c *App) { c.MaxErrorLinks = 100 }, "MAX_ERROR_LINKS"},
		{"hops", func(c *App) { c.TrustedProxyHops = -1 }, "TRUSTED_PROXY_HOPS"},
		{"conns", func(c *App) { c.SlideshowConnsPerIP = -1 }, "SLIDESHOW_CONNS_PER_IP"},
		{"drain", func(c *App) { c.ShutdownDrain = -time.Second }, "SHUTDOWN_DRAIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			wantErrContains(t, Validate(c), tt.want)
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	_, c := newTestConfig(t, nil)
	c.HTTPPort = -1
	c.LogLevel = "x"
	c.SlideshowMaxSlides = 0
	err := Validate(c)
	for _, sub := range []string{"HTTP_PORT", "LOG_LEVEL", "SLIDESHOW_MAX_SLIDES"} {
		wantErrContains(t, err, sub)
	}
}
