// Package cfg holds the server configuration. Values come from flags, then
// from LMSECTIONS_* environment variables, then from an optional .env file,
// then from the defaults registered here.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
)

const EnvPrefix = "LMSECTIONS_"

// Content sources.
const (
	SourceSeed = "seed"
	SourceDir  = "dir"
	SourceS3   = "s3"
)

type App struct {
	LogJSON           bool
	LogLevel          string
	StacktraceLevel   string
	IncludeErrorLinks bool
	MaxErrorLinks     int

	HTTPPort  int
	AdminPort int

	EnablePprof     bool
	EnablePyroscope bool
	PyroServer      string
	PyroTenantID    string
	EnableTracing   bool
	OTLPEndpoint    string
	TraceSample     float64

	RateLimitRPS     float64
	RateLimitBurst   int
	TrustedProxyHops int

	ContentSource        string
	ContentDir           string
	ContentSSMParam      string
	ContentS3Bucket      string
	ContentS3Prefix      string
	ContentSigningKeyARN string
	ContentPollInterval  time.Duration

	SlideshowInterval   time.Duration
	SlideshowMaxSlides  int
	SlideshowConnsPerIP int

	ShutdownDrain time.Duration
}

// Register binds all config fields to fs with defaults inline.
func Register(fs *flag.FlagSet, c *App) {
	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.StringVar(&c.StacktraceLevel, "stacktrace-level", "error", "debug|info|warn|error")
	fs.BoolVar(&c.IncludeErrorLinks, "include-error-links", true, "include error links in log records")
	fs.IntVar(&c.MaxErrorLinks, "max-error-links", 5, "max error chain depth (1..64)")

	fs.IntVar(&c.HTTPPort, "http-port", 8080, "site listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "ops listen TCP port (1..65535)")

	fs.BoolVar(&c.EnablePprof, "enable-pprof", true, "serve pprof on the ops port")
	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "push profiles to -pyro-server")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "pyroscope tenant (x-scope-orgid)")
	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "export OTLP traces to -otlp-endpoint")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint (host:port)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")

	fs.Float64Var(&c.RateLimitRPS, "rate-limit-rps", 20, "per-client requests per second (0 disables)")
	fs.IntVar(&c.RateLimitBurst, "rate-limit-burst", 40, "per-client burst")
	fs.IntVar(&c.TrustedProxyHops, "trusted-proxy-hops", 0, "reverse proxies in front of the server; 0 ignores X-Forwarded-For")

	fs.StringVar(&c.ContentSource, "content-source", SourceSeed, "seed|dir|s3")
	fs.StringVar(&c.ContentDir, "content-dir", "./content", "local content directory (content-source=dir)")
	fs.StringVar(&c.ContentSSMParam, "content-ssm-param", "/app/linnemanlabs-sections/content/release/id", "ssm parameter holding the content bundle hash")
	fs.StringVar(&c.ContentS3Bucket, "content-s3-bucket", "", "s3 bucket holding content bundles")
	fs.StringVar(&c.ContentS3Prefix, "content-s3-prefix", "apps/linnemanlabs-sections/content/bundles", "s3 key prefix for content bundles")
	fs.StringVar(&c.ContentSigningKeyARN, "content-signing-key-arn", "", "KMS key ARN for bundle signature verification (empty skips)")
	fs.DurationVar(&c.ContentPollInterval, "content-poll-interval", 30*time.Second, "ssm poll interval")

	fs.DurationVar(&c.SlideshowInterval, "slideshow-interval", 3*time.Second, "hero slideshow advance interval")
	fs.IntVar(&c.SlideshowMaxSlides, "slideshow-max-slides", 32, "max slides per slideshow connection")
	fs.IntVar(&c.SlideshowConnsPerIP, "slideshow-conns-per-ip", 8, "open slideshow sockets per client (0 = unlimited)")

	fs.DurationVar(&c.ShutdownDrain, "shutdown-drain", 60*time.Second, "time readiness fails before listeners close")
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// FillFromEnv sets any flag not passed on the command line from the
// environment. Flag "foo-bar" maps to PREFIX_FOO_BAR.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := EnvKey(prefix, f.Name)
		val, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, val)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, val); err != nil {
			_ = fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, val, err)
			}
		}
	})
}

func EnvKey(prefix, flagName string) string {
	return prefix + strings.ReplaceAll(strings.ToUpper(flagName), "-", "_")
}

// Validate reports every invalid field at once.
func Validate(c App) error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		add("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort)
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		add("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort)
	}
	if c.AdminPort == c.HTTPPort {
		add("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		add("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.StacktraceLevel != "" {
		if _, err := log.ParseLevel(c.StacktraceLevel); err != nil {
			add("invalid STACKTRACE_LEVEL %q: %w", c.StacktraceLevel, err)
		}
	}
	if c.IncludeErrorLinks && (c.MaxErrorLinks < 1 || c.MaxErrorLinks > 64) {
		add("MAX_ERROR_LINKS must be 1..64 (got %d)", c.MaxErrorLinks)
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		add("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample)
	}
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			add("OTLP_ENDPOINT required when ENABLE_TRACING=true")
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			add("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err)
		}
	}
	if c.EnablePyroscope {
		if u, err := url.Parse(c.PyroServer); c.PyroServer == "" || err != nil || u.Scheme == "" || u.Host == "" {
			add("PYRO_SERVER must be a URL when ENABLE_PYROSCOPE=true (got %q)", c.PyroServer)
		}
		if c.PyroTenantID == "" {
			add("PYRO_TENANT required when ENABLE_PYROSCOPE=true")
		}
	}

	if c.RateLimitRPS < 0 {
		add("RATE_LIMIT_RPS must be >= 0 (got %v)", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		add("RATE_LIMIT_BURST must be >= 1 when rate limiting is on (got %d)", c.RateLimitBurst)
	}

	if c.TrustedProxyHops < 0 || c.TrustedProxyHops > 8 {
		add("TRUSTED_PROXY_HOPS must be 0..8 (got %d)", c.TrustedProxyHops)
	}

	switch c.ContentSource {
	case SourceSeed:
	case SourceDir:
		if c.ContentDir == "" {
			add("CONTENT_DIR required when CONTENT_SOURCE=dir")
		}
	case SourceS3:
		if c.ContentSSMParam == "" {
			add("CONTENT_SSM_PARAM required when CONTENT_SOURCE=s3")
		}
		if c.ContentS3Bucket == "" {
			add("CONTENT_S3_BUCKET required when CONTENT_SOURCE=s3")
		}
		if c.ContentS3Prefix == "" {
			add("CONTENT_S3_PREFIX required when CONTENT_SOURCE=s3")
		}
		if c.ContentPollInterval < time.Second {
			add("CONTENT_POLL_INTERVAL must be >= 1s (got %s)", c.ContentPollInterval)
		}
	default:
		add("invalid CONTENT_SOURCE %q (must be seed|dir|s3)", c.ContentSource)
	}

	if c.SlideshowInterval < 100*time.Millisecond {
		add("SLIDESHOW_INTERVAL must be >= 100ms (got %s)", c.SlideshowInterval)
	}
	if c.SlideshowMaxSlides < 1 || c.SlideshowMaxSlides > 256 {
		add("SLIDESHOW_MAX_SLIDES must be 1..256 (got %d)", c.SlideshowMaxSlides)
	}
	if c.SlideshowConnsPerIP < 0 {
		add("SLIDESHOW_CONNS_PER_IP must be >= 0 (got %d)", c.SlideshowConnsPerIP)
	}
	if c.ShutdownDrain < 0 {
		add("SHUTDOWN_DRAIN must be >= 0 (got %s)", c.ShutdownDrain)
	}

	return errors.Join(errs...)
}
