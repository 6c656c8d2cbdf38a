package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/linnemanlabs-sections/internal/cfg"
	"github.com/keithlinneman/linnemanlabs-sections/internal/content"
	"github.com/keithlinneman/linnemanlabs-sections/internal/cryptoutil"
	"github.com/keithlinneman/linnemanlabs-sections/internal/health"
	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-sections/internal/httpserver"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/metrics"
	"github.com/keithlinneman/linnemanlabs-sections/internal/opshttp"
	"github.com/keithlinneman/linnemanlabs-sections/internal/otelx"
	"github.com/keithlinneman/linnemanlabs-sections/internal/page"
	"github.com/keithlinneman/linnemanlabs-sections/internal/prof"
	"github.com/keithlinneman/linnemanlabs-sections/internal/provenancehttp"
	"github.com/keithlinneman/linnemanlabs-sections/internal/ratelimit"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sections"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sitehandler"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sitehttp"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slidehttp"
	v "github.com/keithlinneman/linnemanlabs-sections/internal/version"
	"github.com/keithlinneman/linnemanlabs-sections/internal/webassets"
)

const component = "server"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool
	var envFile string

	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.StringVar(&envFile, "env-file", ".env", "optional KEY=VALUE file loaded before LMSECTIONS_* lookup")
	flag.Parse()

	if showVersion {
		fmt.Println(vi.String())
		os.Exit(0)
	}

	stderrf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}

	// .env never overrides the real environment
	if err := cfg.LoadEnvFile(envFile); err != nil {
		stderrf("env file: %v", err)
		os.Exit(1)
	}
	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, stderrf)

	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// Setup logging
	lvl, _ := log.ParseLevel(conf.LogLevel)
	stackLvl, _ := log.ParseLevel(conf.StacktraceLevel)
	L, err := log.New(log.Options{
		App:               v.AppName,
		Component:         component,
		Version:           vi.Version,
		Level:             lvl,
		StacktraceLevel:   stackLvl,
		JSONFormat:        conf.LogJSON,
		IncludeErrorLinks: conf.IncludeErrorLinks,
		MaxErrorLinks:     conf.MaxErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer L.Sync()
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_id", vi.BuildID,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"trace_sample", conf.TraceSample,
		"content_source", conf.ContentSource,
		"content_dir", conf.ContentDir,
		"content_ssm_param", conf.ContentSSMParam,
		"content_s3_bucket", conf.ContentS3Bucket,
		"content_s3_prefix", conf.ContentS3Prefix,
		"content_signing_key_arn", conf.ContentSigningKeyARN,
		"slideshow_interval", conf.SlideshowInterval,
		"rate_limit_rps", conf.RateLimitRPS,
		"trusted_proxy_hops", conf.TrustedProxyHops,
	)

	m := metrics.New()
	m.SetBuildInfoFromVersion(component, vi)

	// Setup pyroscope profiling
	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags:          prof.Tags(vi, component),
		Active:        m.SetProfilingActive,
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	defer stopProf()

	// collector runs on localhost, so no TLS
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: component,
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	// content: the embedded seed is always loaded first so there is
	// something to serve while the configured source comes up
	contentMgr := content.NewManager()
	validation := content.DefaultValidationOptions()

	onSwap := func(snap *content.Snapshot) {
		m.SetContent(string(snap.Meta.Source), snap.Meta.SHA256, len(snap.Pages), snap.LoadedAt)
	}

	if err := loadSeed(contentMgr, validation); err != nil {
		// the seed ships in the binary; failing here is a packaging bug
		L.Error(ctx, err, "failed to load embedded seed content")
		os.Exit(1)
	}
	if snap, ok := contentMgr.Get(); ok {
		onSwap(snap)
	}

	// freshness only applies to polled sources
	var freshness health.Probe

	switch conf.ContentSource {
	case cfg.SourceDir:
		snap, err := content.LoadDir(conf.ContentDir)
		if err == nil {
			err = content.ValidateSnapshot(snap, validation)
		}
		if err != nil {
			L.Error(ctx, err, "failed to load content dir, serving seed", "dir", conf.ContentDir)
		} else {
			contentMgr.Set(*snap)
			onSwap(snap)
			L.Info(ctx, "loaded content dir", "dir", conf.ContentDir, "pages", len(snap.Pages), "content_hash", snap.Meta.SHA256)
		}

		dw := content.NewDirWatcher(content.DirWatcherOptions{
			Logger:     L,
			Dir:        conf.ContentDir,
			Manager:    contentMgr,
			Validation: &validation,
			OnSwap:     onSwap,
			Metrics:    m,
		})
		go func() {
			if err := dw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				L.Error(ctx, err, "content dir watcher stopped")
			}
		}()

	case cfg.SourceS3:
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			L.Error(ctx, err, "failed to load AWS config")
			os.Exit(1)
		}

		var verifier content.SignatureVerifier
		if conf.ContentSigningKeyARN != "" {
			verifier = cryptoutil.NewKMSVerifier(kms.NewFromConfig(awsCfg), conf.ContentSigningKeyARN)
			validation.RequireSignature = true
		}

		loader, err := content.NewLoader(awsCfg, content.LoaderOptions{
			Logger:   L,
			SSMParam: conf.ContentSSMParam,
			S3Bucket: conf.ContentS3Bucket,
			S3Prefix: conf.ContentS3Prefix,
			Verifier: verifier,
		})
		if err != nil {
			L.Error(ctx, err, "failed to create content loader")
			os.Exit(1)
		}

		if err := loader.LoadIntoManager(ctx, contentMgr); err != nil {
			// keep serving the seed; the watcher retries
			L.Error(ctx, err, "failed to load content bundle, serving seed")
		} else if snap, ok := contentMgr.Get(); ok {
			onSwap(snap)
			L.Info(ctx, "loaded content bundle from S3",
				"content_version", contentMgr.ContentVersion(),
				"content_hash", contentMgr.ContentHash(),
			)
		}

		watcher := content.NewWatcher(content.WatcherOptions{
			Logger:       L,
			Loader:       loader,
			Manager:      contentMgr,
			PollInterval: conf.ContentPollInterval,
			Validation:   &validation,
			OnSwap:       onSwap,
			Metrics:      m,
		})
		freshness = health.ContentFresh(watcher)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				L.Error(ctx, err, "content watcher stopped")
			}
		}()
	}

	// rendering
	pages := page.NewRenderer(sections.NewRenderer(nil, nil, conf.SlideshowInterval))

	siteHandler, err := sitehandler.New(sitehandler.Options{
		Logger:     L,
		Content:    contentMgr,
		Pages:      pages,
		Metrics:    m,
		FallbackFS: webassets.FallbackFS(),
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}

	// slideshow sockets are closed explicitly after the drain; hijacked
	// connections are not tracked by http.Server.Shutdown
	slideCtx, closeSlides := context.WithCancel(context.Background())
	defer closeSlides()
	slideshows := slidehttp.New(log.WithContext(slideCtx, L), slidehttp.Options{
		Logger:    L,
		Interval:  conf.SlideshowInterval,
		MaxSlides: conf.SlideshowMaxSlides,
		Conns:     ratelimit.NewConnLimiter(conf.SlideshowConnsPerIP),
		Metrics:   m,
	})

	routes, err := sitehttp.New(sitehttp.Options{
		Site:      siteHandler,
		Static:    webassets.StaticFS(),
		Slideshow: slideshows,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site routes")
		os.Exit(1)
	}

	provenance := provenancehttp.NewAPI(contentMgr, vi, L)

	var gate health.ShutdownGate

	// load balancer readiness: not draining and something to serve
	readiness := health.All(gate.Probe(), health.ContentLoaded(contentMgr))

	var rateLimitMW func(next http.Handler) http.Handler
	if conf.RateLimitRPS > 0 {
		limiter := ratelimit.New(ctx,
			ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
			ratelimit.WithLogger(L),
			ratelimit.WithMetrics(m),
		)
		rateLimitMW = limiter.Middleware
	}

	siteHTTPStop, err := httpserver.Start(ctx, httpserver.Options{
		Logger:       L,
		Port:         conf.HTTPPort,
		UseRecoverMW: true,
		OnPanic:      m,
		MetricsMW:    m.Middleware,
		RateLimitMW:  rateLimitMW,
		ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedProxyHops},
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		ContentInfo:  contentMgr,
		Routes: func(r chi.Router) {
			provenance.RegisterRoutes(r)
			routes.RegisterRoutes(r)
		},
	})
	if err != nil {
		L.Error(ctx, err, "failed to start site http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// ops readiness also reports stale content so monitoring can alert
	// without pulling instances out of the load balancer
	opsHTTPStop, err := opshttp.Start(ctx, L, opshttp.Options{
		Port:        conf.AdminPort,
		Metrics:     m.Handler(),
		EnablePprof: conf.EnablePprof,
		Health:      health.Fixed(true, ""),
		Readiness:   health.All(readiness, freshness),
		OnPanic:     m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	if err := notifySystemd(); err != nil {
		// systemd kills the unit after its start timeout if this mattered
		L.Warn(ctx, "failed to notify systemd of readiness", "err", err)
	}

	<-ctx.Done()
	stop()

	bg := context.Background()
	L.Info(bg, "shutdown signal received")

	// fail readiness so the load balancer stops sending traffic
	gate.Set("draining")
	L.Info(bg, "draining", "period", conf.ShutdownDrain)

	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(conf.ShutdownDrain):
		L.Info(bg, "drain period complete")
	case <-forceCh:
		L.Warn(bg, "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	shutdownCtx, cancel := context.WithTimeout(bg, 10*time.Second)
	defer cancel()

	closeSlides()

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "site http server shutdown")
	}
	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(bg, err, "otel shutdown")
	}
	stopProf()

	L.Info(bg, "shutdown complete")
}

func loadSeed(mgr *content.Manager, validation content.ValidationOptions) error {
	snap, err := content.LoadFS(webassets.SeedFS(), content.SourceSeed)
	if err != nil {
		return err
	}
	if err := content.ValidateSnapshot(snap, validation); err != nil {
		return err
	}
	mgr.Set(*snap)
	return nil
}

func notifySystemd() error {
	// set by systemd for Type=notify units
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return nil
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify: dial: %w", err)
	}
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		conn.Close()
		return fmt.Errorf("systemd notify: write: %w", err)
	}
	return conn.Close()
}
