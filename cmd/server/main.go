package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/chorewheel/internal/config"
	"github.com/me/chorewheel/internal/logging"
	"github.com/me/chorewheel/internal/metrics"
	"github.com/me/chorewheel/internal/scheduler"
	"github.com/me/chorewheel/internal/server"
	"github.com/me/chorewheel/internal/store"
	"github.com/me/chorewheel/internal/tracker"
)

func main() {
	cfg := config.DefaultServerConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.chorewheel/chorewheel.db)")
	flag.IntVar(&cfg.Horizon, "horizon", cfg.Horizon, "Default calendar length in days")
	flag.IntVar(&cfg.MaxHorizon, "max-horizon", cfg.MaxHorizon, "Largest calendar length a request may ask for")
	flag.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Lifetime of a login token")
	flag.Float64Var(&cfg.RatePerSec, "rate", cfg.RatePerSec, "API requests per second (0 disables limiting)")
	flag.IntVar(&cfg.RateBurst, "burst", cfg.RateBurst, "API request burst size")
	flag.StringVar(&cfg.RolloverSpec, "rollover", cfg.RolloverSpec, "Cron spec for carrying overdue chores to today")
	flag.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "IANA timezone that decides the current day")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	configFile := flag.String("config", "", "Path to a YAML config file")

	flag.Parse()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	// Explicit flags win over the file and the environment.
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".chorewheel")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "chorewheel.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := metrics.NewPrometheus(reg, cfg.MetricsNamespace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register metrics: %v\n", err)
		os.Exit(1)
	}

	svc := tracker.New(st, logger,
		tracker.WithClock(tracker.SystemClock{Location: loc}),
		tracker.WithMetrics(prom),
		tracker.WithHorizon(cfg.Horizon),
		tracker.WithMaxHorizon(cfg.MaxHorizon),
		tracker.WithSessionTTL(cfg.SessionTTL),
	)

	sched, err := scheduler.NewLoop(svc, scheduler.Config{Spec: cfg.RolloverSpec, Location: loc}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create scheduler: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(cfg, svc, logger,
		server.WithScheduler(sched),
		server.WithMetrics(prom, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start scheduler in background.
	srv.StartScheduler(ctx)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "tz", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop scheduler before HTTP server.
	if err := sched.Stop(); err != nil {
		logger.Error("scheduler stop error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
