package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/streamwatch/internal/archive"
	"git.home.luguber.info/inful/streamwatch/internal/config"
	"git.home.luguber.info/inful/streamwatch/internal/generate"
	"git.home.luguber.info/inful/streamwatch/internal/metrics"
	"git.home.luguber.info/inful/streamwatch/internal/natsfeed"
	"git.home.luguber.info/inful/streamwatch/internal/server"
	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"streamwatch.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Watch struct {
		URL         string        `help:"Stream service base URL (overrides config)"`
		Type        string        `short:"t" help:"Only show events of this type" default:"all"`
		UserOnly    bool          `short:"u" help:"Only show events attributed to the configured viewer"`
		Interval    time.Duration `help:"Statistics reporting interval" default:"5s"`
		MetricsAddr string        `help:"Expose Prometheus metrics on this address (empty disables)"`
	} `cmd:"" help:"Connect to the live stream and report rolling statistics"`

	Generate struct {
		Count    int           `short:"n" help:"Stop after this many events (0 means run until interrupted)"`
		Interval time.Duration `help:"Statistics reporting interval" default:"5s"`
	} `cmd:"" help:"Feed synthetic events through the local pipeline"`

	Serve struct {
		Addr string `help:"Listen address (overrides config)"`
	} `cmd:"" help:"Run the demo stream server with a synthetic event source"`

	Ping struct {
		URL string `help:"Stream service base URL (overrides config)"`
	} `cmd:"" help:"Probe the stream service reachability endpoint"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "watch":
		if err := runWatch(cfg); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "generate":
		if err := runGenerate(cfg); err != nil {
			slog.Error("Generate failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(cfg); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "ping":
		if err := runPing(cfg); err != nil {
			slog.Error("Ping failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

// runWatch connects to the configured stream and reports rolling statistics
// until interrupted.
func runWatch(cfg *config.Config) error {
	if CLI.Watch.URL != "" {
		cfg.Stream.URL = CLI.Watch.URL
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if CLI.Watch.MetricsAddr != "" {
		registry := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(registry)
		go serveMetrics(CLI.Watch.MetricsAddr, registry)
	}

	buf := stream.NewBuffer(cfg.Stream.Capacity)
	tracker := stream.NewTracker(buf, nil)

	sessionID := uuid.NewString()
	onEvent, closeSink, err := sessionSink(cfg, sessionID)
	if err != nil {
		return err
	}
	defer closeSink()

	mgr := stream.NewManager(buf, stream.ManagerConfig{
		StreamURL:  cfg.Stream.URL,
		EventsPath: cfg.Stream.EventsPath,
		PingPath:   cfg.Stream.PingPath,
		Token:      cfg.Stream.Token,
		Recorder:   rec,
		OnEvent:    onEvent,
	})

	var feed *natsfeed.Feed
	if cfg.Feed.Enabled {
		injector := stream.NewInjector(buf, rec, onEvent)
		feed, err = natsfeed.New(cfg.Feed.URL, cfg.Feed.Subject, injector)
		if err != nil {
			return fmt.Errorf("failed to start NATS feed: %w", err)
		}
		defer feed.Close()
	}

	criteria := stream.Criteria{
		EventType: CLI.Watch.Type,
		ActorOnly: CLI.Watch.UserOnly,
		ViewerID:  cfg.Stream.ViewerID,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mgr.Connect(runCtx, criteria); err != nil {
		return err
	}
	defer mgr.Disconnect()

	slog.Info("watching stream",
		"session", sessionID,
		"type", criteria.EventType,
		"user_only", criteria.ActorOnly)

	reportStats(runCtx, tracker, buf, criteria, CLI.Watch.Interval, func() bool {
		return mgr.State() == stream.StateClosed
	})

	if err := mgr.LastError(); err != nil && runCtx.Err() == nil {
		return err
	}
	return nil
}

// runGenerate drives synthetic events through the injector path, exercising
// the same buffer and statistics as a live connection.
func runGenerate(cfg *config.Config) error {
	buf := stream.NewBuffer(cfg.Stream.Capacity)
	tracker := stream.NewTracker(buf, nil)

	sessionID := uuid.NewString()
	onEvent, closeSink, err := sessionSink(cfg, sessionID)
	if err != nil {
		return err
	}
	defer closeSink()

	injector := stream.NewInjector(buf, metrics.NoopRecorder{}, onEvent)
	gen := generate.NewGenerator(cfg.Generator.Seed, cfg.Generator.Actors)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var emitted atomic.Int64
	done := make(chan struct{})
	emit := func() {
		injector.Inject(gen.Next())
		if n := emitted.Add(1); CLI.Generate.Count > 0 && n == int64(CLI.Generate.Count) {
			close(done)
		}
	}

	minDur, maxDur := cfg.Generator.Intervals()
	schedule, err := generate.NewSchedule(minDur, maxDur, emit)
	if err != nil {
		return err
	}
	schedule.Start()
	defer func() {
		if err := schedule.Stop(); err != nil {
			slog.Warn("failed to stop generator schedule", "error", err)
		}
	}()

	slog.Info("generating events", "session", sessionID, "count", CLI.Generate.Count)

	stopped := func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	reportStats(runCtx, tracker, buf, stream.Criteria{}, CLI.Generate.Interval, stopped)
	return nil
}

// runServe runs the demo stream server fed by the synthetic generator.
func runServe(cfg *config.Config) error {
	addr := cfg.Server.Addr
	if CLI.Serve.Addr != "" {
		addr = CLI.Serve.Addr
	}

	broadcaster := server.NewBroadcaster()
	registry := prom.NewRegistry()
	srv := server.NewServer(addr, broadcaster, registry)

	gen := generate.NewGenerator(cfg.Generator.Seed, cfg.Generator.Actors)
	emit := func() { broadcaster.Publish(gen.Next()) }

	minDur, maxDur := cfg.Generator.Intervals()
	schedule, err := generate.NewSchedule(minDur, maxDur, emit)
	if err != nil {
		return err
	}
	schedule.Start()

	var scheduleMu sync.Mutex
	defer func() {
		scheduleMu.Lock()
		defer scheduleMu.Unlock()
		if err := schedule.Stop(); err != nil {
			slog.Warn("failed to stop generator schedule", "error", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live-reload the generator cadence when the config file changes.
	go func() {
		_ = config.Watch(runCtx, CLI.Config, func(next *config.Config) {
			nextMin, nextMax := next.Generator.Intervals()
			if nextMin == minDur && nextMax == maxDur {
				return
			}
			replacement, err := generate.NewSchedule(nextMin, nextMax, emit)
			if err != nil {
				slog.Warn("ignoring reloaded generator intervals", "error", err)
				return
			}
			scheduleMu.Lock()
			if err := schedule.Stop(); err != nil {
				slog.Warn("failed to stop generator schedule", "error", err)
			}
			schedule = replacement
			minDur, maxDur = nextMin, nextMax
			schedule.Start()
			scheduleMu.Unlock()
			slog.Info("generator cadence updated", "min", nextMin, "max", nextMax)
		})
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runPing probes the stream service and reports reachability.
func runPing(cfg *config.Config) error {
	if CLI.Ping.URL != "" {
		cfg.Stream.URL = CLI.Ping.URL
	}

	mgr := stream.NewManager(stream.NewBuffer(1), stream.ManagerConfig{
		StreamURL: cfg.Stream.URL,
		PingPath:  cfg.Stream.PingPath,
		Token:     cfg.Stream.Token,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if err := mgr.Ping(ctx); err != nil {
		return err
	}
	fmt.Printf("stream service reachable (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// reportStats prints rolling statistics every interval until ctx is done or
// closed reports true.
func reportStats(ctx context.Context, tracker *stream.Tracker, buf *stream.Buffer, criteria stream.Criteria, interval time.Duration, closed func() bool) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if closed() {
				return
			}
			stats := tracker.Current()
			visible := stream.Filter(buf.Snapshot(), criteria)
			fmt.Printf("events=%d rate=%.2f/s actors=%d errors=%.1f%% showing=%d\n",
				stats.TotalEvents,
				stats.EventsPerSecond,
				stats.ActiveActors,
				stats.ErrorRatePercent,
				len(visible))
		}
	}
}

// sessionSink opens the configured archive and returns the event observer
// hook for this session. When no archive is configured both returns are
// no-ops.
func sessionSink(cfg *config.Config, sessionID string) (func(stream.Event), func(), error) {
	if cfg.Archive.Path == "" {
		return nil, func() {}, nil
	}
	sink, err := archive.NewSQLiteSink(cfg.Archive.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	closeSink := func() {
		if err := sink.Close(); err != nil {
			slog.Warn("failed to close archive", "error", err)
		}
	}
	return archive.Tee(sink, sessionID), closeSink, nil
}

func serveMetrics(addr string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	slog.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "error", err)
	}
}
