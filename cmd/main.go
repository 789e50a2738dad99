package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tolgaeren/swish/internal/adapters/http/api"
	"github.com/tolgaeren/swish/internal/adapters/ws"
	app "github.com/tolgaeren/swish/internal/app"
	"github.com/tolgaeren/swish/internal/config"
	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/pkg/logger"
	"github.com/tolgaeren/swish/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Err(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.ResultQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithSnapshotInterval(time.Duration(cfg.SnapshotIntervalMS)*time.Millisecond),
		app.WithSessionOptions(sessionOptions(cfg)...),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// The play hub upgrades websocket connections and binds them to live
	// sessions; the API server owns the plain HTTP routes.
	hub := ws.NewHub(svc, ws.WithSendBuffer(cfg.WSSendBuffer))
	apiServer := api.NewServer(svc, cfg.MaxLeaderboardLimit, api.WithPlayHandler(hub))
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout: stop accepting requests, drop the
	// play connections, then drain the service.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Err(err))
	}
	hub.Shutdown()
	svc.Stop(shutdownCtx)

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// sessionOptions maps the loaded configuration onto the tuning applied to
// every session the service starts.
func sessionOptions(cfg *config.Config) []app.SessionOption {
	layout := court.DefaultLayout()
	layout.RimCenter.Y = cfg.RimHeight
	layout.RimCenter.Z = cfg.RimOffsetZ
	layout.ThreePointRadius = cfg.ThreePointRadius
	layout.ProximityResetRadius = cfg.ProximityResetRadius

	return []app.SessionOption{
		app.WithCourtLayout(layout),
		app.WithFrameRate(cfg.FrameRateHz),
		app.WithSnapshotRate(cfg.SnapshotRateHz),
		app.WithPhysicsRate(cfg.PhysicsStepHz),
		app.WithMaxSubsteps(cfg.MaxSubsteps),
		app.WithMaxFrameDelta(float64(cfg.MaxFrameDeltaMS) / 1000.0),
		app.WithGravity(cfg.Gravity),
		app.WithMeterFill(time.Duration(cfg.MeterFillMS) * time.Millisecond),
		app.WithPerfectZone(cfg.PerfectZoneStart, cfg.PerfectZoneEnd),
		app.WithWeakMultipliers(cfg.WeakMinMultiplier, cfg.WeakMaxMultiplier),
		app.WithStrongMultipliers(cfg.StrongMinMultiplier, cfg.StrongMaxMultiplier),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval) // Update every 10 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
