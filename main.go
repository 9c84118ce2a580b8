package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/adapter/telemetry"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/app"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/env"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/version"
)

func main() {
	startTime := time.Now()
	vlog := log.New(log.Writer(), "", 0)
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	} else {
		version.PrintVersionInfo(false, vlog)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shipper := buildTelemetryShipper()

	lcfg := buildLoggerConfig()
	if shipper != nil {
		shipper.Start(ctx)
		lcfg.Mirror = telemetry.NewMirrorHandler(shipper, slog.LevelInfo)
	}

	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(lcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.SetDefault(logInstance)

	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		styledLogger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	application, err := app.New(styledLogger)
	if err != nil {
		logger.FatalWithLogger(logInstance, "Failed to create application", "error", err)
	}

	if err := application.Start(ctx); err != nil {
		logger.FatalWithLogger(logInstance, "Failed to start application", "error", err)
	}

	<-ctx.Done()

	if err := application.Stop(context.Background()); err != nil {
		styledLogger.Error("Error during shutdown", "error", err)
	}

	if shipper != nil {
		shipper.Wait()
		if dropped := shipper.Dropped(); dropped > 0 {
			styledLogger.Warn("Telemetry records dropped", "count", dropped)
		}
	}

	reportProcessStats(styledLogger, startTime)

	styledLogger.Info(version.Name + " has shutdown")
}

func reportProcessStats(styledLogger logger.StyledLogger, startTime time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	styledLogger.Info("Process Stats",
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"heap_alloc_kb", m.HeapAlloc/1024,
		"total_alloc_kb", m.TotalAlloc/1024,
		"num_gc_cycles", m.NumGC,
		"num_goroutines", runtime.NumGoroutine(),
		"go_version", runtime.Version(),
	)
}

// buildLoggerConfig creates logger config from environment variables with defaults
func buildLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      env.GetEnvOrDefault("POCOPILOT_LOG_LEVEL", "info"),
		FileOutput: env.GetEnvBoolOrDefault("POCOPILOT_FILE_OUTPUT", true),
		LogDir:     env.GetEnvOrDefault("POCOPILOT_LOG_DIR", "./logs"),
		MaxSize:    env.GetEnvIntOrDefault("POCOPILOT_MAX_SIZE", 100),
		MaxBackups: env.GetEnvIntOrDefault("POCOPILOT_MAX_BACKUPS", 5),
		MaxAge:     env.GetEnvIntOrDefault("POCOPILOT_MAX_AGE", 30),
		Theme:      env.GetEnvOrDefault("POCOPILOT_THEME", "default"),
	}
}

// buildTelemetryShipper enables the log mirror when an index endpoint is
// configured. Returns nil when telemetry is off, which is the default.
func buildTelemetryShipper() *telemetry.Shipper {
	endpoint := env.GetEnvOrDefault("POCOPILOT_TELEMETRY_ENDPOINT", "")
	if endpoint == "" {
		return nil
	}

	return telemetry.NewShipper(telemetry.Config{
		Endpoint:  endpoint,
		Source:    env.GetEnvOrDefault("POCOPILOT_TELEMETRY_SOURCE", version.Name),
		QueueSize: env.GetEnvIntOrDefault("POCOPILOT_TELEMETRY_QUEUE", 0),
	})
}
