package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"pressurecache/internal/cache"
	"pressurecache/internal/httpapi"
	"pressurecache/internal/logging"
	"pressurecache/internal/memory"
	"pressurecache/internal/stats"
	"pressurecache/pkg/config"
)

var (
	configPath = flag.String("config", "configs/pressurecache.yaml", "Path to configuration file")
	port       = flag.Int("port", 0, "Override the configured HTTP port")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Early error before logging is initialized
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// WORKERS env override, then cap scheduler parallelism to match.
	workers := cfg.Server.Workers
	if v := os.Getenv("WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			workers = parsed
		}
	}
	runtime.GOMAXPROCS(workers)

	logger, err := logging.InitializeFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx := logging.WithCorrelationID(context.Background(), logging.NewCorrelationID())
	logging.Info(ctx, logging.ComponentMain, logging.ActionStart, "pressurecache starting", map[string]interface{}{
		"config_file": *configPath,
		"bind_addr":   cfg.Server.BindAddr,
		"port":        cfg.Server.Port,
		"workers":     workers,
		"max_entries": cfg.Cache.MaxEntries,
	})

	var collector stats.Collector = stats.Noop{}
	if cfg.Metrics.Enabled {
		collector = stats.NewPrometheus(nil)
	}

	store := cache.NewStore()
	provider := memory.NewSystemProvider(store.Len)
	planner := cache.CapacityPlanner{
		MaxEntries:   cfg.Cache.MaxEntries,
		ThresholdPct: cfg.Eviction.MemoryThresholdPct,
	}
	evictor := cache.NewEvictor(store, planner, provider, collector)

	shutdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Background eviction loop, one tick per interval for the process
	// lifetime.
	go evictor.Run(shutdownCtx, cfg.Eviction.Interval)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.BindAddr, cfg.Server.Port),
		MaxKeyBytes:       cfg.Cache.MaxKeyBytes,
		MaxValueBytes:     cfg.Cache.MaxValueBytes,
		CriticalMemoryPct: cfg.Eviction.CriticalMemoryPct,
		EnableMetrics:     cfg.Metrics.Enabled,
	}, store, evictor, provider, collector)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		logging.Info(ctx, logging.ComponentMain, logging.ActionStop, "Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			// os.Exit skips deferred calls, so flush the async logger
			// explicitly or the fatal line never reaches its writers.
			logging.Fatal(ctx, logging.ComponentMain, logging.ActionStop, "HTTP server failed", err)
			logger.Close()
			os.Exit(1)
		}
	}

	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logging.Error(ctx, logging.ComponentMain, logging.ActionStop, "HTTP shutdown error", err)
	}

	logging.Info(ctx, logging.ComponentMain, logging.ActionStop, "pressurecache shutdown complete")
}
