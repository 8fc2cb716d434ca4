package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/huyhandes/pkgindexd/internal/config"
	"github.com/huyhandes/pkgindexd/internal/index"
	"github.com/huyhandes/pkgindexd/internal/logger"
	"github.com/huyhandes/pkgindexd/internal/server"
	"github.com/huyhandes/pkgindexd/internal/status"
)

func main() {
	// Environment supplies defaults, flags override.
	cfg := config.Load()
	pflag.StringVarP(&cfg.Host, "host", "o", cfg.Host, "host name or ip address to bind")
	pflag.StringVarP(&cfg.Port, "port", "p", cfg.Port, "port to bind")
	pflag.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "log level (DEBUG, INFO, WARN, ERROR)")
	pflag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console, json)")
	pflag.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "maximum concurrent connections, 0 for unlimited")
	pflag.DurationVar(&cfg.GracePeriod, "grace", cfg.GracePeriod, "shutdown grace period")
	pflag.StringVar(&cfg.StatusPort, "status-port", cfg.StatusPort, "port for the HTTP status listener, empty to disable")
	pflag.Parse()

	logger.Init(logger.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Color:  cfg.LogColor,
	})

	log.Info().
		Str("address", cfg.Addr()).
		Str("log_level", cfg.LogLevel).
		Int("max_conns", cfg.MaxConns).
		Dur("grace_period", cfg.GracePeriod).
		Msg("🚀 Starting package index server")

	store := index.NewStore()
	srv := server.New(cfg, store)

	if err := srv.Listen(); err != nil {
		log.Error().Err(err).Str("address", cfg.Addr()).Msg("Failed to bind")
		os.Exit(1)
	}

	var g errgroup.Group
	g.Go(srv.Serve)

	var statusListener *status.Listener
	if cfg.StatusPort != "" {
		statusListener = status.New(store, cfg.Host+":"+cfg.StatusPort)
		g.Go(statusListener.Run)
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Warn().Msg("⚠️  Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracePeriod)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if statusListener != nil {
		if err := statusListener.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Status listener forced to shutdown")
		}
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}

	counters := store.Counters()
	log.Info().
		Int("packages", store.Len()).
		Uint64("index_ok", counters.IndexOK).
		Uint64("remove_ok", counters.RemoveOK).
		Uint64("queries", counters.QueryHit+counters.QueryMiss).
		Msg("✅ Server stopped gracefully")
}
