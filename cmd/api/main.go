package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sma-forecast/internal/api"
	"sma-forecast/internal/config"
	"sma-forecast/internal/data"
	"sma-forecast/internal/logging"
	"sma-forecast/internal/metrics"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var rec *metrics.Recorder
	if cfg.Server.Metrics {
		rec = metrics.New()
	}

	source, cache, err := data.NewSource(cfg.Source, rec, log)
	if err != nil {
		return err
	}
	defer cache.Close()

	if src, ok := source.(*data.FileSource); ok {
		if _, err := os.Stat(src.Path); err != nil {
			log.Warn().Err(err).Str("file", src.Path).Msg("snapshot not found, /data will fail until it exists")
		}
	}

	router := api.NewRouter(api.Deps{
		Config:  cfg,
		Source:  source,
		Metrics: rec,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("source", source.Name()).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
