package data

import (
	"fmt"
	"time"

	"sma-forecast/internal/config"
	"sma-forecast/internal/metrics"

	"github.com/rs/zerolog"
)

// NewAlphaVantageFromConfig builds a feed client with its quote cache. The
// returned cache is nil when caching is disabled; callers Close it on exit.
func NewAlphaVantageFromConfig(cfg config.AlphaVantageConfig, rec *metrics.Recorder, log zerolog.Logger) (*AlphaVantageClient, *QuoteCache) {
	cache := NewQuoteCache(cfg.CacheTTL, cfg.CacheTTL/2)
	client := NewAlphaVantageClient(cfg.APIKey, AlphaVantageOptions{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Cache:   cache,
		Metrics: rec,
		Logger:  &log,
	})
	return client, cache
}

// NewSource builds the /data source selected by cfg.Type.
func NewSource(cfg config.SourceConfig, rec *metrics.Recorder, log zerolog.Logger) (Source, *QuoteCache, error) {
	switch cfg.Type {
	case "file", "":
		return &FileSource{Path: cfg.File, Metrics: rec}, nil, nil
	case "alphavantage":
		client, cache := NewAlphaVantageFromConfig(cfg.AlphaVantage, rec, log)
		return &AlphaVantageSource{
			Client: client,
			Params: DailyParams{Symbol: cfg.AlphaVantage.Symbol, OutputSize: cfg.AlphaVantage.OutputSize},
		}, cache, nil
	default:
		return nil, nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// NewLoader picks the pipeline's record loader: a local file when DataFile
// is set, otherwise the data server.
func NewLoader(cfg config.PipelineConfig) Loader {
	if cfg.DataFile != "" {
		return &FileLoader{Path: cfg.DataFile}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewHTTPLoader(cfg.DataURL, timeout)
}
