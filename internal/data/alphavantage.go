package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"sma-forecast/internal/metrics"
	"sma-forecast/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantageClient fetches daily series from the Alpha Vantage query API.
type AlphaVantageClient struct {
	APIKey  string
	client  *resty.Client
	cache   *QuoteCache
	metrics *metrics.Recorder
	log     zerolog.Logger
}

type AlphaVantageOptions struct {
	BaseURL string
	Timeout time.Duration
	Cache   *QuoteCache
	Metrics *metrics.Recorder
	Logger  *zerolog.Logger
}

// NewAlphaVantageClient creates a client. An empty BaseURL defaults to
// DefaultAlphaVantageURL.
func NewAlphaVantageClient(apiKey string, opts AlphaVantageOptions) *AlphaVantageClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAlphaVantageURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "application/json")

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &AlphaVantageClient{
		APIKey:  apiKey,
		client:  client,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		log:     log,
	}
}

// DailyParams selects a TIME_SERIES_DAILY query.
type DailyParams struct {
	Symbol     string // e.g. "SPY"
	OutputSize string // "full" (20+ years) or "compact" (last 100 days)
}

// QuoteError is a failed feed call. The provider reports most failures with
// HTTP 200 and a message field, so StatusCode is the upstream HTTP status and
// Code tells the cases apart.
type QuoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *QuoteError) Error() string {
	return e.Message
}

const (
	CodeMissingAPIKey = "MISSING_API_KEY"
	CodeUnreachable   = "UPSTREAM_UNREACHABLE"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeInvalidQuery  = "INVALID_QUERY"
	CodeRateLimited   = "RATE_LIMITED"
	CodeEmptySeries   = "EMPTY_SERIES"
	CodeBadPayload    = "BAD_PAYLOAD"
)

// DailyCloses fetches the daily series and flattens it into records sorted
// ascending by date, each carrying the parsed "4. close".
func (c *AlphaVantageClient) DailyCloses(ctx context.Context, params DailyParams) ([]model.PriceRecord, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, &QuoteError{Code: CodeMissingAPIKey, Message: "ALPHA_ADVANTAGE_KEY is not set"}
	}
	if params.Symbol == "" {
		return nil, &QuoteError{Code: CodeInvalidQuery, Message: "symbol is required"}
	}
	if params.OutputSize == "" {
		params.OutputSize = "full"
	}

	key := CacheKey(params)
	if c.cache != nil {
		cached, ok := c.cache.Get(key)
		c.metrics.RecordCache(ok)
		if ok {
			c.log.Debug().Str("symbol", params.Symbol).Int("records", len(cached)).Msg("quote cache hit")
			return cached, nil
		}
	}

	c.log.Info().Str("symbol", params.Symbol).Str("output_size", params.OutputSize).Msg("fetching daily series")
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY",
			"symbol":     params.Symbol,
			"outputsize": params.OutputSize,
			"apikey":     c.APIKey,
		}).
		Get("/query")
	duration := time.Since(start)
	c.metrics.RecordFetch("alphavantage", duration.Seconds())
	if err != nil {
		c.log.Error().Err(err).Dur("duration", duration).Msg("daily series request failed")
		return nil, c.fail(&QuoteError{Code: CodeUnreachable, Message: fmt.Sprintf("quote feed unreachable: %v", err)})
	}

	c.log.Info().Int("status", resp.StatusCode()).Dur("duration", duration).Str("symbol", params.Symbol).Msg("daily series response")

	if resp.StatusCode() != http.StatusOK {
		code := CodeUpstream
		if resp.StatusCode() == http.StatusTooManyRequests {
			code = CodeRateLimited
		}
		return nil, c.fail(&QuoteError{
			StatusCode: resp.StatusCode(),
			Code:       code,
			Message:    "quote feed returned " + resp.Status(),
		})
	}

	var body model.DailySeriesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, c.fail(&QuoteError{StatusCode: resp.StatusCode(), Code: CodeBadPayload, Message: fmt.Sprintf("failed to decode daily series: %v", err)})
	}

	records, err := FlattenDaily(body)
	if err != nil {
		if qe, ok := err.(*QuoteError); ok {
			qe.StatusCode = resp.StatusCode()
		}
		return nil, c.fail(err)
	}

	c.log.Info().Str("symbol", params.Symbol).Int("records", len(records)).Msg("daily series received")
	c.cache.Set(key, records)
	return records, nil
}

func (c *AlphaVantageClient) fail(err error) error {
	code := "UNKNOWN"
	if qe, ok := err.(*QuoteError); ok {
		code = qe.Code
	}
	c.metrics.RecordFetchError("alphavantage", code)
	c.log.Warn().Str("code", code).Err(err).Msg("daily series unavailable")
	return err
}

// FlattenDaily reshapes the provider's date-keyed object into a slice sorted
// ascending by date key.
func FlattenDaily(body model.DailySeriesResponse) ([]model.PriceRecord, error) {
	switch {
	case body.ErrorMessage != "":
		return nil, &QuoteError{Code: CodeInvalidQuery, Message: body.ErrorMessage}
	case body.Note != "":
		return nil, &QuoteError{Code: CodeRateLimited, Message: body.Note}
	case len(body.TimeSeries) == 0 && body.Information != "":
		return nil, &QuoteError{Code: CodeRateLimited, Message: body.Information}
	case len(body.TimeSeries) == 0:
		return nil, &QuoteError{Code: CodeEmptySeries, Message: "response has no \"Time Series (Daily)\""}
	}

	dates := make([]string, 0, len(body.TimeSeries))
	for d := range body.TimeSeries {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]model.PriceRecord, 0, len(dates))
	for _, d := range dates {
		bar := body.TimeSeries[d]
		closeV, err := model.ParseClose(bar.Close)
		if err != nil {
			return nil, &QuoteError{Code: CodeBadPayload, Message: fmt.Sprintf("%s: %v", d, err)}
		}
		out = append(out, model.PriceRecord{Date: d, Close: closeV})
	}
	return out, nil
}
