package data

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sma-forecast/internal/model"

	"github.com/go-resty/resty/v2"
)

// Loader yields the ordered price series a pipeline run starts from.
type Loader interface {
	LoadRecords(ctx context.Context) ([]model.PriceRecord, error)
}

// HTTPLoader reads GET {base}/data from the data server.
type HTTPLoader struct {
	client *resty.Client
}

func NewHTTPLoader(baseURL string, timeout time.Duration) *HTTPLoader {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPLoader{client: client}
}

func (l *HTTPLoader) LoadRecords(ctx context.Context) ([]model.PriceRecord, error) {
	resp, err := l.client.R().SetContext(ctx).Get("/data")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch /data: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("/data returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return DecodeRecords(resp.Body())
}

// FileLoader reads a snapshot directly, bypassing the server.
type FileLoader struct {
	Path string
}

func (l *FileLoader) LoadRecords(_ context.Context) ([]model.PriceRecord, error) {
	return LoadPriceJSON(l.Path)
}
