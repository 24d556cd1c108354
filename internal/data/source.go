package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sma-forecast/internal/metrics"
)

// Payload is a ready-to-send /data body.
type Payload struct {
	Body  []byte
	Count int
}

// Source produces the /data payload. Sources are stateless per request.
type Source interface {
	Name() string
	Load(ctx context.Context) (Payload, error)
}

// FileSource serves a static snapshot. The file is read on every request.
type FileSource struct {
	Path    string
	Metrics *metrics.Recorder
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(_ context.Context) (Payload, error) {
	start := time.Now()
	raw, n, err := ReadSnapshot(s.Path)
	s.Metrics.RecordFetch(s.Name(), time.Since(start).Seconds())
	if err != nil {
		s.Metrics.RecordFetchError(s.Name(), "SNAPSHOT")
		return Payload{}, err
	}
	return Payload{Body: raw, Count: n}, nil
}

// AlphaVantageSource serves the live daily feed reshaped into records.
type AlphaVantageSource struct {
	Client *AlphaVantageClient
	Params DailyParams
}

func (s *AlphaVantageSource) Name() string { return "alphavantage" }

func (s *AlphaVantageSource) Load(ctx context.Context) (Payload, error) {
	records, err := s.Client.DailyCloses(ctx, s.Params)
	if err != nil {
		return Payload{}, err
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to encode records: %w", err)
	}
	return Payload{Body: raw, Count: len(records)}, nil
}
