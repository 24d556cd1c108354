package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sma-forecast/internal/model"
)

// ReadSnapshot reads a static price file and checks that it holds a JSON
// array. The bytes are returned as read so /data can serve them unmodified.
func ReadSnapshot(path string) ([]byte, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return raw, len(items), nil
}

// LoadPriceJSON reads a snapshot and decodes it into records.
func LoadPriceJSON(path string) ([]model.PriceRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(raw)
}

// DecodeRecords decodes a JSON array of price records.
func DecodeRecords(raw []byte) ([]model.PriceRecord, error) {
	var recs []model.PriceRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode price records: %w", err)
	}
	return recs, nil
}

// SaveSnapshot writes records as an indented JSON array.
func SaveSnapshot(records []model.PriceRecord, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
