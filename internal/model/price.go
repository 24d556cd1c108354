package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of PriceRecord.Date and of the daily feed keys.
const DateLayout = "2006-01-02"

// PriceRecord is one daily close as served by GET /data.
//
// Snapshots written by spreadsheet exports store Close as a string
// ("1234.56"), the live feed stores it as a number. Both decode.
type PriceRecord struct {
	Date  string  `json:"Date,omitempty"`
	Close float64 `json:"Close"`
}

func (r *PriceRecord) UnmarshalJSON(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	out := PriceRecord{}
	if v, ok := lookup(fields, "Close"); ok {
		f, err := parseLooseFloat(v)
		if err != nil {
			return fmt.Errorf("close: %w", err)
		}
		out.Close = f
	}
	if v, ok := lookup(fields, "Date"); ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("date: %w", err)
		}
		out.Date = s
	}
	*r = out
	return nil
}

// lookup finds name in fields, preferring the exact key, then the lowercase
// key, then the first other case-insensitive match in key order.
func lookup(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := fields[name]; ok {
		return v, true
	}
	lower := strings.ToLower(name)
	if v, ok := fields[lower]; ok {
		return v, true
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return fields[keys[0]], true
}

// Time parses Date. Records without a date return the zero time and false.
func (r PriceRecord) Time() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseLooseFloat accepts a JSON number or a string holding one.
// Like parseFloat, leading numeric text is enough ("12.5 USD" -> 12.5).
func parseLooseFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing value")
	}
	if raw[0] != '"' {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, err
		}
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return ParseClose(s)
}

// ParseClose parses a textual price.
func ParseClose(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	end := 0
	for end < len(s) && strings.ContainsRune("+-.0123456789eE", rune(s[end])) {
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, nil
		}
		end--
	}
	return 0, fmt.Errorf("invalid price %q", s)
}

// Closes extracts the close column.
func Closes(records []PriceRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Close
	}
	return out
}
