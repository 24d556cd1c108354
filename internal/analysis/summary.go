// Package analysis summarizes a price series.
package analysis

import (
	"math"
	"sort"

	"sma-forecast/internal/model"

	"gonum.org/v1/gonum/floats"
)

// SeriesSummary is a quick description of a daily close series.
type SeriesSummary struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Count int    `json:"count"`

	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Last float64 `json:"last"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// Return is last/first - 1.
	Return float64 `json:"return"`
	// MaxDrawdown is the largest peak-to-trough fall as a fraction of the peak.
	MaxDrawdown float64 `json:"max_drawdown"`
}

func Summarize(records []model.PriceRecord) SeriesSummary {
	s := SeriesSummary{}
	if len(records) == 0 {
		return s
	}
	closes := model.Closes(records)
	s.Count = len(closes)
	s.Start = records[0].Date
	s.End = records[len(records)-1].Date

	s.Min = floats.Min(closes)
	s.Max = floats.Max(closes)
	s.Mean = floats.Sum(closes) / float64(len(closes))
	s.Last = closes[len(closes)-1]
	if closes[0] != 0 {
		s.Return = s.Last/closes[0] - 1
	}
	s.MaxDrawdown = maxDrawdown(closes)

	sorted := append([]float64(nil), closes...)
	sort.Float64s(sorted)
	s.P05 = percentileSorted(sorted, 0.05)
	s.P95 = percentileSorted(sorted, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func maxDrawdown(closes []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			if dd := (peak - c) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
