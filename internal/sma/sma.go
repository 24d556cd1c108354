package sma

import (
	"errors"
	"fmt"

	"sma-forecast/internal/model"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidWindow = errors.New("window size must be > 0")
	ErrEmptyInput    = errors.New("no price records")
)

// Aggregation is the result of ComputeSMA.
type Aggregation struct {
	WindowSize int
	// Averages holds one point per window, including a trailing short window.
	Averages []model.AggregatePoint
	// ClosingPrices holds the closes re-chunked by WindowSize.
	ClosingPrices [][]float64
}

// Chunk partitions data into consecutive groups of size. The last group may be
// shorter. The input slice is not modified and the groups do not alias it.
func Chunk[T any](data []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidWindow
	}
	n := len(data) / size
	if len(data)%size != 0 {
		n++
	}
	out := make([][]T, 0, n)
	for start := 0; start < len(data); {
		end := len(data)
		if size < end-start {
			end = start + size
		}
		group := make([]T, end-start)
		copy(group, data[start:end])
		out = append(out, group)
		start = end
	}
	return out, nil
}

// ComputeSMA reduces each window of windowSize records to its mean close.
// The representative date of a window is the date of its last record.
func ComputeSMA(records []model.PriceRecord, windowSize int) (Aggregation, error) {
	if windowSize <= 0 {
		return Aggregation{}, ErrInvalidWindow
	}
	if len(records) == 0 {
		return Aggregation{}, ErrEmptyInput
	}
	windows, err := Chunk(records, windowSize)
	if err != nil {
		return Aggregation{}, err
	}

	agg := Aggregation{
		WindowSize: windowSize,
		Averages:   make([]model.AggregatePoint, 0, len(windows)),
	}
	closes := make([]float64, 0, len(records))
	for _, w := range windows {
		wc := model.Closes(w)
		closes = append(closes, wc...)
		agg.Averages = append(agg.Averages, model.AggregatePoint{
			Average: floats.Sum(wc) / float64(len(wc)),
			Date:    w[len(w)-1].Date,
		})
	}
	agg.ClosingPrices, err = Chunk(closes, windowSize)
	if err != nil {
		return Aggregation{}, err
	}
	return agg, nil
}

// Pair is one supervised example: the raw closes of a window and their mean.
type Pair struct {
	Closes  []float64
	Average model.AggregatePoint
}

// FullWindows pairs every window with its average and drops the ones whose
// feature vector is not exactly WindowSize long.
func FullWindows(agg Aggregation) ([]Pair, error) {
	if len(agg.ClosingPrices) != len(agg.Averages) {
		return nil, fmt.Errorf("aggregation mismatch: %d windows, %d averages",
			len(agg.ClosingPrices), len(agg.Averages))
	}
	out := make([]Pair, 0, len(agg.Averages))
	for i, closes := range agg.ClosingPrices {
		if len(closes) != agg.WindowSize {
			continue
		}
		out = append(out, Pair{Closes: closes, Average: agg.Averages[i]})
	}
	return out, nil
}
