// Package tensor turns aggregated price windows into rectangular,
// [0,1]-scaled arrays and back.
package tensor

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmpty           = errors.New("no examples")
	ErrRaggedFeatures  = errors.New("feature vectors differ in length")
	ErrEmptyFeatures   = errors.New("feature vectors are empty")
	ErrDegenerateRange = errors.New("max equals min, cannot rescale")
)

// Example is one feature vector with its target.
type Example struct {
	Features []float64
	Label    float64
	// Tag carries the example's date through shuffling.
	Tag string
}

// Bounds are the scalars needed to undo a rescale.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NormalizedPair is a [0,1] view of a feature/label set.
// Input and Label bounds must be kept for as long as the model trained on
// Inputs/Labels is used.
type NormalizedPair struct {
	Inputs [][]float64
	Labels []float64
	Tags   []string
	Input  Bounds
	Label  Bounds
}

// Shuffle permutes examples in place. A nil rng uses the process-wide source.
func Shuffle(examples []Example, rng *rand.Rand) {
	swap := func(i, j int) { examples[i], examples[j] = examples[j], examples[i] }
	if rng == nil {
		rand.Shuffle(len(examples), swap)
		return
	}
	rng.Shuffle(len(examples), swap)
}

// Split cuts examples into a head of round(len*trainFraction) and the rest.
func Split(examples []Example, trainFraction float64) (train, test []Example, err error) {
	if trainFraction <= 0 || trainFraction > 1 {
		return nil, nil, fmt.Errorf("train fraction %v out of (0, 1]", trainFraction)
	}
	n := int(float64(len(examples))*trainFraction + 0.5)
	if n > len(examples) {
		n = len(examples)
	}
	return examples[:n], examples[n:], nil
}

// Normalize builds rectangular inputs and labels and rescales both to [0,1]
// using the global min and max of each.
func Normalize(examples []Example) (*NormalizedPair, error) {
	if len(examples) == 0 {
		return nil, ErrEmpty
	}
	width := len(examples[0].Features)
	if width == 0 {
		return nil, ErrEmptyFeatures
	}

	flat := make([]float64, 0, len(examples)*width)
	labels := make([]float64, len(examples))
	tags := make([]string, len(examples))
	for i, ex := range examples {
		if len(ex.Features) != width {
			return nil, fmt.Errorf("%w: example %d has %d, want %d", ErrRaggedFeatures, i, len(ex.Features), width)
		}
		flat = append(flat, ex.Features...)
		labels[i] = ex.Label
		tags[i] = ex.Tag
	}

	in, err := BoundsOf(flat)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	lb, err := BoundsOf(labels)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	scaled := NormalizeWith(flat, in)
	inputs := make([][]float64, len(examples))
	for i := range inputs {
		inputs[i] = scaled[i*width : (i+1)*width : (i+1)*width]
	}
	return &NormalizedPair{
		Inputs: inputs,
		Labels: NormalizeWith(labels, lb),
		Tags:   tags,
		Input:  in,
		Label:  lb,
	}, nil
}

// BoundsOf returns the min and max of values. It fails when they are equal.
func BoundsOf(values []float64) (Bounds, error) {
	if len(values) == 0 {
		return Bounds{}, ErrEmpty
	}
	b := Bounds{Min: floats.Min(values), Max: floats.Max(values)}
	if b.Max == b.Min {
		return Bounds{}, fmt.Errorf("%w (%v)", ErrDegenerateRange, b.Min)
	}
	return b, nil
}

// NormalizeWith rescales values with previously computed bounds.
// Values outside the bounds map outside [0,1].
func NormalizeWith(values []float64, b Bounds) []float64 {
	span := b.Max - b.Min
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - b.Min) / span
	}
	return out
}

// NormalizeRows applies NormalizeWith to every row.
func NormalizeRows(rows [][]float64, b Bounds) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = NormalizeWith(r, b)
	}
	return out
}

// Denormalize is the inverse of NormalizeWith.
func Denormalize(values []float64, b Bounds) []float64 {
	span := b.Max - b.Min
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*span + b.Min
	}
	return out
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, fmt.Errorf("linspace needs n >= 1, got %d", n)
	case n == 1:
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}

// Column reshapes a vector to [len][1].
func Column(values []float64) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		out[i] = []float64{v}
	}
	return out
}
