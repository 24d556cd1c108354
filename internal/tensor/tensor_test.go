package tensor

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"
)

func examples(rows ...[]float64) []Example {
	out := make([]Example, len(rows))
	for i, r := range rows {
		sum := 0.0
		for _, v := range r {
			sum += v
		}
		out[i] = Example{Features: r, Label: sum / float64(len(r))}
	}
	return out
}

func TestNormalizeRoundTrip(t *testing.T) {
	ex := examples([]float64{10, 20, 30}, []float64{5, 50, 25}, []float64{12, 13, 14})
	pair, err := Normalize(ex)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if pair.Input.Min != 5 || pair.Input.Max != 50 {
		t.Fatalf("input bounds = %+v", pair.Input)
	}
	for i, row := range pair.Inputs {
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("row %d value %v outside [0,1]", i, v)
			}
		}
		back := Denormalize(row, pair.Input)
		for j := range back {
			if math.Abs(back[j]-ex[i].Features[j]) > 1e-9 {
				t.Fatalf("round trip row %d col %d: %v != %v", i, j, back[j], ex[i].Features[j])
			}
		}
	}
	labels := Denormalize(pair.Labels, pair.Label)
	for i := range labels {
		if math.Abs(labels[i]-ex[i].Label) > 1e-9 {
			t.Fatalf("label %d: %v != %v", i, labels[i], ex[i].Label)
		}
	}
}

func TestNormalizeRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		values := make([]float64, 2+rng.Intn(30))
		for i := range values {
			values[i] = rng.NormFloat64() * 1000
		}
		b, err := BoundsOf(values)
		if err != nil {
			t.Fatalf("BoundsOf: %v", err)
		}
		back := Denormalize(NormalizeWith(values, b), b)
		for i := range values {
			if math.Abs(back[i]-values[i]) > 1e-9*math.Max(1, math.Abs(values[i])) {
				t.Fatalf("trial %d: %v != %v", trial, back[i], values[i])
			}
		}
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	_, err := Normalize(examples([]float64{3, 3}, []float64{3, 3}))
	if !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("expected ErrDegenerateRange, got %v", err)
	}
	// Inputs vary, labels do not.
	_, err = Normalize([]Example{{Features: []float64{1}, Label: 2}, {Features: []float64{3}, Label: 2}})
	if !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("expected ErrDegenerateRange for labels, got %v", err)
	}
}

func TestNormalizeRagged(t *testing.T) {
	_, err := Normalize(examples([]float64{1, 2}, []float64{3}))
	if !errors.Is(err, ErrRaggedFeatures) {
		t.Fatalf("expected ErrRaggedFeatures, got %v", err)
	}
	if _, err := Normalize(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Normalize([]Example{{Label: 1}}); !errors.Is(err, ErrEmptyFeatures) {
		t.Fatalf("expected ErrEmptyFeatures, got %v", err)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	ex := make([]Example, 40)
	for i := range ex {
		ex[i] = Example{Features: []float64{float64(i)}, Label: float64(i)}
	}
	Shuffle(ex, nil)
	labels := make([]float64, len(ex))
	for i, e := range ex {
		labels[i] = e.Label
		if e.Features[0] != e.Label {
			t.Fatalf("feature and label separated by shuffle")
		}
	}
	sort.Float64s(labels)
	for i, l := range labels {
		if l != float64(i) {
			t.Fatalf("shuffle lost or duplicated example: %v", labels)
		}
	}
}

func TestSplit(t *testing.T) {
	ex := examples([]float64{1}, []float64{2}, []float64{3}, []float64{4}, []float64{5})
	train, test, err := Split(ex, 0.8)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(train) != 4 || len(test) != 1 {
		t.Fatalf("split sizes %d/%d", len(train), len(test))
	}
	if _, _, err := Split(ex, 0); err == nil {
		t.Fatalf("expected error for zero fraction")
	}
}

func TestLinspace(t *testing.T) {
	got, err := Linspace(0, 1, 5)
	if err != nil {
		t.Fatalf("Linspace: %v", err)
	}
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Linspace = %v", got)
		}
	}
	if one, _ := Linspace(0.3, 1, 1); len(one) != 1 || one[0] != 0.3 {
		t.Fatalf("Linspace n=1 = %v", one)
	}
	if _, err := Linspace(0, 1, 0); err == nil {
		t.Fatalf("expected error for n=0")
	}
	col := Column(got)
	if len(col) != 5 || len(col[2]) != 1 || col[2][0] != 0.5 {
		t.Fatalf("Column = %v", col)
	}
}
