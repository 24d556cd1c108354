package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"sma-forecast/internal/model"
	"sma-forecast/internal/regress"
	"sma-forecast/internal/sma"
	"sma-forecast/internal/tensor"
)

const secondsPerDay = 24 * 60 * 60

// ScatterChart plots every closing price of a window against the window's
// average. No model is involved.
func ScatterChart(name string, agg sma.Aggregation) model.Chart {
	points := make([]model.Point, 0, len(agg.Averages)*agg.WindowSize)
	for i, avg := range agg.Averages {
		for _, c := range agg.ClosingPrices[i] {
			points = append(points, model.Point{X: c, Y: avg.Average, Label: avg.Date})
		}
	}
	return model.Chart{
		Title:  name + ": closing prices vs average",
		XLabel: "Historical Closing Prices",
		YLabel: "Average",
		Series: []model.Series{{Name: "S&P", Points: points}},
	}
}

// window predicts each held-out window's average from its raw closes.
// Bounds come from the training split only and are reused for the test split.
func (st *run) window(ctx context.Context, agg sma.Aggregation) (model.Chart, error) {
	v := st.variant
	pairs, err := sma.FullWindows(agg)
	if err != nil {
		return model.Chart{}, st.fail(StageAggregate, err)
	}

	examples := make([]tensor.Example, len(pairs))
	for i, p := range pairs {
		examples[i] = tensor.Example{Features: p.Closes, Label: p.Average.Average, Tag: p.Average.Date}
	}
	tensor.Shuffle(examples, st.r.Rand)

	trainSet, testSet, err := tensor.Split(examples, v.TrainFraction)
	if err != nil {
		return model.Chart{}, st.fail(StageSplit, err)
	}
	if len(testSet) == 0 {
		return model.Chart{}, st.fail(StageSplit, fmt.Errorf("no held-out windows out of %d", len(examples)))
	}
	st.log.Info().Int("train", len(trainSet)).Int("test", len(testSet)).Msg("split")

	norm, err := tensor.Normalize(trainSet)
	if err != nil {
		return model.Chart{}, st.fail(StageNormalize, err)
	}

	// Plot the held-out windows in date order.
	sort.SliceStable(testSet, func(i, j int) bool { return testSet[i].Tag < testSet[j].Tag })
	testInputs := make([][]float64, len(testSet))
	for i, ex := range testSet {
		testInputs[i] = ex.Features
	}
	testInputs = tensor.NormalizeRows(testInputs, norm.Input)

	m, err := st.train(ctx, norm.Inputs, norm.Labels)
	if err != nil {
		return model.Chart{}, err
	}
	defer m.Release()

	preds, err := regress.PredictAll(m, testInputs)
	if err != nil {
		return model.Chart{}, st.fail(StagePredict, err)
	}
	predicted := tensor.Denormalize(preds, norm.Label)

	original := make([]model.Point, len(testSet))
	forecast := make([]model.Point, len(testSet))
	offset := 0.0
	for i, ex := range testSet {
		original[i] = model.Point{X: offset, Y: ex.Label, Label: ex.Tag}
		forecast[i] = model.Point{X: offset, Y: predicted[i], Label: ex.Tag}
		offset += float64(v.WindowSize)
	}

	return model.Chart{
		Title:  v.Name + ": original vs predicted",
		XLabel: "Day",
		YLabel: "Average",
		Series: []model.Series{
			{Name: "original", Points: original},
			{Name: "predicted", Points: forecast},
		},
	}, nil
}

// date learns the average as a function of the window's date and predicts
// it over evenly spaced inputs across the normalized date range.
func (st *run) date(ctx context.Context, agg sma.Aggregation) (model.Chart, error) {
	v := st.variant
	if len(agg.Averages) == 0 {
		return model.Chart{}, st.fail(StageAggregate, sma.ErrEmptyInput)
	}

	examples := make([]tensor.Example, len(agg.Averages))
	original := make([]model.Point, len(agg.Averages))
	offset := 0.0
	for i, p := range agg.Averages {
		day, err := epochDay(p.Date)
		if err != nil {
			return model.Chart{}, st.fail(StageNormalize, fmt.Errorf("window %d: %w", i, err))
		}
		examples[i] = tensor.Example{Features: []float64{day}, Label: p.Average, Tag: p.Date}
		original[i] = model.Point{X: offset, Y: p.Average, Label: p.Date}
		offset += float64(v.WindowSize)
	}
	lastOffset := original[len(original)-1].X

	tensor.Shuffle(examples, st.r.Rand)
	norm, err := tensor.Normalize(examples)
	if err != nil {
		return model.Chart{}, st.fail(StageNormalize, err)
	}

	m, err := st.train(ctx, norm.Inputs, norm.Labels)
	if err != nil {
		return model.Chart{}, err
	}
	defer m.Release()

	n := v.Points
	if n <= 0 {
		n = len(examples)
	}
	xs, err := tensor.Linspace(0, 1, n)
	if err != nil {
		return model.Chart{}, st.fail(StagePredict, err)
	}
	preds, err := regress.PredictAll(m, tensor.Column(xs))
	if err != nil {
		return model.Chart{}, st.fail(StagePredict, err)
	}
	ys := tensor.Denormalize(preds, norm.Label)
	days := tensor.Denormalize(xs, norm.Input)

	forecast := make([]model.Point, n)
	for i := range xs {
		forecast[i] = model.Point{X: xs[i] * lastOffset, Y: ys[i], Label: dayLabel(days[i])}
	}

	return model.Chart{
		Title:  v.Name + ": original vs predicted",
		XLabel: "Day",
		YLabel: "Average",
		Series: []model.Series{
			{Name: "original", Points: original},
			{Name: "predicted", Points: forecast},
		},
	}, nil
}

var errNoDate = errors.New("record has no parseable date")

func epochDay(date string) (float64, error) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNoDate, date)
	}
	return float64(t.Unix()) / secondsPerDay, nil
}

func dayLabel(day float64) string {
	return time.Unix(int64(math.Round(day*secondsPerDay)), 0).UTC().Format(model.DateLayout)
}
