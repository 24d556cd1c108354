// Package pipeline runs one variant end to end: load, aggregate, split,
// normalize, build, train, predict and render. Any failing stage ends the
// run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"sma-forecast/internal/analysis"
	"sma-forecast/internal/config"
	"sma-forecast/internal/data"
	"sma-forecast/internal/model"
	"sma-forecast/internal/regress"
	"sma-forecast/internal/render"
	"sma-forecast/internal/sma"

	"github.com/rs/zerolog"
)

type Stage string

const (
	StageLoad      Stage = "load"
	StageAggregate Stage = "aggregate"
	StageSplit     Stage = "split"
	StageNormalize Stage = "normalize"
	StageBuild     Stage = "build"
	StageTrain     Stage = "train"
	StagePredict   Stage = "predict"
	StageRender    Stage = "render"
)

// StageError names the stage a run stopped at.
type StageError struct {
	Variant string
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Variant, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrUnknownKind is returned for a variant kind the runner cannot build.
var ErrUnknownKind = errors.New("unknown variant kind")

// Runner wires the collaborators of a run.
type Runner struct {
	Loader    data.Loader
	Regressor regress.Regressor
	Sink      render.Sink
	Log       zerolog.Logger
	// Rand drives example shuffling. Nil uses the process-wide source.
	Rand *rand.Rand
}

// Result is what a finished run produced.
type Result struct {
	Variant     string
	Summary     analysis.SeriesSummary
	Chart       model.Chart
	Aggregation sma.Aggregation
	History     []regress.EpochLog
	Elapsed     time.Duration
}

// run carries the state of one variant through its stages.
type run struct {
	r       *Runner
	variant config.VariantConfig
	log     zerolog.Logger
	history []regress.EpochLog
}

// Run executes variant v. The returned error is a *StageError.
func (r *Runner) Run(ctx context.Context, v config.VariantConfig) (*Result, error) {
	start := time.Now()
	st := &run{
		r:       r,
		variant: v,
		log:     r.Log.With().Str("variant", v.Name).Str("kind", v.Kind).Logger(),
	}

	st.log.Info().Int("window_size", v.WindowSize).Msg("run started")

	records, err := r.Loader.LoadRecords(ctx)
	if err != nil {
		return nil, st.fail(StageLoad, err)
	}
	summary := analysis.Summarize(records)
	st.log.Info().
		Int("records", summary.Count).
		Str("start", summary.Start).
		Str("end", summary.End).
		Float64("min", summary.Min).
		Float64("max", summary.Max).
		Msg("loaded")

	agg, err := sma.ComputeSMA(records, v.WindowSize)
	if err != nil {
		return nil, st.fail(StageAggregate, err)
	}
	st.log.Info().Int("windows", len(agg.Averages)).Msg("aggregated")

	var chart model.Chart
	switch v.Kind {
	case "scatter":
		chart = ScatterChart(v.Name, agg)
	case "window":
		chart, err = st.window(ctx, agg)
	case "date":
		chart, err = st.date(ctx, agg)
	default:
		return nil, st.fail(StageBuild, fmt.Errorf("%w: %q", ErrUnknownKind, v.Kind))
	}
	if err != nil {
		return nil, err
	}

	if r.Sink != nil {
		if err := r.Sink.Render(ctx, chart); err != nil {
			return nil, st.fail(StageRender, err)
		}
	}

	elapsed := time.Since(start)
	st.log.Info().Dur("elapsed", elapsed).Msg("run finished")
	return &Result{
		Variant:     v.Name,
		Summary:     summary,
		Chart:       chart,
		Aggregation: agg,
		History:     st.history,
		Elapsed:     elapsed,
	}, nil
}

func (st *run) fail(stage Stage, err error) error {
	st.log.Error().Err(err).Str("stage", string(stage)).Msg("run failed")
	return &StageError{Variant: st.variant.Name, Stage: stage, Err: err}
}

func (st *run) fitConfig() regress.FitConfig {
	v := st.variant
	return regress.FitConfig{
		Hidden:       v.Hidden,
		BatchSize:    v.BatchSize,
		Epochs:       v.Epochs,
		LearningRate: v.LearningRate,
		Shuffle:      true,
		Seed:         v.Seed,
		OnEpoch: func(e regress.EpochLog) {
			st.history = append(st.history, e)
			st.log.Debug().Int("epoch", e.Epoch).Float64("loss", e.Loss).Float64("mse", e.MSE).Msg("epoch")
		},
	}
}

// train fits the model and logs the final loss. The caller releases it.
func (st *run) train(ctx context.Context, inputs [][]float64, labels []float64) (regress.Predictor, error) {
	if st.r.Regressor == nil {
		return nil, st.fail(StageBuild, errors.New("no regressor configured"))
	}
	cfg := st.fitConfig()
	st.log.Info().Int("examples", len(inputs)).Int("epochs", cfg.Epochs).Int("hidden_layers", len(cfg.Hidden)).Msg("training")
	m, err := st.r.Regressor.Fit(ctx, inputs, labels, cfg)
	if err != nil {
		return nil, st.fail(StageTrain, err)
	}
	if n := len(st.history); n > 0 {
		st.log.Info().Float64("loss", st.history[n-1].Loss).Msg("trained")
	}
	return m, nil
}
