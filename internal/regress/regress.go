// Package regress declares small feed-forward regression models and fits
// them to normalized windows.
package regress

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Activation names a dense layer nonlinearity.
type Activation string

const (
	Sigmoid Activation = "sigmoid"
	ReLU    Activation = "relu"
	Tanh    Activation = "tanh"
	Linear  Activation = "linear"
)

func (a Activation) Valid() bool {
	switch a {
	case Sigmoid, ReLU, Tanh, Linear:
		return true
	}
	return false
}

func (a Activation) apply(z float64) float64 {
	switch a {
	case Sigmoid:
		return 1 / (1 + math.Exp(-z))
	case ReLU:
		return math.Max(0, z)
	case Tanh:
		return math.Tanh(z)
	default:
		return z
	}
}

// derivative is d activation / dz evaluated at the pre-activation z.
func (a Activation) derivative(z float64) float64 {
	switch a {
	case Sigmoid:
		s := 1 / (1 + math.Exp(-z))
		return s * (1 - s)
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case Tanh:
		t := math.Tanh(z)
		return 1 - t*t
	default:
		return 1
	}
}

// Layer is one hidden dense layer.
type Layer struct {
	Units      int        `yaml:"units" json:"units" validate:"gt=0"`
	Activation Activation `yaml:"activation" json:"activation" default:"sigmoid"`
}

// EpochLog is reported after every training epoch.
type EpochLog struct {
	Epoch int
	Loss  float64
	MSE   float64
}

// FitConfig holds the hyperparameters of one fit. Loss and metric are
// always mean squared error; the output is a single linear unit.
type FitConfig struct {
	Hidden       []Layer
	BatchSize    int
	Epochs       int
	LearningRate float64 // 0 uses the Adam default
	Shuffle      bool
	// Seed fixes weight init and batch order. 0 draws from the process source.
	Seed    int64
	OnEpoch func(EpochLog)
}

// DefaultLearningRate is Adam's customary step size.
const DefaultLearningRate = 0.001

var (
	ErrNoExamples     = errors.New("no training examples")
	ErrShapeMismatch  = errors.New("inputs and labels differ in length")
	ErrInvalidConfig  = errors.New("invalid fit config")
	ErrReleased       = errors.New("model released")
	ErrInputDimension = errors.New("input has wrong dimension")
)

// Predictor maps one normalized input vector to a normalized output.
type Predictor interface {
	Predict(input []float64) (float64, error)
	Release()
}

// Regressor fits a model. Implementations may block until training ends or
// ctx is done.
type Regressor interface {
	Fit(ctx context.Context, inputs [][]float64, labels []float64, cfg FitConfig) (Predictor, error)
}

func (c FitConfig) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs %d", ErrInvalidConfig, c.Epochs)
	}
	if c.LearningRate < 0 {
		return fmt.Errorf("%w: learning rate %v", ErrInvalidConfig, c.LearningRate)
	}
	for i, l := range c.Hidden {
		if l.Units <= 0 {
			return fmt.Errorf("%w: layer %d has %d units", ErrInvalidConfig, i, l.Units)
		}
		if !l.Activation.Valid() {
			return fmt.Errorf("%w: layer %d activation %q", ErrInvalidConfig, i, l.Activation)
		}
	}
	return nil
}

// PredictAll runs p over every row.
func PredictAll(p Predictor, inputs [][]float64) ([]float64, error) {
	out := make([]float64, len(inputs))
	for i, in := range inputs {
		v, err := p.Predict(in)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
