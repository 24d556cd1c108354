package regress

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected feed-forward regressor trained with mini-batch
// Adam on mean squared error.
type Dense struct{}

func NewDense() *Dense { return &Dense{} }

type denseLayer struct {
	w   *mat.Dense // in x out
	b   []float64
	act Activation

	mw, vw []float64
	mb, vb []float64
}

// Model is a trained Dense network.
type Model struct {
	inputs int
	layers []*denseLayer
}

func (d *Dense) Fit(ctx context.Context, inputs [][]float64, labels []float64, cfg FitConfig) (Predictor, error) {
	if len(inputs) == 0 {
		return nil, ErrNoExamples
	}
	if len(inputs) != len(labels) {
		return nil, fmt.Errorf("%w: %d inputs, %d labels", ErrShapeMismatch, len(inputs), len(labels))
	}
	width := len(inputs[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: empty input vector", ErrInputDimension)
	}
	for i, row := range inputs {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d, want %d", ErrInputDimension, i, len(row), width)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	m := newModel(width, cfg.Hidden, rng)
	opt := newAdam(cfg.LearningRate)

	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		lossSum := 0.0
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			x, y := gather(inputs, labels, order[start:end], width)
			opt.step()
			lossSum += m.trainBatch(x, y, opt) * float64(end-start)
		}
		loss := lossSum / float64(len(order))
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(EpochLog{Epoch: epoch, Loss: loss, MSE: loss})
		}
	}
	return m, nil
}

func gather(inputs [][]float64, labels []float64, idx []int, width int) (*mat.Dense, []float64) {
	data := make([]float64, 0, len(idx)*width)
	y := make([]float64, len(idx))
	for i, k := range idx {
		data = append(data, inputs[k]...)
		y[i] = labels[k]
	}
	return mat.NewDense(len(idx), width, data), y
}

func newModel(inputs int, hidden []Layer, rng *rand.Rand) *Model {
	m := &Model{inputs: inputs}
	in := inputs
	layers := append(append([]Layer(nil), hidden...), Layer{Units: 1, Activation: Linear})
	for _, l := range layers {
		// Glorot uniform
		limit := math.Sqrt(6 / float64(in+l.Units))
		w := make([]float64, in*l.Units)
		for i := range w {
			w[i] = (rng.Float64()*2 - 1) * limit
		}
		m.layers = append(m.layers, &denseLayer{
			w:   mat.NewDense(in, l.Units, w),
			b:   make([]float64, l.Units),
			act: l.Activation,
			mw:  make([]float64, len(w)),
			vw:  make([]float64, len(w)),
			mb:  make([]float64, l.Units),
			vb:  make([]float64, l.Units),
		})
		in = l.Units
	}
	return m
}

// forward returns the pre-activations of every layer and the activations,
// where acts[0] is x itself.
func (m *Model) forward(x *mat.Dense) (pre, acts []*mat.Dense) {
	acts = append(acts, x)
	a := x
	for _, l := range m.layers {
		z := &mat.Dense{}
		z.Mul(a, l.w)
		b := l.b
		z.Apply(func(_, j int, v float64) float64 { return v + b[j] }, z)
		out := &mat.Dense{}
		act := l.act
		out.Apply(func(_, _ int, v float64) float64 { return act.apply(v) }, z)
		pre = append(pre, z)
		acts = append(acts, out)
		a = out
	}
	return pre, acts
}

// trainBatch runs one forward/backward pass and applies an Adam step.
// It returns the batch MSE before the update.
func (m *Model) trainBatch(x *mat.Dense, y []float64, opt *adam) float64 {
	pre, acts := m.forward(x)
	rows, _ := x.Dims()
	out := acts[len(acts)-1]

	delta := mat.NewDense(rows, 1, nil)
	loss := 0.0
	for i := 0; i < rows; i++ {
		d := out.At(i, 0) - y[i]
		loss += d * d
		delta.Set(i, 0, 2*d/float64(rows))
	}
	loss /= float64(rows)

	for li := len(m.layers) - 1; li >= 0; li-- {
		l := m.layers[li]
		z := pre[li]
		act := l.act
		delta.Apply(func(i, j int, v float64) float64 { return v * act.derivative(z.At(i, j)) }, delta)

		gw := &mat.Dense{}
		gw.Mul(acts[li].T(), delta)
		gb := make([]float64, len(l.b))
		for i := 0; i < rows; i++ {
			for j := range gb {
				gb[j] += delta.At(i, j)
			}
		}

		var prev *mat.Dense
		if li > 0 {
			prev = &mat.Dense{}
			prev.Mul(delta, l.w.T())
		}

		opt.apply(l.w.RawMatrix().Data, gw.RawMatrix().Data, l.mw, l.vw)
		opt.apply(l.b, gb, l.mb, l.vb)
		delta = prev
	}
	return loss
}

// Predict runs one normalized input through the network.
func (m *Model) Predict(input []float64) (float64, error) {
	if m.layers == nil {
		return 0, ErrReleased
	}
	if len(input) != m.inputs {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInputDimension, len(input), m.inputs)
	}
	x := mat.NewDense(1, m.inputs, append([]float64(nil), input...))
	_, acts := m.forward(x)
	return acts[len(acts)-1].At(0, 0), nil
}

// Release drops the weights. The model cannot predict afterwards.
func (m *Model) Release() {
	m.layers = nil
}

// NumParams counts trainable weights and biases.
func (m *Model) NumParams() int {
	n := 0
	for _, l := range m.layers {
		r, c := l.w.Dims()
		n += r*c + len(l.b)
	}
	return n
}
