package regress

import "math"

type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
}

func newAdam(lr float64) *adam {
	if lr == 0 {
		lr = DefaultLearningRate
	}
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7}
}

// step advances the shared timestep. Call once per mini-batch.
func (a *adam) step() { a.t++ }

func (a *adam) apply(params, grads, m, v []float64) {
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i := range params {
		g := grads[i]
		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
		params[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
	}
}
