package family

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/foehnix/foehngo/pkg/errors"
)

// mlTheta estimates the weighted maximum-likelihood location and log-scale of
// both components for a bounded-support (censored or truncated) log-density.
// Nelder-Mead is started from the closed-form moment estimate; the moment
// estimate ignores the bounds, the optimized one does not.
func mlTheta(d distribution, logDensity func(v, mu, sigma float64) float64, y, weights []float64) (Theta, error) {
	start, err := momentTheta(d, y, weights)
	if err != nil {
		return Theta{}, err
	}

	w1 := make([]float64, len(weights))
	for i, w := range weights {
		w1[i] = 1 - w
	}

	mu1, logsd1, err := optimizeComponent(logDensity, y, w1, start.Mu1, start.LogSD1)
	if err != nil {
		return Theta{}, err
	}
	mu2, logsd2, err := optimizeComponent(logDensity, y, weights, start.Mu2, start.LogSD2)
	if err != nil {
		return Theta{}, err
	}

	return Theta{Mu1: mu1, LogSD1: logsd1, Mu2: mu2, LogSD2: logsd2}, nil
}

// optimizeComponent minimizes the weighted negative log-likelihood of one
// component over (mu, logsd).
func optimizeComponent(logDensity func(v, mu, sigma float64) float64, y, w []float64, mu0, logsd0 float64) (mu, logsd float64, err error) {
	objective := func(x []float64) float64 {
		sigma := math.Exp(x[1])
		var nll float64
		for i, v := range y {
			if w[i] == 0 {
				continue
			}
			ld := logDensity(v, x[0], sigma)
			if math.IsNaN(ld) {
				return math.Inf(1)
			}
			nll -= w[i] * ld
		}
		if math.IsNaN(nll) {
			return math.Inf(1)
		}
		return nll
	}

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, []float64{mu0, logsd0}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, errors.NewModelError("family.Theta", "bounded-support ML estimation failed", err)
	}
	if math.IsInf(result.F, 1) {
		return 0, 0, errors.NewModelError("family.Theta", "bounded-support ML estimation diverged", nil)
	}
	return result.X[0], result.X[1], nil
}
