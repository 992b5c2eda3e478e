package family

import (
	"fmt"
	"math"
)

// plainFamily is the uncensored, untruncated variant.
type plainFamily struct {
	d distribution
}

func (f *plainFamily) Name() string { return f.d.name() }

func (f *plainFamily) Density(y []float64, mu, sigma float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = f.d.pdf(v, mu, sigma)
	}
	return out
}

func (f *plainFamily) Theta(y, weights []float64, init bool) (Theta, error) {
	// The weighted ML estimate coincides with the weighted moments for both
	// base distributions, in init mode and in update mode alike.
	return momentTheta(f.d, y, weights)
}

func (f *plainFamily) Posterior(y, prior []float64, th Theta) ([]float64, error) {
	d1 := func(v float64) float64 { return f.d.pdf(v, th.Mu1, th.SD1()) }
	d2 := func(v float64) float64 { return f.d.pdf(v, th.Mu2, th.SD2()) }
	return posteriorVec(y, prior, d1, d2)
}

func (f *plainFamily) LogLik(y, post, prior []float64, th Theta) (LogLik, error) {
	ld1 := func(v float64) float64 { return f.d.logPDF(v, th.Mu1, th.SD1()) }
	ld2 := func(v float64) float64 { return f.d.logPDF(v, th.Mu2, th.SD2()) }
	return loglikVec(y, post, prior, ld1, ld2)
}

// censoredFamily caps the recorded values at the bounds: observations at or
// beyond a bound carry the probability mass of the whole tail.
type censoredFamily struct {
	d           distribution
	left, right float64
}

func (f *censoredFamily) Name() string {
	return fmt.Sprintf("censored %s", f.d.name())
}

func (f *censoredFamily) density(v, mu, sigma float64) float64 {
	switch {
	case v <= f.left:
		return f.d.cdf(f.left, mu, sigma)
	case v >= f.right:
		return 1 - f.d.cdf(f.right, mu, sigma)
	default:
		return f.d.pdf(v, mu, sigma)
	}
}

func (f *censoredFamily) logDensity(v, mu, sigma float64) float64 {
	switch {
	case v <= f.left:
		return math.Log(f.d.cdf(f.left, mu, sigma))
	case v >= f.right:
		return math.Log(1 - f.d.cdf(f.right, mu, sigma))
	default:
		return f.d.logPDF(v, mu, sigma)
	}
}

func (f *censoredFamily) Density(y []float64, mu, sigma float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = f.density(v, mu, sigma)
	}
	return out
}

func (f *censoredFamily) Theta(y, weights []float64, init bool) (Theta, error) {
	return mlTheta(f.d, f.logDensity, y, weights)
}

func (f *censoredFamily) Posterior(y, prior []float64, th Theta) ([]float64, error) {
	d1 := func(v float64) float64 { return f.density(v, th.Mu1, th.SD1()) }
	d2 := func(v float64) float64 { return f.density(v, th.Mu2, th.SD2()) }
	return posteriorVec(y, prior, d1, d2)
}

func (f *censoredFamily) LogLik(y, post, prior []float64, th Theta) (LogLik, error) {
	ld1 := func(v float64) float64 { return f.logDensity(v, th.Mu1, th.SD1()) }
	ld2 := func(v float64) float64 { return f.logDensity(v, th.Mu2, th.SD2()) }
	return loglikVec(y, post, prior, ld1, ld2)
}

// truncatedFamily excludes the mass outside the bounds entirely; the density
// inside is renormalized and zero outside.
type truncatedFamily struct {
	d           distribution
	left, right float64
}

func (f *truncatedFamily) Name() string {
	return fmt.Sprintf("truncated %s", f.d.name())
}

func (f *truncatedFamily) norm(mu, sigma float64) float64 {
	return f.d.cdf(f.right, mu, sigma) - f.d.cdf(f.left, mu, sigma)
}

func (f *truncatedFamily) density(v, mu, sigma float64) float64 {
	if v < f.left || v > f.right {
		return 0
	}
	return f.d.pdf(v, mu, sigma) / f.norm(mu, sigma)
}

func (f *truncatedFamily) logDensity(v, mu, sigma float64) float64 {
	if v < f.left || v > f.right {
		return math.Inf(-1)
	}
	return f.d.logPDF(v, mu, sigma) - math.Log(f.norm(mu, sigma))
}

func (f *truncatedFamily) Density(y []float64, mu, sigma float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = f.density(v, mu, sigma)
	}
	return out
}

func (f *truncatedFamily) Theta(y, weights []float64, init bool) (Theta, error) {
	return mlTheta(f.d, f.logDensity, y, weights)
}

func (f *truncatedFamily) Posterior(y, prior []float64, th Theta) ([]float64, error) {
	d1 := func(v float64) float64 { return f.density(v, th.Mu1, th.SD1()) }
	d2 := func(v float64) float64 { return f.density(v, th.Mu2, th.SD2()) }
	return posteriorVec(y, prior, d1, d2)
}

func (f *truncatedFamily) LogLik(y, post, prior []float64, th Theta) (LogLik, error) {
	ld1 := func(v float64) float64 { return f.logDensity(v, th.Mu1, th.SD1()) }
	ld2 := func(v float64) float64 { return f.logDensity(v, th.Mu2, th.SD2()) }
	return loglikVec(y, post, prior, ld1, ld2)
}
