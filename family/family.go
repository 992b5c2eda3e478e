// Package family provides the component density families of the
// two-component mixture model: Gaussian and logistic, each in a plain,
// censored or truncated variant. A family computes densities, posterior
// membership probabilities (E-step) and weighted location/scale estimates
// (M-step).
//
// The family is selected once at configuration time via New; there is no
// per-call dispatch on family names.
package family

import (
	"fmt"
	"math"

	"github.com/foehnix/foehngo/pkg/errors"
)

// Distribution selects the base distribution of the two mixture components.
type Distribution int

const (
	// Gaussian models both components as normal distributions.
	Gaussian Distribution = iota
	// Logistic models both components as logistic distributions.
	Logistic
)

// String returns the lower-case distribution name.
func (d Distribution) String() string {
	switch d {
	case Gaussian:
		return "gaussian"
	case Logistic:
		return "logistic"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// Theta holds the location and log-scale parameters of the two components.
// Component 2 is the foehn component by ordering convention (the component
// with the larger location, unless the switch flag inverts this). The scale
// is kept on log scale so it is strictly positive after exponentiation.
type Theta struct {
	Mu1    float64
	LogSD1 float64
	Mu2    float64
	LogSD2 float64
}

// SD1 returns the scale of component 1.
func (t Theta) SD1() float64 { return math.Exp(t.LogSD1) }

// SD2 returns the scale of component 2.
func (t Theta) SD2() float64 { return math.Exp(t.LogSD2) }

// Names returns the coefficient names in the order used by coefficient
// traces: mu1, logsd1, mu2, logsd2.
func (t Theta) Names() []string {
	return []string{"mu1", "logsd1", "mu2", "logsd2"}
}

// Values returns the coefficients in the same order as Names.
func (t Theta) Values() []float64 {
	return []float64{t.Mu1, t.LogSD1, t.Mu2, t.LogSD2}
}

// LogLik holds the three log-likelihood components tracked per EM iteration.
type LogLik struct {
	// Component is the weighted component-density log-likelihood.
	Component float64
	// Concomitant is the concomitant-model log-likelihood, zero when the
	// model has no concomitants.
	Concomitant float64
	// Full is the sum of the two.
	Full float64
}

// Family is the capability set of a component density family.
type Family interface {
	// Name returns a human-readable family name, e.g. "censored gaussian".
	Name() string

	// Density evaluates the (possibly censored or truncated) density of a
	// single component with the given location and scale at every y.
	Density(y []float64, mu, sigma float64) []float64

	// Theta computes the weighted location/scale parameters of both
	// components. weights are the component-2 responsibilities: a hard 0/1
	// split in init mode, continuous posteriors in update mode. Component 1
	// uses 1-weights. Censored and truncated variants account for the
	// bounds in both modes.
	Theta(y, weights []float64, init bool) (Theta, error)

	// Posterior computes P(component 2 | y_i) from the prior mixing
	// probabilities and the component parameters:
	//
	//	post_i = prior_i * d2(y_i) / (prior_i*d2(y_i) + (1-prior_i)*d1(y_i))
	//
	// If both densities underflow to exactly zero the posterior falls back
	// to the prior for that observation. A NaN or Inf density is a fatal
	// NumericalInstabilityError.
	Posterior(y, prior []float64, th Theta) ([]float64, error)

	// LogLik computes the component log-likelihood
	//
	//	sum(post*log(d2) + (1-post)*log(d1))
	//
	// and, when prior is non-nil, the concomitant log-likelihood
	//
	//	sum(post*log(prior) + (1-post)*log(1-prior)).
	//
	// A nil prior marks a model without concomitants; the concomitant term
	// is then zero.
	LogLik(y, post, prior []float64, th Theta) (LogLik, error)
}

// New constructs the family for the given distribution and bounds. Infinite
// left and right bounds select the plain variant; finite bounds select the
// censored variant, or the truncated variant when truncated is true.
func New(dist Distribution, left, right float64, truncated bool) (Family, error) {
	var d distribution
	switch dist {
	case Gaussian:
		d = gaussianDist{}
	case Logistic:
		d = logisticDist{}
	default:
		return nil, errors.NewValidationError("family", `must be "gaussian" or "logistic"`, dist)
	}

	bounded := !math.IsInf(left, -1) || !math.IsInf(right, 1)
	if bounded && left >= right {
		return nil, errors.NewValidationError("left", "must be smaller than right for censoring and truncation", left)
	}

	switch {
	case !bounded:
		return &plainFamily{d: d}, nil
	case truncated:
		return &truncatedFamily{d: d, left: left, right: right}, nil
	default:
		return &censoredFamily{d: d, left: left, right: right}, nil
	}
}

// distribution is the base density shared by the family variants.
type distribution interface {
	name() string
	pdf(x, mu, sigma float64) float64
	logPDF(x, mu, sigma float64) float64
	cdf(x, mu, sigma float64) float64
	// scaleFromSD converts a weighted standard deviation into the
	// distribution's scale parameter (moment matching).
	scaleFromSD(sd float64) float64
}

// weightedMoments returns the weighted mean and standard deviation of y.
func weightedMoments(y, w []float64) (mu, sd float64, err error) {
	var sumW, sumWY float64
	for i, v := range y {
		sumW += w[i]
		sumWY += w[i] * v
	}
	if sumW <= 0 {
		return 0, 0, errors.NewModelError("family.Theta", "component with zero total weight", nil)
	}
	mu = sumWY / sumW

	var sumWSq float64
	for i, v := range y {
		d := v - mu
		sumWSq += w[i] * d * d
	}
	sd = math.Sqrt(sumWSq / sumW)
	return mu, sd, nil
}

// momentTheta is the closed-form weighted estimate used by the plain
// families and as the optimizer start for the bounded ones.
func momentTheta(d distribution, y, weights []float64) (Theta, error) {
	n := len(y)
	w1 := make([]float64, n)
	for i, w := range weights {
		w1[i] = 1 - w
	}

	mu1, sd1, err := weightedMoments(y, w1)
	if err != nil {
		return Theta{}, err
	}
	mu2, sd2, err := weightedMoments(y, weights)
	if err != nil {
		return Theta{}, err
	}

	// Degenerate components get a floor instead of log(0).
	const minScale = 1e-6
	s1 := math.Max(d.scaleFromSD(sd1), minScale)
	s2 := math.Max(d.scaleFromSD(sd2), minScale)

	return Theta{
		Mu1:    mu1,
		LogSD1: math.Log(s1),
		Mu2:    mu2,
		LogSD2: math.Log(s2),
	}, nil
}

// posteriorVec implements the shared E-step given per-component density
// functions.
func posteriorVec(y, prior []float64, d1, d2 func(float64) float64) ([]float64, error) {
	if len(prior) != len(y) {
		return nil, errors.NewDimensionError("family.Posterior", len(y), len(prior), 0)
	}

	post := make([]float64, len(y))
	for i, v := range y {
		p := prior[i]
		dens1 := d1(v)
		dens2 := d2(v)
		if err := errors.CheckNumericalStability("component density", []float64{dens1, dens2}, 0); err != nil {
			return nil, err
		}

		num := p * dens2
		den := num + (1-p)*dens1
		if den == 0 {
			// Both densities underflowed; fall back to the prior.
			post[i] = p
			continue
		}
		post[i] = num / den
	}
	return post, nil
}

// loglikVec implements the shared log-likelihood bookkeeping given
// per-component log-density functions.
func loglikVec(y, post, prior []float64, ld1, ld2 func(float64) float64) (LogLik, error) {
	if len(post) != len(y) {
		return LogLik{}, errors.NewDimensionError("family.LogLik", len(y), len(post), 0)
	}
	if prior != nil && len(prior) != len(y) {
		return LogLik{}, errors.NewDimensionError("family.LogLik", len(y), len(prior), 0)
	}

	var component float64
	for i, v := range y {
		// 0*log(0) is treated as 0 so fully-assigned observations do not
		// poison the sum when the opposite density underflows.
		if post[i] > 0 {
			component += post[i] * ld2(v)
		}
		if post[i] < 1 {
			component += (1 - post[i]) * ld1(v)
		}
	}

	var concomitant float64
	if prior != nil {
		for i := range y {
			concomitant += post[i]*errors.StabilizeLog(prior[i]) +
				(1-post[i])*errors.StabilizeLog(1-prior[i])
		}
	}

	return LogLik{
		Component:   component,
		Concomitant: concomitant,
		Full:        component + concomitant,
	}, nil
}
