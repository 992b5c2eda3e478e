package foehnix

import (
	"github.com/foehnix/foehngo/family"
	"github.com/foehnix/foehngo/iwls"
)

// CoefSnapshot records the model coefficients after one EM iteration.
// Concomitant coefficients are kept in the space the model was fitted in,
// i.e. standardized units when standardization is enabled.
type CoefSnapshot struct {
	Theta        family.Theta
	Concomitants []float64
}

// FitResult is the outcome of a mixture-model fit.
type FitResult struct {
	// Theta holds the final component location/scale parameters.
	Theta family.Theta

	// Prob holds the a-priori component-2 probabilities at the final
	// iterate: the fitted concomitant probabilities, or a constant vector
	// for a model without concomitants.
	Prob []float64

	// Post holds the posterior component-2 membership probabilities.
	Post []float64

	// LogLik is the final log-likelihood split into its component and
	// concomitant parts.
	LogLik family.LogLik

	// EDF is the effective degrees of freedom: four component parameters
	// plus one per concomitant coefficient.
	EDF float64

	// AIC and BIC are the information criteria at the final iterate.
	AIC float64
	BIC float64

	// CCModel is the fitted concomitant model, nil when the mixture has no
	// concomitants. Its coefficients are reported in original column units.
	CCModel *iwls.Model

	// ConcomitantNames holds the design column names of CCModel.
	ConcomitantNames []string

	// LogLikPath and CoefPath trace the EM iterations. On convergence the
	// final non-improving iteration is dropped from both.
	LogLikPath []family.LogLik
	CoefPath   []CoefSnapshot

	Converged  bool
	Iterations int

	// N is the number of observations the model was fitted on.
	N int
}
