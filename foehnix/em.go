package foehnix

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/foehnix/foehngo/family"
	"github.com/foehnix/foehngo/iwls"
	"github.com/foehnix/foehngo/pkg/errors"
	"github.com/foehnix/foehngo/pkg/log"
	"github.com/foehnix/foehngo/preprocessing"
)

// Fit estimates the two-component mixture model on a complete-case predictor
// vector. A nil design fits the model without concomitants; otherwise the
// design rows must align with y and the concomitant model is refitted in
// every M-step.
//
// The EM loop accepts any log-likelihood change below the tolerance as
// convergence, including a decrease, unless Control.EnforceMonotone is set.
// Reaching the iteration cap returns the last iterate with Converged=false; a
// NaN log-likelihood is fatal.
func Fit(y []float64, design *preprocessing.DesignMatrix, ctrl *Control) (*FitResult, error) {
	if ctrl == nil {
		return nil, errors.NewValueError("foehnix.Fit", "control must not be nil; use NewControl")
	}
	n := len(y)
	if n == 0 {
		return nil, errors.NewModelError("foehnix.Fit", "empty predictor", errors.ErrEmptyData)
	}
	for _, v := range y {
		if math.IsNaN(v) {
			return nil, errors.NewValueError("foehnix.Fit", "predictor contains missing values; drop incomplete cases before fitting")
		}
	}
	if constant(y) {
		return nil, errors.NewModelError("foehnix.Fit", "predictor is constant, no mixture is identifiable", errors.ErrConstantColumn)
	}
	if ctrl.Truncated {
		for _, v := range y {
			if v < ctrl.Left || v > ctrl.Right {
				return nil, errors.NewValidationError("y", "observations outside the truncation points", v)
			}
		}
	}

	logger := ctrl.Logger.With(log.ModelNameKey, "foehnix", log.ComponentKey, "em")
	logger.Info("starting EM estimation",
		"family", ctrl.Family.Name(),
		log.SamplesKey, n,
		log.MaxIterKey, ctrl.MaxitEM,
	)

	if design == nil {
		return fitNoConcomitant(y, ctrl, logger)
	}

	r, _ := design.Dims()
	if r != n {
		return nil, errors.NewDimensionError("foehnix.Fit", n, r, 0)
	}
	if bad := design.ConstantColumns(); len(bad) > 0 {
		return nil, errors.NewModelError("foehnix.Fit",
			"constant concomitant column "+bad[0]+" makes the model non-identifiable",
			errors.ErrConstantColumn)
	}

	standardizedHere := false
	if ctrl.Standardize && !design.IsStandardized() {
		design.Standardize()
		standardizedHere = true
	}

	res, err := fitConcomitant(y, design, ctrl, logger)
	if err != nil {
		if standardizedHere {
			design.Destandardize()
		}
		return nil, err
	}

	if standardizedHere {
		// Report concomitant coefficients in original column units; the
		// coefficient path stays in fitting space.
		orig, err := design.DestandardizeCoefficients(res.CCModel.Beta)
		if err != nil {
			design.Destandardize()
			return nil, err
		}
		intercept := design.InterceptIndex()
		stdErr := make([]float64, len(res.CCModel.Coef))
		for j, coef := range res.CCModel.Coef {
			stdErr[j] = coef.StdError
			if j != intercept {
				stdErr[j] /= design.Scale[j]
			}
		}
		res.CCModel.Beta = orig
		res.CCModel.Coef = iwls.CoefficientTable(design.Columns(), orig, stdErr)
		design.Destandardize()
	}
	return res, nil
}

// initialSplit assigns each observation to a component by a hard threshold at
// the predictor mean. Component 2 is the foehn cluster: the larger values by
// default, the smaller ones with the switch flag.
func initialSplit(y []float64, switchComponents bool) []float64 {
	mean := stat.Mean(y, nil)
	z := make([]float64, len(y))
	for i, v := range y {
		if switchComponents {
			if v <= mean {
				z[i] = 1
			}
		} else {
			if v >= mean {
				z[i] = 1
			}
		}
	}
	return z
}

func constant(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}

func fitNoConcomitant(y []float64, ctrl *Control, logger log.Logger) (*FitResult, error) {
	fam := ctrl.Family
	n := len(y)

	z := initialSplit(y, ctrl.Switch)
	theta, err := fam.Theta(y, z, true)
	if err != nil {
		return nil, err
	}

	prior := make([]float64, n)
	fill(prior, stat.Mean(z, nil))
	post, err := fam.Posterior(y, prior, theta)
	if err != nil {
		return nil, err
	}

	var (
		llpath     []family.LogLik
		coefpath   []CoefSnapshot
		delta      = math.Inf(1)
		converged  = true
		stopReason string
		iter       = 0
	)
	for delta > ctrl.TolEM {
		if ctrl.MaxitEM > 0 && iter == ctrl.MaxitEM {
			converged = false
			stopReason = "maximum number of iterations reached"
			break
		}
		iter++

		// M-step: mixing probability and component parameters from the
		// current responsibilities.
		fill(prior, stat.Mean(post, nil))
		theta, err = fam.Theta(y, post, false)
		if err != nil {
			return nil, err
		}

		// E-step.
		post, err = fam.Posterior(y, prior, theta)
		if err != nil {
			return nil, err
		}

		ll, err := fam.LogLik(y, post, nil, theta)
		if err != nil {
			return nil, err
		}
		llpath = append(llpath, ll)
		coefpath = append(coefpath, CoefSnapshot{Theta: theta})

		if math.IsNaN(ll.Full) {
			return nil, errors.NewNumericalInstabilityError("EM log-likelihood", []float64{ll.Full}, iter)
		}
		if iter > 1 {
			delta = llpath[iter-1].Full - llpath[iter-2].Full
			if ctrl.EnforceMonotone && delta < 0 {
				converged = false
				stopReason = "log-likelihood decreased between iterations"
				logger.Warn("log-likelihood decreased, stopping",
					log.IterationKey, iter,
					log.DeltaKey, delta,
				)
				break
			}
		}
		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("EM iteration",
				log.IterationKey, iter,
				log.LogLikKey, ll.Full,
				log.DeltaKey, delta,
			)
		}
	}

	return finishFit(y, ctrl, logger, nil, nil, theta, prior, post, llpath, coefpath, converged, stopReason, iter)
}

func fitConcomitant(y []float64, design *preprocessing.DesignMatrix, ctrl *Control, logger log.Logger) (*FitResult, error) {
	fam := ctrl.Family
	_, p := design.Dims()

	iwlsOpts := func(warm *iwls.Model) []iwls.Option {
		opts := []iwls.Option{
			// Standardization is handled once for the whole fit, not per
			// IWLS call.
			iwls.WithStandardize(false),
			iwls.WithMaxIter(ctrl.MaxitIWLS),
			iwls.WithTol(ctrl.TolIWLS),
			iwls.WithLogger(ctrl.Logger),
		}
		if warm != nil {
			opts = append(opts, iwls.WithWarmStart(warm.Beta))
		}
		return opts
	}

	z := initialSplit(y, ctrl.Switch)
	theta, err := fam.Theta(y, z, true)
	if err != nil {
		return nil, err
	}
	ccmodel, err := iwls.Fit(design, z, iwlsOpts(nil)...)
	if err != nil {
		return nil, err
	}

	post, err := fam.Posterior(y, ccmodel.Fitted, theta)
	if err != nil {
		return nil, err
	}

	var (
		llpath     []family.LogLik
		coefpath   []CoefSnapshot
		delta      = math.Inf(1)
		converged  = true
		stopReason string
		iter       = 0
	)
	for delta > ctrl.TolEM {
		if ctrl.MaxitEM > 0 && iter == ctrl.MaxitEM {
			converged = false
			stopReason = "maximum number of iterations reached"
			break
		}
		iter++

		// M-step: component parameters and concomitant refit on the current
		// responsibilities, warm-started from the previous coefficients.
		theta, err = fam.Theta(y, post, false)
		if err != nil {
			return nil, err
		}
		ccmodel, err = iwls.Fit(design, post, iwlsOpts(ccmodel)...)
		if err != nil {
			return nil, err
		}

		// E-step.
		post, err = fam.Posterior(y, ccmodel.Fitted, theta)
		if err != nil {
			return nil, err
		}

		ll, err := fam.LogLik(y, post, ccmodel.Fitted, theta)
		if err != nil {
			return nil, err
		}
		llpath = append(llpath, ll)
		beta := make([]float64, p)
		for j := range beta {
			beta[j] = ccmodel.Beta.AtVec(j)
		}
		coefpath = append(coefpath, CoefSnapshot{Theta: theta, Concomitants: beta})

		if math.IsNaN(ll.Full) {
			return nil, errors.NewNumericalInstabilityError("EM log-likelihood", []float64{ll.Full}, iter)
		}
		if iter > 1 {
			delta = llpath[iter-1].Full - llpath[iter-2].Full
			if ctrl.EnforceMonotone && delta < 0 {
				converged = false
				stopReason = "log-likelihood decreased between iterations"
				logger.Warn("log-likelihood decreased, stopping",
					log.IterationKey, iter,
					log.DeltaKey, delta,
				)
				break
			}
		}
		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("EM iteration",
				log.IterationKey, iter,
				log.LogLikKey, ll.Full,
				log.DeltaKey, delta,
			)
		}
	}

	prior := append([]float64(nil), ccmodel.Fitted...)
	return finishFit(y, ctrl, logger, design, ccmodel, theta, prior, post, llpath, coefpath, converged, stopReason, iter)
}

// finishFit assembles the FitResult from the final EM state and emits the
// convergence diagnostics shared by both model variants.
func finishFit(
	y []float64,
	ctrl *Control,
	logger log.Logger,
	design *preprocessing.DesignMatrix,
	ccmodel *iwls.Model,
	theta family.Theta,
	prior, post []float64,
	llpath []family.LogLik,
	coefpath []CoefSnapshot,
	converged bool,
	stopReason string,
	iter int,
) (*FitResult, error) {
	if len(llpath) == 0 {
		return nil, errors.NewModelError("foehnix.Fit", "EM loop produced no iterations; increase maxit or lower tol", nil)
	}

	// The last iteration did not improve the likelihood; on convergence it is
	// dropped from the traces so the path ends at the accepted optimum.
	if converged && len(llpath) > 1 {
		llpath = llpath[:len(llpath)-1]
		coefpath = coefpath[:len(coefpath)-1]
	}
	ll := llpath[len(llpath)-1]

	n := len(y)
	edf := 4.0
	if ccmodel != nil {
		edf += ccmodel.EDF
	}

	res := &FitResult{
		Theta:      theta,
		Prob:       prior,
		Post:       post,
		LogLik:     ll,
		EDF:        edf,
		AIC:        -2*ll.Full + 2*edf,
		BIC:        -2*ll.Full + math.Log(float64(n))*edf,
		CCModel:    ccmodel,
		LogLikPath: llpath,
		CoefPath:   coefpath,
		Converged:  converged,
		Iterations: iter,
		N:          n,
	}
	if design != nil {
		res.ConcomitantNames = append([]string(nil), design.Columns()...)
	}

	if !converged {
		warning := errors.NewConvergenceWarning("foehnix EM", iter, stopReason)
		errors.Warn(warning)
		logger.Warn("EM did not converge",
			log.IterationKey, iter,
			log.MaxIterKey, ctrl.MaxitEM,
			log.LogLikKey, ll.Full,
			"reason", stopReason,
		)
	}
	// A fit that stops after a single iteration is suspect regardless of how
	// it stopped.
	if iter <= 1 {
		warning := errors.NewConvergenceWarning("foehnix EM", iter,
			"the EM algorithm stopped after a single iteration; inspect the data and tolerances")
		errors.Warn(warning)
		logger.Warn("EM stopped after a single iteration")
	}

	logger.Info("EM estimation finished",
		log.IterationKey, iter,
		log.ConvergedKey, converged,
		log.LogLikKey, ll.Full,
		"aic", res.AIC,
		"bic", res.BIC,
	)
	return res, nil
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}
