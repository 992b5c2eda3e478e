// Package iwls fits weighted logistic regression by iteratively reweighted
// least squares (IWLS). The foehnix EM driver uses it to seed and refit the
// concomitant model; the response may be a hard 0/1 split or fractional
// responsibilities in [0,1].
package iwls

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/foehnix/foehngo/pkg/errors"
	"github.com/foehnix/foehngo/pkg/log"
	"github.com/foehnix/foehngo/preprocessing"
)

// Working weights are clipped away from zero so the weighted cross-product
// stays numerically invertible for near-separable data.
const minWeight = 1e-10

// Coefficient is one row of the fitted coefficient table.
type Coefficient struct {
	Name     string
	Estimate float64
	StdError float64
	ZValue   float64
	PValue   float64
}

// Model is the result of an IWLS fit.
type Model struct {
	// Beta holds the coefficients in the space the design was fitted in.
	// If the solver standardized internally, Beta is already transformed
	// back to original column units.
	Beta *mat.VecDense

	// Coef is the human-readable coefficient table aligned with the design
	// columns.
	Coef []Coefficient

	// Fitted holds the fitted probabilities sigmoid(X beta).
	Fitted []float64

	// LinearPredictor holds X beta.
	LinearPredictor []float64

	// LogLik is the Bernoulli log-likelihood at the final iterate.
	LogLik float64

	// EDF is the number of estimated coefficients.
	EDF float64

	Iterations int
	Converged  bool
}

type config struct {
	beta        *mat.VecDense
	standardize bool
	maxIter     int
	tol         float64
	logger      log.Logger
}

// Option configures an IWLS fit.
type Option func(*config)

// WithWarmStart seeds the solver with previous coefficients.
func WithWarmStart(beta *mat.VecDense) Option {
	return func(c *config) { c.beta = beta }
}

// WithStandardize controls internal standardization of the design. Disable
// it when the caller has standardized the design already. Default true.
func WithStandardize(standardize bool) Option {
	return func(c *config) { c.standardize = standardize }
}

// WithMaxIter sets the iteration cap. Zero means unlimited. Default 100.
func WithMaxIter(maxIter int) Option {
	return func(c *config) { c.maxIter = maxIter }
}

// WithTol sets the relative deviance-change tolerance. Default 1e-8.
func WithTol(tol float64) Option {
	return func(c *config) { c.tol = tol }
}

// WithLogger sets the logger. Default is silent.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Fit estimates logistic regression coefficients for the given design and
// response by Newton-Raphson/IWLS. The response must lie in [0,1] and have
// one entry per design row.
//
// Reaching the iteration cap is not fatal: the last iterate is returned with
// Converged=false and a ConvergenceWarning is emitted. A singular weighted
// cross-product matrix is fatal and returns ErrSingularMatrix.
func Fit(design *preprocessing.DesignMatrix, response []float64, opts ...Option) (*Model, error) {
	cfg := config{
		standardize: true,
		maxIter:     100,
		tol:         1e-8,
		logger:      log.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	n, p := design.Dims()
	if len(response) != n {
		return nil, errors.NewDimensionError("iwls.Fit", n, len(response), 0)
	}
	for _, z := range response {
		if z < 0 || z > 1 || math.IsNaN(z) {
			return nil, errors.NewValueError("iwls.Fit", "response values must lie in [0,1]")
		}
	}

	standardizedHere := false
	if cfg.standardize && !design.IsStandardized() {
		design.Standardize()
		standardizedHere = true
		defer design.Destandardize()
	}
	X := design.Values()

	beta := mat.NewVecDense(p, nil)
	if cfg.beta != nil {
		if cfg.beta.Len() != p {
			return nil, errors.NewDimensionError("iwls.Fit", p, cfg.beta.Len(), 1)
		}
		beta.CopyVec(cfg.beta)
	}

	logger := cfg.logger.With(log.ModelNameKey, "IWLS", log.ComponentKey, "iwls")
	eta := make([]float64, n)
	prob := make([]float64, n)
	w := make([]float64, n)

	deviance := math.Inf(1)
	converged := false
	iter := 0
	for {
		if cfg.maxIter > 0 && iter >= cfg.maxIter {
			break
		}
		iter++

		linearPredictor(X, beta, eta)
		for i := range eta {
			prob[i] = sigmoid(eta[i])
			w[i] = math.Max(prob[i]*(1-prob[i]), minWeight)
		}

		// Weighted least squares on the working response
		// z* = eta + (response - prob) / w, solved via QR on the
		// square-root-weighted design.
		sqw := mat.NewDense(n, p, nil)
		b := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			s := math.Sqrt(w[i])
			for j := 0; j < p; j++ {
				sqw.Set(i, j, s*X.At(i, j))
			}
			b.SetVec(i, s*(eta[i]+(response[i]-prob[i])/w[i]))
		}

		var qr mat.QR
		qr.Factorize(sqw)
		next := mat.NewDense(p, 1, nil)
		if err := qr.SolveTo(next, false, b); err != nil {
			return nil, errors.Wrap(errors.ErrSingularMatrix, "iwls.Fit: weighted design is not invertible")
		}
		for j := 0; j < p; j++ {
			beta.SetVec(j, next.At(j, 0))
		}

		linearPredictor(X, beta, eta)
		for i := range eta {
			prob[i] = sigmoid(eta[i])
		}
		newDeviance := -2 * bernoulliLogLik(response, prob)
		if err := errors.CheckScalar("iwls deviance", newDeviance, iter); err != nil {
			return nil, err
		}

		delta := math.Abs(deviance-newDeviance) / (math.Abs(newDeviance) + 1e-10)
		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("IWLS iteration",
				log.IterationKey, iter,
				"deviance", newDeviance,
				log.DeltaKey, delta,
			)
		}
		deviance = newDeviance
		if delta < cfg.tol {
			converged = true
			break
		}
	}

	if !converged {
		warning := errors.NewConvergenceWarning("IWLS", iter, "")
		errors.Warn(warning)
		logger.Warn("IWLS did not converge",
			log.IterationKey, iter,
			log.MaxIterKey, cfg.maxIter,
		)
	}

	model := &Model{
		Beta:            beta,
		Fitted:          append([]float64(nil), prob...),
		LinearPredictor: append([]float64(nil), eta...),
		LogLik:          bernoulliLogLik(response, prob),
		EDF:             float64(p),
		Iterations:      iter,
		Converged:       converged,
	}

	stdErr, seErr := standardErrors(X, w)
	if seErr != nil {
		return nil, seErr
	}

	if standardizedHere {
		// Report coefficients in original column units.
		orig, err := design.DestandardizeCoefficients(beta)
		if err != nil {
			return nil, err
		}
		model.Beta = orig
		// Fitted probabilities and the linear predictor are invariant under
		// the transform; only the coefficient scale changes.
		intercept := design.InterceptIndex()
		for j := 0; j < p; j++ {
			if j != intercept {
				stdErr[j] /= design.Scale[j]
			}
		}
	}

	model.Coef = CoefficientTable(design.Columns(), model.Beta, stdErr)
	return model, nil
}

func linearPredictor(X *mat.Dense, beta *mat.VecDense, eta []float64) {
	n, p := X.Dims()
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < p; j++ {
			s += X.At(i, j) * beta.AtVec(j)
		}
		eta[i] = s
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func bernoulliLogLik(response, prob []float64) float64 {
	var ll float64
	for i, z := range response {
		ll += z*errors.StabilizeLog(prob[i]) + (1-z)*errors.StabilizeLog(1-prob[i])
	}
	return ll
}

// standardErrors computes sqrt(diag((X'WX)^-1)).
func standardErrors(X *mat.Dense, w []float64) ([]float64, error) {
	n, p := X.Dims()

	xtwx := mat.NewDense(p, p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			var s float64
			for i := 0; i < n; i++ {
				s += w[i] * X.At(i, j) * X.At(i, k)
			}
			xtwx.Set(j, k, s)
			xtwx.Set(k, j, s)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(xtwx); err != nil {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "iwls: covariance of coefficients is not available")
	}

	se := make([]float64, p)
	for j := 0; j < p; j++ {
		se[j] = math.Sqrt(inv.At(j, j))
	}
	return se, nil
}

// CoefficientTable builds the coefficient table with two-sided z tests from
// estimates and their standard errors.
func CoefficientTable(names []string, beta *mat.VecDense, stdErr []float64) []Coefficient {
	stdNormal := distuv.Normal{Mu: 0, Sigma: 1}
	coef := make([]Coefficient, beta.Len())
	for j := range coef {
		est := beta.AtVec(j)
		se := stdErr[j]
		z := est / se
		coef[j] = Coefficient{
			Name:     names[j],
			Estimate: est,
			StdError: se,
			ZValue:   z,
			PValue:   2 * stdNormal.CDF(-math.Abs(z)),
		}
	}
	return coef
}
