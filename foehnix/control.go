// Package foehnix estimates two-component mixture models for automated foehn
// classification. The EM driver in this package couples a component density
// family (package family) with an IWLS logistic concomitant model (package
// iwls) and exposes a high-level classifier over timestamped data.
package foehnix

import (
	"math"

	"github.com/foehnix/foehngo/family"
	"github.com/foehnix/foehngo/pkg/errors"
	"github.com/foehnix/foehngo/pkg/log"
)

// Control bundles the configuration of a mixture-model fit. Create it with
// NewControl; the zero value is not usable.
type Control struct {
	// Family is the component density family, selected once here and never
	// dispatched on by name during fitting.
	Family family.Family

	// Switch inverts the component ordering convention. False (default)
	// assumes the component with the higher predictor values is the foehn
	// cluster; true assumes the lower one is.
	Switch bool

	// Left and Right are the censoring or truncation points.
	Left, Right float64

	// Truncated selects truncation instead of censoring. Only relevant
	// when Left or Right is finite.
	Truncated bool

	// Standardize controls standardization of the concomitant model matrix
	// before estimation. Recommended and on by default.
	Standardize bool

	// MaxitEM and MaxitIWLS cap the EM and IWLS iterations. Zero disables
	// the cap; the fit then runs until convergence, possibly forever.
	MaxitEM, MaxitIWLS int

	// TolEM and TolIWLS are the convergence tolerances of the two solvers.
	TolEM, TolIWLS float64

	// EnforceMonotone stops the EM loop with Converged=false when the
	// log-likelihood decreases between iterations. Off by default: the
	// historical behavior accepts any change below TolEM as convergence,
	// including a decrease.
	EnforceMonotone bool

	// ForceInflate overrides the guard against inflating an irregular time
	// series to more than twice its size.
	ForceInflate bool

	// Logger receives fit progress. Defaults to a silent logger.
	Logger log.Logger
}

// ControlOption configures a Control.
type ControlOption func(*Control)

// WithBounds sets the censoring or truncation points.
func WithBounds(left, right float64) ControlOption {
	return func(c *Control) {
		c.Left = left
		c.Right = right
	}
}

// WithTruncated switches from censoring to truncation.
func WithTruncated(truncated bool) ControlOption {
	return func(c *Control) { c.Truncated = truncated }
}

// WithStandardize controls concomitant-matrix standardization.
func WithStandardize(standardize bool) ControlOption {
	return func(c *Control) { c.Standardize = standardize }
}

// WithMaxIter sets the EM and IWLS iteration caps. Zero means unlimited.
func WithMaxIter(em, iwls int) ControlOption {
	return func(c *Control) {
		c.MaxitEM = em
		c.MaxitIWLS = iwls
	}
}

// WithTol sets the EM and IWLS convergence tolerances.
func WithTol(em, iwls float64) ControlOption {
	return func(c *Control) {
		c.TolEM = em
		c.TolIWLS = iwls
	}
}

// WithEnforceMonotone makes a log-likelihood decrease stop the EM loop as
// non-converged instead of counting as convergence.
func WithEnforceMonotone(enforce bool) ControlOption {
	return func(c *Control) { c.EnforceMonotone = enforce }
}

// WithForceInflate overrides the time-series inflation guard.
func WithForceInflate(force bool) ControlOption {
	return func(c *Control) { c.ForceInflate = force }
}

// WithLogger sets the fit logger.
func WithLogger(logger log.Logger) ControlOption {
	return func(c *Control) { c.Logger = logger }
}

// WithFamily injects a custom component density family, overriding the
// distribution/bounds selection.
func WithFamily(f family.Family) ControlOption {
	return func(c *Control) { c.Family = f }
}

// NewControl validates the configuration and selects the density family.
// All configuration errors surface here, before any data is touched.
func NewControl(dist family.Distribution, switchComponents bool, opts ...ControlOption) (*Control, error) {
	c := &Control{
		Switch:      switchComponents,
		Left:        math.Inf(-1),
		Right:       math.Inf(1),
		Standardize: true,
		MaxitEM:     100,
		MaxitIWLS:   100,
		TolEM:       1e-8,
		TolIWLS:     1e-8,
		Logger:      log.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.MaxitEM < 0 {
		return nil, errors.NewValidationError("maxit", "EM iteration limit must be >= 0", c.MaxitEM)
	}
	if c.MaxitIWLS < 0 {
		return nil, errors.NewValidationError("maxit", "IWLS iteration limit must be >= 0", c.MaxitIWLS)
	}
	if c.TolEM <= 0 || math.IsNaN(c.TolEM) {
		return nil, errors.NewValidationError("tol", "EM tolerance must be > 0", c.TolEM)
	}
	if c.TolIWLS <= 0 || math.IsNaN(c.TolIWLS) {
		return nil, errors.NewValidationError("tol", "IWLS tolerance must be > 0", c.TolIWLS)
	}

	if c.Family == nil {
		f, err := family.New(dist, c.Left, c.Right, c.Truncated)
		if err != nil {
			return nil, err
		}
		c.Family = f
	}

	if c.MaxitEM == 0 {
		c.Logger.Warn("iteration limit for the EM algorithm is turned off; a fit that fails to converge will run forever")
	}
	if c.MaxitIWLS == 0 {
		c.Logger.Warn("iteration limit for the IWLS solver is turned off; a fit that fails to converge will run forever")
	}

	return c, nil
}
