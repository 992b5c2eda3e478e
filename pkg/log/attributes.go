// Standard attribute keys for model fitting operations. Using these keys
// keeps log output consistent and filterable across packages.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "Foehnix", "IWLS".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "summary".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation,
	// e.g. "foehnix", "iwls", "family".
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of observations in the fit.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of design-matrix columns.
	FeaturesKey = "data.features"
)

// Optimization progress.
const (
	// IterationKey is the current iteration of an iterative solver.
	IterationKey = "opt.iteration"

	// MaxIterKey is the configured iteration cap (0 means unlimited).
	MaxIterKey = "opt.max_iter"

	// LogLikKey is the full log-likelihood of the current iteration.
	LogLikKey = "opt.loglik"

	// DeltaKey is the change of the convergence criterion between
	// iterations.
	DeltaKey = "opt.delta"

	// ConvergedKey reports whether the solver satisfied its tolerance.
	ConvergedKey = "opt.converged"
)

// Performance.
const (
	// DurationSecondsKey records the execution time of a fit in seconds.
	DurationSecondsKey = "perf.duration_seconds"
)
