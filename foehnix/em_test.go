package foehnix

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/foehnix/foehngo/family"
	"github.com/foehnix/foehngo/pkg/errors"
	"github.com/foehnix/foehngo/preprocessing"
)

// mixtureSample draws n observations from a two-component Gaussian mixture
// with component-2 probability p2.
func mixtureSample(rng *rand.Rand, n int, p2, mu1, sd1, mu2, sd2 float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		if rng.Float64() < p2 {
			y[i] = mu2 + sd2*rng.NormFloat64()
		} else {
			y[i] = mu1 + sd1*rng.NormFloat64()
		}
	}
	return y
}

func mustControl(t *testing.T, dist family.Distribution, switchComponents bool, opts ...ControlOption) *Control {
	t.Helper()
	ctrl, err := NewControl(dist, switchComponents, opts...)
	if err != nil {
		t.Fatalf("NewControl: %v", err)
	}
	return ctrl
}

func TestNewControlValidation(t *testing.T) {
	cases := []struct {
		name string
		opts []ControlOption
	}{
		{"negative EM iterations", []ControlOption{WithMaxIter(-1, 100)}},
		{"negative IWLS iterations", []ControlOption{WithMaxIter(100, -5)}},
		{"zero EM tolerance", []ControlOption{WithTol(0, 1e-8)}},
		{"negative IWLS tolerance", []ControlOption{WithTol(1e-8, -1)}},
		{"left bound above right", []ControlOption{WithBounds(5, 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewControl(family.Gaussian, false, tc.opts...); err == nil {
				t.Error("expected configuration error")
			}
		})
	}

	ctrl := mustControl(t, family.Gaussian, false)
	if ctrl.Family == nil {
		t.Fatal("family not selected")
	}
	if !ctrl.Standardize || ctrl.MaxitEM != 100 || ctrl.TolEM != 1e-8 {
		t.Error("unexpected defaults")
	}
}

func TestFitRecoversGaussianComponents(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	y := mixtureSample(rng, 10000, 0.3, 5, 1, 12, 2)

	res, err := Fit(y, nil, mustControl(t, family.Gaussian, false))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !res.Converged {
		t.Error("expected convergence on well-separated components")
	}

	th := res.Theta
	if math.Abs(th.Mu1-5) > 0.1 || math.Abs(th.SD1()-1) > 0.1 {
		t.Errorf("component 1 = (%v, %v), want (5, 1)", th.Mu1, th.SD1())
	}
	if math.Abs(th.Mu2-12) > 0.1 || math.Abs(th.SD2()-2) > 0.1 {
		t.Errorf("component 2 = (%v, %v), want (12, 2)", th.Mu2, th.SD2())
	}

	var mean float64
	for _, p := range res.Post {
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Fatalf("posterior %v outside [0,1]", p)
		}
		mean += p
	}
	mean /= float64(len(res.Post))
	if math.Abs(mean-0.3) > 0.05 {
		t.Errorf("mean posterior = %v, want 0.3 +- 0.05", mean)
	}

	if res.CCModel != nil {
		t.Error("no-concomitant fit must not carry a concomitant model")
	}
	if res.EDF != 4 {
		t.Errorf("EDF = %v, want 4", res.EDF)
	}
	wantAIC := -2*res.LogLik.Full + 2*res.EDF
	if math.Abs(res.AIC-wantAIC) > 1e-9 {
		t.Errorf("AIC = %v, want %v", res.AIC, wantAIC)
	}
	wantBIC := -2*res.LogLik.Full + math.Log(float64(res.N))*res.EDF
	if math.Abs(res.BIC-wantBIC) > 1e-9 {
		t.Errorf("BIC = %v, want %v", res.BIC, wantBIC)
	}
}

func TestFitSwitchSwapsComponents(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	y := mixtureSample(rng, 4000, 0.4, 0, 1, 6, 1.5)

	plain, err := Fit(y, nil, mustControl(t, family.Gaussian, false))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	switched, err := Fit(y, nil, mustControl(t, family.Gaussian, true))
	if err != nil {
		t.Fatalf("switched Fit: %v", err)
	}

	// The switch flag relabels the components; the mixture itself and hence
	// the likelihood and information criteria are unchanged.
	if math.Abs(plain.Theta.Mu1-switched.Theta.Mu2) > 1e-6 ||
		math.Abs(plain.Theta.Mu2-switched.Theta.Mu1) > 1e-6 {
		t.Errorf("switch did not swap locations: %+v vs %+v", plain.Theta, switched.Theta)
	}
	if math.Abs(plain.LogLik.Full-switched.LogLik.Full) > 1e-6 {
		t.Errorf("loglik changed under switch: %v vs %v", plain.LogLik.Full, switched.LogLik.Full)
	}
	if math.Abs(plain.AIC-switched.AIC) > 1e-6 || math.Abs(plain.BIC-switched.BIC) > 1e-6 {
		t.Error("information criteria changed under switch")
	}

	for i := range plain.Post {
		if math.Abs(plain.Post[i]-(1-switched.Post[i])) > 1e-6 {
			t.Fatalf("posterior %d not mirrored under switch", i)
		}
	}
}

// scriptedFamily plays back a predefined log-likelihood sequence, one value
// per EM iteration, with inert parameter and posterior updates. It pins down
// the driver's reaction to a likelihood decrease without depending on data.
type scriptedFamily struct {
	lls  []float64
	next int
}

func (f *scriptedFamily) Name() string { return "scripted" }

func (f *scriptedFamily) Density(y []float64, mu, sigma float64) []float64 {
	out := make([]float64, len(y))
	for i := range out {
		out[i] = 1
	}
	return out
}

func (f *scriptedFamily) Theta(y, weights []float64, init bool) (family.Theta, error) {
	return family.Theta{Mu2: 1}, nil
}

func (f *scriptedFamily) Posterior(y, prior []float64, th family.Theta) ([]float64, error) {
	return append([]float64(nil), prior...), nil
}

func (f *scriptedFamily) LogLik(y, post, prior []float64, th family.Theta) (family.LogLik, error) {
	ll := f.lls[f.next]
	if f.next < len(f.lls)-1 {
		f.next++
	}
	return family.LogLik{Component: ll, Full: ll}, nil
}

func TestFitEnforceMonotoneStopsOnDecrease(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	y := []float64{1, 2, 3, 4, 5, 6}
	// Improves once, then decreases.
	lls := []float64{-100, -90, -95}

	strict := mustControl(t, family.Gaussian, false,
		WithFamily(&scriptedFamily{lls: lls}),
		WithEnforceMonotone(true),
	)
	res, err := Fit(y, nil, strict)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Converged {
		t.Error("a likelihood decrease must not count as convergence with monotonicity enforced")
	}
	if res.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", res.Iterations)
	}
	// Nothing is dropped from the traces on an early stop.
	if len(res.LogLikPath) != 3 || len(res.CoefPath) != 3 {
		t.Errorf("path lengths = %d/%d, want 3/3", len(res.LogLikPath), len(res.CoefPath))
	}
	if res.LogLik.Full != -95 {
		t.Errorf("final loglik = %v, want the decreased value -95", res.LogLik.Full)
	}

	found := false
	for _, w := range warnings {
		var conv *errors.ConvergenceWarning
		if errors.As(w, &conv) && strings.Contains(conv.Message, "decreased") {
			found = true
		}
	}
	if !found {
		t.Error("expected a ConvergenceWarning naming the likelihood decrease")
	}

	// By default the same decrease satisfies the one-sided convergence test.
	lenient := mustControl(t, family.Gaussian, false,
		WithFamily(&scriptedFamily{lls: lls}),
	)
	res, err = Fit(y, nil, lenient)
	if err != nil {
		t.Fatalf("lenient Fit: %v", err)
	}
	if !res.Converged {
		t.Error("historical behavior accepts a decrease below tolerance as convergence")
	}
	if len(res.LogLikPath) != 2 || res.LogLik.Full != -90 {
		t.Errorf("loglik path = %v entries ending at %v, want 2 ending at -90",
			len(res.LogLikPath), res.LogLik.Full)
	}
}

func TestFitIterationCap(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	rng := rand.New(rand.NewSource(3))
	y := mixtureSample(rng, 1000, 0.5, 0, 1, 4, 1)

	res, err := Fit(y, nil, mustControl(t, family.Gaussian, false, WithMaxIter(1, 100)))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Converged {
		t.Error("one EM iteration must not report convergence")
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", res.Iterations)
	}
	if len(res.LogLikPath) != 1 || len(res.CoefPath) != 1 {
		t.Errorf("path lengths = %d/%d, want 1/1", len(res.LogLikPath), len(res.CoefPath))
	}

	var capped, singleIteration bool
	for _, w := range warnings {
		var conv *errors.ConvergenceWarning
		if !errors.As(w, &conv) {
			continue
		}
		if strings.Contains(conv.Message, "maximum number of iterations") {
			capped = true
		}
		if strings.Contains(conv.Message, "single iteration") {
			singleIteration = true
		}
	}
	if !capped {
		t.Error("expected a ConvergenceWarning naming the iteration limit")
	}
	if !singleIteration {
		t.Error("expected a warning for the one-iteration fit")
	}
}

func TestFitInputValidation(t *testing.T) {
	ctrl := mustControl(t, family.Gaussian, false)

	if _, err := Fit(nil, nil, ctrl); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("empty predictor: got %v, want ErrEmptyData", err)
	}
	if _, err := Fit([]float64{1, math.NaN(), 3}, nil, ctrl); err == nil {
		t.Error("expected error for missing values")
	}
	if _, err := Fit([]float64{2, 2, 2, 2}, nil, ctrl); !errors.Is(err, errors.ErrConstantColumn) {
		t.Errorf("constant predictor: got %v, want ErrConstantColumn", err)
	}
	if _, err := Fit([]float64{1, 2, 3}, nil, nil); err == nil {
		t.Error("expected error for nil control")
	}

	trunc := mustControl(t, family.Gaussian, false, WithBounds(0, 10), WithTruncated(true))
	if _, err := Fit([]float64{1, 2, 15}, nil, trunc); err == nil {
		t.Error("expected error for observations outside the truncation points")
	}
}

func TestFitPathsEndAtAcceptedOptimum(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	y := mixtureSample(rng, 2000, 0.3, 0, 1, 5, 1)

	res, err := Fit(y, nil, mustControl(t, family.Gaussian, false))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(res.LogLikPath) == 0 || len(res.LogLikPath) != len(res.CoefPath) {
		t.Fatalf("path lengths = %d/%d", len(res.LogLikPath), len(res.CoefPath))
	}
	last := res.LogLikPath[len(res.LogLikPath)-1]
	if last.Full != res.LogLik.Full {
		t.Errorf("final loglik %v does not match path end %v", res.LogLik.Full, last.Full)
	}
	// On convergence the non-improving final iteration is dropped from the
	// traces.
	if !res.Converged {
		t.Fatal("expected convergence")
	}
	if len(res.LogLikPath) != res.Iterations-1 {
		t.Errorf("path length = %d, want %d", len(res.LogLikPath), res.Iterations-1)
	}
	for i := 1; i < len(res.LogLikPath); i++ {
		if res.LogLikPath[i].Full < res.LogLikPath[i-1].Full {
			t.Errorf("loglik decreased at iteration %d", i+1)
		}
	}
}

func TestFitWithConcomitants(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	n := 5000
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = rng.NormFloat64()
		p2 := 1 / (1 + math.Exp(-(-0.5 + 1.5*x[i])))
		if rng.Float64() < p2 {
			y[i] = 10 + 1.5*rng.NormFloat64()
		} else {
			y[i] = 2 + rng.NormFloat64()
		}
	}
	design, err := preprocessing.NewDesignWithIntercept([]string{"diff_t"}, [][]float64{x})
	if err != nil {
		t.Fatalf("NewDesignWithIntercept: %v", err)
	}

	res, err := Fit(y, design, mustControl(t, family.Gaussian, false))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.CCModel == nil {
		t.Fatal("expected a concomitant model")
	}
	if res.EDF != 6 {
		t.Errorf("EDF = %v, want 6 (4 component + 2 concomitant)", res.EDF)
	}
	if math.Abs(res.Theta.Mu1-2) > 0.2 || math.Abs(res.Theta.Mu2-10) > 0.2 {
		t.Errorf("locations = (%v, %v), want (2, 10)", res.Theta.Mu1, res.Theta.Mu2)
	}

	// Coefficients are reported in original column units; a strong positive
	// effect must survive destandardization.
	if got := res.CCModel.Coef[1].Name; got != "diff_t" {
		t.Fatalf("coefficient name = %q, want diff_t", got)
	}
	slope := res.CCModel.Coef[1].Estimate
	if math.Abs(slope-1.5) > 0.4 {
		t.Errorf("concomitant slope = %v, want 1.5 +- 0.4", slope)
	}
	if res.LogLik.Concomitant == 0 {
		t.Error("concomitant log-likelihood missing")
	}
	if math.Abs(res.LogLik.Full-(res.LogLik.Component+res.LogLik.Concomitant)) > 1e-9 {
		t.Error("full loglik is not the sum of its parts")
	}

	// The design must come back in original units.
	if design.IsStandardized() {
		t.Error("design left standardized after the fit")
	}
}

func TestFitConstantConcomitant(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	y := mixtureSample(rng, 200, 0.5, 0, 1, 5, 1)
	constCol := make([]float64, 200)
	for i := range constCol {
		constCol[i] = 3
	}
	design, err := preprocessing.NewDesignWithIntercept([]string{"c"}, [][]float64{constCol})
	if err != nil {
		t.Fatalf("NewDesignWithIntercept: %v", err)
	}

	_, err = Fit(y, design, mustControl(t, family.Gaussian, false))
	if !errors.Is(err, errors.ErrConstantColumn) {
		t.Errorf("got %v, want ErrConstantColumn", err)
	}
}
