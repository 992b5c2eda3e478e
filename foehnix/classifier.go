package foehnix

import (
	"math"
	"time"

	"github.com/foehnix/foehngo/core/model"
	"github.com/foehnix/foehngo/iwls"
	"github.com/foehnix/foehngo/pkg/errors"
	"github.com/foehnix/foehngo/pkg/log"
	"github.com/foehnix/foehngo/preprocessing"
	"github.com/foehnix/foehngo/timeseries"
)

// Classifier is the high-level foehn classification model over timestamped
// station data. It regularizes the time series, applies the wind filter,
// drops incomplete cases, fits the mixture model via Fit and reports a foehn
// probability and flag per timestamp.
//
// For each row of the (regularized) training data the flag is
//
//	1   used for classification, probability is the posterior
//	0   removed by the wind filter, probability is zero
//	NaN missing observations or filter variables, probability is missing
type Classifier struct {
	state *model.StateManager

	predictor    string
	concomitants []string
	filter       timeseries.Filter
	control      *Control
	logger       log.Logger

	data   *timeseries.Table
	result *FitResult

	prob     []float64
	flag     []float64
	muSE     [2]float64
	inflated int
	elapsed  time.Duration
}

// NewClassifier creates a classifier for the given predictor column and
// concomitant columns. A nil filter accepts every observation.
func NewClassifier(predictor string, concomitants []string, filter timeseries.Filter, ctrl *Control) (*Classifier, error) {
	if ctrl == nil {
		return nil, errors.NewValueError("foehnix.NewClassifier", "control must not be nil; use NewControl")
	}
	if predictor == "" {
		return nil, errors.NewValueError("foehnix.NewClassifier", "predictor column name must not be empty")
	}
	if filter == nil {
		filter = timeseries.AllGood()
	}
	return &Classifier{
		state:        model.NewStateManager(),
		predictor:    predictor,
		concomitants: append([]string(nil), concomitants...),
		filter:       filter,
		control:      ctrl,
		logger:       ctrl.Logger.With(log.ModelNameKey, "foehnix", log.ComponentKey, "classifier"),
	}, nil
}

// Fit runs the full classification pipeline on the given data: inflate to a
// strictly regular time grid, apply the wind filter, drop incomplete cases,
// estimate the mixture model and assemble the probability and flag series
// aligned with the regularized time index.
func (c *Classifier) Fit(data *timeseries.Table) error {
	start := time.Now()
	c.state.Reset()

	regular, inflated, err := data.Regularize(c.control.ForceInflate)
	if err != nil {
		return err
	}
	if inflated > 0 {
		c.logger.Info("inflated time series to a strictly regular grid",
			"inserted_rows", inflated,
			log.SamplesKey, regular.Len(),
		)
	}

	y, ok := regular.Column(c.predictor)
	if !ok {
		return errors.NewValueError("foehnix.Classifier.Fit", "predictor column "+c.predictor+" not found in data")
	}
	covariates := make([][]float64, len(c.concomitants))
	for j, name := range c.concomitants {
		col, ok := regular.Column(name)
		if !ok {
			return errors.NewValueError("foehnix.Classifier.Fit", "concomitant column "+name+" not found in data")
		}
		covariates[j] = col
	}

	filterResult, err := c.filter(regular)
	if err != nil {
		return err
	}

	// Good rows with complete observations enter the model.
	var take []int
	for i := 0; i < regular.Len(); i++ {
		if filterResult.Status[i] != timeseries.Good {
			continue
		}
		if math.IsNaN(y[i]) {
			continue
		}
		complete := true
		for _, cov := range covariates {
			if math.IsNaN(cov[i]) {
				complete = false
				break
			}
		}
		if complete {
			take = append(take, i)
		}
	}
	if len(take) == 0 {
		return errors.NewModelError("foehnix.Classifier.Fit",
			"no complete observations left after filtering", errors.ErrEmptyData)
	}

	ySub := make([]float64, len(take))
	for k, i := range take {
		ySub[k] = y[i]
	}

	var design *preprocessing.DesignMatrix
	if len(c.concomitants) > 0 {
		covSub := make([][]float64, len(covariates))
		for j, cov := range covariates {
			sub := make([]float64, len(take))
			for k, i := range take {
				sub[k] = cov[i]
			}
			covSub[j] = sub
		}
		design, err = preprocessing.NewDesignWithIntercept(c.concomitants, covSub)
		if err != nil {
			return err
		}
	}

	result, err := Fit(ySub, design, c.control)
	if err != nil {
		return err
	}

	// Probability and flag series on the regularized index.
	prob := make([]float64, regular.Len())
	flag := make([]float64, regular.Len())
	for i := range prob {
		prob[i] = math.NaN()
		flag[i] = math.NaN()
	}
	for k, i := range take {
		prob[i] = result.Post[k]
		flag[i] = 1
	}
	for i, st := range filterResult.Status {
		if st == timeseries.Bad {
			prob[i] = 0
			flag[i] = 0
		}
	}

	c.data = regular
	c.result = result
	c.prob = prob
	c.flag = flag
	c.muSE = componentMeanSE(ySub, result.Post, result.Theta.Mu1, result.Theta.Mu2)
	c.inflated = inflated
	c.elapsed = time.Since(start)

	c.state.SetDimensions(len(c.concomitants), len(take))
	c.state.SetFitted()

	c.logger.Info("classification model fitted",
		log.SamplesKey, len(take),
		log.FeaturesKey, len(c.concomitants),
		log.ConvergedKey, result.Converged,
		log.DurationSecondsKey, c.elapsed.Seconds(),
	)
	return nil
}

// componentMeanSE computes the weighted standard errors of the two component
// locations from the posterior responsibilities.
func componentMeanSE(y, post []float64, mu1, mu2 float64) [2]float64 {
	var ss1, ss2, sum1, sum2, sq1, sq2 float64
	for i, v := range y {
		w2 := post[i]
		w1 := 1 - w2
		r1 := (v - mu1) * w1
		r2 := (v - mu2) * w2
		ss1 += r1 * r1
		ss2 += r2 * r2
		sum1 += w1
		sum2 += w2
		sq1 += w1 * w1
		sq2 += w2 * w2
	}
	return [2]float64{
		math.Sqrt(ss1 / (sq1 * (sum1 - 1))),
		math.Sqrt(ss2 / (sq2 * (sum2 - 1))),
	}
}

// Result returns the mixture-model fit, or an error if the classifier has not
// been fitted.
func (c *Classifier) Result() (*FitResult, error) {
	if err := c.state.RequireFitted("foehnix.Classifier", "Result"); err != nil {
		return nil, err
	}
	return c.result, nil
}

// Prob returns the foehn probability series aligned with Data.
func (c *Classifier) Prob() []float64 { return c.prob }

// Flag returns the flag series aligned with Data: 1 modelled, 0 removed by
// the filter, NaN missing.
func (c *Classifier) Flag() []float64 { return c.flag }

// Data returns the regularized training data.
func (c *Classifier) Data() *timeseries.Table { return c.data }

// Coef returns the concomitant coefficient table in original column units,
// or nil for a model without concomitants.
func (c *Classifier) Coef() []iwls.Coefficient {
	if c.result == nil || c.result.CCModel == nil {
		return nil
	}
	return c.result.CCModel.Coef
}

// MuSE returns the weighted standard errors of the two component locations.
func (c *Classifier) MuSE() (mu1SE, mu2SE float64) {
	return c.muSE[0], c.muSE[1]
}

// Inflated returns the number of rows inserted by time-series regularization.
func (c *Classifier) Inflated() int { return c.inflated }

// FitDuration returns the wall-clock duration of the last Fit call.
func (c *Classifier) FitDuration() time.Duration { return c.elapsed }
