package foehnix

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/foehnix/foehngo/pkg/errors"
	"github.com/foehnix/foehngo/preprocessing"
	"github.com/foehnix/foehngo/timeseries"
)

// Return types accepted by Predict.
const (
	// ReturnResponse returns the foehn probability and flag series.
	ReturnResponse = "response"
	// ReturnAll additionally returns the two component densities and the
	// concomitant probability.
	ReturnAll = "all"
)

// Prediction is the foehn diagnosis for one data set.
type Prediction struct {
	Times []time.Time

	// Prob is the posterior foehn probability: zero where the wind filter
	// removed the observation, NaN where filter variables are missing.
	Prob []float64

	// Flag mirrors the filter decision: 1 modelled, 0 removed, NaN missing.
	Flag []float64

	// Density1, Density2 and CCProb are only populated for ReturnAll. They
	// are not masked by the filter.
	Density1 []float64
	Density2 []float64
	CCProb   []float64
}

// Predict performs the foehn diagnosis on new data with the fitted model
// parameters. A nil newdata predicts on the training data, e.g. for
// operational near-real-time diagnosis pass the latest observations.
//
// Unlike Fit, missing observations are allowed: rows with missing predictor
// or concomitant values get a missing probability instead of being dropped.
func (c *Classifier) Predict(newdata *timeseries.Table, returntype string) (*Prediction, error) {
	if returntype != ReturnResponse && returntype != ReturnAll {
		return nil, errors.NewValueError("foehnix.Classifier.Predict",
			`returntype must be "response" or "all"`)
	}
	if err := c.state.RequireFitted("foehnix.Classifier", "Predict"); err != nil {
		return nil, err
	}
	if newdata == nil {
		newdata = c.data
	}
	n := newdata.Len()

	y, ok := newdata.Column(c.predictor)
	if !ok {
		return nil, errors.NewValueError("foehnix.Classifier.Predict",
			"predictor column "+c.predictor+" not found in data")
	}

	prior, err := c.concomitantProbability(newdata, n)
	if err != nil {
		return nil, err
	}

	th := c.result.Theta
	fam := c.control.Family
	d1 := fam.Density(y, th.Mu1, th.SD1())
	d2 := fam.Density(y, th.Mu2, th.SD2())

	// Posterior with NaN pass-through: missing observations stay missing
	// instead of aborting the diagnosis.
	post := make([]float64, n)
	for i := range post {
		num := prior[i] * d2[i]
		den := num + (1-prior[i])*d1[i]
		if den == 0 {
			post[i] = prior[i]
			continue
		}
		post[i] = num / den
	}

	filterResult, err := c.filter(newdata)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{
		Times: newdata.Times(),
		Prob:  post,
		Flag:  make([]float64, n),
	}
	for i, st := range filterResult.Status {
		switch st {
		case timeseries.Good:
			pred.Flag[i] = 1
		case timeseries.Bad:
			pred.Prob[i] = 0
			pred.Flag[i] = 0
		case timeseries.Ugly:
			pred.Prob[i] = math.NaN()
			pred.Flag[i] = math.NaN()
		}
	}

	if returntype == ReturnAll {
		pred.Density1 = d1
		pred.Density2 = d2
		pred.CCProb = prior
	}
	return pred, nil
}

// concomitantProbability evaluates the fitted concomitant model on new data
// in original column units. Without concomitants the mean a-priori
// probability of the training fit is used for every row.
func (c *Classifier) concomitantProbability(newdata *timeseries.Table, n int) ([]float64, error) {
	prior := make([]float64, n)
	if c.result.CCModel == nil {
		mean := stat.Mean(c.result.Prob, nil)
		for i := range prior {
			prior[i] = mean
		}
		return prior, nil
	}

	beta := c.result.CCModel.Beta
	cols := make([][]float64, len(c.result.ConcomitantNames))
	for j, name := range c.result.ConcomitantNames {
		if name == preprocessing.InterceptColumn {
			continue
		}
		col, ok := newdata.Column(name)
		if !ok {
			return nil, errors.NewValueError("foehnix.Classifier.Predict",
				"concomitant column "+name+" not found in data")
		}
		cols[j] = col
	}

	for i := range prior {
		eta := 0.0
		for j := range c.result.ConcomitantNames {
			if cols[j] == nil {
				eta += beta.AtVec(j)
				continue
			}
			eta += beta.AtVec(j) * cols[j][i]
		}
		prior[i] = 1 / (1 + math.Exp(-eta))
	}
	return prior, nil
}
