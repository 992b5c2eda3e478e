package family

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// gaussianDist is the normal base distribution, parameterized by mean and
// standard deviation.
type gaussianDist struct{}

func (gaussianDist) name() string { return "gaussian" }

func (gaussianDist) pdf(x, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.Prob(x)
}

func (gaussianDist) logPDF(x, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.LogProb(x)
}

func (gaussianDist) cdf(x, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.CDF(x)
}

// The scale parameter of a normal distribution is its standard deviation.
func (gaussianDist) scaleFromSD(sd float64) float64 { return sd }
