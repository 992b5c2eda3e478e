package family

import (
	"math"
)

// logisticDist is the logistic base distribution, parameterized by location
// and scale.
type logisticDist struct{}

func (logisticDist) name() string { return "logistic" }

func (logisticDist) pdf(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	e := math.Exp(-math.Abs(z))
	return e / (sigma * (1 + e) * (1 + e))
}

func (logisticDist) logPDF(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	// -|z| - 2*log(1+exp(-|z|)) is stable for large |z|.
	return -math.Abs(z) - 2*math.Log1p(math.Exp(-math.Abs(z))) - math.Log(sigma)
}

func (logisticDist) cdf(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return 1 / (1 + math.Exp(-z))
}

// The standard deviation of a logistic distribution is sigma*pi/sqrt(3), so
// moment matching divides the weighted standard deviation by pi/sqrt(3).
func (logisticDist) scaleFromSD(sd float64) float64 {
	return sd * math.Sqrt(3) / math.Pi
}
