package foehnix

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Summary renders a textual model summary: observation accounting across the
// filter and missing values, the climatological foehn occurrence, the
// information criteria and the EM diagnostics. With detailed=true a t test of
// the component locations and the concomitant coefficient table are appended.
func (c *Classifier) Summary(detailed bool) (string, error) {
	if err := c.state.RequireFitted("foehnix.Classifier", "Summary"); err != nil {
		return "", err
	}

	var sumNA, sumBad, sumGood int
	var probSum float64
	var occ int
	for i, f := range c.flag {
		switch {
		case math.IsNaN(f):
			sumNA++
		case f == 0:
			sumBad++
		default:
			sumGood++
		}
		if !math.IsNaN(f) {
			probSum += c.prob[i]
			if c.prob[i] >= 0.5 {
				occ++
			}
		}
	}
	n := len(c.flag)
	modelled := n - sumNA

	var b strings.Builder
	fmt.Fprintf(&b, "\nNumber of observations (total) %8d (%d due to inflation)\n", n, c.inflated)
	fmt.Fprintf(&b, "Removed due to missing values %9d (%3.1f percent)\n", sumNA, pct(sumNA, n))
	fmt.Fprintf(&b, "Outside defined wind sector %11d (%3.1f percent)\n", sumBad, pct(sumBad, n))
	fmt.Fprintf(&b, "Used for classification %15d (%3.1f percent)\n", sumGood, pct(sumGood, n))

	if modelled > 0 {
		fmt.Fprintf(&b, "\nClimatological foehn occurrence %.2f percent (on n = %d)\n",
			pct(occ, modelled), modelled)
		fmt.Fprintf(&b, "Mean foehn probability %.2f percent (on n = %d)\n",
			100*probSum/float64(modelled), modelled)
	}

	res := c.result
	fmt.Fprintf(&b, "\nLog-likelihood: %.1f, %.0f effective degrees of freedom\n", res.LogLik.Full, res.EDF)
	fmt.Fprintf(&b, "Corresponding AIC = %.1f, BIC = %.1f\n", res.AIC, res.BIC)
	status := "converged"
	if !res.Converged {
		status = "not converged"
	}
	fmt.Fprintf(&b, "Number of EM iterations %d/%d (%s)\n", res.Iterations, c.control.MaxitEM, status)
	if c.elapsed.Minutes() < 1 {
		fmt.Fprintf(&b, "Time required for model estimation: %.1f seconds\n", c.elapsed.Seconds())
	} else {
		fmt.Fprintf(&b, "Time required for model estimation: %.1f minutes\n", c.elapsed.Minutes())
	}

	if detailed {
		b.WriteString("\n------------------------------------------------------\n")
		b.WriteString("Components: t test of coefficients\n")
		fmt.Fprintf(&b, "%-16s %12s %12s %10s %10s\n", "", "Estimate", "Std. Error", "t value", "Pr(>|t|)")
		writeTRow(&b, "(Intercept).1", res.Theta.Mu1, c.muSE[0])
		writeTRow(&b, "(Intercept).2", res.Theta.Mu2, c.muSE[1])

		if res.CCModel != nil {
			b.WriteString("\n")
			b.WriteString(res.CCModel.Summary())
		}
	}
	return b.String(), nil
}

func pct(k, n int) float64 {
	if n == 0 {
		return 0
	}
	return 100 * float64(k) / float64(n)
}

func writeTRow(b *strings.Builder, name string, estimate, stdErr float64) {
	t := estimate / stdErr
	stdNormal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * stdNormal.CDF(-math.Abs(t))
	fmt.Fprintf(b, "%-16s %12.5f %12.5f %10.3f %10.3g\n", name, estimate, stdErr, t, p)
}
