package iwls

import (
	"fmt"
	"strings"
)

// Summary renders the coefficient table of the concomitant model.
func (m *Model) Summary() string {
	var sb strings.Builder
	sb.WriteString("Concomitant model: z test of coefficients\n")
	sb.WriteString(fmt.Sprintf("%-14s %12s %12s %9s %10s\n",
		"", "Estimate", "Std. Error", "z value", "Pr(>|z|)"))
	for _, c := range m.Coef {
		sb.WriteString(fmt.Sprintf("%-14s %12.5f %12.5f %9.3f %10.4g\n",
			c.Name, c.Estimate, c.StdError, c.ZValue, c.PValue))
	}
	status := "converged"
	if !m.Converged {
		status = "not converged"
	}
	sb.WriteString(fmt.Sprintf("Number of IWLS iterations %d (%s)\n", m.Iterations, status))
	sb.WriteString("Dispersion parameter for binomial family taken to be 1.\n")
	return sb.String()
}
