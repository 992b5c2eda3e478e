// Package plots renders diagnostic plots for fitted foehn classification
// models: the log-likelihood path and coefficient path of the EM optimization
// and the classified probability time series.
package plots

import (
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/foehnix/foehngo/foehnix"
	"github.com/foehnix/foehngo/pkg/errors"
)

// LogLikPath plots the component, concomitant and full log-likelihood sums
// over the EM iterations.
func LogLikPath(res *foehnix.FitResult) (*plot.Plot, error) {
	if res == nil || len(res.LogLikPath) == 0 {
		return nil, errors.NewValueError("plots.LogLikPath", "no log-likelihood path; fit the model first")
	}

	component := make(plotter.XYs, len(res.LogLikPath))
	concomitant := make(plotter.XYs, len(res.LogLikPath))
	full := make(plotter.XYs, len(res.LogLikPath))
	for i, ll := range res.LogLikPath {
		x := float64(i + 1)
		component[i] = plotter.XY{X: x, Y: ll.Component}
		concomitant[i] = plotter.XY{X: x, Y: ll.Concomitant}
		full[i] = plotter.XY{X: x, Y: ll.Full}
	}

	p := plot.New()
	p.Title.Text = "EM log-likelihood path"
	p.X.Label.Text = "EM iteration"
	p.Y.Label.Text = "log-likelihood"
	if err := plotutil.AddLines(p,
		"component", component,
		"concomitant", concomitant,
		"full", full,
	); err != nil {
		return nil, errors.Wrap(err, "plots.LogLikPath")
	}
	p.Legend.Top = false
	return p, nil
}

// CoefPath plots the development of the component parameters (and, when
// present, the concomitant coefficients) over the EM iterations.
func CoefPath(res *foehnix.FitResult) (*plot.Plot, error) {
	if res == nil || len(res.CoefPath) == 0 {
		return nil, errors.NewValueError("plots.CoefPath", "no coefficient path; fit the model first")
	}

	names := res.CoefPath[0].Theta.Names()
	series := make([]interface{}, 0, 2*(len(names)+len(res.ConcomitantNames)))
	for j, name := range names {
		xys := make(plotter.XYs, len(res.CoefPath))
		for i, snap := range res.CoefPath {
			xys[i] = plotter.XY{X: float64(i + 1), Y: snap.Theta.Values()[j]}
		}
		series = append(series, name, xys)
	}
	for j, name := range res.ConcomitantNames {
		xys := make(plotter.XYs, len(res.CoefPath))
		for i, snap := range res.CoefPath {
			xys[i] = plotter.XY{X: float64(i + 1), Y: snap.Concomitants[j]}
		}
		series = append(series, "cc."+name, xys)
	}

	p := plot.New()
	p.Title.Text = "EM coefficient path"
	p.X.Label.Text = "EM iteration"
	p.Y.Label.Text = "coefficient"
	if err := plotutil.AddLines(p, series...); err != nil {
		return nil, errors.Wrap(err, "plots.CoefPath")
	}
	return p, nil
}

// Probability plots the classified foehn probability as a time series. Rows
// with missing probability are left out.
func Probability(times []time.Time, prob []float64) (*plot.Plot, error) {
	if len(times) != len(prob) {
		return nil, errors.NewDimensionError("plots.Probability", len(times), len(prob), 0)
	}
	if len(times) == 0 {
		return nil, errors.NewValueError("plots.Probability", "no observations to plot")
	}

	xys := make(plotter.XYs, 0, len(prob))
	for i, v := range prob {
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(times[i].Unix()), Y: v})
	}
	if len(xys) == 0 {
		return nil, errors.NewValueError("plots.Probability", "no observations to plot")
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, errors.Wrap(err, "plots.Probability")
	}

	p := plot.New()
	p.Title.Text = "Foehn probability"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "probability"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(line)
	return p, nil
}

// Save writes a plot to file; the format follows the file extension
// (png, pdf, svg, ...).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "plots.Save")
	}
	return nil
}
