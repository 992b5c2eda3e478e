// Package foehngo provides automated probabilistic foehn wind classification
// based on a two-component mixture model estimated with the EM algorithm.
//
// A foehn is a warm, dry downslope wind. Given a time series of a predictor
// variable (typically wind speed or a potential temperature difference), the
// model assumes the observations are drawn from two latent regimes, foehn and
// no-foehn, and returns a posterior foehn probability for every observation.
// Optional covariates ("concomitants") modulate the prior mixing probability
// through a logistic regression fitted by iteratively reweighted least
// squares (IWLS) inside each EM iteration.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/foehnix/foehngo/family"
//	    "github.com/foehnix/foehngo/foehnix"
//	)
//
//	func main() {
//	    ctrl, err := foehnix.NewControl(family.Gaussian, false)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fit, err := foehnix.Fit(y, nil, ctrl)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("foehn probabilities:", fit.Post)
//	}
//
// # Packages
//
//   - family: component density families (Gaussian, logistic; censored and
//     truncated variants)
//   - iwls: weighted logistic regression solver for the concomitant model
//   - foehnix: the EM driver, the Control configuration object and the
//     high-level time-series classifier
//   - preprocessing: design-matrix standardization utilities
//   - timeseries: strictly-regular series inflation and wind-sector filters
//   - plots: diagnostic plots of the optimization paths
package foehngo
