// Package density provides the statistical core of chapkde.
//
// The package turns a scalar time-series sample into a probability-density
// characterization:
//
//   - [Sample]: ordered, finite observations of one series
//   - [EstimateBins]: Freedman-Diaconis, Scott, square-root and Rice bin counts
//   - [BuildHistogram]: equal-width count and density histograms
//   - [EstimateKDE]: Gaussian kernel density estimate on a fixed grid
//
// # Example
//
//	est, _ := density.EstimateBins(sample)
//	hist, _ := density.BuildHistogram(sample, est.FreedmanDiaconis)
//	kde, _ := density.EstimateKDE(sample, density.Silverman, density.DefaultGridPoints)
//
// # Errors
//
// All functions are pure. Degenerate input (fewer than two points, zero
// range, zero variance) is reported with [ErrDegenerateSample], possibly
// wrapped in an [EstimationError].
package density
