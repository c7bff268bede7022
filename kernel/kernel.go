// Package kernel provides covariance functions for Gaussian-process models
// and the 1D inducing grids used by the variational model.
//
// Hyperparameters are log-parameterized for numerical conditioning: the
// optimizer works on unconstrained log values and the kernel exponentiates
// internally.
package kernel

// Bound is an inclusive box constraint on a log hyperparameter, enforced by
// the marginal-likelihood barrier during training.
type Bound struct {
	Min float64
	Max float64
}

// Kernel computes the covariance between input points.
type Kernel interface {
	// Cov returns the covariance between x and y.
	Cov(x, y []float64) float64

	// CovDHyper returns the covariance between x and y and fills deriv
	// with the partial derivatives with respect to each log
	// hyperparameter. len(deriv) must equal NumHyper.
	CovDHyper(x, y, deriv []float64) float64

	// Hyper stores the log hyperparameters into h, allocating when h is
	// nil, and returns it.
	Hyper(h []float64) []float64

	// SetHyper sets the log hyperparameters.
	SetHyper(h []float64)

	// NumHyper returns the number of hyperparameters.
	NumHyper() int

	// Bounds returns box constraints on the log hyperparameters.
	Bounds() []Bound
}
