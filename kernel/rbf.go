package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

var _ Kernel = (*RBF)(nil)

// RBF is the isotropic squared exponential kernel
//
//	k(x, y) = s² exp(-r² / (2 l²))
//
// with r = |x - y|, signal variance s² = exp(2 LogVariance) and length
// scale l = exp(LogLength).
type RBF struct {
	LogVariance float64
	LogLength   float64
}

// NewRBF creates an RBF kernel with unit variance and unit length scale.
func NewRBF() *RBF {
	return &RBF{}
}

// NumHyper returns the number of hyperparameters.
func (k *RBF) NumHyper() int {
	return 2
}

// Cov returns the covariance between x and y.
func (k *RBF) Cov(x, y []float64) float64 {
	if len(x) != len(y) {
		panic("kernel: input length mismatch")
	}
	r := floats.Distance(x, y, 2)
	l := math.Exp(k.LogLength)
	return math.Exp(2*k.LogVariance - r*r/(2*l*l))
}

// CovDHyper returns the covariance and its derivatives with respect to
// (LogVariance, LogLength).
func (k *RBF) CovDHyper(x, y, deriv []float64) float64 {
	if len(deriv) != k.NumHyper() {
		panic("kernel: deriv length mismatch")
	}
	r := floats.Distance(x, y, 2)
	l := math.Exp(k.LogLength)
	q := r * r / (l * l)
	cov := math.Exp(2*k.LogVariance - q/2)

	// d cov / d log s = 2 cov; d cov / d log l = cov * r²/l².
	deriv[0] = 2 * cov
	deriv[1] = cov * q
	return cov
}

// Hyper stores the log hyperparameters into h and returns it.
func (k *RBF) Hyper(h []float64) []float64 {
	if h == nil {
		h = make([]float64, k.NumHyper())
	}
	if len(h) != k.NumHyper() {
		panic("kernel: hyperparameter length mismatch")
	}
	h[0] = k.LogVariance
	h[1] = k.LogLength
	return h
}

// SetHyper sets the log hyperparameters.
func (k *RBF) SetHyper(h []float64) {
	if len(h) != k.NumHyper() {
		panic("kernel: hyperparameter length mismatch")
	}
	k.LogVariance = h[0]
	k.LogLength = h[1]
}

// Bounds returns box constraints on the log hyperparameters.
func (k *RBF) Bounds() []Bound {
	return []Bound{
		{math.Log(0.01), math.Log(100)},
		{math.Log(0.001), math.Log(10)},
	}
}
