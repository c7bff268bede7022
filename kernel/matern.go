package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

var _ Kernel = (*Matern52)(nil)

// Matern52 is the Matern kernel with smoothness 5/2
//
//	k(x, y) = s² (1 + a + a²/3) exp(-a),  a = √5 r / l
//
// a common default for physical data that is less smooth than the RBF
// assumes.
type Matern52 struct {
	LogVariance float64
	LogLength   float64
}

// NewMatern52 creates a Matern-5/2 kernel with unit variance and unit
// length scale.
func NewMatern52() *Matern52 {
	return &Matern52{}
}

// NumHyper returns the number of hyperparameters.
func (k *Matern52) NumHyper() int {
	return 2
}

// Cov returns the covariance between x and y.
func (k *Matern52) Cov(x, y []float64) float64 {
	if len(x) != len(y) {
		panic("kernel: input length mismatch")
	}
	r := floats.Distance(x, y, 2)
	a := math.Sqrt(5) * r / math.Exp(k.LogLength)
	s2 := math.Exp(2 * k.LogVariance)
	return s2 * (1 + a + a*a/3) * math.Exp(-a)
}

// CovDHyper returns the covariance and its derivatives with respect to
// (LogVariance, LogLength).
func (k *Matern52) CovDHyper(x, y, deriv []float64) float64 {
	if len(deriv) != k.NumHyper() {
		panic("kernel: deriv length mismatch")
	}
	r := floats.Distance(x, y, 2)
	a := math.Sqrt(5) * r / math.Exp(k.LogLength)
	s2 := math.Exp(2 * k.LogVariance)
	expNegA := math.Exp(-a)
	cov := s2 * (1 + a + a*a/3) * expNegA

	// da/d log l = -a, so d cov/d log l = s² exp(-a) a²(1+a)/3.
	deriv[0] = 2 * cov
	deriv[1] = s2 * expNegA * a * a * (1 + a) / 3
	return cov
}

// Hyper stores the log hyperparameters into h and returns it.
func (k *Matern52) Hyper(h []float64) []float64 {
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
func (k *Matern52) SetHyper(h []float64) {
	if len(h) != k.NumHyper() {
		panic("kernel: hyperparameter length mismatch")
	}
	k.LogVariance = h[0]
	k.LogLength = h[1]
}

// Bounds returns box constraints on the log hyperparameters.
func (k *Matern52) Bounds() []Bound {
	return []Bound{
		{math.Log(0.01), math.Log(100)},
		{math.Log(0.001), math.Log(10)},
	}
}
