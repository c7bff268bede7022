// Package optim provides gradient-based optimizers and learning-rate
// schedules for the training loop. Models expose their learnable parameters
// as Param vectors; the loss computation fills the gradient buffers and the
// optimizer mutates the values in place.
package optim

import (
	"math"
)

// Param is one named learnable parameter vector paired with its gradient
// buffer. Value and Grad always have the same length.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

// NewParam creates a Param wrapping the given value slice. The value is NOT
// copied: the optimizer updates it in place.
func NewParam(name string, value []float64) *Param {
	return &Param{
		Name:  name,
		Value: value,
		Grad:  make([]float64, len(value)),
	}
}

// ZeroGrads clears the gradient buffers of all params.
func ZeroGrads(params []*Param) {
	for _, p := range params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// Optimizer applies one update step to a parameter group using the gradients
// accumulated in the Param buffers.
type Optimizer interface {
	// Step applies one update to params from their gradients.
	Step(params []*Param)

	// LearningRate returns the current learning rate.
	LearningRate() float64

	// SetLearningRate sets the learning rate. Used by schedulers.
	SetLearningRate(lr float64)
}

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	lr       float64
	momentum float64
	velocity map[*Param][]float64
}

// NewSGD creates an SGD optimizer. momentum of 0 disables the velocity term.
func NewSGD(lr, momentum float64) *SGD {
	return &SGD{
		lr:       lr,
		momentum: momentum,
		velocity: make(map[*Param][]float64),
	}
}

// Step implements Optimizer.
func (s *SGD) Step(params []*Param) {
	for _, p := range params {
		if s.momentum == 0 {
			for i := range p.Value {
				p.Value[i] -= s.lr * p.Grad[i]
			}
			continue
		}

		v, ok := s.velocity[p]
		if !ok {
			v = make([]float64, len(p.Value))
			s.velocity[p] = v
		}
		for i := range p.Value {
			v[i] = s.momentum*v[i] + p.Grad[i]
			p.Value[i] -= s.lr * v[i]
		}
	}
}

// LearningRate implements Optimizer.
func (s *SGD) LearningRate() float64 { return s.lr }

// SetLearningRate implements Optimizer.
func (s *SGD) SetLearningRate(lr float64) { s.lr = lr }

// Adam is the Adam optimizer with bias correction.
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m     map[*Param][]float64
	v     map[*Param][]float64
}

// NewAdam creates an Adam optimizer with the standard moment decay rates
// (0.9, 0.999) and epsilon 1e-8.
func NewAdam(lr float64) *Adam {
	return &Adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make(map[*Param][]float64),
		v:     make(map[*Param][]float64),
	}
}

// Step implements Optimizer.
func (a *Adam) Step(params []*Param) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, p := range params {
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(p.Value))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float64, len(p.Value))
			a.v[p] = v
		}

		for i := range p.Value {
			g := p.Grad[i]
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
			mHat := m[i] / c1
			vHat := v[i] / c2
			p.Value[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

// LearningRate implements Optimizer.
func (a *Adam) LearningRate() float64 { return a.lr }

// SetLearningRate implements Optimizer.
func (a *Adam) SetLearningRate(lr float64) { a.lr = lr }
