package gp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/kernel"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// barrierPow is the exponent of the soft penalty applied outside the
// hyperparameter bounds. The penalty keeps unconstrained optimizers in the
// region where the kernel matrix stays well conditioned.
const barrierPow = 4

// NegMargLik computes the negative marginal log likelihood of the training
// data, scaled by the number of samples, and accumulates its gradient into
// the parameter views returned by Params.
//
// If the kernel matrix cannot be factorized at the current hyperparameters,
// the loss is +Inf and only the out-of-bounds penalty gradient is
// accumulated.
func (g *ExactGP) NegMargLik() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("ExactGP", "NegMargLik")
	}

	g.invalidate()
	g.syncHyper()

	n := len(g.outputs)
	nf := float64(n)
	nk := g.kernel.NumHyper()
	grad := make([]float64, nk+1)

	barrier := g.addBoundsPenalty(grad)

	k := mat.NewSymDense(n, nil)
	g.setKernelMat(k, g.lik.Noise())

	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		errors.Warn(errors.NewConvergenceWarning(
			"ExactGP.NegMargLik", 0, "kernel matrix not positive definite at current hyperparameters"))
		g.accumGrad(grad)
		return math.Inf(1), nil
	}

	y := mat.NewVecDense(n, g.outputs)
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, y); err != nil {
		return 0, errors.Wrap(err, "solving for kernel weights")
	}

	nml := (mat.Dot(y, alpha)+chol.LogDet())/nf + barrier

	// Derivative matrices for the kernel log hyperparameters, filled in a
	// single sweep over the matrix entries.
	dks := make([]*mat.SymDense, nk)
	for l := range dks {
		dks[l] = mat.NewSymDense(n, nil)
	}
	deriv := make([]float64, nk)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			g.kernel.CovDHyper(g.inputs.RawRowView(i), g.inputs.RawRowView(j), deriv)
			for l := 0; l < nk; l++ {
				dks[l].SetSym(i, j, deriv[l])
			}
		}
	}

	// d nml / d theta_l = (-alpha' dK alpha + tr(K^-1 dK)) / n, with
	// dK/dlogNoise = noise * I.
	kInvDk := mat.NewDense(n, n, nil)
	for l := 0; l < nk; l++ {
		if err := chol.SolveTo(kInvDk, dks[l]); err != nil {
			return 0, errors.Wrap(err, "solving kernel derivative system")
		}
		grad[l] += (-mat.Inner(alpha, dks[l], alpha) + mat.Trace(kInvDk)) / nf
	}

	var kInv mat.SymDense
	if err := chol.InverseTo(&kInv); err != nil {
		return 0, errors.Wrap(err, "inverting training kernel")
	}
	noise := g.lik.Noise()
	grad[nk] += noise * (-mat.Dot(alpha, alpha) + mat.Trace(&kInv)) / nf

	g.accumGrad(grad)
	return nml, nil
}

// addBoundsPenalty adds the out-of-bounds penalty gradient to grad and
// returns the penalty value. Bounds come from the kernel and likelihood.
func (g *ExactGP) addBoundsPenalty(grad []float64) float64 {
	nk := g.kernel.NumHyper()
	bounds := make([]kernel.Bound, nk+1)
	copy(bounds, g.kernel.Bounds())
	bounds[nk] = g.lik.Bound()

	var penalty float64
	for i, b := range bounds {
		v := g.theta[i]
		if v < b.Min {
			d := b.Min - v
			penalty += math.Pow(d, barrierPow)
			grad[i] -= barrierPow * math.Pow(d, barrierPow-1)
		} else if v > b.Max {
			d := v - b.Max
			penalty += math.Pow(d, barrierPow)
			grad[i] += barrierPow * math.Pow(d, barrierPow-1)
		}
	}
	return penalty
}

func (g *ExactGP) accumGrad(grad []float64) {
	nk := g.kernel.NumHyper()
	for i := 0; i < nk; i++ {
		g.params[0].Grad[i] += grad[i]
	}
	g.params[1].Grad[0] += grad[nk]
}
