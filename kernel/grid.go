package kernel

import (
	"gonum.org/v1/gonum/mat"
)

// Grid is a 1D inducing-point grid with evenly spaced points on [Lo, Hi].
// The variational model places one grid per GP output dimension and reads
// function values off the grid by linear interpolation.
type Grid struct {
	Points []float64
	Lo, Hi float64
	Step   float64
}

// NewGrid creates a grid of size evenly spaced points spanning [lo, hi].
// size must be at least 2.
func NewGrid(lo, hi float64, size int) *Grid {
	if size < 2 {
		panic("kernel: grid size must be at least 2")
	}
	if hi <= lo {
		panic("kernel: grid upper bound must exceed lower bound")
	}
	step := (hi - lo) / float64(size-1)
	points := make([]float64, size)
	for i := range points {
		points[i] = lo + float64(i)*step
	}
	return &Grid{Points: points, Lo: lo, Hi: hi, Step: step}
}

// Size returns the number of grid points.
func (g *Grid) Size() int {
	return len(g.Points)
}

// Interp returns the linear interpolation of z onto the grid: the two
// bracketing indices and their weights. Inputs outside [Lo, Hi] clamp to the
// nearest cell, so w0 + w1 == 1 always holds.
func (g *Grid) Interp(z float64) (i0, i1 int, w0, w1 float64) {
	if z <= g.Lo {
		return 0, 1, 1, 0
	}
	if z >= g.Hi {
		n := len(g.Points)
		return n - 2, n - 1, 0, 1
	}
	cell := int((z - g.Lo) / g.Step)
	if cell > len(g.Points)-2 {
		cell = len(g.Points) - 2
	}
	t := (z - g.Points[cell]) / g.Step
	return cell, cell + 1, 1 - t, t
}

// InterpDeriv returns the derivative of the interpolated value with respect
// to z, given the grid values u. Zero outside the grid where the weights are
// clamped.
func (g *Grid) InterpDeriv(z float64, u []float64) float64 {
	if z <= g.Lo || z >= g.Hi {
		return 0
	}
	i0, i1, _, _ := g.Interp(z)
	return (u[i1] - u[i0]) / g.Step
}

// CovMatrix builds the grid prior covariance K_gg for the given kernel,
// adding jitter to the diagonal so the Cholesky factorization succeeds.
func (g *Grid) CovMatrix(k Kernel, jitter float64) *mat.SymDense {
	n := len(g.Points)
	cov := mat.NewSymDense(n, nil)
	xi := make([]float64, 1)
	xj := make([]float64, 1)
	for i := 0; i < n; i++ {
		xi[0] = g.Points[i]
		for j := i; j < n; j++ {
			xj[0] = g.Points[j]
			v := k.Cov(xi, xj)
			if i == j {
				v += jitter
			}
			cov.SetSym(i, j, v)
		}
	}
	return cov
}
