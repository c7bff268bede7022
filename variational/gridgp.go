// Package variational implements a grid-interpolation variational Gaussian
// process classifier head for deep kernel models. Each output class carries
// an additive GP over the feature dimensions; every (class, dimension) pair
// has its own set of inducing values on a shared 1-D grid with a mean-field
// Gaussian variational distribution.
package variational

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/kernel"
	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// gridJitter regularizes the grid prior covariance before factorization.
const gridJitter = 1e-4

// AdditiveGridGP maps feature batches to per-class latent function values.
// The latent value for class c at features z is the sum over feature
// dimensions of the linearly interpolated inducing mean for that pair.
//
// The grid prior kernel hyperparameters are fixed; only the variational
// means and log standard deviations train.
type AdditiveGridGP struct {
	numClasses  int
	numFeatures int
	grid        *kernel.Grid

	mean   *optim.Param // numClasses*numFeatures*gridSize
	logStd *optim.Param // same layout

	// Fixed prior quantities, computed once at construction.
	kInv        *mat.SymDense
	priorLogDet float64

	z *mat.Dense // cached scaled features for Backward
}

// NewAdditiveGridGP creates the classifier head. The grid spans the feature
// range the extractor scales into; k is the prior kernel over grid
// positions, used only through its fixed covariance matrix.
func NewAdditiveGridGP(numClasses, numFeatures int, grid *kernel.Grid, k kernel.Kernel) (*AdditiveGridGP, error) {
	if numClasses < 2 {
		return nil, errors.NewValueError("NewAdditiveGridGP", "need at least two classes")
	}
	if numFeatures < 1 {
		return nil, errors.NewValueError("NewAdditiveGridGP", "need at least one feature dimension")
	}

	g := grid.Size()
	kgg := grid.CovMatrix(k, gridJitter)
	var chol mat.Cholesky
	if ok := chol.Factorize(kgg); !ok {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "factorizing grid prior covariance")
	}
	var kInv mat.SymDense
	if err := chol.InverseTo(&kInv); err != nil {
		return nil, errors.Wrap(err, "inverting grid prior covariance")
	}

	total := numClasses * numFeatures * g
	logStd := make([]float64, total)
	for i := range logStd {
		logStd[i] = math.Log(0.1)
	}
	return &AdditiveGridGP{
		numClasses:  numClasses,
		numFeatures: numFeatures,
		grid:        grid,
		mean:        optim.NewParam("variational_mean", make([]float64, total)),
		logStd:      optim.NewParam("variational_logstd", logStd),
		kInv:        &kInv,
		priorLogDet: chol.LogDet(),
	}, nil
}

// NumClasses returns the number of output classes.
func (a *AdditiveGridGP) NumClasses() int { return a.numClasses }

// NumFeatures returns the expected feature dimension.
func (a *AdditiveGridGP) NumFeatures() int { return a.numFeatures }

// Params returns the variational parameters.
func (a *AdditiveGridGP) Params() []*optim.Param {
	return []*optim.Param{a.mean, a.logStd}
}

// block returns the inducing-mean slice for one (class, dimension) pair.
func (a *AdditiveGridGP) block(buf []float64, c, d int) []float64 {
	g := a.grid.Size()
	off := (c*a.numFeatures + d) * g
	return buf[off : off+g]
}

// Forward returns the latent mean for every class at each feature row of z.
func (a *AdditiveGridGP) Forward(z *mat.Dense) (*mat.Dense, error) {
	n, d := z.Dims()
	if d != a.numFeatures {
		return nil, errors.NewDimensionError("AdditiveGridGP.Forward", a.numFeatures, d, 1)
	}
	a.z = z

	out := mat.NewDense(n, a.numClasses, nil)
	for s := 0; s < n; s++ {
		row := z.RawRowView(s)
		logits := out.RawRowView(s)
		for dim := 0; dim < a.numFeatures; dim++ {
			i0, i1, w0, w1 := a.grid.Interp(row[dim])
			for c := 0; c < a.numClasses; c++ {
				m := a.block(a.mean.Value, c, dim)
				logits[c] += w0*m[i0] + w1*m[i1]
			}
		}
	}
	return out, nil
}

// Backward takes the loss gradient with respect to the class latents,
// accumulates variational-parameter gradients, and returns the gradient
// with respect to the features.
func (a *AdditiveGridGP) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if a.z == nil {
		return nil, errors.NewValueError("AdditiveGridGP.Backward", "Backward called before Forward")
	}
	n, c := grad.Dims()
	if c != a.numClasses {
		return nil, errors.NewDimensionError("AdditiveGridGP.Backward", a.numClasses, c, 1)
	}

	gz := mat.NewDense(n, a.numFeatures, nil)
	for s := 0; s < n; s++ {
		row := a.z.RawRowView(s)
		g := grad.RawRowView(s)
		gzRow := gz.RawRowView(s)
		for dim := 0; dim < a.numFeatures; dim++ {
			i0, i1, w0, w1 := a.grid.Interp(row[dim])
			for cl := 0; cl < a.numClasses; cl++ {
				gm := a.block(a.mean.Grad, cl, dim)
				gm[i0] += w0 * g[cl]
				gm[i1] += w1 * g[cl]

				m := a.block(a.mean.Value, cl, dim)
				gzRow[dim] += g[cl] * a.grid.InterpDeriv(row[dim], m)
			}
		}
	}
	return gz, nil
}

// KL returns the divergence between the variational distribution and the
// zero-mean grid prior, summed over all (class, dimension) pairs, and
// accumulates its gradient scaled by weight into the parameter buffers.
func (a *AdditiveGridGP) KL(weight float64) float64 {
	g := a.grid.Size()
	gf := float64(g)

	var total float64
	tmp := mat.NewVecDense(g, nil)
	for c := 0; c < a.numClasses; c++ {
		for d := 0; d < a.numFeatures; d++ {
			m := a.block(a.mean.Value, c, d)
			ls := a.block(a.logStd.Value, c, d)
			gm := a.block(a.mean.Grad, c, d)
			gls := a.block(a.logStd.Grad, c, d)

			mv := mat.NewVecDense(g, m)
			tmp.MulVec(a.kInv, mv)

			var trace, quad, logq float64
			for i := 0; i < g; i++ {
				s2 := math.Exp(2 * ls[i])
				trace += s2 * a.kInv.At(i, i)
				quad += m[i] * tmp.AtVec(i)
				logq += 2 * ls[i]

				gm[i] += weight * tmp.AtVec(i)
				gls[i] += weight * (s2*a.kInv.At(i, i) - 1)
			}
			total += 0.5 * (trace + quad - gf + a.priorLogDet - logq)
		}
	}
	return total * weight
}

// StateDict returns copies of the variational parameters.
func (a *AdditiveGridGP) StateDict() map[string][]float64 {
	return map[string][]float64{
		a.mean.Name:   append([]float64(nil), a.mean.Value...),
		a.logStd.Name: append([]float64(nil), a.logStd.Value...),
	}
}

// LoadStateDict restores the variational parameters.
func (a *AdditiveGridGP) LoadStateDict(state map[string][]float64) error {
	for _, p := range a.Params() {
		v, ok := state[p.Name]
		if !ok {
			continue
		}
		if len(v) != len(p.Value) {
			return errors.NewDimensionError("AdditiveGridGP.LoadStateDict", len(p.Value), len(v), 0)
		}
		copy(p.Value, v)
	}
	return nil
}
