// Package gp implements exact Gaussian-process regression with a constant
// mean, a trainable kernel, and a Gaussian likelihood, plus a fast
// approximate predictive-covariance path based on a Lanczos low-rank root
// decomposition of the training kernel.
package gp

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/messiest/gaussian-processes/core/model"
	"github.com/messiest/gaussian-processes/core/parallel"
	"github.com/messiest/gaussian-processes/kernel"
	"github.com/messiest/gaussian-processes/likelihood"
	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// ExactGP is an exact Gaussian-process regression model. It conditions on
// the training data set via SetTrainData and predicts with the standard
// closed-form posterior. Targets are stored normalized to zero mean and unit
// variance; predictions are rescaled back on the way out.
//
// The model has a two-state mode toggle. Predictions are only available in
// evaluation mode; switching back to training mode invalidates the
// factorization and the fast-covariance cache.
type ExactGP struct {
	model.BaseEstimator

	kernel   kernel.Kernel
	lik      *likelihood.Gaussian
	inputDim int

	// theta is the canonical flat parameter vector: kernel log
	// hyperparameters followed by the log noise. The optim.Param views
	// returned by Params alias into it.
	theta  []float64
	params []*optim.Param

	inputs  *mat.Dense
	outputs []float64 // targets, normalized
	mean    float64   // target mean
	std     float64   // target standard deviation

	// Factorization of the training kernel, valid while factorsOK.
	k         *mat.SymDense
	chol      *mat.Cholesky
	sigInvY   *mat.VecDense
	factorsOK bool

	cache *rootCache
}

// NewExactGP creates an exact GP with the given input dimension, kernel and
// Gaussian likelihood.
func NewExactGP(inputDim int, k kernel.Kernel, lik *likelihood.Gaussian) *ExactGP {
	if inputDim <= 0 {
		panic("gp: non-positive input dimension")
	}
	if k == nil {
		panic("gp: nil kernel")
	}
	if lik == nil {
		panic("gp: nil likelihood")
	}

	nk := k.NumHyper()
	theta := make([]float64, nk+1)
	copy(theta, k.Hyper(nil))
	theta[nk] = lik.LogNoise

	g := &ExactGP{
		kernel:   k,
		lik:      lik,
		inputDim: inputDim,
		theta:    theta,
	}
	g.params = []*optim.Param{
		optim.NewParam("kernel", theta[:nk]),
		optim.NewParam("likelihood.log_noise", theta[nk:]),
	}
	return g
}

// Params returns the learnable parameter groups: the kernel log
// hyperparameters and the log noise. The optimizer mutates them in place.
func (g *ExactGP) Params() []*optim.Param {
	return g.params
}

// Kernel returns the model's kernel.
func (g *ExactGP) Kernel() kernel.Kernel {
	return g.kernel
}

// Likelihood returns the model's Gaussian likelihood.
func (g *ExactGP) Likelihood() *likelihood.Gaussian {
	return g.lik
}

// SetTrainData conditions the model on the training set. X is n×inputDim
// and y has length n. Targets are normalized internally.
func (g *ExactGP) SetTrainData(X mat.Matrix, y []float64) error {
	r, c := X.Dims()
	if r == 0 {
		return errors.NewModelError("ExactGP.SetTrainData", "empty data", errors.ErrEmptyData)
	}
	if c != g.inputDim {
		return errors.NewDimensionError("ExactGP.SetTrainData", g.inputDim, c, 1)
	}
	if len(y) != r {
		return errors.NewDimensionError("ExactGP.SetTrainData", r, len(y), 0)
	}

	inputs := mat.NewDense(r, c, nil)
	inputs.Copy(X)
	g.inputs = inputs

	g.outputs = append(g.outputs[:0:0], y...)
	g.mean = stat.Mean(g.outputs, nil)
	g.std = stat.StdDev(g.outputs, nil)
	if g.std < 1e-12 {
		g.std = 1
	}
	for i, v := range g.outputs {
		g.outputs[i] = (v - g.mean) / g.std
	}

	g.invalidate()
	g.SetFitted()
	return nil
}

// NumTrain returns the number of training points.
func (g *ExactGP) NumTrain() int {
	return len(g.outputs)
}

// TrainMode places the model in training mode, invalidating the kernel
// factorization and the fast-covariance cache.
func (g *ExactGP) TrainMode() {
	if g.SetMode(model.Training) {
		g.invalidate()
	}
}

// EvalMode places the model in evaluation mode. Factorizations are rebuilt
// lazily on the first prediction.
func (g *ExactGP) EvalMode() {
	g.SetMode(model.Evaluation)
}

func (g *ExactGP) invalidate() {
	g.factorsOK = false
	g.cache = nil
}

// syncHyper pushes the canonical parameter vector into the kernel and
// likelihood objects.
func (g *ExactGP) syncHyper() {
	nk := g.kernel.NumHyper()
	g.kernel.SetHyper(g.theta[:nk])
	g.lik.LogNoise = g.theta[nk]
}

// ensureFactors factorizes the training kernel if needed. Requires fitted
// training data.
func (g *ExactGP) ensureFactors() error {
	if g.factorsOK {
		return nil
	}
	g.syncHyper()

	n := len(g.outputs)
	if g.k == nil || g.k.SymmetricDim() != n {
		g.k = mat.NewSymDense(n, nil)
	}
	g.setKernelMat(g.k, g.lik.Noise())

	var chol mat.Cholesky
	if ok := chol.Factorize(g.k); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "factorizing training kernel")
	}
	g.chol = &chol

	g.sigInvY = mat.NewVecDense(n, nil)
	y := mat.NewVecDense(n, g.outputs)
	if err := g.chol.SolveVecTo(g.sigInvY, y); err != nil {
		return errors.Wrap(err, "solving for kernel weights")
	}
	g.factorsOK = true
	return nil
}

// setKernelMat fills s with the training kernel plus noise on the diagonal.
// Rows are filled in parallel; entries are independent.
func (g *ExactGP) setKernelMat(s *mat.SymDense, noise float64) {
	n := s.SymmetricDim()
	parallel.ParallelizeWithThreshold(n, 0, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i; j < n; j++ {
				v := g.kernel.Cov(g.inputs.RawRowView(i), g.inputs.RawRowView(j))
				if i == j {
					v += noise
				}
				s.SetSym(i, j, v)
			}
		}
	})
}

// checkPredictInput validates prediction inputs and the model state.
func (g *ExactGP) checkPredictInput(op string, X mat.Matrix) error {
	if !g.IsFitted() {
		return errors.NewNotFittedError("ExactGP", op)
	}
	if g.Mode() != model.Evaluation {
		return errors.NewValueError("ExactGP."+op, "model is in training mode; call EvalMode() before predicting")
	}
	_, c := X.Dims()
	if c != g.inputDim {
		return errors.NewDimensionError("ExactGP."+op, g.inputDim, c, 1)
	}
	return nil
}

// PredictMean returns the posterior mean at the rows of X, in the original
// target units.
func (g *ExactGP) PredictMean(X mat.Matrix) (*mat.VecDense, error) {
	if err := g.checkPredictInput("PredictMean", X); err != nil {
		return nil, err
	}
	if err := g.ensureFactors(); err != nil {
		return nil, err
	}

	kStar := g.formKStar(X)
	r, _ := X.Dims()
	mean := mat.NewVecDense(r, nil)
	mean.MulVec(kStar.T(), g.sigInvY)
	for i := 0; i < r; i++ {
		mean.SetVec(i, mean.AtVec(i)*g.std+g.mean)
	}
	return mean, nil
}

// formKStar builds the n×m cross-covariance between the training inputs and
// the m rows of x.
func (g *ExactGP) formKStar(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	n := len(g.outputs)
	kStar := mat.NewDense(n, r, nil)
	parallel.ParallelizeWithThreshold(r, 0, func(start, end int) {
		row := make([]float64, c)
		for j := start; j < end; j++ {
			for k := 0; k < c; k++ {
				row[k] = x.At(j, k)
			}
			for i := 0; i < n; i++ {
				kStar.Set(i, j, g.kernel.Cov(g.inputs.RawRowView(i), row))
			}
		}
	})
	return kStar
}

// StateDict returns the model parameters keyed by name.
func (g *ExactGP) StateDict() map[string][]float64 {
	nk := g.kernel.NumHyper()
	return map[string][]float64{
		"kernel":    append([]float64(nil), g.theta[:nk]...),
		"log_noise": {g.theta[nk]},
	}
}

// LoadStateDict restores the model parameters.
func (g *ExactGP) LoadStateDict(state map[string][]float64) error {
	nk := g.kernel.NumHyper()
	if v, ok := state["kernel"]; ok {
		if len(v) != nk {
			return errors.NewDimensionError("ExactGP.LoadStateDict", nk, len(v), 1)
		}
		copy(g.theta[:nk], v)
	}
	if v, ok := state["log_noise"]; ok && len(v) == 1 {
		g.theta[nk] = v[0]
	}
	g.syncHyper()
	g.invalidate()
	return nil
}
