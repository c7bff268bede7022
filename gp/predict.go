package gp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// PredictMode selects how the predictive covariance is computed.
type PredictMode int

const (
	// Exact computes the posterior covariance with a dense solve against
	// the training kernel.
	Exact PredictMode = iota
	// Fast computes the posterior covariance through a cached low-rank
	// root decomposition of the training kernel. The first Fast call in
	// evaluation mode pays for building the cache; later calls reuse it.
	Fast
)

func (m PredictMode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Fast:
		return "fast"
	default:
		return "unknown"
	}
}

// PredictConfig controls the predictive-covariance computation for a single
// call. The zero value requests the exact path.
type PredictConfig struct {
	Mode PredictMode
	// RootDecompositionSize is the rank of the cached root decomposition
	// used by Fast mode. Zero or a value above the number of training
	// points means full rank, which reproduces the exact covariance.
	RootDecompositionSize int
}

// DefaultRootSize is the root-decomposition rank used when callers want the
// fast path without choosing a rank themselves.
const DefaultRootSize = 100

// PredictCov returns the posterior covariance over the rows of X, including
// observation noise on the diagonal, in the original target units.
func (g *ExactGP) PredictCov(X mat.Matrix, cfg PredictConfig) (*mat.SymDense, error) {
	if err := g.checkPredictInput("PredictCov", X); err != nil {
		return nil, err
	}
	if err := g.ensureFactors(); err != nil {
		return nil, err
	}

	kStar := g.formKStar(X)
	r, _ := X.Dims()

	var aInvK *mat.Dense
	switch cfg.Mode {
	case Exact:
		aInvK = mat.NewDense(len(g.outputs), r, nil)
		if err := g.chol.SolveTo(aInvK, kStar); err != nil {
			return nil, errors.Wrap(err, "solving predictive covariance system")
		}
	case Fast:
		if err := g.ensureCache(cfg.RootDecompositionSize); err != nil {
			return nil, err
		}
		var err error
		aInvK, err = g.cache.approxSolve(kStar)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewValueError("ExactGP.PredictCov", "unknown predict mode")
	}

	// cov = K** + noise*I - K*' A^-1 K*, scaled back to target units.
	reduce := mat.NewDense(r, r, nil)
	reduce.Mul(kStar.T(), aInvK)

	scale := g.std * g.std
	noise := g.lik.Noise()
	cov := mat.NewSymDense(r, nil)
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = rowOf(X, i)
	}
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			v := g.kernel.Cov(rows[i], rows[j]) - reduce.At(i, j)
			if i == j {
				v += noise
			}
			cov.SetSym(i, j, v*scale)
		}
	}
	return cov, nil
}

// Predict returns the posterior mean and covariance in one call.
func (g *ExactGP) Predict(X mat.Matrix, cfg PredictConfig) (*mat.VecDense, *mat.SymDense, error) {
	mean, err := g.PredictMean(X)
	if err != nil {
		return nil, nil, err
	}
	cov, err := g.PredictCov(X, cfg)
	if err != nil {
		return nil, nil, err
	}
	return mean, cov, nil
}

func rowOf(x mat.Matrix, i int) []float64 {
	if d, ok := x.(*mat.Dense); ok {
		return d.RawRowView(i)
	}
	_, c := x.Dims()
	row := make([]float64, c)
	for j := 0; j < c; j++ {
		row[j] = x.At(i, j)
	}
	return row
}
