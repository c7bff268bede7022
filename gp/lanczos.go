package gp

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// rootCache holds the Lanczos decomposition of the regularized training
// kernel used by the fast predictive-covariance path. q holds the
// orthonormal Lanczos basis (n×r) and cholT the factorized tridiagonal
// projection of the kernel onto that basis.
//
// The cache is only valid in evaluation mode; switching the model back to
// training mode discards it.
type rootCache struct {
	q     *mat.Dense
	cholT *mat.Cholesky
	size  int
}

// lanczosBreakdownTol stops the iteration when the residual norm collapses,
// which means the Krylov space is exhausted early.
const lanczosBreakdownTol = 1e-10

// lanczosSeed seeds the start vector. A structured start vector can be
// orthogonal to part of the spectrum on gridded inputs, so the iteration
// starts from a fixed random direction instead.
const lanczosSeed = 1

// ensureCache builds the Lanczos cache at the requested rank if no valid
// cache of that rank exists.
func (g *ExactGP) ensureCache(size int) error {
	if g.cache != nil && g.cache.size == size {
		return nil
	}
	if err := g.ensureFactors(); err != nil {
		return err
	}

	n := len(g.outputs)
	r := size
	if r <= 0 || r > n {
		r = n
	}

	q, alpha, beta := lanczos(g.k, r)
	r = len(alpha) // may have shrunk on breakdown

	t := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		t.SetSym(i, i, alpha[i])
		if i+1 < r {
			t.SetSym(i, i+1, beta[i])
		}
	}
	var cholT mat.Cholesky
	if ok := cholT.Factorize(t); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "factorizing Lanczos tridiagonal")
	}

	g.cache = &rootCache{q: q, cholT: &cholT, size: size}
	return nil
}

// lanczos runs the symmetric Lanczos iteration on a for up to r steps with
// full reorthogonalization, starting from a fixed seeded direction so that
// repeated runs are deterministic. It returns the orthonormal basis and the
// tridiagonal coefficients; the basis may have fewer than r columns if the
// iteration breaks down.
func lanczos(a *mat.SymDense, r int) (*mat.Dense, []float64, []float64) {
	n := a.SymmetricDim()
	q := mat.NewDense(n, r, nil)
	alpha := make([]float64, 0, r)
	beta := make([]float64, 0, r)

	rng := rand.New(rand.NewSource(lanczosSeed))
	cur := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		cur.SetVec(i, rng.NormFloat64())
	}
	cur.ScaleVec(1/mat.Norm(cur, 2), cur)
	w := mat.NewVecDense(n, nil)
	prev := mat.NewVecDense(n, nil)

	steps := 0
	for j := 0; j < r; j++ {
		q.SetCol(j, rawVec(cur))

		w.MulVec(a, cur)
		if j > 0 {
			w.AddScaledVec(w, -beta[j-1], prev)
		}
		a0 := mat.Dot(cur, w)
		alpha = append(alpha, a0)
		w.AddScaledVec(w, -a0, cur)

		// Full reorthogonalization against the basis built so far keeps
		// the columns orthonormal in finite precision.
		reorthogonalize(w, q, j+1)
		reorthogonalize(w, q, j+1)

		steps = j + 1
		b := mat.Norm(w, 2)
		if j+1 == r {
			break
		}
		if b < lanczosBreakdownTol {
			break
		}
		beta = append(beta, b)
		prev.CopyVec(cur)
		cur.ScaleVec(1/b, w)
	}

	if steps < r {
		q = q.Slice(0, n, 0, steps).(*mat.Dense)
	}
	return q, alpha, beta
}

// reorthogonalize subtracts from w its projection onto the first cols
// columns of q.
func reorthogonalize(w *mat.VecDense, q *mat.Dense, cols int) {
	n, _ := q.Dims()
	for c := 0; c < cols; c++ {
		col := q.ColView(c)
		proj := mat.Dot(col, w)
		for i := 0; i < n; i++ {
			w.SetVec(i, w.AtVec(i)-proj*col.AtVec(i))
		}
	}
}

// approxSolve computes an approximation to A^-1 b through the cached root
// decomposition, Q T^-1 Q' b. Exact when the cache rank equals the number of
// training points.
func (c *rootCache) approxSolve(b *mat.Dense) (*mat.Dense, error) {
	_, m := b.Dims()
	_, r := c.q.Dims()

	v := mat.NewDense(r, m, nil)
	v.Mul(c.q.T(), b)

	z := mat.NewDense(r, m, nil)
	if err := c.cholT.SolveTo(z, v); err != nil {
		return nil, errors.Wrap(err, "solving against Lanczos tridiagonal")
	}

	out := mat.NewDense(b.RawMatrix().Rows, m, nil)
	out.Mul(c.q, z)
	return out, nil
}

func rawVec(v *mat.VecDense) []float64 {
	return v.RawVector().Data
}
