package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Dense is a fully connected layer: y = x W' + b.
type Dense struct {
	in, out int

	weight *optim.Param
	bias   *optim.Param

	// Matrix views over the parameter and gradient buffers.
	w, gw *mat.Dense

	x *mat.Dense // cached input
}

// NewDense creates a fully connected layer with He-initialized weights.
// A nil rng falls back to a fixed-seed source.
func NewDense(in, out int, rng *rand.Rand) *Dense {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	w := make([]float64, out*in)
	scale := math.Sqrt(2 / float64(in))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
	weight := optim.NewParam("weight", w)
	bias := optim.NewParam("bias", make([]float64, out))
	return &Dense{
		in:     in,
		out:    out,
		weight: weight,
		bias:   bias,
		w:      mat.NewDense(out, in, weight.Value),
		gw:     mat.NewDense(out, in, weight.Grad),
	}
}

func (d *Dense) Params() []*optim.Param {
	return []*optim.Param{d.weight, d.bias}
}

func (d *Dense) Forward(x *mat.Dense) (*mat.Dense, error) {
	n, c := x.Dims()
	if c != d.in {
		return nil, errors.NewDimensionError("Dense.Forward", d.in, c, 1)
	}
	d.x = x

	y := mat.NewDense(n, d.out, nil)
	y.Mul(x, d.w.T())
	for i := 0; i < n; i++ {
		row := y.RawRowView(i)
		for j := range row {
			row[j] += d.bias.Value[j]
		}
	}
	return y, nil
}

func (d *Dense) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if d.x == nil {
		return nil, errors.NewValueError("Dense.Backward", "Backward called before Forward")
	}
	n, c := grad.Dims()
	if c != d.out {
		return nil, errors.NewDimensionError("Dense.Backward", d.out, c, 1)
	}

	var gw mat.Dense
	gw.Mul(grad.T(), d.x)
	d.gw.Add(d.gw, &gw)

	for i := 0; i < n; i++ {
		row := grad.RawRowView(i)
		for j := range row {
			d.bias.Grad[j] += row[j]
		}
	}

	gx := mat.NewDense(n, d.in, nil)
	gx.Mul(grad, d.w)
	return gx, nil
}
