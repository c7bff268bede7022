package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// ReLU zeroes negative activations.
type ReLU struct {
	mask []bool
	cols int
}

func NewReLU() *ReLU {
	return &ReLU{}
}

func (r *ReLU) Params() []*optim.Param { return nil }

func (r *ReLU) Forward(x *mat.Dense) (*mat.Dense, error) {
	n, c := x.Dims()
	r.cols = c
	if cap(r.mask) < n*c {
		r.mask = make([]bool, n*c)
	}
	r.mask = r.mask[:n*c]

	y := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		in := x.RawRowView(i)
		out := y.RawRowView(i)
		for j, v := range in {
			if v > 0 {
				out[j] = v
				r.mask[i*c+j] = true
			} else {
				r.mask[i*c+j] = false
			}
		}
	}
	return y, nil
}

func (r *ReLU) Backward(grad *mat.Dense) (*mat.Dense, error) {
	n, c := grad.Dims()
	if c != r.cols || n*c != len(r.mask) {
		return nil, errors.NewValueError("ReLU.Backward", "gradient shape does not match cached activation")
	}
	gx := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		in := grad.RawRowView(i)
		out := gx.RawRowView(i)
		for j := range in {
			if r.mask[i*c+j] {
				out[j] = in[j]
			}
		}
	}
	return gx, nil
}
