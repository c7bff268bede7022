package variational

import (
	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// ScaleToBounds linearly rescales a feature batch into [lo, hi] using the
// batch minimum and maximum, so extractor outputs land inside the inducing
// grid. The min and max are treated as constants for the gradient.
type ScaleToBounds struct {
	lo, hi float64
	scale  float64
}

func NewScaleToBounds(lo, hi float64) *ScaleToBounds {
	if hi <= lo {
		panic("variational: invalid scale bounds")
	}
	return &ScaleToBounds{lo: lo, hi: hi}
}

func (s *ScaleToBounds) Forward(x *mat.Dense) (*mat.Dense, error) {
	n, c := x.Dims()
	if n == 0 {
		return nil, errors.NewModelError("ScaleToBounds.Forward", "empty batch", errors.ErrEmptyData)
	}

	min, max := x.At(0, 0), x.At(0, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if max-min < 1e-12 {
		s.scale = 0
		y := mat.NewDense(n, c, nil)
		mid := (s.lo + s.hi) / 2
		for i := 0; i < n; i++ {
			row := y.RawRowView(i)
			for j := range row {
				row[j] = mid
			}
		}
		return y, nil
	}

	s.scale = (s.hi - s.lo) / (max - min)
	y := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		in := x.RawRowView(i)
		out := y.RawRowView(i)
		for j := range in {
			out[j] = s.lo + (in[j]-min)*s.scale
		}
	}
	return y, nil
}

func (s *ScaleToBounds) Backward(grad *mat.Dense) (*mat.Dense, error) {
	n, c := grad.Dims()
	gx := mat.NewDense(n, c, nil)
	if s.scale == 0 {
		return gx, nil
	}
	for i := 0; i < n; i++ {
		in := grad.RawRowView(i)
		out := gx.RawRowView(i)
		for j := range in {
			out[j] = in[j] * s.scale
		}
	}
	return gx, nil
}
