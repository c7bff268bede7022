package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Conv2D is a 2-D convolution over batches of flattened channel-major
// images. Each input row holds inC*inH*inW values laid out channel by
// channel, row by row.
type Conv2D struct {
	inC, inH, inW    int
	outC, outH, outW int
	kernel           int
	stride           int
	padding          int

	weight *optim.Param // outC*inC*kernel*kernel
	bias   *optim.Param

	x *mat.Dense
}

// NewConv2D creates a convolution layer. A nil rng falls back to a
// fixed-seed source.
func NewConv2D(inC, outC, inH, inW, kernel, stride, padding int, rng *rand.Rand) *Conv2D {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	outH := (inH+2*padding-kernel)/stride + 1
	outW := (inW+2*padding-kernel)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic("nn: convolution output has non-positive size")
	}

	w := make([]float64, outC*inC*kernel*kernel)
	scale := math.Sqrt(2 / float64(inC*kernel*kernel))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
	return &Conv2D{
		inC: inC, inH: inH, inW: inW,
		outC: outC, outH: outH, outW: outW,
		kernel: kernel, stride: stride, padding: padding,
		weight: optim.NewParam("weight", w),
		bias:   optim.NewParam("bias", make([]float64, outC)),
	}
}

// OutputSize returns the flattened output length per sample.
func (c *Conv2D) OutputSize() int {
	return c.outC * c.outH * c.outW
}

func (c *Conv2D) Params() []*optim.Param {
	return []*optim.Param{c.weight, c.bias}
}

func (c *Conv2D) wIdx(oc, ic, ky, kx int) int {
	return ((oc*c.inC+ic)*c.kernel+ky)*c.kernel + kx
}

func (c *Conv2D) Forward(x *mat.Dense) (*mat.Dense, error) {
	n, cols := x.Dims()
	if cols != c.inC*c.inH*c.inW {
		return nil, errors.NewDimensionError("Conv2D.Forward", c.inC*c.inH*c.inW, cols, 1)
	}
	c.x = x

	y := mat.NewDense(n, c.OutputSize(), nil)
	for s := 0; s < n; s++ {
		in := x.RawRowView(s)
		out := y.RawRowView(s)
		for oc := 0; oc < c.outC; oc++ {
			for oy := 0; oy < c.outH; oy++ {
				for ox := 0; ox < c.outW; ox++ {
					sum := c.bias.Value[oc]
					for ic := 0; ic < c.inC; ic++ {
						for ky := 0; ky < c.kernel; ky++ {
							iy := oy*c.stride + ky - c.padding
							if iy < 0 || iy >= c.inH {
								continue
							}
							for kx := 0; kx < c.kernel; kx++ {
								ix := ox*c.stride + kx - c.padding
								if ix < 0 || ix >= c.inW {
									continue
								}
								sum += in[(ic*c.inH+iy)*c.inW+ix] * c.weight.Value[c.wIdx(oc, ic, ky, kx)]
							}
						}
					}
					out[(oc*c.outH+oy)*c.outW+ox] = sum
				}
			}
		}
	}
	return y, nil
}

func (c *Conv2D) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if c.x == nil {
		return nil, errors.NewValueError("Conv2D.Backward", "Backward called before Forward")
	}
	n, cols := grad.Dims()
	if cols != c.OutputSize() {
		return nil, errors.NewDimensionError("Conv2D.Backward", c.OutputSize(), cols, 1)
	}

	gx := mat.NewDense(n, c.inC*c.inH*c.inW, nil)
	for s := 0; s < n; s++ {
		in := c.x.RawRowView(s)
		g := grad.RawRowView(s)
		gxRow := gx.RawRowView(s)
		for oc := 0; oc < c.outC; oc++ {
			for oy := 0; oy < c.outH; oy++ {
				for ox := 0; ox < c.outW; ox++ {
					gv := g[(oc*c.outH+oy)*c.outW+ox]
					if gv == 0 {
						continue
					}
					c.bias.Grad[oc] += gv
					for ic := 0; ic < c.inC; ic++ {
						for ky := 0; ky < c.kernel; ky++ {
							iy := oy*c.stride + ky - c.padding
							if iy < 0 || iy >= c.inH {
								continue
							}
							for kx := 0; kx < c.kernel; kx++ {
								ix := ox*c.stride + kx - c.padding
								if ix < 0 || ix >= c.inW {
									continue
								}
								idx := (ic*c.inH+iy)*c.inW + ix
								c.weight.Grad[c.wIdx(oc, ic, ky, kx)] += gv * in[idx]
								gxRow[idx] += gv * c.weight.Value[c.wIdx(oc, ic, ky, kx)]
							}
						}
					}
				}
			}
		}
	}
	return gx, nil
}

// MaxPool2D is a 2-D max pooling layer over flattened channel-major images.
type MaxPool2D struct {
	channels, inH, inW int
	pool, stride       int
	outH, outW         int

	argmax []int // flat input index of each output element, per sample
}

func NewMaxPool2D(channels, inH, inW, pool, stride int) *MaxPool2D {
	return &MaxPool2D{
		channels: channels, inH: inH, inW: inW,
		pool: pool, stride: stride,
		outH: (inH-pool)/stride + 1,
		outW: (inW-pool)/stride + 1,
	}
}

// OutputSize returns the flattened output length per sample.
func (p *MaxPool2D) OutputSize() int {
	return p.channels * p.outH * p.outW
}

func (p *MaxPool2D) Params() []*optim.Param { return nil }

func (p *MaxPool2D) Forward(x *mat.Dense) (*mat.Dense, error) {
	n, cols := x.Dims()
	if cols != p.channels*p.inH*p.inW {
		return nil, errors.NewDimensionError("MaxPool2D.Forward", p.channels*p.inH*p.inW, cols, 1)
	}

	outLen := p.OutputSize()
	if cap(p.argmax) < n*outLen {
		p.argmax = make([]int, n*outLen)
	}
	p.argmax = p.argmax[:n*outLen]

	y := mat.NewDense(n, outLen, nil)
	for s := 0; s < n; s++ {
		in := x.RawRowView(s)
		out := y.RawRowView(s)
		for c := 0; c < p.channels; c++ {
			for oy := 0; oy < p.outH; oy++ {
				for ox := 0; ox < p.outW; ox++ {
					best := math.Inf(-1)
					bestIdx := -1
					for ky := 0; ky < p.pool; ky++ {
						iy := oy*p.stride + ky
						for kx := 0; kx < p.pool; kx++ {
							ix := ox*p.stride + kx
							idx := (c*p.inH+iy)*p.inW + ix
							if in[idx] > best {
								best = in[idx]
								bestIdx = idx
							}
						}
					}
					o := (c*p.outH+oy)*p.outW + ox
					out[o] = best
					p.argmax[s*outLen+o] = bestIdx
				}
			}
		}
	}
	return y, nil
}

func (p *MaxPool2D) Backward(grad *mat.Dense) (*mat.Dense, error) {
	n, cols := grad.Dims()
	outLen := p.OutputSize()
	if cols != outLen || n*outLen != len(p.argmax) {
		return nil, errors.NewValueError("MaxPool2D.Backward", "gradient shape does not match cached pooling")
	}

	gx := mat.NewDense(n, p.channels*p.inH*p.inW, nil)
	for s := 0; s < n; s++ {
		g := grad.RawRowView(s)
		gxRow := gx.RawRowView(s)
		for o := 0; o < outLen; o++ {
			gxRow[p.argmax[s*outLen+o]] += g[o]
		}
	}
	return gx, nil
}
