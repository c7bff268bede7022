package nn

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/optim"
)

// scalarLoss is a deterministic scalar reduction of a batch output, used for
// finite-difference gradient checks: sum of sin of each entry keeps the loss
// nonlinear in the output.
func scalarLoss(y *mat.Dense) float64 {
	n, c := y.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			sum += math.Sin(y.At(i, j))
		}
	}
	return sum
}

func lossGrad(y *mat.Dense) *mat.Dense {
	n, c := y.Dims()
	g := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			g.Set(i, j, math.Cos(y.At(i, j)))
		}
	}
	return g
}

func randomBatch(rng *rand.Rand, n, c int) *mat.Dense {
	x := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}
	return x
}

// checkLayerGradients runs forward/backward once and compares every
// parameter and input gradient against central finite differences.
func checkLayerGradients(t *testing.T, layer Layer, x *mat.Dense) {
	t.Helper()

	forward := func() float64 {
		y, err := layer.Forward(x)
		if err != nil {
			t.Fatalf("Forward: %v", err)
		}
		return scalarLoss(y)
	}

	y, err := layer.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	optim.ZeroGrads(layer.Params())
	gx, err := layer.Backward(lossGrad(y))
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	const h = 1e-6
	const tol = 1e-4
	for _, p := range layer.Params() {
		analytic := append([]float64(nil), p.Grad...)
		for i := range p.Value {
			orig := p.Value[i]
			p.Value[i] = orig + h
			fp := forward()
			p.Value[i] = orig - h
			fm := forward()
			p.Value[i] = orig

			numeric := (fp - fm) / (2 * h)
			if math.Abs(numeric-analytic[i]) > tol*(1+math.Abs(numeric)) {
				t.Errorf("%s grad[%d]: analytic %v, numeric %v", p.Name, i, analytic[i], numeric)
			}
		}
	}

	n, c := x.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			orig := x.At(i, j)
			x.Set(i, j, orig+h)
			fp := forward()
			x.Set(i, j, orig-h)
			fm := forward()
			x.Set(i, j, orig)

			numeric := (fp - fm) / (2 * h)
			if math.Abs(numeric-gx.At(i, j)) > tol*(1+math.Abs(numeric)) {
				t.Errorf("input grad[%d,%d]: analytic %v, numeric %v", i, j, gx.At(i, j), numeric)
			}
		}
	}
}

func TestDenseGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	layer := NewDense(4, 3, rng)
	checkLayerGradients(t, layer, randomBatch(rng, 5, 4))
}

func TestReLUGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	// Keep inputs away from zero so finite differences do not cross the
	// kink.
	x := randomBatch(rng, 4, 6)
	for i := 0; i < 4; i++ {
		for j := 0; j < 6; j++ {
			v := x.At(i, j)
			if math.Abs(v) < 0.05 {
				x.Set(i, j, v+0.1)
			}
		}
	}
	checkLayerGradients(t, NewReLU(), x)
}

func TestConv2DGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	layer := NewConv2D(2, 3, 5, 5, 3, 1, 1, rng)
	checkLayerGradients(t, layer, randomBatch(rng, 2, 2*5*5))
}

func TestConv2DOutputSize(t *testing.T) {
	tests := []struct {
		name                            string
		inC, outC, h, w, k, stride, pad int
		wantH, wantW                    int
	}{
		{"same padding", 1, 4, 28, 28, 5, 1, 2, 28, 28},
		{"no padding", 3, 8, 32, 32, 3, 1, 0, 30, 30},
		{"strided", 1, 2, 28, 28, 5, 2, 2, 14, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConv2D(tt.inC, tt.outC, tt.h, tt.w, tt.k, tt.stride, tt.pad, nil)
			if c.outH != tt.wantH || c.outW != tt.wantW {
				t.Errorf("output %dx%d, want %dx%d", c.outH, c.outW, tt.wantH, tt.wantW)
			}
			if got := c.OutputSize(); got != tt.outC*tt.wantH*tt.wantW {
				t.Errorf("OutputSize() = %d, want %d", got, tt.outC*tt.wantH*tt.wantW)
			}
		})
	}
}

func TestMaxPool2DForwardBackward(t *testing.T) {
	p := NewMaxPool2D(1, 4, 4, 2, 2)
	x := mat.NewDense(1, 16, []float64{
		1, 2, 5, 1,
		3, 4, 0, 2,
		9, 0, 1, 1,
		0, 8, 1, 7,
	})
	y, err := p.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	want := []float64{4, 5, 9, 7}
	for i, w := range want {
		if got := y.At(0, i); got != w {
			t.Errorf("pooled[%d] = %v, want %v", i, got, w)
		}
	}

	grad := mat.NewDense(1, 4, []float64{1, 2, 3, 4})
	gx, err := p.Backward(grad)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// Gradient routes only to each window's argmax.
	wantGx := []float64{
		0, 0, 2, 0,
		0, 1, 0, 0,
		3, 0, 0, 0,
		0, 0, 0, 4,
	}
	for i, w := range wantGx {
		if got := gx.At(0, i); got != w {
			t.Errorf("gx[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestSequentialForwardBackward(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	net := NewSequential(
		NewDense(6, 8, rng),
		NewReLU(),
		NewDense(8, 2, rng),
	)

	x := randomBatch(rng, 3, 6)
	y, err := net.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if r, c := y.Dims(); r != 3 || c != 2 {
		t.Fatalf("output %dx%d, want 3x2", r, c)
	}

	optim.ZeroGrads(net.Params())
	gx, err := net.Backward(lossGrad(y))
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if r, c := gx.Dims(); r != 3 || c != 6 {
		t.Fatalf("input gradient %dx%d, want 3x6", r, c)
	}

	if len(net.Params()) != 4 {
		t.Errorf("params = %d, want 4", len(net.Params()))
	}
	for _, p := range net.Params() {
		var nonzero bool
		for _, g := range p.Grad {
			if g != 0 {
				nonzero = true
				break
			}
		}
		if !nonzero {
			t.Errorf("parameter %s has all-zero gradient", p.Name)
		}
	}
}

func TestSequentialStateDictRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	net := NewSequential(NewDense(4, 4, rng), NewReLU(), NewDense(4, 2, rng))
	state := net.StateDict()

	other := NewSequential(
		NewDense(4, 4, rand.New(rand.NewSource(99))),
		NewReLU(),
		NewDense(4, 2, rand.New(rand.NewSource(99))),
	)
	if err := other.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	x := randomBatch(rng, 2, 4)
	y1, err := net.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	y2, err := other.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if !mat.EqualApprox(y1, y2, 1e-12) {
		t.Error("restored network disagrees with original")
	}

	bad := map[string][]float64{"nope": {1}}
	if err := other.LoadStateDict(bad); err == nil {
		t.Error("expected error for unknown parameter name")
	}
}
