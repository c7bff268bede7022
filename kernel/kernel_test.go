package kernel

import (
	"math"
	"testing"
)

func kernels() map[string]Kernel {
	return map[string]Kernel{
		"rbf":      &RBF{LogVariance: 0.3, LogLength: -0.5},
		"matern52": &Matern52{LogVariance: 0.3, LogLength: -0.5},
	}
}

func TestKernelSymmetry(t *testing.T) {
	x := []float64{0.2, -0.7, 1.1}
	y := []float64{-0.4, 0.3, 0.9}

	for name, k := range kernels() {
		t.Run(name, func(t *testing.T) {
			if kxy, kyx := k.Cov(x, y), k.Cov(y, x); math.Abs(kxy-kyx) > 1e-14 {
				t.Errorf("Cov(x,y) = %v, Cov(y,x) = %v", kxy, kyx)
			}
		})
	}
}

func TestKernelSelfCovarianceIsVariance(t *testing.T) {
	x := []float64{0.5, 0.5}

	for name, k := range kernels() {
		t.Run(name, func(t *testing.T) {
			h := k.Hyper(nil)
			want := math.Exp(2 * h[0])
			if got := k.Cov(x, x); math.Abs(got-want) > 1e-12 {
				t.Errorf("Cov(x,x) = %v, want signal variance %v", got, want)
			}
		})
	}
}

func TestKernelHyperRoundTrip(t *testing.T) {
	for name, k := range kernels() {
		t.Run(name, func(t *testing.T) {
			in := []float64{0.12, -0.34}
			k.SetHyper(in)
			out := k.Hyper(nil)
			for i := range in {
				if out[i] != in[i] {
					t.Errorf("hyper[%d] = %v, want %v", i, out[i], in[i])
				}
			}
			if len(k.Bounds()) != k.NumHyper() {
				t.Errorf("Bounds() length %d != NumHyper() %d", len(k.Bounds()), k.NumHyper())
			}
		})
	}
}

// TestCovDHyperMatchesFiniteDifference checks the analytic hyperparameter
// gradients against central differences.
func TestCovDHyperMatchesFiniteDifference(t *testing.T) {
	x := []float64{0.3, -0.2}
	y := []float64{-0.1, 0.4}
	const h = 1e-6

	for name, k := range kernels() {
		t.Run(name, func(t *testing.T) {
			deriv := make([]float64, k.NumHyper())
			cov := k.CovDHyper(x, y, deriv)

			if got := k.Cov(x, y); math.Abs(got-cov) > 1e-12 {
				t.Errorf("CovDHyper cov = %v, Cov = %v", cov, got)
			}

			base := k.Hyper(nil)
			for i := range deriv {
				hp := append([]float64(nil), base...)
				hp[i] = base[i] + h
				k.SetHyper(hp)
				up := k.Cov(x, y)

				hp[i] = base[i] - h
				k.SetHyper(hp)
				down := k.Cov(x, y)
				k.SetHyper(base)

				fd := (up - down) / (2 * h)
				if math.Abs(fd-deriv[i]) > 1e-5*(1+math.Abs(fd)) {
					t.Errorf("deriv[%d] = %v, finite difference %v", i, deriv[i], fd)
				}
			}
		})
	}
}

func TestGridInterp(t *testing.T) {
	g := NewGrid(-1, 1, 5) // step 0.5

	tests := []struct {
		z      float64
		i0, i1 int
		w0, w1 float64
	}{
		{-1.0, 0, 1, 1, 0},
		{-0.75, 0, 1, 0.5, 0.5},
		{0.0, 2, 3, 1, 0},
		{0.9, 3, 4, 0.2, 0.8},
		{1.0, 3, 4, 0, 1},
		{-3.0, 0, 1, 1, 0},  // clamped low
		{42.0, 3, 4, 0, 1},  // clamped high
	}

	for _, tt := range tests {
		i0, i1, w0, w1 := g.Interp(tt.z)
		if i0 != tt.i0 || i1 != tt.i1 {
			t.Errorf("Interp(%v) indices = (%d, %d), want (%d, %d)", tt.z, i0, i1, tt.i0, tt.i1)
		}
		if math.Abs(w0-tt.w0) > 1e-12 || math.Abs(w1-tt.w1) > 1e-12 {
			t.Errorf("Interp(%v) weights = (%v, %v), want (%v, %v)", tt.z, w0, w1, tt.w0, tt.w1)
		}
		if math.Abs(w0+w1-1) > 1e-12 {
			t.Errorf("Interp(%v) weights do not sum to 1", tt.z)
		}
	}
}

func TestGridInterpDeriv(t *testing.T) {
	g := NewGrid(0, 1, 3) // points 0, 0.5, 1
	u := []float64{0, 1, 3}

	if got := g.InterpDeriv(0.25, u); math.Abs(got-2) > 1e-12 {
		t.Errorf("InterpDeriv(0.25) = %v, want 2", got)
	}
	if got := g.InterpDeriv(0.75, u); math.Abs(got-4) > 1e-12 {
		t.Errorf("InterpDeriv(0.75) = %v, want 4", got)
	}
	if got := g.InterpDeriv(-1, u); got != 0 {
		t.Errorf("InterpDeriv outside grid = %v, want 0", got)
	}
}

func TestGridCovMatrix(t *testing.T) {
	g := NewGrid(-1, 1, 4)
	k := &RBF{}
	cov := g.CovMatrix(k, 1e-6)

	n := cov.SymmetricDim()
	if n != 4 {
		t.Fatalf("CovMatrix size = %d, want 4", n)
	}
	for i := 0; i < n; i++ {
		if cov.At(i, i) < 1 {
			t.Errorf("diagonal entry %d = %v, want >= 1 (variance + jitter)", i, cov.At(i, i))
		}
	}
}
