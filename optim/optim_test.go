package optim

import (
	"math"
	"testing"
)

func TestSGDStep(t *testing.T) {
	p := NewParam("w", []float64{1.0, 2.0})
	p.Grad[0] = 0.5
	p.Grad[1] = -1.0

	opt := NewSGD(0.1, 0)
	opt.Step([]*Param{p})

	if math.Abs(p.Value[0]-0.95) > 1e-12 {
		t.Errorf("Value[0] = %v, want 0.95", p.Value[0])
	}
	if math.Abs(p.Value[1]-2.1) > 1e-12 {
		t.Errorf("Value[1] = %v, want 2.1", p.Value[1])
	}
}

func TestSGDMomentumAccumulates(t *testing.T) {
	p := NewParam("w", []float64{0})
	opt := NewSGD(1.0, 0.9)

	// Constant gradient of 1: velocities 1, 1.9, 2.71, ...
	p.Grad[0] = 1
	opt.Step([]*Param{p})
	first := -p.Value[0]
	p.Grad[0] = 1
	opt.Step([]*Param{p})
	second := -p.Value[0] - first

	if math.Abs(first-1.0) > 1e-12 {
		t.Errorf("first step = %v, want 1.0", first)
	}
	if math.Abs(second-1.9) > 1e-12 {
		t.Errorf("second step = %v, want 1.9", second)
	}
}

func TestAdamFirstStepSize(t *testing.T) {
	p := NewParam("w", []float64{0})
	opt := NewAdam(0.1)

	p.Grad[0] = 3.7
	opt.Step([]*Param{p})

	// With bias correction the first step is approximately -lr * sign(g).
	if math.Abs(p.Value[0]+0.1) > 1e-6 {
		t.Errorf("first Adam step = %v, want ≈ -0.1", p.Value[0])
	}
}

func TestAdamDescendsQuadratic(t *testing.T) {
	// f(w) = (w - 3)², gradient 2(w - 3).
	p := NewParam("w", []float64{0})
	opt := NewAdam(0.1)
	params := []*Param{p}

	for i := 0; i < 500; i++ {
		ZeroGrads(params)
		p.Grad[0] = 2 * (p.Value[0] - 3)
		opt.Step(params)
	}

	if math.Abs(p.Value[0]-3) > 0.05 {
		t.Errorf("after 500 Adam steps w = %v, want ≈ 3", p.Value[0])
	}
}

func TestZeroGrads(t *testing.T) {
	p := NewParam("w", []float64{1, 2, 3})
	for i := range p.Grad {
		p.Grad[i] = float64(i + 1)
	}
	ZeroGrads([]*Param{p})
	for i, g := range p.Grad {
		if g != 0 {
			t.Errorf("Grad[%d] = %v, want 0", i, g)
		}
	}
}

func TestStepLR(t *testing.T) {
	opt := NewSGD(1.0, 0)
	sched := NewStepLR(opt, 2, 0.1)

	sched.Step() // epoch 1
	if lr := opt.LearningRate(); lr != 1.0 {
		t.Errorf("lr after 1 epoch = %v, want 1.0", lr)
	}
	sched.Step() // epoch 2: decay
	if lr := opt.LearningRate(); math.Abs(lr-0.1) > 1e-12 {
		t.Errorf("lr after 2 epochs = %v, want 0.1", lr)
	}
	sched.Step() // epoch 3
	sched.Step() // epoch 4: decay again
	if lr := opt.LearningRate(); math.Abs(lr-0.01) > 1e-12 {
		t.Errorf("lr after 4 epochs = %v, want 0.01", lr)
	}
}
