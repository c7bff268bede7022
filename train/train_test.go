package train

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/gp"
	"github.com/messiest/gaussian-processes/kernel"
	"github.com/messiest/gaussian-processes/likelihood"
	"github.com/messiest/gaussian-processes/optim"
)

// countingOptimizer records how many times Step is called without touching
// the parameters.
type countingOptimizer struct {
	steps int
	lr    float64
}

func (c *countingOptimizer) Step([]*optim.Param) { c.steps++ }

func (c *countingOptimizer) LearningRate() float64 { return c.lr }

func (c *countingOptimizer) SetLearningRate(lr float64) { c.lr = lr }

func TestTrainerRunsExactIterationCount(t *testing.T) {
	opt := &countingOptimizer{lr: 0.1}
	tr := NewTrainer(opt)

	calls := 0
	step := func(context.Context) (float64, error) {
		calls++
		return 1.0 / float64(calls), nil
	}

	const iterations = 50
	loss, err := tr.Run(context.Background(), nil, iterations, step)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if opt.steps != iterations {
		t.Errorf("optimizer stepped %d times, want %d", opt.steps, iterations)
	}
	if calls != iterations {
		t.Errorf("step function called %d times, want %d", calls, iterations)
	}
	if want := 1.0 / iterations; loss != want {
		t.Errorf("final loss = %v, want %v", loss, want)
	}
}

func TestTrainerZeroesGradsEachIteration(t *testing.T) {
	p := optim.NewParam("w", []float64{0})
	tr := NewTrainer(&countingOptimizer{})

	step := func(context.Context) (float64, error) {
		if p.Grad[0] != 0 {
			t.Error("gradient not zeroed before step")
		}
		p.Grad[0] += 1
		return 0, nil
	}
	if _, err := tr.Run(context.Background(), []*optim.Param{p}, 3, step); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestTrainerCallbackStops(t *testing.T) {
	opt := &countingOptimizer{}
	tr := NewTrainer(opt)
	tr.Callbacks = append(tr.Callbacks, func(env *CallbackEnv) error {
		if env.Iteration == 3 {
			env.StopTraining = true
		}
		return nil
	})

	_, err := tr.Run(context.Background(), nil, 10, func(context.Context) (float64, error) {
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if opt.steps != 3 {
		t.Errorf("optimizer stepped %d times, want 3", opt.steps)
	}
}

func TestTrainerRecordLoss(t *testing.T) {
	tr := NewTrainer(&countingOptimizer{})
	var history []float64
	tr.Callbacks = append(tr.Callbacks, RecordLoss(&history))

	it := 0
	_, err := tr.Run(context.Background(), nil, 4, func(context.Context) (float64, error) {
		it++
		return float64(it), nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []float64{1, 2, 3, 4}
	if len(history) != len(want) {
		t.Fatalf("recorded %d losses, want %d", len(history), len(want))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %v, want %v", i, history[i], want[i])
		}
	}
}

func TestTrainerStopOnNaN(t *testing.T) {
	tr := NewTrainer(&countingOptimizer{})
	tr.Callbacks = append(tr.Callbacks, StopOnNaN())

	_, err := tr.Run(context.Background(), nil, 10, func(context.Context) (float64, error) {
		return math.NaN(), nil
	})
	if err == nil {
		t.Error("expected error for NaN loss")
	}
}

func TestRunEpochsStepsScheduler(t *testing.T) {
	opt := optim.NewSGD(1.0, 0)
	tr := NewTrainer(opt)
	tr.Scheduler = optim.NewStepLR(opt, 2, 0.1)

	var epochs []int
	err := tr.RunEpochs(context.Background(), 4,
		func(_ context.Context, e int) (float64, error) {
			epochs = append(epochs, e)
			return 0, nil
		}, nil)
	if err != nil {
		t.Fatalf("RunEpochs: %v", err)
	}
	if len(epochs) != 4 || epochs[0] != 1 || epochs[3] != 4 {
		t.Errorf("epochs = %v, want [1 2 3 4]", epochs)
	}
	// Two scheduler periods of two epochs each.
	if lr := opt.LearningRate(); math.Abs(lr-0.01) > 1e-12 {
		t.Errorf("learning rate = %v, want 0.01", lr)
	}
}

func TestRunEpochsCheckpointsEveryEpoch(t *testing.T) {
	dir := t.TempDir()
	tr := NewTrainer(optim.NewSGD(0.1, 0))
	path := CheckpointPath(dir)

	saves := 0
	err := tr.RunEpochs(context.Background(), 3,
		func(context.Context, int) (float64, error) { return 0.5, nil },
		func(_ context.Context, epoch int, _ float64) error {
			c := &Checkpoint{Epoch: epoch, Model: map[string][]float64{"w": {1}}}
			if err := c.Save(path); err != nil {
				return err
			}
			saves++
			return nil
		})
	if err != nil {
		t.Fatalf("RunEpochs: %v", err)
	}
	if saves != 3 {
		t.Fatalf("saved %d times, want 3", saves)
	}

	// Each epoch overwrites the same file; the survivor is the last epoch.
	c, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if c.Epoch != 3 {
		t.Errorf("checkpoint holds epoch %d, want 3", c.Epoch)
	}
}

func trainedGP(t *testing.T, n int) *gp.ExactGP {
	t.Helper()
	g := gp.NewExactGP(1, kernel.NewRBF(), likelihood.NewGaussian(0.01))
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1)
		x.Set(i, 0, v)
		y[i] = math.Sin(2 * math.Pi * v)
	}
	if err := g.SetTrainData(x, y); err != nil {
		t.Fatalf("SetTrainData: %v", err)
	}
	return g
}

func TestCheckpointRoundTripGP(t *testing.T) {
	g := trainedGP(t, 10)
	if err := g.LoadStateDict(map[string][]float64{"log_noise": {math.Log(0.07)}}); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	lik := g.Likelihood()

	path := filepath.Join(t.TempDir(), "ckpt.gob")
	if err := NewCheckpoint(5, g, lik).Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restoredGP := trainedGP(t, 10)
	restoredLik := restoredGP.Likelihood()
	c, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if c.Epoch != 5 {
		t.Errorf("epoch = %d, want 5", c.Epoch)
	}
	if err := c.Restore(restoredGP, restoredLik); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := restoredLik.Noise(); math.Abs(got-0.07) > 1e-12 {
		t.Errorf("restored noise = %v, want 0.07", got)
	}
}

func TestCheckpointOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.gob")
	for epoch := 1; epoch <= 2; epoch++ {
		c := &Checkpoint{Epoch: epoch}
		if err := c.Save(path); err != nil {
			t.Fatalf("Save epoch %d: %v", epoch, err)
		}
	}
	c, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if c.Epoch != 2 {
		t.Errorf("epoch = %d, want latest epoch 2", c.Epoch)
	}
}

func TestBenchmarkCovariance(t *testing.T) {
	g := trainedGP(t, 40)
	g.EvalMode()

	test := mat.NewDense(5, 1, []float64{0.05, 0.25, 0.5, 0.75, 0.95})
	res, err := BenchmarkCovariance(g, test, 15)
	if err != nil {
		t.Fatalf("BenchmarkCovariance: %v", err)
	}
	if res.RootSize != 15 {
		t.Errorf("root size = %d, want 15", res.RootSize)
	}
	if res.MAE > 0.01 {
		t.Errorf("MAE = %v, want < 0.01", res.MAE)
	}
	if res.Exact <= 0 || res.FastCold <= 0 || res.FastWarm <= 0 {
		t.Error("expected positive durations")
	}
}
