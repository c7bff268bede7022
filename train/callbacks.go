package train

import (
	"fmt"
	"math"
	"time"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// CallbackEnv carries the training state visible to callbacks at the end of
// each iteration.
type CallbackEnv struct {
	Iteration    int
	MaxIteration int
	Loss         float64
	LearningRate float64
	BeginTime    time.Time
	StopTraining bool
}

// Callback is invoked after every training iteration.
type Callback func(env *CallbackEnv) error

// PrintLoss prints the loss every period iterations, in the
// "Iter 1/50 - Loss: 0.931" style.
func PrintLoss(period int) Callback {
	return func(env *CallbackEnv) error {
		if env.Iteration%period == 0 || env.Iteration == env.MaxIteration {
			fmt.Printf("Iter %d/%d - Loss: %.3f\n", env.Iteration, env.MaxIteration, env.Loss)
		}
		return nil
	}
}

// RecordLoss appends each iteration's loss to history.
func RecordLoss(history *[]float64) Callback {
	return func(env *CallbackEnv) error {
		*history = append(*history, env.Loss)
		return nil
	}
}

// StopOnNaN aborts training when the loss goes non-finite.
func StopOnNaN() Callback {
	return func(env *CallbackEnv) error {
		if math.IsNaN(env.Loss) {
			env.StopTraining = true
			return errors.Newf("loss is NaN at iteration %d", env.Iteration)
		}
		return nil
	}
}

// TimeLimit stops training once the wall-clock budget is spent.
func TimeLimit(maxDuration time.Duration) Callback {
	return func(env *CallbackEnv) error {
		if time.Since(env.BeginTime) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}
