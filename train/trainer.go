// Package train provides the fixed-iteration training harness shared by the
// regression and classification programs, plus epoch checkpointing and the
// predictive-covariance benchmark.
package train

import (
	"context"
	"time"

	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
	"github.com/messiest/gaussian-processes/pkg/log"
)

// StepFunc computes the loss for one iteration and fills the parameter
// gradient buffers.
type StepFunc func(ctx context.Context) (float64, error)

// Trainer runs fixed-iteration gradient training: it never checks for
// convergence and performs exactly one optimizer step per iteration.
type Trainer struct {
	Optimizer optim.Optimizer
	Scheduler optim.Scheduler
	Callbacks []Callback
	Logger    log.Logger
}

// NewTrainer creates a trainer with the package logger.
func NewTrainer(opt optim.Optimizer) *Trainer {
	return &Trainer{
		Optimizer: opt,
		Logger:    log.GetLoggerWithName("train"),
	}
}

// Run performs exactly iterations optimizer steps, unless the context is
// canceled or a callback stops training. Each iteration zeroes the
// gradients, calls step to compute the loss and gradients, and applies one
// optimizer update. It returns the final loss.
func (t *Trainer) Run(ctx context.Context, params []*optim.Param, iterations int, step StepFunc) (float64, error) {
	if iterations < 1 {
		return 0, errors.NewValidationError("iterations", "must be positive", iterations)
	}
	if t.Optimizer == nil {
		return 0, errors.NewValueError("Trainer.Run", "no optimizer configured")
	}

	begin := time.Now()
	var loss float64
	for it := 1; it <= iterations; it++ {
		select {
		case <-ctx.Done():
			return loss, errors.Wrap(ctx.Err(), "training canceled")
		default:
		}

		optim.ZeroGrads(params)
		var err error
		loss, err = step(ctx)
		if err != nil {
			return loss, errors.Wrapf(err, "iteration %d", it)
		}
		t.Optimizer.Step(params)

		if t.Logger != nil {
			t.Logger.Debug("iteration complete",
				log.IterationKey, it,
				log.LossKey, loss,
				log.LearningRateKey, t.Optimizer.LearningRate(),
			)
		}

		env := &CallbackEnv{
			Iteration:    it,
			MaxIteration: iterations,
			Loss:         loss,
			LearningRate: t.Optimizer.LearningRate(),
			BeginTime:    begin,
		}
		for _, cb := range t.Callbacks {
			if err := cb(env); err != nil {
				return loss, err
			}
		}
		if env.StopTraining {
			break
		}
	}
	return loss, nil
}

// EpochFunc runs one training epoch and returns its mean loss.
type EpochFunc func(ctx context.Context, epoch int) (float64, error)

// EpochEndFunc runs after each epoch, for checkpointing and evaluation.
type EpochEndFunc func(ctx context.Context, epoch int, loss float64) error

// RunEpochs drives epoch-based training: each epoch runs the epoch function,
// steps the scheduler if one is configured, then invokes onEnd. Epochs are
// numbered from 1.
func (t *Trainer) RunEpochs(ctx context.Context, epochs int, epoch EpochFunc, onEnd EpochEndFunc) error {
	if epochs < 1 {
		return errors.NewValidationError("epochs", "must be positive", epochs)
	}

	for e := 1; e <= epochs; e++ {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "training canceled")
		default:
		}

		start := time.Now()
		loss, err := epoch(ctx, e)
		if err != nil {
			return errors.Wrapf(err, "epoch %d", e)
		}
		if t.Scheduler != nil {
			t.Scheduler.Step()
		}

		if t.Logger != nil {
			t.Logger.Info("epoch complete",
				log.EpochKey, e,
				log.LossKey, loss,
				log.LearningRateKey, t.Optimizer.LearningRate(),
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
		}

		if onEnd != nil {
			if err := onEnd(ctx, e, loss); err != nil {
				return errors.Wrapf(err, "epoch %d post-processing", e)
			}
		}
	}
	return nil
}
