package optim

// Scheduler adjusts an optimizer's learning rate over the course of
// training. Step is called once per epoch.
type Scheduler interface {
	Step()
}

// StepLR multiplies the learning rate by Gamma every StepSize epochs.
type StepLR struct {
	opt      Optimizer
	stepSize int
	gamma    float64
	epoch    int
}

// NewStepLR creates a StepLR schedule on the given optimizer.
func NewStepLR(opt Optimizer, stepSize int, gamma float64) *StepLR {
	if stepSize <= 0 {
		panic("optim: step size must be positive")
	}
	return &StepLR{opt: opt, stepSize: stepSize, gamma: gamma}
}

// Step advances the schedule by one epoch.
func (s *StepLR) Step() {
	s.epoch++
	if s.epoch%s.stepSize == 0 {
		s.opt.SetLearningRate(s.opt.LearningRate() * s.gamma)
	}
}
