package model

// EstimatorState represents whether a model has been fitted.
type EstimatorState int

const (
	// NotFitted is the state before training data has been seen.
	NotFitted EstimatorState = iota
	// Fitted is the state after training data has been seen.
	Fitted
)

// Mode is the two-state train/eval toggle of a model. Caches built for
// prediction are only valid in Evaluation mode; transitioning back to
// Training invalidates them.
type Mode int

const (
	// Training is the mode in which parameters may be mutated.
	Training Mode = iota
	// Evaluation is the inference mode in which predictive caches are valid.
	Evaluation
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Evaluation {
		return "eval"
	}
	return "train"
}

// BaseEstimator is the embedded base of all models. It tracks fitted state
// and the train/eval mode.
type BaseEstimator struct {
	state EstimatorState
	mode  Mode
}

// IsFitted reports whether the model has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the model as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the model to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// Mode returns the current train/eval mode.
func (e *BaseEstimator) Mode() Mode {
	return e.mode
}

// SetMode sets the train/eval mode and reports whether it changed. Models
// embedding BaseEstimator drop mode-dependent caches when it does.
func (e *BaseEstimator) SetMode(m Mode) bool {
	if e.mode == m {
		return false
	}
	e.mode = m
	return true
}
