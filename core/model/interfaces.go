// Package model provides the shared model contracts: fitted-state and
// train/eval mode tracking, parameter export for checkpointing, and gob
// persistence helpers.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is a model that can be fitted to training data.
type Fitter interface {
	// Fit trains the model on X and y.
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that can predict on new inputs.
type Predictor interface {
	// Predict returns predictions for the rows of X.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is a fitted data transformation such as a scaler.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// ModeSwitcher is a model with a train/eval mode toggle.
type ModeSwitcher interface {
	// TrainMode places the model in training mode, invalidating any
	// predictive caches.
	TrainMode()

	// EvalMode places the model in evaluation mode.
	EvalMode()

	// Mode returns the current mode.
	Mode() Mode
}

// StateExporter exposes a model's learnable parameters as named vectors for
// checkpointing. LoadStateDict must accept exactly the dict produced by
// StateDict on a compatibly constructed model.
type StateExporter interface {
	// StateDict returns copies of the parameter vectors keyed by name.
	StateDict() map[string][]float64

	// LoadStateDict overwrites the parameters with the given vectors.
	LoadStateDict(state map[string][]float64) error
}

// ParameterGetter exposes a model's hyperparameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
