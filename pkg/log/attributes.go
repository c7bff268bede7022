package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type.
	// Examples: "ExactGP", "DKLModel", "MinMaxScaler"
	ModelNameKey = "model.name"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "predict_cov", "benchmark"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or component emitting the event.
	// Examples: "gp", "train", "datasets"
	ComponentKey = "ml.component"

	// PhaseKey indicates the model lifecycle phase.
	// Examples: "training", "evaluation"
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) processed.
	FeaturesKey = "data.features"

	// BatchSizeKey is the minibatch size of the current step.
	BatchSizeKey = "data.batch_size"
)

// Training progress.
const (
	// IterationKey is the current iteration index of the training loop.
	IterationKey = "train.iteration"

	// EpochKey is the current epoch index.
	EpochKey = "train.epoch"

	// LossKey is the scalar loss of the current step.
	LossKey = "train.loss"

	// LearningRateKey is the optimizer learning rate in effect.
	LearningRateKey = "train.lr"
)

// Performance and benchmark results.
const (
	// DurationMsKey is the wall-clock duration of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"

	// PredictModeKey names the covariance path used: "exact" or "fast".
	PredictModeKey = "perf.predict_mode"

	// RootSizeKey is the Lanczos root decomposition size of the fast path.
	RootSizeKey = "perf.root_size"

	// MAEKey is the mean absolute error of an approximation or prediction.
	MAEKey = "perf.mae"

	// AccuracyKey is a classification accuracy in [0, 1].
	AccuracyKey = "perf.accuracy"
)
