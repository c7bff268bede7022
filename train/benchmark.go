package train

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/gp"
	"github.com/messiest/gaussian-processes/metrics"
	"github.com/messiest/gaussian-processes/pkg/errors"
	"github.com/messiest/gaussian-processes/pkg/log"
)

// CovPredictor is the part of a regression model the covariance benchmark
// needs.
type CovPredictor interface {
	PredictCov(X mat.Matrix, cfg gp.PredictConfig) (*mat.SymDense, error)
}

// BenchmarkResult reports the timing comparison between the exact and fast
// predictive-covariance paths on one test set.
type BenchmarkResult struct {
	RootSize int

	// Exact is the dense-solve wall time. FastCold includes building the
	// root-decomposition cache; FastWarm reuses it.
	Exact    time.Duration
	FastCold time.Duration
	FastWarm time.Duration

	// MAE is the mean absolute difference between the exact and fast
	// covariance matrices.
	MAE float64
}

// BenchmarkCovariance times the exact path, the fast path with a cold
// cache, and the fast path again with a warm cache. The model must be in
// evaluation mode with no cache built yet, otherwise the cold measurement
// reads as warm.
func BenchmarkCovariance(m CovPredictor, X mat.Matrix, rootSize int) (*BenchmarkResult, error) {
	logger := log.GetLoggerWithName("benchmark")

	start := time.Now()
	exact, err := m.PredictCov(X, gp.PredictConfig{Mode: gp.Exact})
	if err != nil {
		return nil, errors.Wrap(err, "exact covariance")
	}
	exactDur := time.Since(start)
	logger.Info("computed exact covariance",
		log.PredictModeKey, gp.Exact.String(),
		log.DurationMsKey, exactDur.Milliseconds(),
	)

	cfg := gp.PredictConfig{Mode: gp.Fast, RootDecompositionSize: rootSize}
	start = time.Now()
	fast, err := m.PredictCov(X, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "fast covariance (cold cache)")
	}
	coldDur := time.Since(start)
	logger.Info("computed fast covariance with cold cache",
		log.PredictModeKey, gp.Fast.String(),
		log.RootSizeKey, rootSize,
		log.DurationMsKey, coldDur.Milliseconds(),
	)

	start = time.Now()
	if _, err := m.PredictCov(X, cfg); err != nil {
		return nil, errors.Wrap(err, "fast covariance (warm cache)")
	}
	warmDur := time.Since(start)
	logger.Info("computed fast covariance with warm cache",
		log.PredictModeKey, gp.Fast.String(),
		log.RootSizeKey, rootSize,
		log.DurationMsKey, warmDur.Milliseconds(),
	)

	mae, err := metrics.MAEMatrix(exact, fast)
	if err != nil {
		return nil, errors.Wrap(err, "comparing covariance matrices")
	}
	return &BenchmarkResult{
		RootSize: rootSize,
		Exact:    exactDur,
		FastCold: coldDur,
		FastWarm: warmDur,
		MAE:      mae,
	}, nil
}
