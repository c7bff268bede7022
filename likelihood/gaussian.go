// Package likelihood provides observation models mapping latent GP output to
// observed data: Gaussian noise for regression, softmax for classification.
package likelihood

import (
	"math"

	"github.com/messiest/gaussian-processes/kernel"
)

// Noise bounds keep the log-noise parameter away from degenerate values
// during marginal-likelihood training.
var (
	MinLogNoise = math.Log(1e-6)
	MaxLogNoise = math.Log(1.0)
)

// Gaussian is the homoskedastic Gaussian observation model for regression.
// The latent GP output f is observed as y = f + ε with ε ~ N(0, σ²). The
// noise variance is log-parameterized and trained jointly with the kernel
// hyperparameters.
type Gaussian struct {
	LogNoise float64
}

// NewGaussian creates a Gaussian likelihood with the given initial noise
// variance. noise must be positive.
func NewGaussian(noise float64) *Gaussian {
	if !(noise > 0) {
		panic("likelihood: non-positive noise")
	}
	return &Gaussian{LogNoise: math.Log(noise)}
}

// Noise returns the noise variance σ².
func (g *Gaussian) Noise() float64 {
	return math.Exp(g.LogNoise)
}

// Bound returns the box constraint on the log noise.
func (g *Gaussian) Bound() kernel.Bound {
	return kernel.Bound{Min: MinLogNoise, Max: MaxLogNoise}
}

// StateDict returns the likelihood parameters keyed by name.
func (g *Gaussian) StateDict() map[string][]float64 {
	return map[string][]float64{
		"log_noise": {g.LogNoise},
	}
}

// LoadStateDict restores the likelihood parameters.
func (g *Gaussian) LoadStateDict(state map[string][]float64) error {
	if v, ok := state["log_noise"]; ok && len(v) == 1 {
		g.LogNoise = v[0]
	}
	return nil
}
