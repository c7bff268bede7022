package likelihood

import (
	"math"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Softmax is the categorical observation model for classification. Latent
// function values act as class logits; the likelihood is the softmax
// categorical distribution over them.
type Softmax struct {
	NumClasses int
}

// NewSoftmax creates a softmax likelihood over the given number of classes.
func NewSoftmax(numClasses int) *Softmax {
	if numClasses < 2 {
		panic("likelihood: softmax needs at least two classes")
	}
	return &Softmax{NumClasses: numClasses}
}

// LogProbs computes the log class probabilities for one sample's logits
// using the max-shift trick for stability.
func (s *Softmax) LogProbs(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for _, v := range logits {
		sum += math.Exp(v - max)
	}
	logSum := max + math.Log(sum)

	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = v - logSum
	}
	return out
}

// Probs computes the class probabilities for one sample's logits.
func (s *Softmax) Probs(logits []float64) []float64 {
	lp := s.LogProbs(logits)
	for i, v := range lp {
		lp[i] = math.Exp(v)
	}
	return lp
}

// Loss returns the negative log-likelihood of the label under the logits and
// the gradient of the loss with respect to the logits (p - onehot).
func (s *Softmax) Loss(logits []float64, label int) (float64, []float64) {
	if label < 0 || label >= len(logits) {
		panic("likelihood: label out of range")
	}
	lp := s.LogProbs(logits)
	loss := -lp[label]

	grad := make([]float64, len(logits))
	for i, v := range lp {
		grad[i] = math.Exp(v)
	}
	grad[label] -= 1
	return loss, grad
}

// StateDict returns the likelihood configuration. Softmax has no learnable
// parameters; the class count is recorded so checkpoints stay
// self-describing.
func (s *Softmax) StateDict() map[string][]float64 {
	return map[string][]float64{"num_classes": {float64(s.NumClasses)}}
}

// LoadStateDict checks the stored configuration against the receiver.
func (s *Softmax) LoadStateDict(state map[string][]float64) error {
	if v, ok := state["num_classes"]; ok && len(v) == 1 && int(v[0]) != s.NumClasses {
		return errors.NewValueError("Softmax.LoadStateDict", "class count does not match checkpoint")
	}
	return nil
}
