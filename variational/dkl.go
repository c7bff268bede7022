package variational

import (
	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/core/model"
	"github.com/messiest/gaussian-processes/likelihood"
	"github.com/messiest/gaussian-processes/metrics"
	"github.com/messiest/gaussian-processes/nn"
	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// DKLModel is a deep kernel learning classifier: a neural feature extractor
// feeding a grid-interpolation variational GP head with a softmax
// likelihood. Training minimizes the negative evidence lower bound, the mean
// batch cross entropy at the latent mean plus the KL term scaled by the
// data set size.
type DKLModel struct {
	model.BaseEstimator

	extractor *nn.Sequential
	scale     *ScaleToBounds
	gp        *AdditiveGridGP
	lik       *likelihood.Softmax

	numData int
}

// NewDKLModel assembles the classifier. numData is the training set size
// used to weight the KL term of the objective.
func NewDKLModel(extractor *nn.Sequential, gp *AdditiveGridGP, numData int) (*DKLModel, error) {
	if numData < 1 {
		return nil, errors.NewValueError("NewDKLModel", "need a positive training set size")
	}
	m := &DKLModel{
		extractor: extractor,
		scale:     NewScaleToBounds(gp.grid.Lo, gp.grid.Hi),
		gp:        gp,
		lik:       likelihood.NewSoftmax(gp.NumClasses()),
		numData:   numData,
	}
	m.SetFitted()
	return m, nil
}

// Extractor returns the feature extractor network.
func (m *DKLModel) Extractor() *nn.Sequential { return m.extractor }

// GP returns the variational head.
func (m *DKLModel) GP() *AdditiveGridGP { return m.gp }

// Likelihood returns the softmax likelihood.
func (m *DKLModel) Likelihood() *likelihood.Softmax { return m.lik }

// Params returns all learnable parameters: extractor weights first, then
// the variational parameters of the head.
func (m *DKLModel) Params() []*optim.Param {
	return append(m.extractor.Params(), m.gp.Params()...)
}

// TrainMode switches to training mode.
func (m *DKLModel) TrainMode() { m.SetMode(model.Training) }

// EvalMode switches to evaluation mode.
func (m *DKLModel) EvalMode() { m.SetMode(model.Evaluation) }

// logits runs the full forward pass for a batch.
func (m *DKLModel) logits(x *mat.Dense) (*mat.Dense, error) {
	features, err := m.extractor.Forward(x)
	if err != nil {
		return nil, errors.Wrap(err, "feature extraction")
	}
	scaled, err := m.scale.Forward(features)
	if err != nil {
		return nil, err
	}
	return m.gp.Forward(scaled)
}

// Loss computes the negative ELBO for one batch and accumulates gradients
// into all parameter buffers. Labels must be in [0, numClasses).
func (m *DKLModel) Loss(x *mat.Dense, labels []int) (float64, error) {
	n, _ := x.Dims()
	if n == 0 {
		return 0, errors.NewModelError("DKLModel.Loss", "empty batch", errors.ErrEmptyData)
	}
	if len(labels) != n {
		return 0, errors.NewDimensionError("DKLModel.Loss", n, len(labels), 0)
	}
	if m.Mode() != model.Training {
		return 0, errors.NewValueError("DKLModel.Loss", "model is in evaluation mode; call TrainMode() before training")
	}

	out, err := m.logits(x)
	if err != nil {
		return 0, err
	}

	var nll float64
	gradOut := mat.NewDense(n, m.gp.NumClasses(), nil)
	inv := 1 / float64(n)
	for i := 0; i < n; i++ {
		l, g := m.lik.Loss(out.RawRowView(i), labels[i])
		nll += l * inv
		row := gradOut.RawRowView(i)
		for j := range g {
			row[j] = g[j] * inv
		}
	}

	gz, err := m.gp.Backward(gradOut)
	if err != nil {
		return 0, err
	}
	gf, err := m.scale.Backward(gz)
	if err != nil {
		return 0, err
	}
	if _, err := m.extractor.Backward(gf); err != nil {
		return 0, err
	}

	kl := m.gp.KL(1 / float64(m.numData))
	return nll + kl, nil
}

// PredictLogits returns the latent class scores for a batch.
func (m *DKLModel) PredictLogits(x *mat.Dense) (*mat.Dense, error) {
	if m.Mode() != model.Evaluation {
		return nil, errors.NewValueError("DKLModel.PredictLogits", "model is in training mode; call EvalMode() before predicting")
	}
	return m.logits(x)
}

// Predict returns the most likely class per batch row.
func (m *DKLModel) Predict(x *mat.Dense) ([]int, error) {
	out, err := m.PredictLogits(x)
	if err != nil {
		return nil, err
	}
	n, c := out.Dims()
	return metrics.ArgmaxRows(out.RawMatrix().Data[:n*c], c)
}

// StateDict returns all model parameters with extractor weights under an
// "extractor." prefix and the head parameters under "gp.".
func (m *DKLModel) StateDict() map[string][]float64 {
	state := make(map[string][]float64)
	for name, v := range m.extractor.StateDict() {
		state["extractor."+name] = v
	}
	for name, v := range m.gp.StateDict() {
		state["gp."+name] = v
	}
	return state
}

// LoadStateDict restores all model parameters.
func (m *DKLModel) LoadStateDict(state map[string][]float64) error {
	ex := make(map[string][]float64)
	gp := make(map[string][]float64)
	for name, v := range state {
		switch {
		case len(name) > 10 && name[:10] == "extractor.":
			ex[name[10:]] = v
		case len(name) > 3 && name[:3] == "gp.":
			gp[name[3:]] = v
		default:
			return errors.NewValueError("DKLModel.LoadStateDict", "unknown parameter "+name)
		}
	}
	if err := m.extractor.LoadStateDict(ex); err != nil {
		return err
	}
	return m.gp.LoadStateDict(gp)
}
