// Package nn implements small feed-forward neural networks used as feature
// extractors for deep kernel models. Layers operate on row-batched dense
// matrices and carry their own gradients, accumulated during Backward into
// the optim.Param buffers.
package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Layer is one differentiable stage of a network. Forward caches whatever
// Backward needs, so a layer instance must not be shared between concurrent
// passes.
type Layer interface {
	// Forward maps a batch (one sample per row) to the layer output.
	Forward(x *mat.Dense) (*mat.Dense, error)
	// Backward takes the loss gradient with respect to the layer output,
	// accumulates parameter gradients, and returns the gradient with
	// respect to the layer input.
	Backward(grad *mat.Dense) (*mat.Dense, error)
	// Params returns the learnable parameters, or nil for stateless
	// layers.
	Params() []*optim.Param
}

// Sequential chains layers, feeding each layer's output to the next.
type Sequential struct {
	layers []Layer
}

// NewSequential builds a network from the given layers.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward runs the batch through all layers in order.
func (s *Sequential) Forward(x *mat.Dense) (*mat.Dense, error) {
	var err error
	for i, l := range s.layers {
		x, err = l.Forward(x)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d forward", i)
		}
	}
	return x, nil
}

// Backward runs the output gradient through all layers in reverse.
func (s *Sequential) Backward(grad *mat.Dense) (*mat.Dense, error) {
	var err error
	for i := len(s.layers) - 1; i >= 0; i-- {
		grad, err = s.layers[i].Backward(grad)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d backward", i)
		}
	}
	return grad, nil
}

// Params returns the parameters of all layers, each renamed with its layer
// index so names stay unique across the network.
func (s *Sequential) Params() []*optim.Param {
	var out []*optim.Param
	for i, l := range s.layers {
		for _, p := range l.Params() {
			out = append(out, &optim.Param{
				Name:  fmt.Sprintf("%d.%s", i, p.Name),
				Value: p.Value,
				Grad:  p.Grad,
			})
		}
	}
	return out
}

// StateDict returns copies of all parameter values keyed by qualified name.
func (s *Sequential) StateDict() map[string][]float64 {
	state := make(map[string][]float64)
	for _, p := range s.Params() {
		state[p.Name] = append([]float64(nil), p.Value...)
	}
	return state
}

// LoadStateDict restores parameter values by qualified name. Unknown keys
// are an error; missing keys leave the current values in place.
func (s *Sequential) LoadStateDict(state map[string][]float64) error {
	params := make(map[string]*optim.Param)
	for _, p := range s.Params() {
		params[p.Name] = p
	}
	for name, v := range state {
		p, ok := params[name]
		if !ok {
			return errors.NewValueError("Sequential.LoadStateDict", "unknown parameter "+name)
		}
		if len(v) != len(p.Value) {
			return errors.NewDimensionError("Sequential.LoadStateDict", len(p.Value), len(v), 0)
		}
		copy(p.Value, v)
	}
	return nil
}
