package train

import (
	"path/filepath"

	"github.com/messiest/gaussian-processes/core/model"
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Checkpoint is a training snapshot holding the epoch number and two named
// parameter groups, the model parameters and the likelihood parameters.
// Snapshots are written with gob through the shared persistence helpers and
// overwrite any existing file at the same path.
type Checkpoint struct {
	Epoch      int
	Model      map[string][]float64
	Likelihood map[string][]float64
}

// NewCheckpoint captures the state of a model and its likelihood at the end
// of an epoch.
func NewCheckpoint(epoch int, m, lik model.StateExporter) *Checkpoint {
	return &Checkpoint{
		Epoch:      epoch,
		Model:      m.StateDict(),
		Likelihood: lik.StateDict(),
	}
}

// Save writes the checkpoint to path.
func (c *Checkpoint) Save(path string) error {
	return errors.Wrapf(model.SaveModel(c, path), "saving checkpoint %s", path)
}

// LoadCheckpoint reads a checkpoint from path.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	var c Checkpoint
	if err := model.LoadModel(&c, path); err != nil {
		return nil, errors.Wrapf(err, "loading checkpoint %s", path)
	}
	return &c, nil
}

// Restore pushes the checkpoint's parameter groups back into a model and
// likelihood.
func (c *Checkpoint) Restore(m, lik model.StateExporter) error {
	if err := m.LoadStateDict(c.Model); err != nil {
		return errors.Wrap(err, "restoring model parameters")
	}
	return errors.Wrap(lik.LoadStateDict(c.Likelihood), "restoring likelihood parameters")
}

// CheckpointPath names the checkpoint file inside dir. Every epoch writes
// the same file; the stored Epoch field identifies the snapshot.
func CheckpointPath(dir string) string {
	return filepath.Join(dir, "checkpoint.gob")
}
