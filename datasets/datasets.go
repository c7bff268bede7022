// Package datasets locates, fetches, and loads the benchmark data sets used
// by the example programs. Data files use the IDX binary format; tabular
// sets store one sample per row with the target in the last column.
package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Descriptor identifies a known data set.
type Descriptor struct {
	Name string
	URL  string
	File string
	// Tabular data sets carry the regression target in the last column;
	// the rest are image classification sets.
	Tabular bool
}

var registry = map[string]Descriptor{
	"elevators": {
		Name:    "elevators",
		URL:     "https://www.cs.toronto.edu/~delve/data/elevators/elevators.idx",
		File:    "elevators.idx",
		Tabular: true,
	},
	"mnist": {
		Name: "mnist",
		URL:  "https://storage.googleapis.com/cvdf-datasets/mnist/",
		File: "mnist",
	},
}

// Known returns the registered data set names in sorted order.
func Known() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a data set name, rejecting names that are not registered.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[name]
	if !ok {
		return Descriptor{}, errors.NewValidationError(
			"dataset",
			fmt.Sprintf("unknown data set; known sets are %s", strings.Join(Known(), ", ")),
			name,
		)
	}
	return d, nil
}

// LoadMatrix reads a 2-D IDX file from disk.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening data file %s", path)
	}
	defer f.Close()
	return ReadIDXMatrix(f)
}

// FeaturesTargets splits a tabular matrix into a feature matrix and a
// target vector taken from the last column.
func FeaturesTargets(data *mat.Dense) (*mat.Dense, []float64, error) {
	r, c := data.Dims()
	if c < 2 {
		return nil, nil, errors.NewValueError("FeaturesTargets", "need at least one feature column and one target column")
	}
	x := mat.DenseCopyOf(data.Slice(0, r, 0, c-1))
	y := make([]float64, r)
	for i := 0; i < r; i++ {
		y[i] = data.At(i, c-1)
	}
	return x, y, nil
}

// TrainTestSplit splits the rows of a matrix into a contiguous training
// prefix and test suffix. trainFrac is the fraction of rows assigned to
// training, truncated toward zero. The two parts are disjoint and together
// cover every row.
func TrainTestSplit(data *mat.Dense, trainFrac float64) (train, test *mat.Dense, err error) {
	if trainFrac <= 0 || trainFrac >= 1 {
		return nil, nil, errors.NewValidationError("trainFrac", "must be strictly between 0 and 1", trainFrac)
	}
	r, c := data.Dims()
	nTrain := int(float64(r) * trainFrac)
	if nTrain == 0 || nTrain == r {
		return nil, nil, errors.NewValueError("TrainTestSplit", "split leaves one side empty")
	}
	train = mat.DenseCopyOf(data.Slice(0, nTrain, 0, c))
	test = mat.DenseCopyOf(data.Slice(nTrain, r, 0, c))
	return train, test, nil
}

// SplitLabels splits a label slice the same way TrainTestSplit splits rows.
func SplitLabels(labels []int, trainFrac float64) (train, test []int, err error) {
	if trainFrac <= 0 || trainFrac >= 1 {
		return nil, nil, errors.NewValidationError("trainFrac", "must be strictly between 0 and 1", trainFrac)
	}
	nTrain := int(float64(len(labels)) * trainFrac)
	if nTrain == 0 || nTrain == len(labels) {
		return nil, nil, errors.NewValueError("SplitLabels", "split leaves one side empty")
	}
	return labels[:nTrain], labels[nTrain:], nil
}

// CacheDir returns the directory data files are fetched into, creating it
// if needed.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "gaussian-processes", "datasets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating data cache directory")
	}
	return dir, nil
}
