package metrics

import (
	"github.com/messiest/gaussian-processes/pkg/errors"
)

// Accuracy computes the fraction of matching labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty labels")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ArgmaxRows returns the index of the maximum entry of each row of a
// row-major matrix with the given number of columns. Used to turn class
// logits into label predictions.
func ArgmaxRows(data []float64, cols int) ([]int, error) {
	if cols <= 0 {
		return nil, errors.NewValueError("ArgmaxRows", "non-positive column count")
	}
	if len(data)%cols != 0 {
		return nil, errors.NewDimensionError("ArgmaxRows", cols, len(data)%cols, 1)
	}

	rows := len(data) / cols
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		best := 0
		bestVal := data[i*cols]
		for j := 1; j < cols; j++ {
			if v := data[i*cols+j]; v > bestVal {
				best = j
				bestVal = v
			}
		}
		out[i] = best
	}
	return out, nil
}
