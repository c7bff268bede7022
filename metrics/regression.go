// Package metrics provides regression and classification metrics, including
// the matrix mean absolute error used to compare exact and approximate
// predictive covariances.
package metrics

import (
	"math"

	"github.com/messiest/gaussian-processes/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MSE computes the mean squared error between two vectors.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE computes the root mean squared error between two vectors.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error between two vectors.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// MAEMatrix computes the mean absolute difference between two matrices of
// identical shape. This is the benchmark's measure of the approximation error
// between exact and fast predictive covariances.
func MAEMatrix(a, b mat.Matrix) (float64, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra == 0 || ca == 0 {
		return 0, errors.NewValueError("MAEMatrix", "empty matrix")
	}
	if ra != rb {
		return 0, errors.NewDimensionError("MAEMatrix", ra, rb, 0)
	}
	if ca != cb {
		return 0, errors.NewDimensionError("MAEMatrix", ca, cb, 1)
	}

	var sum float64
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			sum += math.Abs(a.At(i, j) - b.At(i, j))
		}
	}
	return sum / float64(ra*ca), nil
}

// R2Score computes the coefficient of determination.
//
// R² = 1 - SS_res / SS_tot. A constant true vector with perfect predictions
// scores 1; a constant true vector with any error scores 0.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var meanTrue float64
	for i := 0; i < n; i++ {
		meanTrue += yTrue.AtVec(i)
	}
	meanTrue /= float64(n)

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		ssRes += diff * diff
		dev := yTrue.AtVec(i) - meanTrue
		ssTot += dev * dev
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
