// Package gaussianprocesses provides Gaussian-process regression and deep
// kernel learning for Go, together with a repeatable train/evaluate/benchmark
// harness built on gonum.
//
// The library covers exact GP regression with fast approximate predictive
// variances (a Lanczos low-rank root decomposition of the training kernel),
// and a variational grid-inducing-point GP stacked on a neural feature
// extractor for image classification.
//
// # Quick Start
//
// Exact GP regression on a 1D function:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/messiest/gaussian-processes/gp"
//	    "github.com/messiest/gaussian-processes/kernel"
//	    "github.com/messiest/gaussian-processes/likelihood"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
//	    y := []float64{0, 0.84, 0.91, 0.14}
//
//	    model := gp.NewExactGP(1, kernel.NewRBF(), likelihood.NewGaussian(0.01))
//	    if err := model.SetTrainData(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    model.EvalMode()
//	    mean, err := model.PredictMean(mat.NewDense(1, 1, []float64{1.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("mean:", mean)
//	}
//
// # Packages
//
//   - gp: exact GP regression, fast predictive covariance via Lanczos roots
//   - variational: grid-inducing-point variational GP, deep kernel learning
//   - kernel: covariance functions and inducing grids
//   - likelihood: Gaussian and softmax observation models
//   - nn: feature-extractor layers with manual backprop
//   - optim: SGD, Adam, learning-rate schedules
//   - train: training loop, callbacks, benchmark, checkpointing
//   - datasets: dataset registry, download, IDX codec, splits
//   - preprocessing: min-max and standard scalers
//   - metrics: regression and classification metrics
package gaussianprocesses
