// Command dkl trains a deep kernel learning image classifier: a small
// convolutional feature extractor feeding a grid-interpolation variational
// GP head. It checkpoints the model and likelihood after every epoch.
// Without MNIST IDX files on disk it trains on a synthetic bar-orientation
// task so the program stays runnable offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/datasets"
	"github.com/messiest/gaussian-processes/kernel"
	"github.com/messiest/gaussian-processes/metrics"
	"github.com/messiest/gaussian-processes/nn"
	"github.com/messiest/gaussian-processes/optim"
	"github.com/messiest/gaussian-processes/pkg/log"
	"github.com/messiest/gaussian-processes/train"
	"github.com/messiest/gaussian-processes/variational"
)

// Config holds every knob of the run.
type Config struct {
	DataDir       string // directory with MNIST-style IDX files; empty means synthetic
	CheckpointDir string
	Epochs        int
	BatchSize     int
	LearnRate     float64
	Momentum      float64
	LRStep        int // epochs between learning-rate decays
	LRGamma       float64
	Features      int // feature extractor output dimensions
	GridSize      int
	Seed          int64
}

func defaultConfig() Config {
	return Config{
		CheckpointDir: "checkpoints",
		Epochs:        3,
		BatchSize:     64,
		LearnRate:     0.1,
		Momentum:      0.9,
		LRStep:        2,
		LRGamma:       0.1,
		Features:      2,
		GridSize:      16,
		Seed:          1,
	}
}

// task bundles a loaded classification problem.
type task struct {
	trainX *mat.Dense
	trainY []int
	testX  *mat.Dense
	testY  []int

	classes int
	h, w    int
}

func main() {
	cfg := defaultConfig()
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory holding MNIST-style IDX image and label files")
	flag.StringVar(&cfg.CheckpointDir, "checkpoints", cfg.CheckpointDir, "directory for per-epoch checkpoints")
	flag.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "training epochs")
	flag.Parse()

	log.SetLevel(log.LevelInfo)
	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "dkl: %+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	tk, err := loadTask(cfg)
	if err != nil {
		return err
	}
	nTrain, _ := tk.trainX.Dims()
	nTest, _ := tk.testX.Dims()
	fmt.Printf("Training on %d images (%dx%d, %d classes), testing on %d\n",
		nTrain, tk.h, tk.w, tk.classes, nTest)

	rng := rand.New(rand.NewSource(cfg.Seed))
	extractor := buildExtractor(tk, cfg, rng)
	head, err := variational.NewAdditiveGridGP(tk.classes, cfg.Features,
		kernel.NewGrid(-1, 1, cfg.GridSize), kernel.NewRBF())
	if err != nil {
		return err
	}
	model, err := variational.NewDKLModel(extractor, head, nTrain)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.CheckpointDir, 0o755); err != nil {
		return err
	}

	opt := optim.NewSGD(cfg.LearnRate, cfg.Momentum)
	trainer := train.NewTrainer(opt)
	trainer.Scheduler = optim.NewStepLR(opt, cfg.LRStep, cfg.LRGamma)

	params := model.Params()
	err = trainer.RunEpochs(ctx, cfg.Epochs,
		func(ctx context.Context, epoch int) (float64, error) {
			model.TrainMode()
			var total float64
			batches := 0
			for start := 0; start < nTrain; start += cfg.BatchSize {
				end := start + cfg.BatchSize
				if end > nTrain {
					end = nTrain
				}
				batchX := mat.DenseCopyOf(tk.trainX.Slice(start, end, 0, tk.h*tk.w))
				optim.ZeroGrads(params)
				loss, err := model.Loss(batchX, tk.trainY[start:end])
				if err != nil {
					return 0, err
				}
				opt.Step(params)
				total += loss
				batches++
			}
			avg := total / float64(batches)
			fmt.Printf("Epoch %d/%d - Loss: %.3f\n", epoch, cfg.Epochs, avg)
			return avg, nil
		},
		func(_ context.Context, epoch int, _ float64) error {
			path := train.CheckpointPath(cfg.CheckpointDir)
			if err := train.NewCheckpoint(epoch, model, model.Likelihood()).Save(path); err != nil {
				return err
			}
			fmt.Printf("Saved %s (epoch %d)\n", path, epoch)
			return nil
		})
	if err != nil {
		return err
	}

	model.EvalMode()
	pred, err := model.Predict(tk.testX)
	if err != nil {
		return err
	}
	acc, err := metrics.Accuracy(tk.testY, pred)
	if err != nil {
		return err
	}
	fmt.Printf("Test accuracy: %.2f%%\n", 100*acc)
	return nil
}

// buildExtractor assembles the convolutional feature extractor for the task
// image size.
func buildExtractor(tk *task, cfg Config, rng *rand.Rand) *nn.Sequential {
	conv1 := nn.NewConv2D(1, 8, tk.h, tk.w, 3, 1, 1, rng)
	pool1 := nn.NewMaxPool2D(8, tk.h, tk.w, 2, 2)
	ph, pw := tk.h/2, tk.w/2
	conv2 := nn.NewConv2D(8, 16, ph, pw, 3, 1, 1, rng)
	pool2 := nn.NewMaxPool2D(16, ph, pw, 2, 2)

	return nn.NewSequential(
		conv1,
		nn.NewReLU(),
		pool1,
		conv2,
		nn.NewReLU(),
		pool2,
		nn.NewDense(pool2.OutputSize(), 64, rng),
		nn.NewReLU(),
		nn.NewDense(64, cfg.Features, rng),
	)
}

// loadTask reads MNIST-style IDX files from the data directory, or builds
// the synthetic bar-orientation task.
func loadTask(cfg Config) (*task, error) {
	if cfg.DataDir == "" {
		fmt.Println("No data directory given, using the synthetic bar task")
		return syntheticBars(cfg.Seed), nil
	}

	trainX, h, w, err := loadImages(filepath.Join(cfg.DataDir, "train-images-idx3-ubyte"))
	if err != nil {
		return nil, err
	}
	trainY, err := loadLabels(filepath.Join(cfg.DataDir, "train-labels-idx1-ubyte"))
	if err != nil {
		return nil, err
	}
	testX, _, _, err := loadImages(filepath.Join(cfg.DataDir, "t10k-images-idx3-ubyte"))
	if err != nil {
		return nil, err
	}
	testY, err := loadLabels(filepath.Join(cfg.DataDir, "t10k-labels-idx1-ubyte"))
	if err != nil {
		return nil, err
	}

	normalizePixels(trainX)
	normalizePixels(testX)
	return &task{
		trainX: trainX, trainY: trainY,
		testX: testX, testY: testY,
		classes: 10, h: h, w: w,
	}, nil
}

func loadImages(path string) (*mat.Dense, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	return datasets.ReadIDXImages(f)
}

func loadLabels(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return datasets.ReadIDXLabels(f)
}

func normalizePixels(x *mat.Dense) {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		row := x.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = row[j]/127.5 - 1
		}
	}
}

// syntheticBars builds a two-class task: 16x16 images holding a bright
// horizontal or vertical bar at a random offset.
func syntheticBars(seed int64) *task {
	const (
		size    = 16
		nTrain  = 512
		nTest   = 128
		classes = 2
	)
	rng := rand.New(rand.NewSource(seed))

	gen := func(n int) (*mat.Dense, []int) {
		x := mat.NewDense(n, size*size, nil)
		labels := make([]int, n)
		for i := 0; i < n; i++ {
			cls := rng.Intn(classes)
			labels[i] = cls
			row := x.RawRowView(i)
			for j := range row {
				row[j] = -1 + 0.1*rng.NormFloat64()
			}
			offset := 2 + rng.Intn(size-4)
			for k := 0; k < size; k++ {
				if cls == 0 {
					row[offset*size+k] = 1
				} else {
					row[k*size+offset] = 1
				}
			}
		}
		return x, labels
	}

	trainX, trainY := gen(nTrain)
	testX, testY := gen(nTest)
	return &task{
		trainX: trainX, trainY: trainY,
		testX: testX, testY: testY,
		classes: classes, h: size, w: size,
	}
}
