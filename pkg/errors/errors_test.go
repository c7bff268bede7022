package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "gp: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "PredictCov",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "gp: PredictCov: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("PredictMean", 8, 3, 1)

	want := "gp: PredictMean: dimension mismatch on axis 1 (features). Expected 8, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("ExactGP", "PredictMean")

	want := "gp: ExactGP: this model is not fitted yet. Call Fit() before using PredictMean()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var nfErr *NotFittedError
	if !As(err, &nfErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestWarnUsesHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	warning := NewConvergenceWarning("Adam", 50, "")
	Warn(warning)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "Adam failed to converge after 50 iterations") {
		t.Errorf("unexpected warning message: %v", captured)
	}
}

func TestSentinelErrors(t *testing.T) {
	wrapped := Wrap(ErrSingularMatrix, "factorizing training kernel")
	if !Is(wrapped, ErrSingularMatrix) {
		t.Error("wrapped error should match ErrSingularMatrix")
	}
}
