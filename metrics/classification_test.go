package metrics

import (
	"math"
	"testing"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		want    float64
		wantErr bool
	}{
		{
			name:  "all correct",
			yTrue: []int{0, 1, 2, 1},
			yPred: []int{0, 1, 2, 1},
			want:  1.0,
		},
		{
			name:  "half correct",
			yTrue: []int{0, 1, 2, 3},
			yPred: []int{0, 1, 0, 0},
			want:  0.5,
		},
		{
			name:    "empty",
			yTrue:   nil,
			yPred:   nil,
			wantErr: true,
		},
		{
			name:    "length mismatch",
			yTrue:   []int{0, 1},
			yPred:   []int{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Accuracy() error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArgmaxRows(t *testing.T) {
	logits := []float64{
		0.1, 0.7, 0.2,
		0.9, 0.05, 0.05,
		0.2, 0.3, 0.5,
	}
	got, err := ArgmaxRows(logits, 3)
	if err != nil {
		t.Fatalf("ArgmaxRows() error: %v", err)
	}
	want := []int{1, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: argmax = %d, want %d", i, got[i], want[i])
		}
	}

	if _, err := ArgmaxRows([]float64{1, 2, 3}, 2); err == nil {
		t.Error("expected error for ragged data")
	}
}
