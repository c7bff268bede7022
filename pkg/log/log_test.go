package log

import (
	"context"
	"testing"
)

func TestTestLoggerCapture(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Info("training step",
		IterationKey, 3,
		LossKey, 0.912,
	)
	logger.Debug("should be filtered")

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["message"] != "training step" {
		t.Errorf("unexpected message: %v", entries[0]["message"])
	}
	if entries[0][LossKey].(float64) != 0.912 {
		t.Errorf("unexpected loss field: %v", entries[0][LossKey])
	}
	if buffer.Len() == 0 {
		t.Error("buffer should contain output")
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	tagged := logger.With(ComponentKey, "train")

	tagged.Info("epoch done", EpochKey, 2)

	tl := tagged.(*TestLogger)
	entries, err := tl.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}
	if entries[0][ComponentKey] != "train" {
		t.Errorf("expected component field to be inherited, got %v", entries[0][ComponentKey])
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestEnabledRespectsLevel(t *testing.T) {
	logger, _ := NewTestLogger(LevelWarn)
	ctx := context.Background()
	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
