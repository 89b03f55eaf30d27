package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
		quiet  slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"warn level", "warn", slog.LevelWarn, slog.LevelInfo},
		{"warning alias", "WARNING", slog.LevelWarn, slog.LevelInfo},
		{"error level", "error", slog.LevelError, slog.LevelWarn},
		{"default info", "", slog.LevelInfo, slog.LevelDebug},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
			if logger.Enabled(ctx, tt.quiet) {
				t.Fatalf("expected level %s to be disabled", tt.quiet)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestWithClinicTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf).WithClinic("clinic-1")
	logger.Info("slots computed", "count", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["clinic_id"] != "clinic-1" {
		t.Fatalf("expected clinic_id attribute, got %v", record["clinic_id"])
	}
	if record["service"] != "clinic-slots" {
		t.Fatalf("expected service attribute, got %v", record["service"])
	}
}

func TestWithClinicNilReceiver(t *testing.T) {
	var logger *Logger
	if child := logger.WithClinic("clinic-2"); child == nil || child.Logger == nil {
		t.Fatal("expected usable logger from nil receiver")
	}
}
