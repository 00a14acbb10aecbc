package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloudsim/internal/sim"
)

func TestBaseWriterPrintOnly(t *testing.T) {
	os.Unsetenv("GREPTIMEDB_ENDPOINT")
	os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	w, cleanup, err := baseWriter(context.Background(), "worker-1", true, false, false)
	if err != nil {
		t.Fatalf("baseWriter failed: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", w)
	}
}

func TestBaseWriterColor(t *testing.T) {
	os.Unsetenv("GREPTIMEDB_ENDPOINT")
	os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	w, cleanup, err := baseWriter(context.Background(), "worker-1", false, true, false)
	if err != nil {
		t.Fatalf("baseWriter failed: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected *sim.ColorStdoutWriter, got %T", w)
	}
}

func TestBaseWriterFallsBackWithoutEndpoints(t *testing.T) {
	os.Unsetenv("GREPTIMEDB_ENDPOINT")
	os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	w, cleanup, err := baseWriter(context.Background(), "worker-1", false, false, false)
	if err != nil {
		t.Fatalf("baseWriter failed: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter without endpoints, got %T", w)
	}
}

func TestNewMetricWriterWithLogFile(t *testing.T) {
	os.Unsetenv("GREPTIMEDB_ENDPOINT")
	os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	logFile := filepath.Join(t.TempDir(), "metrics.jsonl")
	w, cleanup, err := newMetricWriter(context.Background(), "worker-1", true, false, false, logFile)
	if err != nil {
		t.Fatalf("newMetricWriter failed: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter with log file, got %T", w)
	}
	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}
