package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloudsim/internal/telemetry"
)

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	ts := time.Unix(0, 0).UTC()
	events := []telemetry.MetricEvent{
		telemetry.Gauge("k8s.pods.running", 23, telemetry.UnitCount, ts),
		telemetry.Gauge("network.endpoint.latency_ms", 12.5, telemetry.UnitMilliseconds, ts, "endpoint", "api.service.local"),
	}
	if err := fw.WriteBatch(events); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev telemetry.MetricEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines, err)
		}
		if ev.Name != events[lines].Name || ev.Value != events[lines].Value {
			t.Errorf("line %d mismatch: %+v", lines, ev)
		}
		lines++
	}
	if lines != len(events) {
		t.Fatalf("expected %d lines, got %d", len(events), lines)
	}
}
