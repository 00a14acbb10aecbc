package sim

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"cloudsim/internal/telemetry"
)

func TestReplayLog(t *testing.T) {
	events := []telemetry.MetricEvent{
		telemetry.Gauge("k8s.pods.running", 20, telemetry.UnitCount, time.Unix(0, 0).UTC()),
		telemetry.Gauge("k8s.pods.running", 22, telemetry.UnitCount, time.Unix(1, 0).UTC()),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	cw := &captureWriter{}
	if err := ReplayLog(&buf, cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.events) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(cw.events))
	}
	for i, ev := range events {
		if cw.events[i].Value != ev.Value {
			t.Fatalf("event %d mismatch: %+v vs %+v", i, cw.events[i], ev)
		}
	}
}

func TestReplayLogBadInput(t *testing.T) {
	buf := bytes.NewBufferString("not json\n")
	if err := ReplayLog(buf, &captureWriter{}, 0); err == nil {
		t.Fatalf("expected error for malformed log")
	}
}
