package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloudsim/internal/telemetry"
)

func TestColorStdoutWriterOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{out: buf, domainColors: make(map[string]string)}

	ev := telemetry.Gauge("k8s.pods.running", 23, telemetry.UnitCount, time.Unix(0, 0).UTC(), "node", "node-1")
	if err := w.Write(ev); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "k8s.pods.running") {
		t.Fatalf("metric name missing: %q", output)
	}
	if !strings.Contains(output, "\x1b[") {
		t.Fatalf("expected color codes in output: %q", output)
	}
	if !strings.Contains(output, "node=node-1") {
		t.Fatalf("attributes missing: %q", output)
	}
}

func TestColorStdoutWriterStableDomainColors(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{out: buf, domainColors: make(map[string]string)}

	first := w.getDomainColor("k8s")
	second := w.getDomainColor("database")
	if first == second {
		t.Errorf("expected distinct colors for distinct domains")
	}
	if again := w.getDomainColor("k8s"); again != first {
		t.Errorf("expected stable color per domain, got %q then %q", first, again)
	}
}
