package telemetry

import (
	"testing"
	"time"
)

func TestGauge(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	ev := Gauge("storage.requests.count", 12, UnitCount, ts, "tier", "hot", "op", "read")
	if ev.Name != "storage.requests.count" || ev.Value != 12 || ev.Unit != UnitCount {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Attributes["tier"] != "hot" || ev.Attributes["op"] != "read" {
		t.Fatalf("unexpected attributes: %v", ev.Attributes)
	}
	if !ev.Timestamp.Equal(ts) {
		t.Fatalf("unexpected timestamp: %v", ev.Timestamp)
	}
}

func TestGaugeWithoutAttributes(t *testing.T) {
	ev := Gauge("k8s.pods.running", 23, UnitCount, time.Now())
	if ev.Attributes != nil {
		t.Fatalf("expected nil attributes, got %v", ev.Attributes)
	}
}

func TestTableName(t *testing.T) {
	if MetricTableName == "" {
		t.Fatalf("table name must not be empty")
	}
	if got := (MetricEvent{}).TableName(); got != MetricTableName {
		t.Fatalf("TableName() = %q, want %q", got, MetricTableName)
	}
}
