package producer

import (
	"testing"
	"time"

	"cloudsim/internal/telemetry"
)

func testTick(seq uint64) TickContext {
	return TickContext{Seq: seq, Time: time.Unix(1700000000, 0).UTC(), Interval: 30 * time.Second}
}

func findEvent(t *testing.T, events []telemetry.MetricEvent, name string) telemetry.MetricEvent {
	t.Helper()
	for _, ev := range events {
		if ev.Name == name {
			return ev
		}
	}
	t.Fatalf("event %q not found in batch of %d", name, len(events))
	return telemetry.MetricEvent{}
}

func countEvents(events []telemetry.MetricEvent, name string) int {
	n := 0
	for _, ev := range events {
		if ev.Name == name {
			n++
		}
	}
	return n
}
