package producer

import (
	"context"
	"sort"

	"cloudsim/internal/telemetry"
)

// CounterSource provides current OS-level resource counters. The gopsutil
// implementation lives in internal/hostmetrics; tests use stubs.
type CounterSource interface {
	Counters(ctx context.Context) (map[string]float64, error)
}

// Host is a pure adapter over a CounterSource. It performs no stochastic
// simulation: one MetricEvent per observed counter, tagged source=host.
type Host struct {
	source CounterSource
}

func NewHost(source CounterSource) *Host {
	return &Host{source: source}
}

func (h *Host) Name() string { return "host" }

// Advance reads current counters and emits them in sorted name order so the
// emitted sequence stays deterministic for a given counter map.
func (h *Host) Advance(ctx context.Context, tick TickContext) ([]telemetry.MetricEvent, error) {
	counters, err := h.source.Counters(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	events := make([]telemetry.MetricEvent, 0, len(names))
	for _, name := range names {
		events = append(events, telemetry.Gauge("system."+name, counters[name],
			telemetry.UnitGauge, tick.Time, "source", "host"))
	}
	return events, nil
}
