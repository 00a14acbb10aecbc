package producer

import (
	"context"
	"math/rand"
	"testing"

	"cloudsim/internal/incident"
)

func TestNetworkEmitsSchema(t *testing.T) {
	field := incident.NewField(nil)
	n, err := NewNetwork(field, DefaultNetworkConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}

	events, err := n.Advance(context.Background(), testTick(1))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	endpoints := len(DefaultNetworkConfig().Endpoints)
	if got := countEvents(events, "network.endpoint.latency_ms"); got != endpoints {
		t.Errorf("expected %d endpoint latency events, got %d", endpoints, got)
	}
	if got := countEvents(events, "network.endpoint.packet_loss"); got != endpoints {
		t.Errorf("expected %d endpoint loss events, got %d", endpoints, got)
	}
	for _, name := range []string{
		"network.latency_ms.p95",
		"network.packets.lost",
		"network.lb.health_score",
	} {
		findEvent(t, events, name)
	}

	lb := findEvent(t, events, "network.lb.health_score")
	if lb.Value < 0 || lb.Value > 100 {
		t.Errorf("lb health out of range: %v", lb.Value)
	}
}

func TestNetworkEndpointAttributes(t *testing.T) {
	field := incident.NewField(nil)
	cfg := NetworkConfig{
		Endpoints:     []Endpoint{{Name: "only.endpoint", BaselineMs: 10, LossRate: 0.01}},
		ProbesPerTick: 50,
		LossThreshold: 0.05,
	}
	n, err := NewNetwork(field, cfg, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	events, err := n.Advance(context.Background(), testTick(1))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	lat := findEvent(t, events, "network.endpoint.latency_ms")
	if lat.Attributes["endpoint"] != "only.endpoint" {
		t.Errorf("expected endpoint attribute, got %v", lat.Attributes)
	}
}

func TestNetworkLossElevatedWhenDegraded(t *testing.T) {
	normalField := frozenField()
	degradedField := frozenField()
	if err := degradedField.Force(incident.ChannelNetwork, incident.Degraded); err != nil {
		t.Fatalf("force: %v", err)
	}

	normal, err := NewNetwork(normalField, DefaultNetworkConfig(), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	degraded, err := NewNetwork(degradedField, DefaultNetworkConfig(), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}

	var normalLost, degradedLost float64
	for seq := uint64(1); seq <= 40; seq++ {
		ne, err := normal.Advance(context.Background(), testTick(seq))
		if err != nil {
			t.Fatalf("normal advance: %v", err)
		}
		de, err := degraded.Advance(context.Background(), testTick(seq))
		if err != nil {
			t.Fatalf("degraded advance: %v", err)
		}
		normalLost += findEvent(t, ne, "network.packets.lost").Value
		degradedLost += findEvent(t, de, "network.packets.lost").Value
	}
	if degradedLost <= normalLost*2 {
		t.Errorf("expected packet loss to spike under degraded mode: normal=%v degraded=%v",
			normalLost, degradedLost)
	}
}
