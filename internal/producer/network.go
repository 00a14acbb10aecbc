package producer

import (
	"context"
	"math/rand"

	"cloudsim/internal/incident"
	"cloudsim/internal/telemetry"
)

// Endpoint is one simulated network path with its own baseline behavior.
type Endpoint struct {
	Name       string  `yaml:"name"`
	BaselineMs float64 `yaml:"baseline_ms"`
	LossRate   float64 `yaml:"loss_rate"`
}

// NetworkConfig tunes the network path producer.
type NetworkConfig struct {
	Endpoints     []Endpoint `yaml:"endpoints"`
	ProbesPerTick int        `yaml:"probes_per_tick"`
	LossThreshold float64    `yaml:"loss_threshold"` // endpoints above this loss ratio count as unhealthy
}

// DefaultNetworkConfig returns the defaults used when the config block is absent.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Endpoints: []Endpoint{
			{Name: "api.service.local", BaselineMs: 12, LossRate: 0.002},
			{Name: "database.internal", BaselineMs: 4, LossRate: 0.001},
			{Name: "cache.redis.local", BaselineMs: 2, LossRate: 0.001},
			{Name: "storage.blob.cloud", BaselineMs: 35, LossRate: 0.005},
			{Name: "metrics.backend", BaselineMs: 55, LossRate: 0.004},
		},
		ProbesPerTick: 100,
		LossThreshold: 0.05,
	}
}

// Network simulates endpoint latency and packet loss. It owns the "network"
// incident channel, the one most other producers subscribe to.
type Network struct {
	field *incident.Field
	rng   *rand.Rand
	cfg   NetworkConfig
}

// NewNetwork registers ownership of the network channel.
func NewNetwork(field *incident.Field, cfg NetworkConfig, rng *rand.Rand) (*Network, error) {
	def := DefaultNetworkConfig()
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = def.Endpoints
	}
	if cfg.ProbesPerTick <= 0 {
		cfg.ProbesPerTick = def.ProbesPerTick
	}
	if cfg.LossThreshold <= 0 {
		cfg.LossThreshold = def.LossThreshold
	}
	n := &Network{field: field, rng: rng, cfg: cfg}
	if err := field.RegisterOwner(incident.ChannelNetwork, n.Name()); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Network) Name() string { return "network" }

// Advance transitions the network incident channel and emits per-endpoint
// latency and loss plus the load-balancer health score.
func (n *Network) Advance(_ context.Context, tick TickContext) ([]telemetry.MetricEvent, error) {
	mode, err := n.field.Advance(incident.ChannelNetwork, n.Name(), tick.Seq, n.rng)
	if err != nil {
		return nil, err
	}

	latencyFactor := 1.0
	lossBoost := 0.0
	switch mode {
	case incident.Degrading:
		latencyFactor = 1.5
		lossBoost = 0.01
	case incident.Degraded:
		latencyFactor = 2.5 + n.rng.Float64()*3.5
		lossBoost = 0.08
	case incident.Recovering:
		latencyFactor = 1.2
		lossBoost = 0.005
	}

	ts := tick.Time
	var events []telemetry.MetricEvent
	var latencies []float64
	lostTotal := 0
	healthy := 0

	for _, ep := range n.cfg.Endpoints {
		lat := (ep.BaselineMs + n.rng.NormFloat64()*ep.BaselineMs*0.25) * latencyFactor
		if lat < 0.5 {
			lat = 0.5
		}
		latencies = append(latencies, lat)

		lossProb := ep.LossRate + lossBoost
		lost := 0
		for i := 0; i < n.cfg.ProbesPerTick; i++ {
			if n.rng.Float64() < lossProb {
				lost++
			}
		}
		lossRatio := float64(lost) / float64(n.cfg.ProbesPerTick)
		lostTotal += lost
		if lossRatio <= n.cfg.LossThreshold {
			healthy++
		}

		events = append(events,
			telemetry.Gauge("network.endpoint.latency_ms", lat, telemetry.UnitMilliseconds, ts, "endpoint", ep.Name),
			telemetry.Gauge("network.endpoint.packet_loss", lossRatio*100, telemetry.UnitPercent, ts, "endpoint", ep.Name),
		)
	}

	lbHealth := float64(healthy) / float64(len(n.cfg.Endpoints)) * 100
	events = append(events,
		telemetry.Gauge("network.latency_ms.p95", percentile(latencies, 95), telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("network.packets.lost", float64(lostTotal), telemetry.UnitCount, ts),
		telemetry.Gauge("network.lb.health_score", lbHealth, telemetry.UnitScore, ts),
	)
	return events, nil
}
