package producer

import (
	"context"
	"math/rand"

	"cloudsim/internal/incident"
	"cloudsim/internal/telemetry"
)

// Storage tiers and operations form the fixed emission schema.
var (
	storageTiers = []string{"hot", "cool", "archive"}
	storageOps   = []string{"read", "write", "list"}
)

// StorageConfig tunes the object storage producer.
type StorageConfig struct {
	// BaselineMs maps tier name to baseline API latency. Missing tiers
	// fall back to defaults.
	BaselineMs map[string]float64 `yaml:"baseline_ms"`
	// RequestMean is the mean request count per tier/op pair per tick.
	RequestMean float64 `yaml:"request_mean"`
}

// DefaultStorageConfig returns the defaults used when the config block is absent.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		BaselineMs:  map[string]float64{"hot": 18, "cool": 65, "archive": 320},
		RequestMean: 40,
	}
}

// Storage simulates per-tier object storage request traffic and throttling.
// It owns the "storage" incident channel and subscribes to "network".
type Storage struct {
	field *incident.Field
	rng   *rand.Rand
	cfg   StorageConfig

	requestTotals map[string]int // cumulative per tier
}

// NewStorage registers ownership of the storage channel.
func NewStorage(field *incident.Field, cfg StorageConfig, rng *rand.Rand) (*Storage, error) {
	def := DefaultStorageConfig()
	if cfg.RequestMean <= 0 {
		cfg.RequestMean = def.RequestMean
	}
	if cfg.BaselineMs == nil {
		cfg.BaselineMs = map[string]float64{}
	}
	for tier, ms := range def.BaselineMs {
		if cfg.BaselineMs[tier] <= 0 {
			cfg.BaselineMs[tier] = ms
		}
	}
	s := &Storage{field: field, rng: rng, cfg: cfg, requestTotals: make(map[string]int)}
	if err := field.RegisterOwner(incident.ChannelStorage, s.Name()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) Name() string { return "storage" }

// Advance transitions the storage incident channel and emits request counts,
// latency percentiles, throttling events, and tier distribution ratios.
func (s *Storage) Advance(_ context.Context, tick TickContext) ([]telemetry.MetricEvent, error) {
	mode, err := s.field.Advance(incident.ChannelStorage, s.Name(), tick.Seq, s.rng)
	if err != nil {
		return nil, err
	}
	networkMode := s.field.Mode(incident.ChannelNetwork)

	throttleProb := 0.002
	if mode == incident.Degrading {
		throttleProb = 0.01
	}
	if mode == incident.Degraded {
		throttleProb = 0.05
	}
	latencyFactor := 1.0
	if networkMode == incident.Degraded {
		latencyFactor = 2.5
	} else if networkMode == incident.Degrading {
		latencyFactor = 1.4
	}

	ts := tick.Time
	var events []telemetry.MetricEvent
	var samples []float64
	tickTotals := make(map[string]int, len(storageTiers))
	throttled := 0
	total := 0

	for _, tier := range storageTiers {
		baseline := s.cfg.BaselineMs[tier]
		for _, op := range storageOps {
			mean := s.cfg.RequestMean * opWeight(op) * tierWeight(tier)
			count := poisson(s.rng, mean)
			tickTotals[tier] += count
			s.requestTotals[tier] += count
			total += count
			for i := 0; i < count; i++ {
				lat := baseline*latencyFactor + s.rng.NormFloat64()*baseline*0.2
				if lat < 1 {
					lat = 1
				}
				samples = append(samples, lat)
				if s.rng.Float64() < throttleProb {
					throttled++
				}
			}
			events = append(events, telemetry.Gauge("storage.requests.count", float64(count),
				telemetry.UnitCount, ts, "tier", tier, "op", op))
		}
	}

	events = append(events,
		telemetry.Gauge("storage.latency_ms.p50", percentile(samples, 50), telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("storage.latency_ms.p95", percentile(samples, 95), telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("storage.latency_ms.p99", percentile(samples, 99), telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("storage.throttled.count", float64(throttled), telemetry.UnitCount, ts),
	)
	for _, tier := range storageTiers {
		ratio := 0.0
		if total > 0 {
			ratio = float64(tickTotals[tier]) / float64(total)
		}
		events = append(events, telemetry.Gauge("storage.tier.ratio", ratio*100,
			telemetry.UnitPercent, ts, "tier", tier))
	}
	return events, nil
}

func opWeight(op string) float64 {
	switch op {
	case "read":
		return 1.0
	case "write":
		return 0.4
	default: // list
		return 0.15
	}
}

func tierWeight(tier string) float64 {
	switch tier {
	case "hot":
		return 1.0
	case "cool":
		return 0.35
	default: // archive
		return 0.08
	}
}
