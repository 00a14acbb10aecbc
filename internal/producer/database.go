package producer

import (
	"context"
	"math"
	"math/rand"

	"cloudsim/internal/incident"
	"cloudsim/internal/telemetry"
)

// DatabaseConfig tunes the relational database producer.
type DatabaseConfig struct {
	PoolSize       int     `yaml:"pool_size"`
	BaselineMs     float64 `yaml:"baseline_ms"`      // median query latency
	QueriesPerTick int     `yaml:"queries_per_tick"` // upper bound of the per-tick sample set
}

// DefaultDatabaseConfig returns the defaults used when the config block is absent.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{PoolSize: 20, BaselineMs: 12, QueriesPerTick: 120}
}

// Database simulates connection pool occupancy and query latency. It
// subscribes to the cluster and network incident channels but owns none.
type Database struct {
	field *incident.Field
	rng   *rand.Rand
	cfg   DatabaseConfig

	occupancy int
}

// NewDatabase seeds pool state from the config.
func NewDatabase(field *incident.Field, cfg DatabaseConfig, rng *rand.Rand) *Database {
	def := DefaultDatabaseConfig()
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = def.PoolSize
	}
	if cfg.BaselineMs <= 0 {
		cfg.BaselineMs = def.BaselineMs
	}
	if cfg.QueriesPerTick <= 0 {
		cfg.QueriesPerTick = def.QueriesPerTick
	}
	return &Database{
		field:     field,
		rng:       rng,
		cfg:       cfg,
		occupancy: cfg.PoolSize / 3,
	}
}

func (d *Database) Name() string { return "database" }

// Advance walks the pool occupancy, samples the tick's query latencies, and
// emits percentiles plus transaction and cache metrics.
func (d *Database) Advance(_ context.Context, tick TickContext) ([]telemetry.MetricEvent, error) {
	clusterMode := d.field.Mode(incident.ChannelCluster)
	networkMode := d.field.Mode(incident.ChannelNetwork)

	// Occupancy random walk; drift toward saturation models cross-domain
	// contagion from a degraded cluster.
	step := d.rng.Intn(9) - 4
	if clusterMode == incident.Degraded {
		step += 3
	} else if clusterMode == incident.Recovering {
		step--
	}
	d.occupancy += step
	if d.occupancy < 0 {
		d.occupancy = 0
	}
	if d.occupancy > d.cfg.PoolSize {
		d.occupancy = d.cfg.PoolSize
	}
	utilization := float64(d.occupancy) / float64(d.cfg.PoolSize)

	sigma := 0.45
	if networkMode == incident.Degraded || clusterMode == incident.Degraded {
		sigma = 0.85
	}
	spikeProb := 0.04
	if utilization > 0.8 {
		spikeProb = 0.25
	}
	if clusterMode == incident.Degraded {
		spikeProb += 0.15
	}

	n := d.cfg.QueriesPerTick/2 + d.rng.Intn(d.cfg.QueriesPerTick/2+1)
	mu := math.Log(d.cfg.BaselineMs)
	samples := make([]float64, 0, n)
	spikes := 0
	for i := 0; i < n; i++ {
		lat := logNormal(d.rng, mu, sigma)
		if d.rng.Float64() < spikeProb {
			lat *= 3 + d.rng.Float64()*5
			spikes++
		}
		samples = append(samples, lat)
	}
	spikeRate := float64(spikes) / float64(n)

	p50 := percentile(samples, 50)
	p95 := percentile(samples, 95)
	p99 := percentile(samples, 99)

	txSuccess := clamp(0.995-spikeRate*0.3, 0.5, 1) * 100

	cacheA, cacheB := 46.0, 4.0
	if clusterMode == incident.Degraded {
		cacheA, cacheB = 24, 8
	}
	cacheHit := beta(d.rng, cacheA, cacheB) * 100

	slow := 0
	for _, s := range samples {
		if s > d.cfg.BaselineMs*10 {
			slow++
		}
	}
	deadlocks := 0
	if clusterMode == incident.Degraded && d.rng.Float64() < 0.2 {
		deadlocks = 1 + d.rng.Intn(2)
	}
	replicationLagMs := logNormal(d.rng, 3.5, 0.6)
	if networkMode == incident.Degraded {
		replicationLagMs *= 4
	}

	ts := tick.Time
	return []telemetry.MetricEvent{
		telemetry.Gauge("database.query.latency_ms.p50", p50, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("database.query.latency_ms.p95", p95, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("database.query.latency_ms.p99", p99, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("database.queries.count", float64(n), telemetry.UnitCount, ts),
		telemetry.Gauge("database.queries.slow", float64(slow), telemetry.UnitCount, ts),
		telemetry.Gauge("database.pool.active_connections", float64(d.occupancy), telemetry.UnitCount, ts),
		telemetry.Gauge("database.pool.utilization", utilization*100, telemetry.UnitPercent, ts),
		telemetry.Gauge("database.transactions.success_rate", txSuccess, telemetry.UnitPercent, ts),
		telemetry.Gauge("database.cache.hit_ratio", cacheHit, telemetry.UnitPercent, ts),
		telemetry.Gauge("database.deadlocks", float64(deadlocks), telemetry.UnitCount, ts),
		telemetry.Gauge("database.replication.lag_ms", replicationLagMs, telemetry.UnitMilliseconds, ts),
	}, nil
}
