package producer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"cloudsim/internal/incident"
	"cloudsim/internal/telemetry"
)

// ClusterConfig tunes the Kubernetes cluster producer.
type ClusterConfig struct {
	Nodes        int     `yaml:"nodes"`
	BaselinePods int     `yaml:"baseline_pods"`
	EventMean    float64 `yaml:"event_mean"` // mean pod lifecycle events per tick under Normal mode
}

// DefaultClusterConfig returns the defaults used when the config block is absent.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{Nodes: 4, BaselinePods: 23, EventMean: 4}
}

type clusterNode struct {
	name string
	cpu  float64 // percent
	mem  float64 // percent
}

// Cluster simulates pod lifecycle, scheduling, and node resource pressure.
// It owns the "cluster" incident channel.
type Cluster struct {
	field *incident.Field
	rng   *rand.Rand
	cfg   ClusterConfig

	nodes          []clusterNode
	runningPods    int
	pendingPods    int
	failedTotal    int
	scheduledTotal int
}

// NewCluster registers ownership of the cluster channel and seeds node state.
func NewCluster(field *incident.Field, cfg ClusterConfig, rng *rand.Rand) (*Cluster, error) {
	c := &Cluster{field: field, rng: rng, cfg: cfg}
	if c.cfg.Nodes <= 0 {
		c.cfg.Nodes = DefaultClusterConfig().Nodes
	}
	if c.cfg.BaselinePods <= 0 {
		c.cfg.BaselinePods = DefaultClusterConfig().BaselinePods
	}
	if c.cfg.EventMean <= 0 {
		c.cfg.EventMean = DefaultClusterConfig().EventMean
	}
	if err := field.RegisterOwner(incident.ChannelCluster, c.Name()); err != nil {
		return nil, err
	}
	for i := 0; i < c.cfg.Nodes; i++ {
		c.nodes = append(c.nodes, clusterNode{
			name: fmt.Sprintf("node-%d-%s", i, uuid.New().String()[:8]),
			cpu:  20 + rng.Float64()*40,
			mem:  30 + rng.Float64()*30,
		})
	}
	c.runningPods = c.cfg.BaselinePods
	return c, nil
}

func (c *Cluster) Name() string { return "cluster" }

// Advance transitions the cluster incident channel and emits one tick of
// pod lifecycle, scheduling, and node utilization metrics.
func (c *Cluster) Advance(_ context.Context, tick TickContext) ([]telemetry.MetricEvent, error) {
	mode, err := c.field.Advance(incident.ChannelCluster, c.Name(), tick.Seq, c.rng)
	if err != nil {
		return nil, err
	}

	eventMean := c.cfg.EventMean
	failFrac := 0.04
	latencyShift := 0.0
	pressureDrift := 0.0
	switch mode {
	case incident.Degrading:
		eventMean *= 2
		failFrac = 0.12
		latencyShift = 0.4
		pressureDrift = 4
	case incident.Degraded:
		eventMean *= 4
		failFrac = 0.30
		latencyShift = 0.9
		pressureDrift = 9
	case incident.Recovering:
		eventMean *= 1.5
		failFrac = 0.08
		latencyShift = 0.2
		pressureDrift = -5
	}

	// Pod lifecycle: Pending -> Running -> {Succeeded, Failed} -> Terminated.
	scheduled := poisson(c.rng, eventMean)
	c.pendingPods += scheduled
	started := min(c.pendingPods, poisson(c.rng, eventMean*0.9)+scheduled/2)
	c.pendingPods -= started
	c.runningPods += started

	completed := min(c.runningPods, poisson(c.rng, eventMean*0.8))
	failed := 0
	for i := 0; i < completed; i++ {
		if c.rng.Float64() < failFrac {
			failed++
		}
	}
	succeeded := completed - failed
	c.runningPods -= completed
	terminated := completed
	c.failedTotal += failed
	c.scheduledTotal += scheduled

	// Scheduling latency, log-normal around ~2.5s, shifted right under incident.
	schedLatencyMs := logNormal(c.rng, 7.8+latencyShift, 0.5)

	pendingTimeMs := logNormal(c.rng, 6.2+latencyShift, 0.4)

	// Node resource walks.
	var cpuSum, memSum float64
	for i := range c.nodes {
		n := &c.nodes[i]
		n.cpu = clamp(n.cpu+c.rng.Float64()*20-8+pressureDrift, 5, 98)
		n.mem = clamp(n.mem+c.rng.Float64()*10-4+pressureDrift/2, 10, 98)
		cpuSum += n.cpu
		memSum += n.mem
	}
	avgCPU := cpuSum / float64(len(c.nodes))
	avgMem := memSum / float64(len(c.nodes))

	failRate := 0.0
	if completed > 0 {
		failRate = float64(failed) / float64(completed)
	}
	pressure := clamp((avgCPU+avgMem)/2-50, 0, 50)
	health := clamp(100-120*failRate-pendingTimeMs/200-pressure, 0, 100)

	ts := tick.Time
	events := []telemetry.MetricEvent{
		telemetry.Gauge("k8s.pods.scheduled", float64(scheduled), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.pods.running", float64(c.runningPods), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.pods.pending", float64(c.pendingPods), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.pods.succeeded", float64(succeeded), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.pods.failed", float64(failed), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.pods.terminated", float64(terminated), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.pods.failed_total", float64(c.failedTotal), telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.scheduling.latency_ms", schedLatencyMs, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("k8s.scheduling.pending_time_ms", pendingTimeMs, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("k8s.cluster.health_score", health, telemetry.UnitScore, ts),
		telemetry.Gauge("k8s.apiserver.latency_ms", 10+c.rng.Float64()*90, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("k8s.service_discovery.latency_ms", 5+c.rng.Float64()*45, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("k8s.dns.resolution_time_ms", 1+c.rng.Float64()*14, telemetry.UnitMilliseconds, ts),
		telemetry.Gauge("k8s.ingress.request_rate", 100+c.rng.Float64()*900, telemetry.UnitCount, ts),
		telemetry.Gauge("k8s.ingress.error_rate", 0.1+c.rng.Float64()*4.9, telemetry.UnitPercent, ts),
	}
	for _, n := range c.nodes {
		events = append(events,
			telemetry.Gauge("k8s.node.cpu.utilization", n.cpu, telemetry.UnitPercent, ts, "node", n.name),
			telemetry.Gauge("k8s.node.memory.utilization", n.mem, telemetry.UnitPercent, ts, "node", n.name),
		)
	}
	return events, nil
}
