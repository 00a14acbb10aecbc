// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cloudsim/internal/incident"
	"cloudsim/internal/producer"
)

// ChannelTransitions holds per-channel Markov probabilities as configured.
// Pointers distinguish an absent key, which keeps the default, from an
// explicit zero, which disables the transition.
type ChannelTransitions struct {
	Degrade *float64 `yaml:"degrade"`
	Worsen  *float64 `yaml:"worsen"`
	Recover *float64 `yaml:"recover"`
	Restore *float64 `yaml:"restore"`
}

// SimulationConfig is the root configuration for the telemetry simulator.
type SimulationConfig struct {
	WorkerID string `yaml:"worker_id"`
	LogLevel string `yaml:"log_level"`

	TickIntervalSeconds    float64 `yaml:"tick_interval_seconds"`
	JitterFraction         float64 `yaml:"jitter_fraction"`
	ProducerTimeoutSeconds float64 `yaml:"producer_timeout_seconds"`
	SuspendThreshold       int     `yaml:"suspend_threshold"`
	ProbeIntervalTicks     uint64  `yaml:"probe_interval_ticks"`
	SinkBackoffSeconds     float64 `yaml:"sink_backoff_seconds"`
	ShutdownGraceSeconds   float64 `yaml:"shutdown_grace_seconds"`

	// Producers maps producer name to its enable flag. Absent names are
	// enabled.
	Producers map[string]bool               `yaml:"producers"`
	Channels  map[string]ChannelTransitions `yaml:"channels"`

	Cluster  producer.ClusterConfig  `yaml:"cluster"`
	Database producer.DatabaseConfig `yaml:"database"`
	Storage  producer.StorageConfig  `yaml:"storage"`
	Network  producer.NetworkConfig  `yaml:"network"`

	HostDiskPath string `yaml:"host_disk_path"`
	AdminAddr    string `yaml:"admin_addr"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every option at its default.
func Default() *SimulationConfig {
	cfg := &SimulationConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero values.
func (c *SimulationConfig) ApplyDefaults() {
	if c.TickIntervalSeconds <= 0 {
		c.TickIntervalSeconds = 30
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = 0.1
	}
	if c.SuspendThreshold <= 0 {
		c.SuspendThreshold = 5
	}
	if c.ProbeIntervalTicks == 0 {
		c.ProbeIntervalTicks = 3
	}
	if c.SinkBackoffSeconds <= 0 {
		c.SinkBackoffSeconds = 30
	}
	if c.ShutdownGraceSeconds <= 0 {
		c.ShutdownGraceSeconds = 5
	}
	if c.AdminAddr == "" {
		c.AdminAddr = ":8080"
	}
}

// Validate rejects out-of-range settings at startup.
func (c *SimulationConfig) Validate() error {
	if c.TickIntervalSeconds < 1 {
		return fmt.Errorf("tick_interval_seconds must be at least 1, got %v", c.TickIntervalSeconds)
	}
	if c.JitterFraction < 0 || c.JitterFraction > 1 {
		return fmt.Errorf("jitter_fraction must be between 0 and 1, got %v", c.JitterFraction)
	}
	if c.ProducerTimeoutSeconds < 0 {
		return fmt.Errorf("producer_timeout_seconds must not be negative, got %v", c.ProducerTimeoutSeconds)
	}
	for name, t := range c.Channels {
		for field, p := range map[string]*float64{
			"degrade": t.Degrade, "worsen": t.Worsen, "recover": t.Recover, "restore": t.Restore,
		} {
			if p != nil && (*p < 0 || *p > 1) {
				return fmt.Errorf("channel %s: %s must be a probability, got %v", name, field, *p)
			}
		}
	}
	return nil
}

// Enabled reports whether a producer is enabled. Unlisted producers default
// to enabled.
func (c *SimulationConfig) Enabled(name string) bool {
	if v, ok := c.Producers[name]; ok {
		return v
	}
	return true
}

// TickInterval returns the tick interval as a duration.
func (c *SimulationConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds * float64(time.Second))
}

// ProducerTimeout returns the per-producer deadline; zero means the
// scheduler default (half the tick interval).
func (c *SimulationConfig) ProducerTimeout() time.Duration {
	return time.Duration(c.ProducerTimeoutSeconds * float64(time.Second))
}

// SinkBackoff returns the emission pause after a fatal sink error.
func (c *SimulationConfig) SinkBackoff() time.Duration {
	return time.Duration(c.SinkBackoffSeconds * float64(time.Second))
}

// ShutdownGrace returns the bound on the in-flight tick during shutdown.
func (c *SimulationConfig) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds * float64(time.Second))
}

// TransitionProbs converts the configured channel probabilities for the
// incident field. Absent keys keep the field defaults; an explicit zero pins
// the transition off.
func (c *SimulationConfig) TransitionProbs() map[incident.Channel]incident.Transitions {
	out := make(map[incident.Channel]incident.Transitions, len(c.Channels))
	for name, t := range c.Channels {
		probs := incident.DefaultTransitions()
		if t.Degrade != nil {
			probs.Degrade = *t.Degrade
		}
		if t.Worsen != nil {
			probs.Worsen = *t.Worsen
		}
		if t.Recover != nil {
			probs.Recover = *t.Recover
		}
		if t.Restore != nil {
			probs.Restore = *t.Restore
		}
		out[incident.Channel(name)] = probs
	}
	return out
}
