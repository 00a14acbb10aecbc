package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"cloudsim/internal/incident"
)

const schemaPath = "../../schemas/simulation.cue"

func prob(v float64) *float64 { return &v }

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load("../../config/simulation.yaml", schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.TickIntervalSeconds != 30 {
		t.Errorf("unexpected tick interval: %v", cfg.TickIntervalSeconds)
	}
	if len(cfg.Network.Endpoints) != 5 {
		t.Errorf("expected 5 endpoints, got %d", len(cfg.Network.Endpoints))
	}
	if cfg.Cluster.Nodes != 4 || cfg.Database.PoolSize != 20 {
		t.Errorf("unexpected producer config: %+v %+v", cfg.Cluster, cfg.Database)
	}
	if cfg.AdminAddr != ":8080" {
		t.Errorf("unexpected admin addr: %q", cfg.AdminAddr)
	}
}

func TestLoadConfig_SchemaRejectsBadValues(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `
jitter_fraction: 3.5
channels:
  network:
    degrade: 7
`
	if err := os.WriteFile(tmpFile, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if _, err := Load(tmpFile, schemaPath); err == nil {
		t.Fatalf("expected schema validation error")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml", schemaPath); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.TickIntervalSeconds != 30 {
		t.Errorf("default tick interval: %v", cfg.TickIntervalSeconds)
	}
	if cfg.JitterFraction != 0.1 {
		t.Errorf("default jitter: %v", cfg.JitterFraction)
	}
	if cfg.SuspendThreshold != 5 || cfg.ProbeIntervalTicks != 3 {
		t.Errorf("default suspension settings: %d %d", cfg.SuspendThreshold, cfg.ProbeIntervalTicks)
	}
	if cfg.TickInterval() != 30*time.Second {
		t.Errorf("TickInterval(): %v", cfg.TickInterval())
	}
	if cfg.SinkBackoff() != 30*time.Second || cfg.ShutdownGrace() != 5*time.Second {
		t.Errorf("duration helpers: %v %v", cfg.SinkBackoff(), cfg.ShutdownGrace())
	}
	// Producer timeout defaults to zero; the scheduler derives it from the
	// tick interval.
	if cfg.ProducerTimeout() != 0 {
		t.Errorf("expected zero producer timeout, got %v", cfg.ProducerTimeout())
	}
}

func TestEnabledDefaultsToTrue(t *testing.T) {
	cfg := Default()
	if !cfg.Enabled("cluster") {
		t.Errorf("unlisted producer must default to enabled")
	}
	cfg.Producers = map[string]bool{"host": false}
	if cfg.Enabled("host") {
		t.Errorf("expected host disabled")
	}
	if !cfg.Enabled("network") {
		t.Errorf("expected network still enabled")
	}
}

func TestValidateRejectsBadProbabilities(t *testing.T) {
	cfg := Default()
	cfg.Channels = map[string]ChannelTransitions{
		"network": {Degrade: prob(1.5)},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for probability > 1")
	}

	cfg = Default()
	cfg.JitterFraction = -0.2
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for negative jitter")
	}
}

func TestTransitionProbs(t *testing.T) {
	cfg := Default()
	cfg.Channels = map[string]ChannelTransitions{
		"network": {Degrade: prob(0.1)},
	}
	probs := cfg.TransitionProbs()
	got, ok := probs[incident.ChannelNetwork]
	if !ok {
		t.Fatalf("expected network channel in transition map")
	}
	if got.Degrade != 0.1 {
		t.Errorf("expected configured degrade 0.1, got %v", got.Degrade)
	}
	// Unset probabilities fall back to defaults.
	if got.Worsen != incident.DefaultTransitions().Worsen {
		t.Errorf("expected default worsen, got %v", got.Worsen)
	}
}

func TestTransitionProbsHonorsExplicitZero(t *testing.T) {
	cfg := Default()
	cfg.Channels = map[string]ChannelTransitions{
		"cluster": {Degrade: prob(0)},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero probability must validate: %v", err)
	}
	got := cfg.TransitionProbs()[incident.ChannelCluster]
	if got.Degrade != 0 {
		t.Errorf("explicit zero degrade must stay 0, got %v", got.Degrade)
	}
	if got.Worsen != incident.DefaultTransitions().Worsen {
		t.Errorf("unset worsen must keep the default, got %v", got.Worsen)
	}
}

func TestChannelTransitionsYAMLZeroVsAbsent(t *testing.T) {
	var cfg SimulationConfig
	yamlDoc := `
channels:
  storage:
    degrade: 0
    worsen: 0.9
`
	if err := yaml.Unmarshal([]byte(yamlDoc), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	st := cfg.Channels["storage"]
	if st.Degrade == nil || *st.Degrade != 0 {
		t.Fatalf("explicit degrade: 0 must decode as a present zero, got %v", st.Degrade)
	}
	if st.Recover != nil {
		t.Fatalf("absent recover must decode as nil, got %v", *st.Recover)
	}
	probs := cfg.TransitionProbs()[incident.ChannelStorage]
	if probs.Degrade != 0 || probs.Worsen != 0.9 {
		t.Errorf("unexpected storage probs: %+v", probs)
	}
	if probs.Recover != incident.DefaultTransitions().Recover {
		t.Errorf("absent recover must keep the default, got %v", probs.Recover)
	}
}
