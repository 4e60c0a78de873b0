// Package config handles reading and writing .pulsegate/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
)

// Config is the top-level structure for .pulsegate/config.yaml.
type Config struct {
	Version     int               `yaml:"version"`
	Policy      PolicyConfig      `yaml:"policy"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Broker      BrokerConfig      `yaml:"broker"`
	History     HistoryConfig     `yaml:"history"`
}

// PolicyConfig holds the orchestrator's tunable timing and retry constants.
type PolicyConfig struct {
	InitSettleMs     int `yaml:"init_settle_ms"`
	RequestSettleMs  int `yaml:"request_settle_ms"`
	InitAttempts     int `yaml:"init_attempts"`
	InitBackoffMs    int `yaml:"init_backoff_ms"`
	RequestAttempts  int `yaml:"request_attempts"`
	RequestBackoffMs int `yaml:"request_backoff_ms"`
	RequestTimeoutS  int `yaml:"request_timeout_s"`
	RecoveryGraceMs  int `yaml:"recovery_grace_ms"`
}

// PermissionsConfig selects the requested categories and the target category
// whose presence in the grant decides granted versus denied.
type PermissionsConfig struct {
	Target  string   `yaml:"target"`
	Records []string `yaml:"records"`
}

// BrokerConfig selects how pulsegate reaches the broker.
type BrokerConfig struct {
	Mode       string    `yaml:"mode"` // "sim" | "daemon"
	DaemonAddr string    `yaml:"daemon_addr"`
	Sim        SimConfig `yaml:"sim"`
}

// SimConfig tunes the built-in simulated broker.
type SimConfig struct {
	Status        string   `yaml:"status"` // "not_installed" | "update_required" | "usable"
	InitDefects   int      `yaml:"init_defects"`
	RequestFaults int      `yaml:"request_faults"`
	LatencyMs     int      `yaml:"latency_ms"`
	HangRequest   bool     `yaml:"hang_request"`
	Deny          []string `yaml:"deny"`
}

// HistoryConfig controls the local attempt-history database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// configFileName is the path relative to the working directory.
const configDir = ".pulsegate"
const configFile = "config.yaml"

// ReadConfig reads .pulsegate/config.yaml from the given directory.
// dir is the working directory (not .pulsegate/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to .pulsegate/config.yaml in the given directory.
// Creates the .pulsegate/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with the reference policy values.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Policy: PolicyConfig{
			InitSettleMs:     500,
			RequestSettleMs:  2000,
			InitAttempts:     3,
			InitBackoffMs:    1000,
			RequestAttempts:  2,
			RequestBackoffMs: 1000,
			RequestTimeoutS:  30,
			RecoveryGraceMs:  1000,
		},
		Permissions: PermissionsConfig{
			Target: string(broker.SleepSession),
			Records: []string{
				string(broker.HeartRate),
				string(broker.HeartRateVariability),
				string(broker.SleepSession),
				string(broker.Steps),
				string(broker.RestingHeartRate),
			},
		},
		Broker: BrokerConfig{
			Mode:       "sim",
			DaemonAddr: "127.0.0.1:7345",
			Sim: SimConfig{
				Status:    "usable",
				LatencyMs: 150,
			},
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// OrchestratorPolicy converts the yaml values into the orchestrator's Policy.
// Zero or negative fields fall back to the defaults so partial configs keep
// working.
func (p PolicyConfig) OrchestratorPolicy() orchestrator.Policy {
	def := orchestrator.DefaultPolicy()
	policy := orchestrator.Policy{
		InitSettle:      msOr(p.InitSettleMs, def.InitSettle),
		RequestSettle:   msOr(p.RequestSettleMs, def.RequestSettle),
		InitAttempts:    intOr(p.InitAttempts, def.InitAttempts),
		InitBackoff:     msOr(p.InitBackoffMs, def.InitBackoff),
		RequestAttempts: intOr(p.RequestAttempts, def.RequestAttempts),
		RequestBackoff:  msOr(p.RequestBackoffMs, def.RequestBackoff),
		RequestTimeout:  secOr(p.RequestTimeoutS, def.RequestTimeout),
		RecoveryGrace:   msOr(p.RecoveryGraceMs, def.RecoveryGrace),
	}
	return policy
}

// Request builds the permission request from the configured record names.
func (p PermissionsConfig) Request() broker.Request {
	records := make([]broker.RecordType, 0, len(p.Records))
	for _, r := range p.Records {
		records = append(records, broker.RecordType(r))
	}
	if len(records) == 0 {
		records = []broker.RecordType{broker.SleepSession}
	}
	return broker.ReadRequest(records...)
}

// TargetPair returns the pair used to classify the grant.
func (p PermissionsConfig) TargetPair() broker.Pair {
	target := broker.RecordType(p.Target)
	if target == "" {
		target = broker.SleepSession
	}
	return broker.Read(target)
}

// NewSim builds a simulated broker from the sim knobs.
func (s SimConfig) NewSim() *broker.Sim {
	sim := broker.NewSim()
	switch s.Status {
	case "not_installed":
		sim.Status = broker.StatusNotInstalled
	case "update_required":
		sim.Status = broker.StatusUpdateRequired
	case "", "usable":
		sim.Status = broker.StatusUsable
	}
	sim.InitDefects = s.InitDefects
	sim.RequestFaults = s.RequestFaults
	sim.Latency = time.Duration(s.LatencyMs) * time.Millisecond
	sim.HangRequest = s.HangRequest
	for _, r := range s.Deny {
		sim.Deny = append(sim.Deny, broker.RecordType(r))
	}
	return sim
}

func msOr(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func secOr(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func intOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
