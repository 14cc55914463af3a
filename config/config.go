// ABOUTME: Configuration for the resilience core's tuning knobs
// ABOUTME: Handles retry ceiling, dedup windows, and log/insight caps
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

const (
	// AppName is the application name for data and config paths.
	AppName = "kinetic"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"
)

// Config holds the resilience core's tuning knobs. The defaults mirror the
// shipped behavior; deployments can override them without a rebuild.
type Config struct {
	// MaxRetries is the sync retry ceiling; a mutation at the ceiling is
	// dropped instead of retried.
	MaxRetries int `json:"max_retries"`

	// MutationDedupWindow suppresses re-enqueue of an identical payload.
	MutationDedupWindow time.Duration `json:"mutation_dedup_window"`

	// InsightDedupWindow suppresses re-emitting an insight of the same type.
	InsightDedupWindow time.Duration `json:"insight_dedup_window"`

	// EventMaxCount bounds the event log length.
	EventMaxCount int `json:"event_max_count"`

	// EventRetryCount is the halved log size used for the persist retry.
	EventRetryCount int `json:"event_retry_count"`

	// EventMaxAge bounds event age; older entries are pruned on load.
	EventMaxAge time.Duration `json:"event_max_age"`

	// MaxActiveInsights caps the non-dismissed insight set.
	MaxActiveInsights int `json:"max_active_insights"`

	// DismissedCap caps dismissed insights retained for dedup.
	DismissedCap int `json:"dismissed_cap"`
}

// Default returns a config with the shipped values.
func Default() *Config {
	return &Config{
		MaxRetries:          3,
		MutationDedupWindow: 60 * time.Second,
		InsightDedupWindow:  24 * time.Hour,
		EventMaxCount:       100,
		EventRetryCount:     50,
		EventMaxAge:         30 * 24 * time.Hour,
		MaxActiveInsights:   2,
		DismissedCap:        20,
	}
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, ConfigFileName), nil
}

// Load reads config from disk, or returns defaults if missing or corrupt.
func Load() *Config {
	cfg := Default()

	path, err := configPath()
	if err != nil {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		// Invalid config, use defaults
		return cfg
	}

	cfg.merge(&loaded)
	cfg.applyEnv()
	return cfg
}

// merge copies set fields from loaded over the defaults.
func (c *Config) merge(loaded *Config) {
	if loaded.MaxRetries > 0 {
		c.MaxRetries = loaded.MaxRetries
	}
	if loaded.MutationDedupWindow > 0 {
		c.MutationDedupWindow = loaded.MutationDedupWindow
	}
	if loaded.InsightDedupWindow > 0 {
		c.InsightDedupWindow = loaded.InsightDedupWindow
	}
	if loaded.EventMaxCount > 0 {
		c.EventMaxCount = loaded.EventMaxCount
	}
	if loaded.EventRetryCount > 0 {
		c.EventRetryCount = loaded.EventRetryCount
	}
	if loaded.EventMaxAge > 0 {
		c.EventMaxAge = loaded.EventMaxAge
	}
	if loaded.MaxActiveInsights > 0 {
		c.MaxActiveInsights = loaded.MaxActiveInsights
	}
	if loaded.DismissedCap > 0 {
		c.DismissedCap = loaded.DismissedCap
	}
}

// applyEnv applies KINETIC_* environment overrides.
func (c *Config) applyEnv() {
	if v, ok := envInt("KINETIC_MAX_RETRIES"); ok {
		c.MaxRetries = v
	}
	if v, ok := envDuration("KINETIC_MUTATION_DEDUP_WINDOW"); ok {
		c.MutationDedupWindow = v
	}
	if v, ok := envDuration("KINETIC_INSIGHT_DEDUP_WINDOW"); ok {
		c.InsightDedupWindow = v
	}
	if v, ok := envInt("KINETIC_EVENT_MAX_COUNT"); ok {
		c.EventMaxCount = v
	}
	if v, ok := envInt("KINETIC_MAX_ACTIVE_INSIGHTS"); ok {
		c.MaxActiveInsights = v
	}
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func envDuration(name string) (time.Duration, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
