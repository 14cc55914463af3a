// ABOUTME: Tests for configuration defaults and overrides
// ABOUTME: Covers default values, merge behavior, and env overrides
package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", cfg.MaxRetries)
	}
	if cfg.MutationDedupWindow != 60*time.Second {
		t.Errorf("expected 60s dedup window, got %v", cfg.MutationDedupWindow)
	}
	if cfg.InsightDedupWindow != 24*time.Hour {
		t.Errorf("expected 24h insight window, got %v", cfg.InsightDedupWindow)
	}
	if cfg.EventMaxCount != 100 || cfg.EventRetryCount != 50 {
		t.Errorf("expected log caps 100/50, got %d/%d", cfg.EventMaxCount, cfg.EventRetryCount)
	}
	if cfg.MaxActiveInsights != 2 || cfg.DismissedCap != 20 {
		t.Errorf("expected insight caps 2/20, got %d/%d", cfg.MaxActiveInsights, cfg.DismissedCap)
	}
}

func TestMergeKeepsDefaultsForZeroFields(t *testing.T) {
	cfg := Default()
	cfg.merge(&Config{MaxRetries: 5})

	if cfg.MaxRetries != 5 {
		t.Errorf("expected merged MaxRetries 5, got %d", cfg.MaxRetries)
	}
	if cfg.EventMaxCount != 100 {
		t.Errorf("zero fields should keep defaults, got EventMaxCount %d", cfg.EventMaxCount)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("KINETIC_MAX_RETRIES", "7")
	t.Setenv("KINETIC_MUTATION_DEDUP_WINDOW", "90s")
	t.Setenv("KINETIC_EVENT_MAX_COUNT", "not-a-number")

	cfg := Default()
	cfg.applyEnv()

	if cfg.MaxRetries != 7 {
		t.Errorf("expected env MaxRetries 7, got %d", cfg.MaxRetries)
	}
	if cfg.MutationDedupWindow != 90*time.Second {
		t.Errorf("expected env dedup window 90s, got %v", cfg.MutationDedupWindow)
	}
	if cfg.EventMaxCount != 100 {
		t.Errorf("invalid env value should be ignored, got %d", cfg.EventMaxCount)
	}
}
