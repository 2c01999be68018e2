package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
app:
  name: poly-arb
  version: 0.1.0
trading:
  mode: paper
engine:
  symbols: [btc, eth]
  window_secs: 300
risk:
  max_position_micros: 100000000
  max_order_size_micros: 10000000
logging:
  level: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Engine.WindowSecs != 300 {
		t.Errorf("WindowSecs = %d, want 300", cfg.Engine.WindowSecs)
	}
	if cfg.Engine.StalenessThresholdSecs != 150 {
		t.Errorf("StalenessThresholdSecs = %d, want half the window (150)", cfg.Engine.StalenessThresholdSecs)
	}
	if cfg.Engine.OverrunPolicy != OverrunCancelPrior {
		t.Errorf("OverrunPolicy = %s, want %s", cfg.Engine.OverrunPolicy, OverrunCancelPrior)
	}
	if cfg.Risk.MaxTradesPerDay != 5 {
		t.Errorf("MaxTradesPerDay = %d, want 5", cfg.Risk.MaxTradesPerDay)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("POLY_API_KEY", "env-key")
	t.Setenv("POLY_API_SECRET", "env-secret")
	t.Setenv("POLY_KILL_SWITCH", "true")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.Clob.APIKey != "env-key" {
		t.Errorf("APIKey = %s, want env-key", cfg.API.Clob.APIKey)
	}
	if cfg.API.Clob.APISecret != "env-secret" {
		t.Errorf("APISecret = %s, want env-secret", cfg.API.Clob.APISecret)
	}
	if !cfg.Trading.KillSwitch {
		t.Error("POLY_KILL_SWITCH must enable the kill switch")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Trading.Mode = "yolo" }},
		{"no symbols", func(c *Config) { c.Engine.Symbols = nil }},
		{"zero window", func(c *Config) { c.Engine.WindowSecs = 0 }},
		{"staleness beyond window", func(c *Config) { c.Engine.StalenessThresholdSecs = 301 }},
		{"bad overrun policy", func(c *Config) { c.Engine.OverrunPolicy = "panic" }},
		{"zero order size", func(c *Config) { c.Risk.MaxOrderSizeMicros = 0 }},
		{"position below order size", func(c *Config) { c.Risk.MaxPositionMicros = 1 }},
		{"real mode without creds", func(c *Config) {
			c.Trading.Mode = "real"
			c.API.Clob.RestURL = "https://clob.example.com"
			c.API.Clob.WSURL = "wss://clob.example.com/ws"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, validYAML))
			if err != nil {
				t.Fatalf("baseline config invalid: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
