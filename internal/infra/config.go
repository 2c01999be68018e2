package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Sensitive values may be overridden from
// the environment after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode       string `yaml:"mode"` // "paper" or "real"
		KillSwitch bool   `yaml:"kill_switch"`
	} `yaml:"trading"`

	API struct {
		Clob struct {
			RestURL          string `yaml:"rest_url"`
			WSURL            string `yaml:"ws_url"`
			APIKey           string `yaml:"api_key"`
			APISecret        string `yaml:"api_secret"`
			Passphrase       string `yaml:"passphrase"`
			RequestTimeoutMS int    `yaml:"request_timeout_ms"`
			MaxRetries       int    `yaml:"max_retries"`
		} `yaml:"clob"`
	} `yaml:"api"`

	Engine struct {
		Symbols                  []string `yaml:"symbols"`
		WindowSecs               int64    `yaml:"window_secs"`
		MarketRefreshAdvanceSecs int64    `yaml:"market_refresh_advance_secs"`
		StalenessThresholdSecs   int64    `yaml:"staleness_threshold_secs"`
		WindDownBeforeEndSecs    int64    `yaml:"wind_down_before_end_secs"`
		OverrunPolicy            string   `yaml:"overrun_policy"` // "cancel_prior" or "skip_new"
	} `yaml:"engine"`

	Risk struct {
		MaxPositionMicros  int64 `yaml:"max_position_micros"`
		MaxOrderSizeMicros int64 `yaml:"max_order_size_micros"`
		MaxTradesPerDay    int   `yaml:"max_trades_per_day"`
		SlippageBuyMicros  int64 `yaml:"slippage_buy_micros"`
		SlippageSellMicros int64 `yaml:"slippage_sell_micros"`
	} `yaml:"risk"`

	Strategy struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Scalp   struct {
			MoveThresholdMicros int64 `yaml:"move_threshold_micros"`
			OrderSizeMicros     int64 `yaml:"order_size_micros"`
			TakeProfitMicros    int64 `yaml:"take_profit_micros"`
			StopLossMicros      int64 `yaml:"stop_loss_micros"`
			MaxHoldSecs         int64 `yaml:"max_hold_secs"`
		} `yaml:"scalp"`
	} `yaml:"strategy"`

	Telemetry struct {
		RedisAddr string `yaml:"redis_addr"` // empty disables the Redis sink
		Stream    string `yaml:"stream"`
	} `yaml:"telemetry"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Overrun policies. Default is cancel_prior: a cycle that outlives its window
// is cancelled so the new window starts clean, avoiding unbounded backlog.
const (
	OverrunCancelPrior = "cancel_prior"
	OverrunSkipNew     = "skip_new"
)

// LoadConfig reads and parses the config file, applies environment overrides,
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Trading.Mode == "" {
		cfg.Trading.Mode = "paper"
	}
	if cfg.Engine.WindowSecs == 0 {
		cfg.Engine.WindowSecs = 300
	}
	if cfg.Engine.MarketRefreshAdvanceSecs == 0 {
		cfg.Engine.MarketRefreshAdvanceSecs = 5
	}
	if cfg.Engine.StalenessThresholdSecs == 0 {
		// Half the window: older data is unusable for a 5-minute market.
		cfg.Engine.StalenessThresholdSecs = cfg.Engine.WindowSecs / 2
	}
	if cfg.Engine.OverrunPolicy == "" {
		cfg.Engine.OverrunPolicy = OverrunCancelPrior
	}
	if cfg.API.Clob.RequestTimeoutMS == 0 {
		cfg.API.Clob.RequestTimeoutMS = 10000
	}
	if cfg.API.Clob.MaxRetries == 0 {
		cfg.API.Clob.MaxRetries = 3
	}
	if cfg.Risk.MaxTradesPerDay == 0 {
		cfg.Risk.MaxTradesPerDay = 5
	}
	if cfg.Strategy.Version == "" {
		cfg.Strategy.Version = "v1"
	}
	if cfg.Telemetry.Stream == "" {
		cfg.Telemetry.Stream = "cycle_events"
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	mode := strings.ToLower(c.Trading.Mode)
	if mode != "paper" && mode != "real" {
		return fmt.Errorf("unknown trading mode: %s", c.Trading.Mode)
	}

	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.Engine.WindowSecs <= 0 {
		return fmt.Errorf("window_secs must be positive")
	}
	if c.Engine.StalenessThresholdSecs <= 0 || c.Engine.StalenessThresholdSecs > c.Engine.WindowSecs {
		return fmt.Errorf("staleness_threshold_secs must be in (0, window_secs]")
	}
	if p := c.Engine.OverrunPolicy; p != OverrunCancelPrior && p != OverrunSkipNew {
		return fmt.Errorf("unknown overrun policy: %s", p)
	}

	if mode == "real" {
		if !strings.HasPrefix(c.API.Clob.RestURL, "http://") && !strings.HasPrefix(c.API.Clob.RestURL, "https://") {
			return fmt.Errorf("invalid CLOB REST URL: %s", c.API.Clob.RestURL)
		}
		if !strings.HasPrefix(c.API.Clob.WSURL, "ws://") && !strings.HasPrefix(c.API.Clob.WSURL, "wss://") {
			return fmt.Errorf("invalid CLOB WS URL: %s", c.API.Clob.WSURL)
		}
		if c.API.Clob.APIKey == "" || c.API.Clob.APISecret == "" {
			return fmt.Errorf("real mode requires API credentials")
		}
	}

	if c.Risk.MaxOrderSizeMicros <= 0 {
		return fmt.Errorf("max_order_size_micros must be positive")
	}
	if c.Risk.MaxPositionMicros < c.Risk.MaxOrderSizeMicros {
		return fmt.Errorf("max_position_micros must be >= max_order_size_micros")
	}

	return nil
}

// overrideWithEnv lets environment variables take precedence over file values.
// Secrets belong in the environment, not on disk.
func overrideWithEnv(cfg *Config) {
	if cfg.API.Clob.APISecret != "" {
		fmt.Println("⚠️  SECURITY WARNING: API secret found in config file.")
		fmt.Println("   Recommendation: use environment variables instead:")
		fmt.Println("   - POLY_API_KEY, POLY_API_SECRET, POLY_PASSPHRASE")
	}

	if key := os.Getenv("POLY_API_KEY"); key != "" {
		cfg.API.Clob.APIKey = key
	}
	if secret := os.Getenv("POLY_API_SECRET"); secret != "" {
		cfg.API.Clob.APISecret = secret
	}
	if pass := os.Getenv("POLY_PASSPHRASE"); pass != "" {
		cfg.API.Clob.Passphrase = pass
	}
	if ks := os.Getenv("POLY_KILL_SWITCH"); ks == "1" || strings.EqualFold(ks, "true") {
		cfg.Trading.KillSwitch = true
	}
}
