// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PoolConfig describes one tracked AMM pool.
type PoolConfig struct {
	Address string `yaml:"address"`
	// Kind is optional; empty means probe the contract.
	Kind string `yaml:"kind"`
}

// Config holds all application configuration.
type Config struct {
	RPC struct {
		HTTPEndpoint string `yaml:"http_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		MaxRetries   int    `yaml:"max_retries"`
	} `yaml:"rpc"`
	Pools   []PoolConfig `yaml:"pools"`
	Candles struct {
		IntervalSeconds  int64  `yaml:"interval_seconds"`
		OutputFile       string `yaml:"output_file"`
		TurnoverFraction string `yaml:"turnover_fraction"` // reserve heuristic share, empty uses the default
	} `yaml:"candles"`
	Stream struct {
		Workers      int   `yaml:"workers"`
		BucketLag    int64 `yaml:"bucket_lag"`
		FlushSeconds int64 `yaml:"flush_seconds"`
	} `yaml:"stream"`
	Storage struct {
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; everything can
// come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RPC_HTTP_ENDPOINT"); v != "" {
		cfg.RPC.HTTPEndpoint = v
	}
	if v := os.Getenv("RPC_WS_ENDPOINT"); v != "" {
		cfg.RPC.WSEndpoint = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("CANDLE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Candles.IntervalSeconds = n
		}
	}
	if v := os.Getenv("POOL_ADDRESS"); v != "" {
		cfg.Pools = append(cfg.Pools, PoolConfig{Address: v})
	}

	// Defaults
	if cfg.Candles.IntervalSeconds == 0 {
		cfg.Candles.IntervalSeconds = 60
	}
	if cfg.Candles.OutputFile == "" {
		cfg.Candles.OutputFile = "candles.json"
	}
	if cfg.Stream.Workers == 0 {
		cfg.Stream.Workers = 4
	}
	if cfg.Stream.BucketLag == 0 {
		cfg.Stream.BucketLag = 1
	}
	if cfg.Stream.FlushSeconds == 0 {
		cfg.Stream.FlushSeconds = 5
	}
	if cfg.RPC.MaxRetries == 0 {
		cfg.RPC.MaxRetries = 3
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9091"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.RPC.HTTPEndpoint == "" {
		return fmt.Errorf("rpc.http_endpoint is required")
	}
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}
	for i, pool := range c.Pools {
		if pool.Address == "" {
			return fmt.Errorf("pools[%d].address is required", i)
		}
	}
	if c.Candles.IntervalSeconds <= 0 {
		return fmt.Errorf("candles.interval_seconds must be positive")
	}
	if c.Candles.TurnoverFraction != "" {
		if _, err := decimal.NewFromString(c.Candles.TurnoverFraction); err != nil {
			return fmt.Errorf("candles.turnover_fraction: %w", err)
		}
	}
	return nil
}

// Turnover returns the configured reserve turnover fraction, or zero when
// unset so the estimator falls back to its default.
func (c *Config) Turnover() decimal.Decimal {
	if c.Candles.TurnoverFraction == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(c.Candles.TurnoverFraction)
	if err != nil {
		return decimal.Zero
	}
	return d
}
