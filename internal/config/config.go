// Package config loads engine configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/atmx/clicker-engine/internal/idgen"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port     string `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
	Game struct {
		StrictFunds bool `yaml:"strict_funds"`
		// Intervals are run by a cron scheduler and must be at least 1s.
		IncomeInterval time.Duration `yaml:"income_interval"`
		MarketInterval time.Duration `yaml:"market_interval"`
		// Seed for the market and casino RNG. Zero picks a random seed.
		Seed uint64 `yaml:"seed"`
	} `yaml:"game"`
	Casino struct {
		// Stakes are decimal strings; an unquoted YAML number is read
		// as written.
		MinStake string `yaml:"min_stake"`
		MaxStake string `yaml:"max_stake"`
	} `yaml:"casino"`
	IDGen struct {
		Kind      string `yaml:"kind"`
		MachineID int64  `yaml:"machine_id"`
	} `yaml:"idgen"`
	Journal struct {
		QueueSize   int    `yaml:"queue_size"`
		CacheSize   int64  `yaml:"cache_size"`
		SQLitePath  string `yaml:"sqlite_path"`
		DatabaseURL string `yaml:"database_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"journal"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("STRICT_FUNDS"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("STRICT_FUNDS: %w", err)
		}
		cfg.Game.StrictFunds = strict
	}
	if v := os.Getenv("IDGEN_KIND"); v != "" {
		cfg.IDGen.Kind = v
	}
	if v := os.Getenv("MACHINE_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MACHINE_ID: %w", err)
		}
		cfg.IDGen.MachineID = id
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Journal.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Journal.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Journal.RedisURL = v
	}

	// Defaults
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Game.IncomeInterval == 0 {
		cfg.Game.IncomeInterval = time.Second
	}
	if cfg.Game.MarketInterval == 0 {
		cfg.Game.MarketInterval = 3 * time.Second
	}
	if cfg.Casino.MinStake == "" {
		cfg.Casino.MinStake = "10"
	}
	if cfg.Casino.MaxStake == "" {
		cfg.Casino.MaxStake = "0"
	}
	if cfg.IDGen.Kind == "" {
		cfg.IDGen.Kind = idgen.KindSonyflake
	}
	if cfg.Journal.QueueSize == 0 {
		cfg.Journal.QueueSize = 1024
	}
	if cfg.Journal.CacheSize == 0 {
		cfg.Journal.CacheSize = 200
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Game.IncomeInterval < time.Second {
		return fmt.Errorf("game.income_interval must be at least 1s, got %s", c.Game.IncomeInterval)
	}
	if c.Game.MarketInterval < time.Second {
		return fmt.Errorf("game.market_interval must be at least 1s, got %s", c.Game.MarketInterval)
	}
	minStake, maxStake, err := c.Stakes()
	if err != nil {
		return err
	}
	if !minStake.IsPositive() {
		return fmt.Errorf("casino.min_stake must be positive")
	}
	if !maxStake.IsZero() && maxStake.LessThan(minStake) {
		return fmt.Errorf("casino.max_stake must be zero or at least min_stake")
	}
	switch c.IDGen.Kind {
	case idgen.KindSonyflake, idgen.KindSnowflake, idgen.KindUUID:
	default:
		return fmt.Errorf("idgen.kind %q is not supported", c.IDGen.Kind)
	}
	if c.IDGen.MachineID < 0 {
		return fmt.Errorf("idgen.machine_id must not be negative")
	}
	if c.Journal.QueueSize < 0 || c.Journal.CacheSize < 0 {
		return fmt.Errorf("journal sizes must not be negative")
	}
	return nil
}

// LogLevel parses server.log_level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return 0, fmt.Errorf("server.log_level: %w", err)
	}
	return level, nil
}

// Stakes parses casino.min_stake and casino.max_stake.
func (c *Config) Stakes() (minStake, maxStake decimal.Decimal, err error) {
	minStake, err = decimal.NewFromString(c.Casino.MinStake)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("casino.min_stake: %w", err)
	}
	maxStake, err = decimal.NewFromString(c.Casino.MaxStake)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("casino.max_stake: %w", err)
	}
	return minStake, maxStake, nil
}
