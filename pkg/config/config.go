// Package config loads and validates the application configuration: defaults
// first, then the YAML file, then environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hoanglm/trading-core/internal/backtest"
	"github.com/hoanglm/trading-core/internal/bot"
	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/internal/exchange"
	"github.com/hoanglm/trading-core/internal/exchange/bybit"
	"github.com/hoanglm/trading-core/internal/logger"
	"github.com/hoanglm/trading-core/internal/regime"
	"github.com/hoanglm/trading-core/internal/risk"
)

// MetricsConfig controls the metrics and health HTTP server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":9090"`
}

// Config aggregates every component's settings.
type Config struct {
	Logger    logger.Config      `yaml:"logger"`
	Regime    regime.Config      `yaml:"regime"`
	Engine    decision.Config    `yaml:"engine"`
	Sizer     risk.SizerConfig   `yaml:"sizer"`
	Stops     risk.StopConfig    `yaml:"stops"`
	Guard     risk.GuardConfig   `yaml:"guard"`
	Simulator exchange.SimConfig `yaml:"simulator"`
	Backtest  backtest.Config    `yaml:"backtest"`
	Bybit     bybit.Config       `yaml:"bybit"`
	Bot       bot.Config         `yaml:"bot"`
	Metrics   MetricsConfig      `yaml:"metrics"`
}

// Default returns the standard configuration for a single BTCUSDT paper bot.
func Default() Config {
	return Config{
		Logger:    logger.Config{Level: "info", Format: "console", Output: "stderr"},
		Regime:    regime.DefaultConfig(),
		Engine:    decision.DefaultConfig(),
		Sizer:     risk.DefaultSizerConfig(),
		Stops:     risk.DefaultStopConfig(),
		Guard:     risk.DefaultGuardConfig(),
		Simulator: exchange.DefaultSimConfig(),
		Backtest:  backtest.DefaultConfig("BTCUSDT"),
		Bybit:     bybit.DefaultConfig(),
		Bot:       bot.DefaultConfig("BTCUSDT"),
		Metrics:   MetricsConfig{Addr: ":9090"},
	}
}

// Load builds the configuration. A missing path uses pure defaults. A .env
// file, if present, is loaded before environment overrides are applied.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	applyEnv(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays secrets that do not belong in config files.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		cfg.Bybit.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		cfg.Bybit.APISecret = v
	}
}
