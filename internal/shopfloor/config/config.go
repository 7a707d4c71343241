// Package config loads shopfloor settings from defaults, an optional config
// file, a .env file and SHOPFLOOR_* environment variables, in rising order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SHOPFLOOR"

type Config struct {
	BackendURL        string `mapstructure:"backend_url" validate:"required,url"`
	APIKey            string `mapstructure:"api_key"`
	MenuID            int    `mapstructure:"menu_id" validate:"gte=0"`
	ProfileID         int    `mapstructure:"profile_id" validate:"gte=0"`
	HTTPTimeoutMS     int    `mapstructure:"http_timeout_ms"`
	Scenario          string `mapstructure:"scenario" validate:"required"`
	QtyCeiling        int    `mapstructure:"qty_ceiling"`
	HTTPEnabled       bool   `mapstructure:"http_enabled"`
	HTTPAddr          string `mapstructure:"http_addr"`
	IPCEnabled        bool   `mapstructure:"ipc_enabled"`
	IPCSocket         string `mapstructure:"ipc_socket"`
	JournalPath       string `mapstructure:"journal_path"`
	LogLevel          string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat         string `mapstructure:"log_format" validate:"oneof=text json"`
	LogFile           string `mapstructure:"log_file"`
	BreakerFailures   int    `mapstructure:"breaker_failures"`
	BreakerTimeoutSec int    `mapstructure:"breaker_timeout_sec"`
	LastPickedLimit   int    `mapstructure:"last_picked_limit"`
}

var defaults = map[string]any{
	"backend_url":         "",
	"api_key":             "",
	"menu_id":             0,
	"profile_id":          0,
	"http_timeout_ms":     12_000,
	"scenario":            "cluster_batch_picking",
	"qty_ceiling":         10_000,
	"http_enabled":        false,
	"http_addr":           ":8099",
	"ipc_enabled":         false,
	"ipc_socket":          "/tmp/shopfloor-go.sock",
	"journal_path":        "shopfloor.db",
	"log_level":           "info",
	"log_format":          "text",
	"log_file":            "logs/shopfloor.log",
	"breaker_failures":    5,
	"breaker_timeout_sec": 30,
	"last_picked_limit":   16,
}

// Load reads the configuration. file may be empty.
func Load(file string) (Config, error) {
	if err := LoadDotEnv(envOr(EnvPrefix+"_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(file) != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Scenario = strings.ToLower(strings.TrimSpace(c.Scenario))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.JournalPath = strings.TrimSpace(c.JournalPath)

	if !c.HTTPEnabled {
		c.HTTPAddr = ""
	}
	if !c.IPCEnabled {
		c.IPCSocket = ""
	}
	if c.HTTPTimeoutMS < 1000 {
		c.HTTPTimeoutMS = 1000
	}
	if c.QtyCeiling < 1 {
		c.QtyCeiling = 1
	}
	if c.QtyCeiling > 1_000_000 {
		c.QtyCeiling = 1_000_000
	}
	if c.BreakerFailures < 1 {
		c.BreakerFailures = 1
	}
	if c.BreakerTimeoutSec < 5 {
		c.BreakerTimeoutSec = 5
	}
	if c.LastPickedLimit < 1 {
		c.LastPickedLimit = 1
	}
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

func (c Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSec) * time.Second
}

// LoadDotEnv loads KEY=VALUE pairs from path. Variables already present in
// the environment win; a missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
