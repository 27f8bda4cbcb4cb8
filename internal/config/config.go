// Package config loads runtime configuration for the tank server and the
// terminal viewer from an optional config file and AQUARIUM_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the decoded runtime configuration.
type Config struct {
	// Addr is the HTTP listen address for the server.
	Addr string `mapstructure:"addr"`
	// LogLevel is a zerolog level name (trace..error).
	LogLevel string `mapstructure:"logLevel"`

	// TickRate is the simulation/broadcast frequency in Hz.
	TickRate int `mapstructure:"tickRate"`
	// FishCount is the school size spawned at startup.
	FishCount int `mapstructure:"fishCount"`
	// Seed fixes the school for reproducible runs; 0 uses the clock.
	Seed int64 `mapstructure:"seed"`

	// ServerURL is the websocket endpoint the viewer dials.
	ServerURL string `mapstructure:"serverUrl"`
	// StaleAfter is how long the viewer trusts the last live snapshot.
	StaleAfter time.Duration `mapstructure:"staleAfter"`
	// ReconnectEvery is the viewer's fixed retry backoff.
	ReconnectEvery time.Duration `mapstructure:"reconnectEvery"`
}

func setDefaults() {
	viper.SetDefault("addr", ":8080")
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("tickRate", 20)
	viper.SetDefault("fishCount", 20)
	viper.SetDefault("seed", 0)

	viper.SetDefault("serverUrl", "ws://localhost:8080/ws")
	viper.SetDefault("staleAfter", 3200*time.Millisecond)
	viper.SetDefault("reconnectEvery", 2500*time.Millisecond)
}

// Load reads aquarium.yaml from configDir (when present), applies AQUARIUM_*
// environment overrides, and decodes into a Config. A missing config file is
// not an error; everything has a default.
func Load(configDir string) (Config, error) {
	setDefaults()

	viper.SetConfigName("aquarium")
	viper.SetConfigType("yaml")
	if configDir != "" {
		viper.AddConfigPath(configDir)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("aquarium")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg.normalized(), nil
}

// normalized clamps out-of-range values back to usable defaults.
func (c Config) normalized() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":8080"
	}
	if c.TickRate <= 0 {
		c.TickRate = 20
	}
	if c.FishCount < 0 {
		c.FishCount = 0
	}
	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = "ws://localhost:8080/ws"
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 3200 * time.Millisecond
	}
	if c.ReconnectEvery <= 0 {
		c.ReconnectEvery = 2500 * time.Millisecond
	}
	return c
}
