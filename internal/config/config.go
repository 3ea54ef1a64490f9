// Package config loads the qkdsim service configuration from TOML.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Bounds on the transmission multiplier a request may ask for. A multiplier
// of 2 expects fewer sifted, unchecked bits than the key needs.
const (
	MinMultiplier = 3
	MaxMultiplier = 10
)

// Config is the service configuration. Every field has a default; a file
// only needs to name what it changes.
type Config struct {
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
	Defaults  Defaults  `toml:"defaults"`
	Batch     Batch     `toml:"batch"`
	RateLimit RateLimit `toml:"rate_limit"`
}

// Server holds listener settings.
type Server struct {
	Addr string `toml:"addr"`
	// AllowOrigins lists origins accepted on the websocket endpoint. "*"
	// accepts any.
	AllowOrigins []string `toml:"allow_origins"`
}

// Log holds logging settings.
type Log struct {
	Level string `toml:"level"`
}

// Defaults fill in protocol parameters a request leaves out.
type Defaults struct {
	KeyLength              int     `toml:"key_length"`
	InterceptRate          float64 `toml:"intercept_rate"`
	TransmissionMultiplier int     `toml:"transmission_multiplier"`
	CheckFraction          float64 `toml:"check_fraction"`
	MaxAttempts            int     `toml:"max_attempts"`
}

// Batch bounds batch execution.
type Batch struct {
	// Concurrency caps sessions in flight per batch. Zero means GOMAXPROCS.
	Concurrency int `toml:"concurrency"`
	MaxRuns     int `toml:"max_runs"`
}

// RateLimit throttles the batch endpoints, which are the expensive ones.
type RateLimit struct {
	PerSecond float64 `toml:"per_second"`
	Burst     int     `toml:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:         "127.0.0.1:8000",
			AllowOrigins: []string{"*"},
		},
		Log: Log{Level: "info"},
		Defaults: Defaults{
			KeyLength:              256,
			InterceptRate:          0.5,
			TransmissionMultiplier: 4,
			CheckFraction:          0.1,
			MaxAttempts:            3,
		},
		Batch: Batch{
			MaxRuns: 100,
		},
		RateLimit: RateLimit{
			PerSecond: 5,
			Burst:     10,
		},
	}
}

// Load reads the TOML file at path over Default(). Keys the configuration
// does not know are an error, so typos do not pass silently.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return finish(cfg, md)
}

// Parse is Load for in-memory TOML.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return finish(cfg, md)
}

func finish(cfg *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first unusable setting in c.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	d := c.Defaults
	if d.KeyLength < 64 || d.KeyLength > 1024 {
		return fmt.Errorf("defaults.key_length must be in [64, 1024], got %d", d.KeyLength)
	}
	if d.InterceptRate < 0 || d.InterceptRate > 1 {
		return fmt.Errorf("defaults.intercept_rate must be in [0, 1], got %v", d.InterceptRate)
	}
	if d.TransmissionMultiplier < MinMultiplier || d.TransmissionMultiplier > MaxMultiplier {
		return fmt.Errorf("defaults.transmission_multiplier must be in [%d, %d], got %d",
			MinMultiplier, MaxMultiplier, d.TransmissionMultiplier)
	}
	if d.CheckFraction <= 0 || d.CheckFraction > 0.5 {
		return fmt.Errorf("defaults.check_fraction must be in (0, 0.5], got %v", d.CheckFraction)
	}
	// Every multiplier a request may pick must still expect a full key.
	if float64(MinMultiplier)*0.5*(1-d.CheckFraction) < 1 {
		return fmt.Errorf("defaults.check_fraction %v leaves transmission_multiplier %d short of a full key",
			d.CheckFraction, MinMultiplier)
	}
	if d.MaxAttempts < 1 {
		return fmt.Errorf("defaults.max_attempts must be positive, got %d", d.MaxAttempts)
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("batch.concurrency must not be negative, got %d", c.Batch.Concurrency)
	}
	if c.Batch.MaxRuns < 1 || c.Batch.MaxRuns > 100 {
		return fmt.Errorf("batch.max_runs must be in [1, 100], got %d", c.Batch.MaxRuns)
	}
	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("rate_limit.per_second must be positive, got %v", c.RateLimit.PerSecond)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be positive, got %d", c.RateLimit.Burst)
	}
	return nil
}
