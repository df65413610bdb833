// Package config loads run/scenario configuration for the runner
// (spec §4.5 "Runner(env, agents, n_steps, seed)" inputs and §4.3
// StepEnv constructor inputs).
//
// The teacher has no configuration loader of its own (its only
// configurable surface is cmd/client's flag.Parse(), which belongs to
// the out-of-scope CLI binding), so this is grounded on the rest of
// the retrieval pack: 0xtitan6-polymarket-mm's internal/config/config.go
// loads its runtime config the same way, via viper with YAML + env
// overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AssetConfig is one traded instrument's book parameters (spec §4.2
// OrderBook constructor inputs, repeated per asset).
type AssetConfig struct {
	Name     string `mapstructure:"name"`
	TickSize uint64 `mapstructure:"tick_size"`
}

// RunConfig is the top-level run configuration, maps directly to the
// YAML file structure.
type RunConfig struct {
	Seed      uint64        `mapstructure:"seed"`
	StartTime uint64        `mapstructure:"start_time"`
	StepSize  uint64        `mapstructure:"step_size"`
	NSteps    int           `mapstructure:"n_steps"`
	Assets    []AssetConfig `mapstructure:"assets"`
}

// Load reads run configuration from a YAML file, with GLASSBOOK_*
// environment variables overriding scalar top-level fields.
func Load(path string) (*RunConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("GLASSBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges (spec §4.2/§4.3
// constructor validation, surfaced early so a malformed run config
// fails before any book is constructed).
func (c *RunConfig) Validate() error {
	if c.StepSize == 0 {
		return fmt.Errorf("config: step_size must be positive")
	}
	if c.NSteps <= 0 {
		return fmt.Errorf("config: n_steps must be positive")
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("config: at least one asset is required")
	}
	for _, a := range c.Assets {
		if a.Name == "" {
			return fmt.Errorf("config: asset name must not be empty")
		}
		if a.TickSize == 0 {
			return fmt.Errorf("config: asset %q: tick_size must be positive", a.Name)
		}
	}
	return nil
}
