// Package config handles genesplice configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/internal/fixture"
)

// Config holds all genesplice settings.
type Config struct {
	Splice  SpliceConfig    `yaml:"splice"`
	Fixture fixture.Options `yaml:"fixture"`
	Logging LoggingConfig   `yaml:"logging"`
}

// SpliceConfig holds splicer settings.
type SpliceConfig struct {
	CalculationMode string  `yaml:"calculation_mode"` // auto, scalar, sse or avx
	MaxInfluences   int     `yaml:"max_influences"`   // 0 keeps the archetype maximum
	Pools           int     `yaml:"pools"`            // synthetic pools registered by run
	Weight          float32 `yaml:"weight"`           // splice weight of every dna and region
	Scale           float32 `yaml:"scale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Splice: SpliceConfig{
			CalculationMode: "auto",
			MaxInfluences:   0,
			Pools:           2,
			Weight:          0.25,
			Scale:           1,
		},
		Fixture: fixture.DefaultOptions(),
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// CalculationType parses the configured calculation mode.
func (c *Config) CalculationType() (block.CalculationType, error) {
	return block.ParseCalculationType(c.Splice.CalculationMode)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.CalculationType(); err != nil {
		return fmt.Errorf("splice.calculation_mode: %w", err)
	}
	if c.Splice.MaxInfluences < 0 {
		return fmt.Errorf("splice.max_influences: %d is negative", c.Splice.MaxInfluences)
	}
	if c.Splice.Pools < 1 {
		return fmt.Errorf("splice.pools: need at least one pool, got %d", c.Splice.Pools)
	}
	if err := c.Fixture.Validate(); err != nil {
		return fmt.Errorf("fixture: %w", err)
	}
	return nil
}
