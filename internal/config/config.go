// Package config reads the environment-variable overrides SPEC_FULL.md's
// ambient stack adds on top of the CLI's own flags, via
// github.com/caarlos0/env/v6 (already an indirect dependency of the
// teacher, promoted to direct use here).
package config

import "github.com/caarlos0/env/v6"

// Config holds the runtime tunables a user may override without touching
// CLI flags, for scripted/CI invocations.
type Config struct {
	Seed      uint64 `env:"SENI_SEED" envDefault:"0"`
	MaxSteps  int    `env:"SENI_MAX_STEPS" envDefault:"10000000"`
	StackSize int    `env:"SENI_STACK_SIZE" envDefault:"1024"`
}

// Load parses the environment into a Config, applying envDefault values for
// anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
