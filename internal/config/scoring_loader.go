package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/utakatalp/goal-forecaster/internal/scoring"
)

// LoadScoring reads a scoring profile on top of scoring.DefaultConfig. An
// empty path yields the defaults. Keys missing from the file keep their
// default values.
func LoadScoring(path string) (scoring.Config, error) {
	cfg := scoring.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.Config{}, fmt.Errorf("read scoring profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return scoring.Config{}, fmt.Errorf("parse scoring profile: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return scoring.Config{}, fmt.Errorf("invalid scoring profile %s: %w", path, err)
	}
	return cfg, nil
}

// Scoring loads the configured profile and applies the environment's input
// window overrides.
func (c *Config) Scoring() (scoring.Config, error) {
	cfg, err := LoadScoring(c.ScoringProfilePath)
	if err != nil {
		return scoring.Config{}, err
	}
	if c.LookbackYears > 0 {
		cfg.LookbackYears = c.LookbackYears
	}
	if c.FormGames > 0 {
		cfg.FormGames = c.FormGames
	}
	if err := cfg.Validate(); err != nil {
		return scoring.Config{}, err
	}
	return cfg, nil
}
