// Package config provides environment-backed configuration and fatal-exit
// helpers for the CLI entry points.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Tool holds operator conveniences shared by the CLI tools. Defaults
// preserve the documented output format exactly; the environment only
// adjusts presentation, never the verdict.
type Tool struct {
	// Quiet suppresses per-entry dumps, keeping stage-progress and verdict
	// lines.
	Quiet bool `env:"REXLOG_QUIET"`
	// Delimiter overrides the block separator line between entries.
	Delimiter string `env:"REXLOG_DELIMITER"`
}

// LoadTool reads tool options from the environment.
func LoadTool() (Tool, error) {
	var cfg Tool
	if err := ParseEnv(&cfg); err != nil {
		return Tool{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
