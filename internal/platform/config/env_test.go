package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Limit int `env:"REXLOG_TEST_LIMIT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Limit != 123 {
		t.Fatalf("expected default limit 123, got %d", cfg.Limit)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("REXLOG_TEST_LIMIT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadTool(t *testing.T) {
	t.Setenv("REXLOG_QUIET", "true")
	t.Setenv("REXLOG_DELIMITER", "====\n")

	cfg, err := LoadTool()
	if err != nil {
		t.Fatalf("load tool config: %v", err)
	}
	if !cfg.Quiet {
		t.Error("expected Quiet to be set")
	}
	if cfg.Delimiter != "====\n" {
		t.Errorf("unexpected delimiter %q", cfg.Delimiter)
	}
}
