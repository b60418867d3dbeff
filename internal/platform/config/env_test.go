package config

import (
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

type envTestConfig struct {
	Port     int           `env:"OFFLINECACHE_TEST_PORT" envDefault:"123"`
	Manifest []string      `env:"OFFLINECACHE_TEST_MANIFEST" envSeparator:"," envDefault:"/,/index.html"`
	Timeout  time.Duration `env:"OFFLINECACHE_TEST_TIMEOUT" envDefault:"3s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if len(cfg.Manifest) != 2 || cfg.Manifest[1] != "/index.html" {
		t.Fatalf("manifest = %v, want [/ /index.html]", cfg.Manifest)
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v, want 3s", cfg.Timeout)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("OFFLINECACHE_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithOptionsUsesEnvironment(t *testing.T) {
	var cfg envTestConfig

	err := ParseEnvWithOptions(&cfg, env.Options{Environment: map[string]string{
		"OFFLINECACHE_TEST_MANIFEST": "/a.css,/b.js,/c.png",
	}})
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if len(cfg.Manifest) != 3 || cfg.Manifest[2] != "/c.png" {
		t.Fatalf("manifest = %v", cfg.Manifest)
	}
}

func TestParseEnvRequiresTarget(t *testing.T) {
	if err := ParseEnv(nil); err == nil {
		t.Fatal("expected error for nil target")
	}
}
