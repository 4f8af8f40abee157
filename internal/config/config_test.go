package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.IdentifierSystem != "urn:healthmap:document" {
		t.Errorf("unexpected identifier system %s", cfg.IdentifierSystem)
	}
	if cfg.DefaultConfidentiality != "normal" {
		t.Errorf("expected normal confidentiality, got %s", cfg.DefaultConfidentiality)
	}
	if cfg.BatchConcurrency != 4 {
		t.Errorf("expected batch concurrency 4, got %d", cfg.BatchConcurrency)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.BodyLimit != "1M" || cfg.BatchBodyLimit != "10M" {
		t.Errorf("unexpected body limits %s / %s", cfg.BodyLimit, cfg.BatchBodyLimit)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BATCH_CONCURRENCY", "8")
	t.Setenv("DEFAULT_CONFIDENTIALITY", "restricted")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.BatchConcurrency != 8 {
		t.Errorf("expected batch concurrency 8, got %d", cfg.BatchConcurrency)
	}
	if cfg.DefaultConfidentiality != "restricted" {
		t.Errorf("expected restricted, got %s", cfg.DefaultConfidentiality)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.RequestTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %q", cfg.CORSOrigins)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("IDENTIFIER_SYSTEM=urn:example:docs\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IdentifierSystem != "urn:example:docs" {
		t.Errorf("expected identifier system from file, got %s", cfg.IdentifierSystem)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", cfg.Level())
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		c := &Config{LogLevel: tt.in}
		if got := c.Level(); got != tt.want {
			t.Errorf("Level(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                   "8000",
			LogLevel:               "info",
			IdentifierSystem:       "urn:healthmap:document",
			DefaultConfidentiality: "normal",
			BatchConcurrency:       4,
			InteractionThreshold:   2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"missing identifier system", func(c *Config) { c.IdentifierSystem = "" }, true},
		{"unknown confidentiality", func(c *Config) { c.DefaultConfidentiality = "secret" }, true},
		{"zero concurrency", func(c *Config) { c.BatchConcurrency = 0 }, true},
		{"zero threshold", func(c *Config) { c.InteractionThreshold = 0 }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
		{"negative rate", func(c *Config) { c.RateLimitRPS = -1 }, true},
		{"rate limit off", func(c *Config) { c.RateLimitRPS = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
