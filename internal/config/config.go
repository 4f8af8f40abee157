package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ehr/healthmap/pkg/fhirmodels"
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	LogLevel               string        `mapstructure:"LOG_LEVEL"`
	IdentifierSystem       string        `mapstructure:"IDENTIFIER_SYSTEM"`
	DefaultConfidentiality string        `mapstructure:"DEFAULT_CONFIDENTIALITY"`
	BatchConcurrency       int           `mapstructure:"BATCH_CONCURRENCY"`
	InteractionThreshold   int           `mapstructure:"INTERACTION_THRESHOLD"`
	BodyLimit              string        `mapstructure:"BODY_LIMIT"`
	BatchBodyLimit         string        `mapstructure:"BATCH_BODY_LIMIT"`
	RequestTimeout         time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS           float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int           `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"IDENTIFIER_SYSTEM",
	"DEFAULT_CONFIDENTIALITY",
	"BATCH_CONCURRENCY",
	"INTERACTION_THRESHOLD",
	"BODY_LIMIT",
	"BATCH_BODY_LIMIT",
	"REQUEST_TIMEOUT",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
}

// LoadFile reads configuration from the environment and the env file at
// path. A missing file is not an error; environment variables always win
// over file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("IDENTIFIER_SYSTEM", "urn:healthmap:document")
	v.SetDefault("DEFAULT_CONFIDENTIALITY", fhirmodels.ConfidentialityNormal)
	v.SetDefault("BATCH_CONCURRENCY", 4)
	v.SetDefault("INTERACTION_THRESHOLD", 2)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("BATCH_BODY_LIMIT", "10M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Origins may arrive as one comma separated element or already split
	// with surrounding spaces.
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level returns the zerolog level named by LOG_LEVEL.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level: %w", c.LogLevel, err)
	}
	if c.IdentifierSystem == "" {
		return fmt.Errorf("IDENTIFIER_SYSTEM must be set")
	}
	switch c.DefaultConfidentiality {
	case fhirmodels.ConfidentialityNormal, fhirmodels.ConfidentialityRestricted:
	default:
		return fmt.Errorf("DEFAULT_CONFIDENTIALITY must be %q or %q, got %q",
			fhirmodels.ConfidentialityNormal, fhirmodels.ConfidentialityRestricted, c.DefaultConfidentiality)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1, got %d", c.BatchConcurrency)
	}
	if c.InteractionThreshold < 1 {
		return fmt.Errorf("INTERACTION_THRESHOLD must be at least 1, got %d", c.InteractionThreshold)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}
