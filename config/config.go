// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/warp/pension-engine/generic"
)

// Server is the configuration of cmd/server. Flags override these values.
type Server struct {
	Addr   string `env:"PENSION_ADDR" envDefault:":8080"`
	DBPath string `env:"PENSION_DB" envDefault:"pension.db"`

	// Owner is required only when the database has not been initialized.
	Owner string `env:"PENSION_OWNER"`

	LogLevel  string `env:"PENSION_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"PENSION_LOG_FORMAT" envDefault:"text"`

	CORSOrigins []string `env:"PENSION_CORS_ORIGINS" envSeparator:","`

	// Metrics toggles the /metrics endpoint.
	Metrics bool `env:"PENSION_METRICS" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the server configuration.
func Load() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks values the env parser cannot.
func (c Server) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if _, err := c.OwnerID(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// OwnerID parses Owner. It returns nil when Owner is unset.
func (c Server) OwnerID() (*generic.AccountID, error) {
	if c.Owner == "" {
		return nil, nil
	}
	id, err := generic.ParseAccountID(c.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	return &id, nil
}

// NewLogger builds the process logger writing to w.
func (c Server) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
