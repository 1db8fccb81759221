// Package config loads service configuration from the environment, with
// command-line flags taking precedence.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config holds the service settings.
type Config struct {
	Transport      string `env:"PROVENANCE_TRANSPORT" envDefault:"http"`
	Port           string `env:"PROVENANCE_PORT" envDefault:"5000"`
	DataDir        string `env:"PROVENANCE_DATA_DIR" envDefault:"./data"`
	Seed           bool   `env:"PROVENANCE_SEED" envDefault:"false"`
	LogDev         bool   `env:"PROVENANCE_LOG_DEV" envDefault:"false"`
	DefaultLocale  string `env:"PROVENANCE_DEFAULT_LOCALE" envDefault:"en"`
	FallbackLocale string `env:"PROVENANCE_FALLBACK_LOCALE" envDefault:"zh"`
	APIBase        string `env:"PROVENANCE_API_BASE" envDefault:"/api"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment, then applies any flags in args over it.
func Load(args []string, output io.Writer) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("provenance-viewer", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport mode: http or stdio")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port (only used with --transport http)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for the SQLite database")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "Load the sample provenance graph on start")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "Human-readable development logging")
	fs.StringVar(&cfg.DefaultLocale, "locale", cfg.DefaultLocale, "Default UI locale")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.APIBase != "/" {
		cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values flags and env cannot constrain on their own.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("unknown transport: %s (use stdio or http)", c.Transport)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	if c.APIBase == "" || c.APIBase[0] != '/' {
		return fmt.Errorf("api base must start with '/': %q", c.APIBase)
	}
	// The shell owns "/", and a trailing slash would double up in route patterns.
	if c.APIBase == "/" || strings.HasSuffix(c.APIBase, "/") {
		return fmt.Errorf("api base must name a path without a trailing '/': %q", c.APIBase)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}
