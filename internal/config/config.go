// Package config provides configuration loading for reconciled.
//
// Precedence (highest to lowest): environment variables with the
// RECONCILED_ prefix, the YAML config file, hardcoded defaults. One
// Config value is validated at startup and passed explicitly into
// constructors; nothing reads ambient configuration during processing.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/reconciled/internal/store"
)

// ErrThresholdOrder indicates min_confidence above auto_reconcile_threshold.
// Inconsistent thresholds would make auto-reconcile unreachable, so they
// are rejected at startup instead of silently accepted.
var ErrThresholdOrder = errors.New("config: min_confidence must not exceed auto_reconcile_threshold")

// Config is the full process configuration.
type Config struct {
	Database       store.Config         `koanf:"database"`
	LLM            LLMConfig            `koanf:"llm"`
	Reconciliation ReconciliationConfig `koanf:"reconciliation"`
	Server         ServerConfig         `koanf:"server"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// LLMConfig configures the reasoning backend.
type LLMConfig struct {
	BaseURL           string  `koanf:"base_url"`
	Model             string  `koanf:"model"`
	APIKey            string  `koanf:"api_key"`
	Temperature       float64 `koanf:"temperature"`
	MaxIterations     int     `koanf:"max_iterations"`
	RequestsPerMinute float64 `koanf:"requests_per_minute"`
}

// ReconciliationConfig configures thresholds and validation bounds.
type ReconciliationConfig struct {
	MinConfidence       float64 `koanf:"min_confidence"`
	AutoReconcile       float64 `koanf:"auto_reconcile_threshold"`
	EnableAutoReconcile bool    `koanf:"enable_auto_reconcile"`
	MinAmount           float64 `koanf:"min_amount"`
	MaxAmount           float64 `koanf:"max_amount"`
	MinYear             int     `koanf:"min_year"`
	MaxYear             int     `koanf:"max_year"`
	BatchLimit          int     `koanf:"batch_limit"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the baseline configuration before file and env
// overrides.
func Default() *Config {
	return &Config{
		Database: store.Config{
			Type:  "sqlite",
			Table: store.DefaultTable,
		},
		LLM: LLMConfig{
			Model:         "gpt-4o-mini",
			Temperature:   0,
			MaxIterations: 10,
		},
		Reconciliation: ReconciliationConfig{
			MinConfidence:       80,
			AutoReconcile:       90,
			EnableAutoReconcile: true,
			MinAmount:           0.01,
			MaxAmount:           10_000_000,
			MinYear:             2000,
			MaxYear:             2100,
			BatchLimit:          0,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8750,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects inconsistent configuration at startup.
func (c *Config) Validate() error {
	if c.Database.Type == "" {
		return errors.New("config: database.type is required")
	}

	r := c.Reconciliation
	if r.MinConfidence < 0 || r.MinConfidence > 100 {
		return fmt.Errorf("config: min_confidence %.1f outside [0,100]", r.MinConfidence)
	}
	if r.AutoReconcile < 0 || r.AutoReconcile > 100 {
		return fmt.Errorf("config: auto_reconcile_threshold %.1f outside [0,100]", r.AutoReconcile)
	}
	if r.MinConfidence > r.AutoReconcile {
		return fmt.Errorf("%w: %.1f > %.1f", ErrThresholdOrder, r.MinConfidence, r.AutoReconcile)
	}
	if r.MinAmount >= r.MaxAmount {
		return fmt.Errorf("config: min_amount %.2f must be below max_amount %.2f", r.MinAmount, r.MaxAmount)
	}
	if r.MinYear > r.MaxYear {
		return fmt.Errorf("config: min_year %d above max_year %d", r.MinYear, r.MaxYear)
	}
	if r.BatchLimit < 0 {
		return fmt.Errorf("config: batch_limit %d must not be negative", r.BatchLimit)
	}

	if c.LLM.MaxIterations < 1 {
		return fmt.Errorf("config: llm.max_iterations %d must be at least 1", c.LLM.MaxIterations)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d outside [1,65535]", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: logging.format %q must be json or console", c.Logging.Format)
	}

	return nil
}
