package config

import "context"

// Package config provides configuration management for the pump failure
// scoring service.
//
// Configuration sources (priority order, high to low):
//   1. Environment variables (PUMPML_* prefix)
//   2. YAML config file (default: /etc/pumpml/config.yaml)
//   3. Built-in defaults

// Config struct contains all configuration fields
type Config struct {
	// Server configuration
	Server struct {
		Host string
		Port int
		// AllowedOrigins lists origins permitted to open websocket
		// connections to the live score feed. ["*"] allows any origin
		// (development only).
		AllowedOrigins []string
		// ScoreTimeoutMS bounds a single prediction request.
		ScoreTimeoutMS int
		// RetrainTimeoutS bounds a training run.
		RetrainTimeoutS int
	}

	// Model configuration
	Model struct {
		// AutoTrain trains an initial model at startup when no persisted
		// artifacts exist. The rule-based fallback serves until it finishes.
		AutoTrain     bool
		SampleCount   int
		Contamination float64
	}

	// Database configuration
	Database struct {
		SQLitePath string
	}

	// Logging configuration
	Logging struct {
		Level  string // debug | info | warn | error
		Format string // json | text
		// File enables rotated file output alongside stderr when non-empty.
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	}
}

// Manager defines the interface for configuration access.
type Manager interface {
	// Load loads configuration from all sources.
	Load(ctx context.Context) error

	// Get returns the current configuration.
	Get(ctx context.Context) *Config

	// Validate validates configuration is correct and complete.
	Validate(ctx context.Context) error

	// Watch watches for configuration changes and reloads.
	Watch(ctx context.Context) <-chan Config
}

// NewManager creates a configuration manager reading the given YAML path.
func NewManager(configPath string) Manager {
	return &viperManager{
		configPath: configPath,
		config:     DefaultConfig(),
		watchChan:  make(chan Config, 1),
	}
}

// NewManagerWithDefaults creates a config manager with the default path.
func NewManagerWithDefaults() Manager {
	return NewManager("/etc/pumpml/config.yaml")
}
