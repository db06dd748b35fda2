package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-markdown/internal/config"
)

const envPrefix = "MARKDOWN_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MARKDOWN_CONFIG: config file name or path
	OutputDir  string        // MARKDOWN_OUTPUT_DIR: default output directory
	Timeout    time.Duration // MARKDOWN_TIMEOUT: PDF page load timeout
	Workers    int           // MARKDOWN_WORKERS: parallel workers
}

// knownEnvVars lists valid MARKDOWN_* environment variables.
var knownEnvVars = map[string]bool{
	"MARKDOWN_CONFIG":     true,
	"MARKDOWN_OUTPUT_DIR": true,
	"MARKDOWN_TIMEOUT":    true,
	"MARKDOWN_WORKERS":    true,
}

// loadEnvConfig reads MARKDOWN_* variables. Malformed or non-positive
// durations and counts are ignored.
func loadEnvConfig(env *Environment) *envConfig {
	cfg := &envConfig{
		ConfigPath: env.Getenv("MARKDOWN_CONFIG"),
		OutputDir:  env.Getenv("MARKDOWN_OUTPUT_DIR"),
	}

	if timeout := env.Getenv("MARKDOWN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := env.Getenv("MARKDOWN_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs a warning for each unrecognized MARKDOWN_*
// variable, which usually is a typo.
func warnUnknownEnvVars(env *Environment, log logrus.FieldLogger) {
	for _, kv := range env.Environ() {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			log.WithField("name", name).Warn("unknown environment variable (typo?)")
		}
	}
}

// applyEnvConfig applies environment values to config fields that are
// still empty. CLI flags are merged later via mergeFlags, so the order is
// CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" && cfg.Output.Dir == "" {
		cfg.Output.Dir = env.OutputDir
	}
}
