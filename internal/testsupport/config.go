// Package testsupport provides shared helpers for package tests:
// temp-directory configs, on-disk KB catalogs, and case stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"cropdoc/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. External services default to disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.KBDir = filepath.Join(base, "kb")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Vision.Enabled = false
	cfg.Enhancer.Enabled = false
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithVision enables the vision stage against the given endpoint.
func WithVision(endpoint, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Vision.Enabled = true
		cfg.Vision.Endpoint = endpoint
		cfg.Vision.APIKey = apiKey
	}
}

// WithEnhancer enables the enhancer against the given endpoint.
func WithEnhancer(endpoint, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enhancer.Enabled = true
		cfg.Enhancer.Endpoint = endpoint
		cfg.Enhancer.APIKey = apiKey
	}
}
