package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateEnhancer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.KBDir) == "" {
		return errors.New("paths.kb_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateScoring() error {
	if c.Scoring.VisionWeight < 0 || c.Scoring.VisionWeight > 1 {
		return errors.New("scoring.vision_weight must be between 0 and 1")
	}
	if c.Scoring.RetrievalWeight < 0 || c.Scoring.RetrievalWeight > 1 {
		return errors.New("scoring.retrieval_weight must be between 0 and 1")
	}
	if math.Abs(c.Scoring.VisionWeight+c.Scoring.RetrievalWeight-1) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1 (got %.3f)",
			c.Scoring.VisionWeight+c.Scoring.RetrievalWeight)
	}
	if c.Scoring.MaxCandidates < 1 || c.Scoring.MaxCandidates > 10 {
		return errors.New("scoring.max_candidates must be between 1 and 10")
	}
	if c.Scoring.PlanCandidates < 1 || c.Scoring.PlanCandidates > c.Scoring.MaxCandidates {
		return errors.New("scoring.plan_candidates must be between 1 and scoring.max_candidates")
	}
	return nil
}

func (c *Config) validateVision() error {
	if !c.Vision.Enabled {
		return nil
	}
	if c.Vision.Endpoint == "" {
		return errors.New("vision.endpoint must be set when vision.enabled is true")
	}
	if c.Vision.TimeoutSeconds <= 0 {
		return errors.New("vision.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEnhancer() error {
	if !c.Enhancer.Enabled {
		return nil
	}
	if c.Enhancer.Endpoint == "" {
		return errors.New("enhancer.endpoint must be set when enhancer.enabled is true")
	}
	if c.Enhancer.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cropdoc/config.toml"
		}
		return fmt.Errorf("enhancer.api_key is required when enhancer.enabled is true. Set CROPDOC_ENHANCER_API_KEY or edit %s (create with 'cropdoc config init')", defaultPath)
	}
	if c.Enhancer.TimeoutSeconds <= 0 {
		return errors.New("enhancer.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
