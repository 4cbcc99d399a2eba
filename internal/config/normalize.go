package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVision()
	c.normalizeEnhancer()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.KBDir) == "" {
		c.Paths.KBDir = defaultKBDir
	}
	if c.Paths.KBDir, err = expandPath(c.Paths.KBDir); err != nil {
		return fmt.Errorf("paths.kb_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVision() {
	c.Vision.Endpoint = strings.TrimSpace(c.Vision.Endpoint)
	if c.Vision.APIKey == "" {
		if value, ok := os.LookupEnv("CROPDOC_VISION_API_KEY"); ok {
			c.Vision.APIKey = value
		}
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeoutSecs
	}
	if c.Vision.MaxImages <= 0 {
		c.Vision.MaxImages = defaultMaxImages
	}
	if c.Vision.MaxImageMB <= 0 {
		c.Vision.MaxImageMB = defaultMaxImageMB
	}
	if len(c.Vision.AllowedMIME) == 0 {
		c.Vision.AllowedMIME = []string{"image/jpeg", "image/png", "image/webp"}
	}
	for i, mime := range c.Vision.AllowedMIME {
		c.Vision.AllowedMIME[i] = strings.ToLower(strings.TrimSpace(mime))
	}
}

func (c *Config) normalizeEnhancer() {
	c.Enhancer.Endpoint = strings.TrimSpace(c.Enhancer.Endpoint)
	c.Enhancer.Model = strings.TrimSpace(c.Enhancer.Model)
	if c.Enhancer.APIKey == "" {
		if value, ok := os.LookupEnv("CROPDOC_ENHANCER_API_KEY"); ok {
			c.Enhancer.APIKey = value
		}
	}
	c.Enhancer.APIKey = strings.TrimSpace(c.Enhancer.APIKey)
	if c.Enhancer.TimeoutSeconds <= 0 {
		c.Enhancer.TimeoutSeconds = defaultEnhancerTimeoutSecs
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeoutSecs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
