package config

const (
	defaultKBDir               = "./kb"
	defaultDataDir             = "~/.local/share/cropdoc"
	defaultLogDir              = "~/.local/share/cropdoc/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultVisionWeight        = 0.4
	defaultRetrievalWeight     = 0.6
	defaultMaxCandidates       = 3
	defaultPlanCandidates      = 1
	defaultVisionTimeoutSecs   = 15
	defaultMaxImages           = 4
	defaultMaxImageMB          = 5
	defaultEnhancerTimeoutSecs = 20
	defaultNotifyTimeoutSecs   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			KBDir:   defaultKBDir,
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scoring: Scoring{
			VisionWeight:    defaultVisionWeight,
			RetrievalWeight: defaultRetrievalWeight,
			MaxCandidates:   defaultMaxCandidates,
			PlanCandidates:  defaultPlanCandidates,
		},
		Vision: Vision{
			TimeoutSeconds: defaultVisionTimeoutSecs,
			MaxImages:      defaultMaxImages,
			MaxImageMB:     defaultMaxImageMB,
			AllowedMIME:    []string{"image/jpeg", "image/png", "image/webp"},
		},
		Enhancer: Enhancer{
			TimeoutSeconds: defaultEnhancerTimeoutSecs,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeoutSecs,
			CaseCompleted:  true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
