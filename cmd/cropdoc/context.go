package main

import (
	"strings"
	"sync"
	"time"

	"cropdoc/internal/casestore"
	"cropdoc/internal/config"
	"cropdoc/internal/kb"
	"cropdoc/internal/logging"
	"cropdoc/internal/notifications"
	"cropdoc/internal/pipeline"
	"cropdoc/internal/ranking"
	"cropdoc/internal/services/classifier"
	"cropdoc/internal/services/enhancer"
	"cropdoc/internal/vision"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// buildOrchestrator wires the full pipeline from configuration. The
// returned store must be closed by the caller.
func (c *commandContext) buildOrchestrator() (*pipeline.Orchestrator, *casestore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	index, err := kb.Load(cfg.Paths.KBDir)
	if err != nil {
		return nil, nil, err
	}

	store, err := casestore.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	var featureClient vision.FeatureClient
	components := map[string]string{
		"kb":        cfg.Paths.KBDir,
		"retrieval": "tfidf",
	}
	if cfg.Vision.Enabled {
		featureClient = classifier.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey,
			classifier.WithTimeout(time.Duration(cfg.Vision.TimeoutSeconds)*time.Second))
		components["vision"] = cfg.Vision.Endpoint
	} else {
		components["vision"] = "disabled"
	}

	var writer ranking.RationaleWriter
	if cfg.Enhancer.Enabled {
		writer = enhancer.NewClient(enhancer.Config{
			APIKey:         cfg.Enhancer.APIKey,
			BaseURL:        cfg.Enhancer.Endpoint,
			Model:          cfg.Enhancer.Model,
			TimeoutSeconds: cfg.Enhancer.TimeoutSeconds,
		})
		components["enhancer"] = cfg.Enhancer.Model
	} else {
		components["enhancer"] = "disabled"
	}

	notifier := notifications.NewPipelineNotifier(notifications.NewService(cfg),
		logging.NewComponentLogger(logger, "notifications"))

	orchestrator, err := pipeline.New(pipeline.Options{
		Index: index,
		Vision: vision.New(featureClient, cfg.Vision.Enabled,
			time.Duration(cfg.Vision.TimeoutSeconds)*time.Second,
			logging.NewComponentLogger(logger, "vision")),
		Ranker: ranking.New(ranking.Weights{
			Vision:    cfg.Scoring.VisionWeight,
			Retrieval: cfg.Scoring.RetrievalWeight,
		}, cfg.Scoring.MaxCandidates, writer,
			logging.NewComponentLogger(logger, "ranking")),
		Limits:     diagnoseLimits(cfg),
		PlanCount:  cfg.Scoring.PlanCandidates,
		Components: components,
		Sink:       store,
		Notifier:   notifier,
		Logger:     logging.NewComponentLogger(logger, "pipeline"),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return orchestrator, store, nil
}
