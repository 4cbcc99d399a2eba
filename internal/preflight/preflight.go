package preflight

import (
	"context"

	"cropdoc/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given
// config. Checks for optional services run only when the service is
// enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckKnowledgeBase(cfg.Paths.KBDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Data disk space", cfg.Paths.DataDir),
	}

	if cfg.Vision.Enabled {
		results = append(results, CheckClassifier(ctx, cfg))
	}
	if cfg.Enhancer.Enabled {
		results = append(results, CheckEnhancer(ctx, cfg))
	}

	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
