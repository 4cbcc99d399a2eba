// Package vision runs the image feature-extraction stage. The stage is
// best-effort: classifier outages, timeouts, and disabled configuration
// all degrade to whatever signal can be derived from the symptom text,
// never to a request failure.
package vision

import (
	"context"
	"log/slog"
	"time"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/logging"
)

// FeatureClient is the outbound contract toward the image classifier.
type FeatureClient interface {
	ExtractFeatures(ctx context.Context, crop diagnose.Crop, images []diagnose.Image) (diagnose.VisionFeatures, error)
}

// Stage wraps the classifier with the degrade policy.
type Stage struct {
	client  FeatureClient
	enabled bool
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs the vision stage. A nil client with enabled=true is
// treated as disabled.
func New(client FeatureClient, enabled bool, timeout time.Duration, logger *slog.Logger) *Stage {
	if client == nil {
		enabled = false
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{client: client, enabled: enabled, timeout: timeout, logger: logger}
}

// Result carries the extracted features plus degrade bookkeeping.
type Result struct {
	Features diagnose.VisionFeatures
	// Degraded is set when the classifier was wanted but unusable.
	Degraded bool
	// DegradeReason is the trace annotation for a degraded run.
	DegradeReason string
}

// Extract produces vision features for the request. It never returns
// an error: classifier failures leave only the text-derived hints.
func (s *Stage) Extract(ctx context.Context, req *diagnose.Request) Result {
	features := TextHints(req.Symptoms)

	if !s.enabled || len(req.Images) == 0 {
		return Result{Features: features}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	extracted, err := s.client.ExtractFeatures(callCtx, req.Crop, req.Images)
	if err != nil {
		s.logger.Warn("vision classifier unavailable, continuing without image signal",
			logging.String(logging.FieldCrop, string(req.Crop)),
			logging.Error(err))
		return Result{
			Features:      features,
			Degraded:      true,
			DegradeReason: "vision degraded: " + err.Error(),
		}
	}

	// Classifier output wins over a text hint for the same label.
	for label, score := range extracted {
		features[label] = score
	}
	return Result{Features: features}
}
