package notifications

import (
	"context"
	"log/slog"

	"cropdoc/internal/logging"
)

// PipelineNotifier adapts Service to the pipeline's fire-and-forget
// surface. Delivery failures are logged, never propagated.
type PipelineNotifier struct {
	service Service
	logger  *slog.Logger
}

// NewPipelineNotifier wraps a Service for use by the orchestrator.
func NewPipelineNotifier(service Service, logger *slog.Logger) *PipelineNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PipelineNotifier{service: service, logger: logger}
}

func (p *PipelineNotifier) CaseCompleted(ctx context.Context, caseID string, crop string, candidates int) {
	if err := p.service.NotifyCaseCompleted(ctx, caseID, crop, candidates); err != nil {
		p.logger.Warn("case completion notification failed",
			logging.String(logging.FieldCaseID, caseID),
			logging.Error(err))
	}
}

func (p *PipelineNotifier) CaseFailed(ctx context.Context, caseID string, reason string) {
	if err := p.service.NotifyCaseFailed(ctx, caseID, reason); err != nil {
		p.logger.Warn("case failure notification failed",
			logging.String(logging.FieldCaseID, caseID),
			logging.Error(err))
	}
}
