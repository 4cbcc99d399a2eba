// Package pipeline sequences the diagnosis stages: vision feature
// extraction, knowledge-base retrieval, rule filtering, ranking with
// optional enhancement, plan assembly, and the persistence handoff.
// One Orchestrator serves all requests; per-request state lives on the
// trace and is never shared between in-flight requests.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cropdoc/internal/assembly"
	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
	"cropdoc/internal/logging"
	"cropdoc/internal/ranking"
	"cropdoc/internal/retrieval"
	"cropdoc/internal/rules"
	"cropdoc/internal/services"
	"cropdoc/internal/vision"
)

// Sink receives the persistence record once a case completes. Save
// failures never alter the response already produced for the caller.
type Sink interface {
	Save(ctx context.Context, record *Record) error
}

// Notifier receives lifecycle events for completed and failed cases.
type Notifier interface {
	CaseCompleted(ctx context.Context, caseID string, crop string, candidates int)
	CaseFailed(ctx context.Context, caseID string, reason string)
}

// Record is the persistence handoff payload.
type Record struct {
	CaseID     string
	Request    *diagnose.Request
	Response   *diagnose.Response
	Trace      *diagnose.Trace
	FinishedAt time.Time
}

// Options configures an Orchestrator.
type Options struct {
	Index      *kb.Index
	Vision     *vision.Stage
	Ranker     *ranking.Ranker
	Limits     diagnose.Limits
	PlanCount  int
	Components map[string]string
	Sink       Sink
	Notifier   Notifier
	Logger     *slog.Logger
}

// Orchestrator runs the diagnosis pipeline.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New constructs an Orchestrator. Index, Vision, and Ranker are
// required; Sink and Notifier are optional.
func New(opts Options) (*Orchestrator, error) {
	if opts.Index == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
			"knowledge base index is required", nil)
	}
	if opts.Vision == nil || opts.Ranker == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
			"vision stage and ranker are required", nil)
	}
	if opts.PlanCount < 1 {
		opts.PlanCount = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{opts: opts, logger: logger}, nil
}

// Diagnose runs one request through the full pipeline. Validation
// faults and internal consistency faults are the only errors that
// cross this boundary; degraded stages are absorbed and annotated.
func (o *Orchestrator) Diagnose(ctx context.Context, req *diagnose.Request) (*diagnose.Response, error) {
	if err := req.Validate(o.opts.Limits); err != nil {
		o.logger.Warn("request rejected",
			logging.String(logging.FieldCrop, string(req.Crop)),
			logging.String("reason", services.ReasonCode(err)),
			logging.Error(err))
		return nil, err
	}

	caseID := uuid.New().String()
	ctx = services.WithCaseID(ctx, caseID)
	trace := diagnose.NewTrace(caseID)
	logger := o.logger.With(
		logging.String(logging.FieldCaseID, caseID),
		logging.String(logging.FieldCrop, string(req.Crop)))

	response, err := o.run(ctx, req, trace, logger)
	if err != nil {
		trace.Fail(err)
		logger.Error("diagnosis failed",
			logging.String("state", string(trace.State)),
			logging.String("reason", services.ReasonCode(err)),
			logging.Error(err))
		// Degradable markers never reach this boundary; anything that
		// does is fatal for the request and worth a notification.
		if o.opts.Notifier != nil && services.IsFatal(err) {
			o.opts.Notifier.CaseFailed(ctx, caseID, services.ReasonCode(err))
		}
		return nil, err
	}

	trace.Complete()
	response.Debug = &diagnose.Debug{
		Timings:    trace.Timings,
		Components: o.opts.Components,
	}
	logger.Info("diagnosis completed",
		logging.Int("candidates", len(response.Candidates)),
		logging.Float64("total_seconds", trace.Timings["total"]))

	o.persist(ctx, req, response, trace, logger)
	if o.opts.Notifier != nil {
		o.opts.Notifier.CaseCompleted(ctx, caseID, string(req.Crop), len(response.Candidates))
	}
	return response, nil
}

func (o *Orchestrator) run(ctx context.Context, req *diagnose.Request, trace *diagnose.Trace, logger *slog.Logger) (*diagnose.Response, error) {
	entries, err := o.opts.Index.EntriesFor(req.Crop)
	if err != nil {
		return nil, err
	}

	// Stage completions log with the stage name pulled back out of the
	// context, so every downstream record carries the same field set.
	stageDone := func(name string) {
		sctx := services.WithStage(ctx, name)
		logging.WithContext(sctx, logger).Debug("stage complete",
			logging.Float64("seconds", trace.Timings[name]))
	}

	// Vision and retrieval have no data dependency on each other, so
	// they run concurrently. Timings land on the trace only after the
	// join; the trace is single-owner and unsynchronized.
	var (
		visionResult vision.Result
		visionTook   time.Duration
		scores       []retrieval.Score
		retrieveTook time.Duration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		visionResult = o.opts.Vision.Extract(services.WithStage(gctx, "cv"), req)
		visionTook = time.Since(start)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		scores = retrieval.Retrieve(o.opts.Index, req.Symptoms, entries)
		retrieveTook = time.Since(start)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trace.Record("cv", visionTook)
	if visionResult.Degraded {
		trace.Annotate(visionResult.DegradeReason)
	}
	trace.Advance(diagnose.StateVisionExtracted)
	stageDone("cv")

	trace.Record("retrieve", retrieveTook)
	trace.Advance(diagnose.StateRetrieved)
	stageDone("retrieve")

	var adjustments rules.Adjustments
	trace.Time("rules", func() error {
		adjustments = rules.Filter(entries, req.GrowthStage)
		return nil
	})
	trace.Advance(diagnose.StateFiltered)
	stageDone("rules")

	var ranked ranking.Result
	trace.Time("rank", func() error {
		ranked = o.opts.Ranker.Rank(services.WithStage(ctx, "rank"), req, visionResult.Features, scores, adjustments)
		return nil
	})
	if ranked.Degraded {
		trace.Annotate(ranked.DegradeReason)
	}
	trace.Advance(diagnose.StateRanked)
	stageDone("rank")

	var plan diagnose.Plan
	err = trace.Time("assemble", func() error {
		var assembleErr error
		plan, assembleErr = assembly.Assemble(ranked.Candidates, o.opts.Index, o.opts.PlanCount)
		return assembleErr
	})
	if err != nil {
		return nil, err
	}
	trace.Advance(diagnose.StateAssembled)
	stageDone("assemble")

	return &diagnose.Response{
		CaseID:         trace.CaseID,
		Candidates:     ranked.Candidates,
		Plan:           plan,
		VisualFeatures: visionResult.Features,
		Disclaimers:    []string{diagnose.DisclaimerUA},
	}, nil
}

// persist hands the completed case to the sink. Failures are logged
// and annotated on the trace but never surfaced to the caller.
func (o *Orchestrator) persist(ctx context.Context, req *diagnose.Request, response *diagnose.Response, trace *diagnose.Trace, logger *slog.Logger) {
	if o.opts.Sink == nil {
		return
	}
	record := &Record{
		CaseID:     trace.CaseID,
		Request:    req,
		Response:   response,
		Trace:      trace,
		FinishedAt: time.Now().UTC(),
	}
	if err := o.opts.Sink.Save(ctx, record); err != nil {
		trace.Annotate(fmt.Sprintf("persistence failed: %v", err))
		logger.Warn("case persistence failed", logging.Error(err))
	}
}
