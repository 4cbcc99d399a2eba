// Package ranking merges vision, retrieval, and rule signals into the
// ordered candidate list, and optionally rewrites rationales through
// the generative enhancer.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
	"cropdoc/internal/logging"
	"cropdoc/internal/retrieval"
	"cropdoc/internal/rules"
	"cropdoc/internal/services/enhancer"
	"cropdoc/internal/textutil"
)

// Weights are the fixed signal weights. VisionWeight plus
// RetrievalWeight must equal 1; config validation enforces this.
type Weights struct {
	Vision    float64
	Retrieval float64
}

// RationaleWriter is the outbound contract toward the generative
// enhancer. The stage tolerates arbitrary unavailability.
type RationaleWriter interface {
	Enhance(ctx context.Context, req enhancer.EnhanceRequest) (enhancer.Enhancement, error)
}

// Ranker combines stage signals into ranked candidates.
type Ranker struct {
	weights Weights
	topK    int
	writer  RationaleWriter
	logger  *slog.Logger
}

// New constructs a Ranker. A nil writer disables enhancement.
func New(weights Weights, topK int, writer RationaleWriter, logger *slog.Logger) *Ranker {
	if topK < 1 {
		topK = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ranker{weights: weights, topK: topK, writer: writer, logger: logger}
}

// Result carries the ranked candidates plus degrade bookkeeping.
type Result struct {
	Candidates    []diagnose.Candidate
	Degraded      bool
	DegradeReason string
}

// Rank computes the combined score for every admitted entry, orders
// the survivors, truncates to the configured maximum, and fills in
// rationales. Zero-score candidates are dropped entirely rather than
// surfaced as zero-confidence noise.
func (r *Ranker) Rank(ctx context.Context, req *diagnose.Request, features diagnose.VisionFeatures,
	scores []retrieval.Score, adjustments rules.Adjustments) Result {

	type scored struct {
		score  retrieval.Score
		vision float64
		raw    float64
	}

	var admitted []scored
	for _, s := range scores {
		adjustment := adjustments[s.Entry.ID]
		if adjustment == 0 {
			continue
		}
		vision := visionScoreFor(features, s.Entry)
		raw := adjustment * (r.weights.Vision*vision + r.weights.Retrieval*s.Similarity)
		if raw == 0 {
			continue
		}
		admitted = append(admitted, scored{score: s, vision: vision, raw: raw})
	}

	sort.Slice(admitted, func(i, j int) bool {
		if admitted[i].raw != admitted[j].raw {
			return admitted[i].raw > admitted[j].raw
		}
		return admitted[i].score.Entry.ID < admitted[j].score.Entry.ID
	})
	if len(admitted) > r.topK {
		admitted = admitted[:r.topK]
	}

	candidates := make([]diagnose.Candidate, 0, len(admitted))
	for _, s := range admitted {
		entry := s.score.Entry
		candidates = append(candidates, diagnose.Candidate{
			DiseaseID: entry.ID,
			Disease:   entry.Disease,
			Score:     s.raw,
			Rationale: templateRationale(entry, s.score.Similarity, s.vision),
			KBRefs:    []diagnose.KBRef{{ID: entry.ID, Title: entry.Disease}},
		})
	}
	if len(candidates) == 0 {
		return Result{Candidates: candidates}
	}

	return r.enhance(ctx, req, scores, candidates)
}

// enhance rewrites rationales through the generative collaborator.
// Failures keep the templated rationales and annotate the trace.
func (r *Ranker) enhance(ctx context.Context, req *diagnose.Request,
	scores []retrieval.Score, candidates []diagnose.Candidate) Result {

	if r.writer == nil {
		return Result{Candidates: candidates}
	}

	symptomsByID := make(map[string]string, len(scores))
	for _, s := range scores {
		symptomsByID[s.Entry.ID] = s.Entry.Symptoms
	}
	enhReq := enhancer.EnhanceRequest{
		Crop:     string(req.Crop),
		Stage:    string(req.GrowthStage),
		Symptoms: req.Symptoms,
	}
	for _, c := range candidates {
		enhReq.Candidates = append(enhReq.Candidates, enhancer.CandidateContext{
			DiseaseID: c.DiseaseID,
			Disease:   c.Disease,
			Score:     c.Score,
			Symptoms:  symptomsByID[c.DiseaseID],
		})
	}

	enhancement, err := r.writer.Enhance(ctx, enhReq)
	if err != nil {
		r.logger.Warn("enhancer unavailable, keeping templated rationales",
			logging.String(logging.FieldCrop, string(req.Crop)),
			logging.Error(err))
		return Result{
			Candidates:    candidates,
			Degraded:      true,
			DegradeReason: "enhancer degraded: " + err.Error(),
		}
	}
	for i := range candidates {
		if text, ok := enhancement.Rationales[candidates[i].DiseaseID]; ok {
			candidates[i].Rationale = text
		}
	}
	return Result{Candidates: candidates}
}

// visionScoreFor matches feature labels to an entry by token overlap
// with its symptom description. The strongest matching feature wins;
// no overlap means no vision signal for that disease.
func visionScoreFor(features diagnose.VisionFeatures, entry *kb.Entry) float64 {
	if len(features) == 0 {
		return 0
	}
	fp := entry.Fingerprint()
	var best float64
	for label, score := range features {
		for _, token := range textutil.Tokenize(label) {
			if fp.Contains(token) {
				if score > best {
					best = score
				}
				break
			}
		}
	}
	return best
}

func templateRationale(entry *kb.Entry, similarity, vision float64) string {
	if vision > 0 {
		return fmt.Sprintf("Схожість описаних симптомів з %q: %.0f%%. Візуальні ознаки підтверджують гіпотезу (%.0f%%).",
			entry.Disease, similarity*100, vision*100)
	}
	return fmt.Sprintf("Схожість описаних симптомів з %q: %.0f%%.", entry.Disease, similarity*100)
}
