package ranking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
	"cropdoc/internal/retrieval"
	"cropdoc/internal/rules"
	"cropdoc/internal/services/enhancer"
)

type stubWriter struct {
	enhancement enhancer.Enhancement
	err         error
	gotReq      enhancer.EnhanceRequest
}

func (s *stubWriter) Enhance(ctx context.Context, req enhancer.EnhanceRequest) (enhancer.Enhancement, error) {
	s.gotReq = req
	return s.enhancement, s.err
}

func loadIndex(t *testing.T) *kb.Index {
	t.Helper()
	fsys := fstest.MapFS{
		"tomato/late_blight.yaml": {Data: []byte(`disease: "Фітофтороз томата"
crop: tomato
stages: [vegetative, flowering, fruiting]
symptoms: "Темні водянисті плями на листках, білий наліт знизу."
actions:
  chemical: ["фунгіцид"]
`)},
		"tomato/mosaic.yaml": {Data: []byte(`disease: "Мозаїка томата"
crop: tomato
stages: [vegetative]
symptoms: "Мозаїчний візерунок, чергування світлих ділянок."
actions: {}
`)},
		"tomato/septoria.yaml": {Data: []byte(`disease: "Септоріоз томата"
crop: tomato
stages: [vegetative, flowering]
symptoms: "Дрібні округлі плями з темною облямівкою."
actions: {}
`)},
	}
	idx, err := kb.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	return idx
}

func rankInputs(t *testing.T, idx *kb.Index, symptoms string, stage diagnose.GrowthStage) (*diagnose.Request, []retrieval.Score, rules.Adjustments) {
	t.Helper()
	entries, err := idx.EntriesFor(diagnose.CropTomato)
	if err != nil {
		t.Fatalf("EntriesFor: %v", err)
	}
	req := &diagnose.Request{Crop: diagnose.CropTomato, GrowthStage: stage, Symptoms: symptoms}
	return req, retrieval.Retrieve(idx, symptoms, entries), rules.Filter(entries, stage)
}

func TestRankOrdersByScore(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "темні водянисті плями на листках", "")

	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, nil, nil)
	result := ranker.Rank(context.Background(), req, nil, scores, adjustments)

	if len(result.Candidates) == 0 {
		t.Fatal("expected candidates")
	}
	if result.Candidates[0].DiseaseID != "kb:tomato:late_blight" {
		t.Errorf("top candidate = %s", result.Candidates[0].DiseaseID)
	}
	for i := 1; i < len(result.Candidates); i++ {
		prev, cur := result.Candidates[i-1], result.Candidates[i]
		if cur.Score > prev.Score {
			t.Errorf("candidates out of order at %d: %v > %v", i, cur.Score, prev.Score)
		}
		if cur.Score == prev.Score && cur.DiseaseID < prev.DiseaseID {
			t.Errorf("tie not broken by disease id at %d", i)
		}
	}
	for _, c := range result.Candidates {
		if c.Score == 0 {
			t.Errorf("zero-score candidate surfaced: %s", c.DiseaseID)
		}
		if c.Rationale == "" {
			t.Errorf("candidate %s missing rationale", c.DiseaseID)
		}
		if len(c.KBRefs) == 0 || c.KBRefs[0].ID != c.DiseaseID {
			t.Errorf("candidate %s missing kb ref", c.DiseaseID)
		}
	}
}

func TestRankExcludesSuppressedEntries(t *testing.T) {
	idx := loadIndex(t)
	// Mosaic only applies at vegetative; at fruiting the gate drops it
	// even though the text matches it strongly.
	req, scores, adjustments := rankInputs(t, idx, "мозаїчний візерунок на листках", diagnose.StageFruiting)

	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, nil, nil)
	result := ranker.Rank(context.Background(), req, nil, scores, adjustments)

	for _, c := range result.Candidates {
		if c.DiseaseID == "kb:tomato:mosaic" {
			t.Error("suppressed entry must never surface")
		}
	}
}

func TestRankEmptyInputYieldsNoCandidates(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "", "")

	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, nil, nil)
	result := ranker.Rank(context.Background(), req, nil, scores, adjustments)
	if len(result.Candidates) != 0 {
		t.Errorf("zero-signal request should yield no candidates, got %d", len(result.Candidates))
	}
}

func TestRankTruncatesToTopK(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "плями на листках", "")

	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 1, nil, nil)
	result := ranker.Rank(context.Background(), req, nil, scores, adjustments)
	if len(result.Candidates) > 1 {
		t.Errorf("candidates = %d, want at most 1", len(result.Candidates))
	}
}

func TestRankVisionSignalBoostsEntry(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "плями на листках", "")

	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, nil, nil)
	without := ranker.Rank(context.Background(), req, nil, scores, adjustments)
	with := ranker.Rank(context.Background(), req,
		diagnose.VisionFeatures{"білий наліт": 0.9}, scores, adjustments)

	find := func(result Result, id string) float64 {
		for _, c := range result.Candidates {
			if c.DiseaseID == id {
				return c.Score
			}
		}
		return 0
	}
	if with.Candidates[0].DiseaseID != "kb:tomato:late_blight" {
		t.Errorf("vision match should lead: %s", with.Candidates[0].DiseaseID)
	}
	if find(with, "kb:tomato:late_blight") <= find(without, "kb:tomato:late_blight") {
		t.Error("vision signal should raise the matching entry's score")
	}
}

func TestRankDeterministic(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "плями на листках", "")
	features := diagnose.VisionFeatures{"наліт": 0.7, "плями": 0.5}

	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, nil, nil)
	first := ranker.Rank(context.Background(), req, features, scores, adjustments)
	for i := 0; i < 20; i++ {
		again := ranker.Rank(context.Background(), req, features, scores, adjustments)
		if len(again.Candidates) != len(first.Candidates) {
			t.Fatalf("run %d: candidate count changed", i)
		}
		for j := range again.Candidates {
			if again.Candidates[j].DiseaseID != first.Candidates[j].DiseaseID ||
				again.Candidates[j].Score != first.Candidates[j].Score {
				t.Fatalf("run %d: order changed at %d", i, j)
			}
		}
	}
}

func TestRankEnhancerRewritesRationales(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "темні водянисті плями", "")

	writer := &stubWriter{enhancement: enhancer.Enhancement{
		Rationales: map[string]string{"kb:tomato:late_blight": "Збіг за водянистими плямами."},
	}}
	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, writer, nil)
	result := ranker.Rank(context.Background(), req, nil, scores, adjustments)

	if result.Degraded {
		t.Fatal("should not be degraded")
	}
	if result.Candidates[0].Rationale != "Збіг за водянистими плямами." {
		t.Errorf("rationale = %q", result.Candidates[0].Rationale)
	}
	if len(writer.gotReq.Candidates) != len(result.Candidates) {
		t.Errorf("enhancer got %d candidates, want %d", len(writer.gotReq.Candidates), len(result.Candidates))
	}
}

func TestRankEnhancerFailureFallsBackToTemplate(t *testing.T) {
	idx := loadIndex(t)
	req, scores, adjustments := rankInputs(t, idx, "темні водянисті плями", "")

	writer := &stubWriter{err: errors.New("deadline exceeded")}
	ranker := New(Weights{Vision: 0.4, Retrieval: 0.6}, 3, writer, nil)
	result := ranker.Rank(context.Background(), req, nil, scores, adjustments)

	if !result.Degraded {
		t.Fatal("expected degraded result")
	}
	if !strings.Contains(result.DegradeReason, "enhancer") {
		t.Errorf("degrade reason = %q", result.DegradeReason)
	}
	if len(result.Candidates) == 0 {
		t.Fatal("enhancer failure must not drop candidates")
	}
	for _, c := range result.Candidates {
		if !strings.Contains(c.Rationale, "Схожість") {
			t.Errorf("candidate %s should keep the templated rationale, got %q", c.DiseaseID, c.Rationale)
		}
	}
}
