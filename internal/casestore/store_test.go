package casestore

import (
	"context"
	"testing"
	"time"

	"cropdoc/internal/config"
	"cropdoc/internal/diagnose"
	"cropdoc/internal/pipeline"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = base + "/data"
	cfg.Paths.LogDir = base + "/logs"
	cfg.Paths.KBDir = base + "/kb"

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(caseID string, finishedAt time.Time) *pipeline.Record {
	trace := diagnose.NewTrace(caseID)
	trace.Record("cv", 12*time.Millisecond)
	trace.Annotate("vision degraded: connection refused")
	trace.Complete()

	return &pipeline.Record{
		CaseID: caseID,
		Request: &diagnose.Request{
			Crop:        diagnose.CropTomato,
			GrowthStage: diagnose.StageFruiting,
			Symptoms:    "темні водянисті плями",
			Images:      []diagnose.Image{{Filename: "leaf.png", Data: []byte{1}}},
		},
		Response: &diagnose.Response{
			CaseID: caseID,
			Candidates: []diagnose.Candidate{{
				DiseaseID: "kb:tomato:late_blight",
				Disease:   "Фітофтороз томата",
				Score:     0.78,
				Rationale: "Збіг за плямами.",
				KBRefs:    []diagnose.KBRef{{ID: "kb:tomato:late_blight", Title: "Фітофтороз томата"}},
			}},
			Plan:           diagnose.Plan{Chemical: []string{"фунгіцид"}},
			VisualFeatures: diagnose.VisionFeatures{"плями": 0.6},
			Disclaimers:    []string{diagnose.DisclaimerUA},
		},
		Trace:      trace,
		FinishedAt: finishedAt,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleRecord("case-1", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "case-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("case not found")
	}
	if got.Crop != diagnose.CropTomato || got.GrowthStage != diagnose.StageFruiting {
		t.Errorf("case = %+v", got)
	}
	if got.ImageCount != 1 {
		t.Errorf("image count = %d", got.ImageCount)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].DiseaseID != "kb:tomato:late_blight" {
		t.Errorf("candidates = %+v", got.Candidates)
	}
	if len(got.Plan.Chemical) != 1 {
		t.Errorf("plan = %+v", got.Plan)
	}
	if got.Timings["cv"] <= 0 {
		t.Errorf("timings = %v", got.Timings)
	}
	if len(got.Annotations) != 1 {
		t.Errorf("annotations = %v", got.Annotations)
	}
	if got.State != diagnose.StateCompleted {
		t.Errorf("state = %q", got.State)
	}
}

func TestGetMissingCase(t *testing.T) {
	store := openStore(t)
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"case-a", "case-b", "case-c"} {
		record := sampleRecord(id, base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	cases, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(cases))
	}
	if cases[0].ID != "case-c" || cases[1].ID != "case-b" {
		t.Errorf("order = %s, %s", cases[0].ID, cases[1].ID)
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleRecord("old", time.Now().Add(-48*time.Hour))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, sampleRecord("new", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deleted, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	remaining, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "new" {
		t.Errorf("remaining = %+v", remaining)
	}

	deleted, err = store.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune all: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = base + "/data"
	cfg.Paths.LogDir = base + "/logs"
	cfg.Paths.KBDir = base + "/kb"

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Save(context.Background(), sampleRecord("case-1", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("case lost across reopen")
	}
}
