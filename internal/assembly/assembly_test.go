package assembly

import (
	"errors"
	"testing"
	"testing/fstest"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
	"cropdoc/internal/services"
)

func loadIndex(t *testing.T) *kb.Index {
	t.Helper()
	fsys := fstest.MapFS{
		"tomato/late_blight.yaml": {Data: []byte(`disease: "Фітофтороз"
crop: tomato
stages: [fruiting]
symptoms: "плями"
actions:
  diagnostics: ["оглянути листя"]
  agronomy: ["видалити уражені рослини"]
  chemical: ["фунгіцид А", "фунгіцид Б"]
  bio: ["біопрепарат"]
`)},
		"tomato/septoria.yaml": {Data: []byte(`disease: "Септоріоз"
crop: tomato
stages: [fruiting]
symptoms: "дрібні плями"
actions:
  agronomy: ["видалити уражені рослини"]
  chemical: ["мідьвмісний препарат"]
`)},
	}
	idx, err := kb.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	return idx
}

func TestAssembleSingleCandidate(t *testing.T) {
	idx := loadIndex(t)
	plan, err := Assemble([]diagnose.Candidate{
		{DiseaseID: "kb:tomato:late_blight"},
		{DiseaseID: "kb:tomato:septoria"},
	}, idx, 1)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(plan.Chemical) != 2 || plan.Chemical[0] != "фунгіцид А" {
		t.Errorf("chemical = %v", plan.Chemical)
	}
	if len(plan.Diagnostics) != 1 || len(plan.Agronomy) != 1 || len(plan.Bio) != 1 {
		t.Errorf("plan = %+v", plan)
	}
}

func TestAssembleAppendsWithoutDeduplication(t *testing.T) {
	idx := loadIndex(t)
	plan, err := Assemble([]diagnose.Candidate{
		{DiseaseID: "kb:tomato:late_blight"},
		{DiseaseID: "kb:tomato:septoria"},
	}, idx, 2)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// Both entries recommend removing infected plants; the duplicate
	// must survive.
	if len(plan.Agronomy) != 2 {
		t.Errorf("agronomy = %v, duplicates must be kept", plan.Agronomy)
	}
	if len(plan.Chemical) != 3 || plan.Chemical[2] != "мідьвмісний препарат" {
		t.Errorf("chemical = %v, later candidate's items must come after", plan.Chemical)
	}
}

func TestAssembleUnknownCandidateIsFatal(t *testing.T) {
	idx := loadIndex(t)
	_, err := Assemble([]diagnose.Candidate{{DiseaseID: "kb:tomato:ghost"}}, idx, 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrInternal) {
		t.Errorf("expected internal marker, got %v", err)
	}
}

func TestAssembleNoCandidates(t *testing.T) {
	idx := loadIndex(t)
	plan, err := Assemble(nil, idx, 1)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(plan.Diagnostics)+len(plan.Agronomy)+len(plan.Chemical)+len(plan.Bio) != 0 {
		t.Errorf("plan should be empty: %+v", plan)
	}
}
