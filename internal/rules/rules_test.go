package rules

import (
	"testing"
	"testing/fstest"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
)

func loadEntries(t *testing.T) []*kb.Entry {
	t.Helper()
	fsys := fstest.MapFS{
		"tomato/late_blight.yaml": {Data: []byte(`disease: "Фітофтороз"
crop: tomato
stages: [flowering, fruiting]
symptoms: "плями"
actions: {}
`)},
		"tomato/damping_off.yaml": {Data: []byte(`disease: "Чорна ніжка"
crop: tomato
stages: [seedling]
symptoms: "потемніння стебла"
actions: {}
`)},
	}
	idx, err := kb.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	entries, err := idx.EntriesFor(diagnose.CropTomato)
	if err != nil {
		t.Fatalf("EntriesFor: %v", err)
	}
	return entries
}

func TestFilterIsTotal(t *testing.T) {
	entries := loadEntries(t)

	for _, stage := range append(diagnose.StagesFor(diagnose.CropTomato), "") {
		adjustments := Filter(entries, stage)
		if len(adjustments) != len(entries) {
			t.Fatalf("stage %q: adjustments for %d entries, want %d", stage, len(adjustments), len(entries))
		}
		for id, factor := range adjustments {
			if factor != 0 && factor != 1 {
				t.Errorf("stage %q: factor for %s = %v, want 0 or 1", stage, id, factor)
			}
		}
	}
}

func TestFilterHardGate(t *testing.T) {
	entries := loadEntries(t)

	adjustments := Filter(entries, diagnose.StageFruiting)
	if adjustments["kb:tomato:late_blight"] != 1 {
		t.Error("matching stage should be neutral")
	}
	if adjustments["kb:tomato:damping_off"] != 0 {
		t.Error("mismatched stage must be fully suppressed")
	}
}

func TestFilterEmptyStageMatchesAll(t *testing.T) {
	entries := loadEntries(t)

	for id, factor := range Filter(entries, "") {
		if factor != 1 {
			t.Errorf("empty stage: factor for %s = %v, want 1", id, factor)
		}
	}
}
