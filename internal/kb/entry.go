package kb

import (
	"cropdoc/internal/diagnose"
	"cropdoc/internal/textutil"
)

// Actions holds the recommended interventions for one disease.
type Actions struct {
	Diagnostics []string `yaml:"diagnostics"`
	Agronomy    []string `yaml:"agronomy"`
	Chemical    []string `yaml:"chemical"`
	Bio         []string `yaml:"bio"`
}

// Entry is one disease record. ID is derived from the crop and the
// source file name, so it stays stable across reloads.
type Entry struct {
	ID       string
	Crop     diagnose.Crop
	Disease  string
	Stages   []diagnose.GrowthStage
	Symptoms string
	Actions  Actions

	fingerprint *textutil.Fingerprint
}

// Fingerprint returns the TF-IDF fingerprint of the entry's symptom
// text, computed once at load time.
func (e *Entry) Fingerprint() *textutil.Fingerprint {
	return e.fingerprint
}

// AppliesTo reports whether the entry covers the given growth stage.
// An empty stage on the request matches every entry.
func (e *Entry) AppliesTo(stage diagnose.GrowthStage) bool {
	if stage == "" {
		return true
	}
	for _, s := range e.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// entryFile is the on-disk YAML shape of a single disease record.
type entryFile struct {
	Disease  string   `yaml:"disease"`
	Crop     string   `yaml:"crop"`
	Stages   []string `yaml:"stages"`
	Symptoms string   `yaml:"symptoms"`
	Actions  Actions  `yaml:"actions"`
}
