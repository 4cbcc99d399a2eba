package kb

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/services"
	"cropdoc/internal/textutil"
)

// Index is the loaded knowledge base. Immutable after Load.
type Index struct {
	entries []*Entry
	byID    map[string]*Entry
	byCrop  map[diagnose.Crop][]*Entry
	idf     map[string]float64
}

// Load reads every .yaml/.yml file under dir into an Index.
func Load(dir string) (*Index, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads the knowledge base from an fs.FS. Files may be nested
// in subdirectories; only the file name contributes to the entry ID.
func LoadFS(fsys fs.FS) (*Index, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "scan",
			"failed to scan knowledge base directory", err)
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "scan",
			"knowledge base directory contains no YAML files", nil)
	}
	sort.Strings(files)

	idx := &Index{
		byID:   make(map[string]*Entry),
		byCrop: make(map[diagnose.Crop][]*Entry),
	}
	for _, file := range files {
		entry, err := loadEntry(fsys, file)
		if err != nil {
			return nil, err
		}
		if _, dup := idx.byID[entry.ID]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
				fmt.Sprintf("duplicate disease id %q from %s", entry.ID, file), nil)
		}
		idx.entries = append(idx.entries, entry)
		idx.byID[entry.ID] = entry
		idx.byCrop[entry.Crop] = append(idx.byCrop[entry.Crop], entry)
	}

	idx.idf = buildFingerprints(idx.entries)
	return idx, nil
}

// QueryFingerprint builds a fingerprint for request symptom text with
// the catalog's IDF weights applied, so query and entry vectors live
// in the same space. Returns nil for text with no usable tokens.
func (idx *Index) QueryFingerprint(text string) *textutil.Fingerprint {
	return textutil.NewFingerprint(text).WithIDF(idx.idf)
}

func loadEntry(fsys fs.FS, file string) (*Entry, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
			fmt.Sprintf("failed to read %s", file), err)
	}

	var raw entryFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
			fmt.Sprintf("failed to parse %s", file), err)
	}

	crop, ok := diagnose.ParseCrop(raw.Crop)
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
			fmt.Sprintf("%s: unsupported crop %q", file, raw.Crop), nil)
	}
	if strings.TrimSpace(raw.Disease) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
			fmt.Sprintf("%s: disease title is required", file), nil)
	}
	if len(raw.Stages) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
			fmt.Sprintf("%s: stages must not be empty", file), nil)
	}

	stages := make([]diagnose.GrowthStage, 0, len(raw.Stages))
	for _, s := range raw.Stages {
		stage := diagnose.ParseStage(s)
		if !diagnose.ValidStage(crop, stage) {
			return nil, services.Wrap(services.ErrConfiguration, "kb", "load",
				fmt.Sprintf("%s: stage %q is not valid for crop %q", file, s, crop), nil)
		}
		stages = append(stages, stage)
	}

	stem := textutil.SanitizeToken(strings.TrimSuffix(path.Base(file), path.Ext(file)))
	return &Entry{
		ID:       fmt.Sprintf("kb:%s:%s", crop, stem),
		Crop:     crop,
		Disease:  strings.TrimSpace(raw.Disease),
		Stages:   stages,
		Symptoms: strings.TrimSpace(raw.Symptoms),
		Actions:  raw.Actions,
	}, nil
}

// buildFingerprints weights every entry's symptom tokens against the
// whole catalog so ubiquitous terms stop dominating similarity.
func buildFingerprints(entries []*Entry) map[string]float64 {
	corpus := textutil.NewCorpus()
	raw := make([]*textutil.Fingerprint, len(entries))
	for i, e := range entries {
		raw[i] = textutil.NewFingerprint(e.Symptoms)
		corpus.Add(raw[i])
	}
	idf := corpus.IDF()
	for i, e := range entries {
		e.fingerprint = raw[i].WithIDF(idf)
	}
	return idf
}
