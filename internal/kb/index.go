package kb

import (
	"fmt"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/services"
)

// Len returns the total number of entries in the catalog.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns all entries in load order.
func (idx *Index) Entries() []*Entry {
	return idx.entries
}

// EntriesFor returns the entries for one crop. The crop must be known
// to the catalog; a supported crop with no entries is a configuration
// problem, not an empty result.
func (idx *Index) EntriesFor(crop diagnose.Crop) ([]*Entry, error) {
	entries, ok := idx.byCrop[crop]
	if !ok || len(entries) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "kb", "lookup",
			fmt.Sprintf("no knowledge base entries for crop %q", crop), nil)
	}
	return entries, nil
}

// Get returns the entry with the given disease id.
func (idx *Index) Get(id string) (*Entry, error) {
	entry, ok := idx.byID[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "kb", "lookup",
			fmt.Sprintf("disease id %q not found", id), nil)
	}
	return entry, nil
}

// Crops returns the crops that have at least one entry.
func (idx *Index) Crops() []diagnose.Crop {
	var crops []diagnose.Crop
	for _, crop := range diagnose.SupportedCrops() {
		if len(idx.byCrop[crop]) > 0 {
			crops = append(crops, crop)
		}
	}
	return crops
}
