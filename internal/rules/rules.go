// Package rules applies the deterministic applicability filter. A
// disease whose stage list excludes the reported growth stage is fully
// suppressed. Stage mismatch historically correlates with clinically
// wrong recommendations, so it disqualifies rather than down-ranks.
package rules

import (
	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
)

// Adjustments maps disease ids to rule factors, 0 or 1.
type Adjustments map[string]float64

// Filter computes the adjustment factor for every entry. An empty
// growth stage on the request matches all entries.
func Filter(entries []*kb.Entry, stage diagnose.GrowthStage) Adjustments {
	adjustments := make(Adjustments, len(entries))
	for _, entry := range entries {
		if entry.AppliesTo(stage) {
			adjustments[entry.ID] = 1
		} else {
			adjustments[entry.ID] = 0
		}
	}
	return adjustments
}
