// Package assembly builds the action plan from the leading candidates'
// knowledge-base entries. Items keep catalog order and are never
// de-duplicated across candidates; redundancy is preferred over the
// accidental omission of a relevant remedy.
package assembly

import (
	"cropdoc/internal/diagnose"
	"cropdoc/internal/kb"
	"cropdoc/internal/services"
)

// Assemble concatenates the action lists of the top planCount
// candidates. A candidate whose disease id is missing from the catalog
// is a pipeline invariant violation and fails the request.
func Assemble(candidates []diagnose.Candidate, index *kb.Index, planCount int) (diagnose.Plan, error) {
	var plan diagnose.Plan
	if planCount < 1 {
		planCount = 1
	}
	if planCount > len(candidates) {
		planCount = len(candidates)
	}
	for _, candidate := range candidates[:planCount] {
		entry, err := index.Get(candidate.DiseaseID)
		if err != nil {
			return diagnose.Plan{}, services.Wrap(services.ErrInternal, "assemble", "lookup",
				"ranked candidate references a disease missing from the knowledge base", err)
		}
		plan.Diagnostics = append(plan.Diagnostics, entry.Actions.Diagnostics...)
		plan.Agronomy = append(plan.Agronomy, entry.Actions.Agronomy...)
		plan.Chemical = append(plan.Chemical, entry.Actions.Chemical...)
		plan.Bio = append(plan.Bio, entry.Actions.Bio...)
	}
	return plan, nil
}
