// Package retrieval scores knowledge-base entries against the symptom
// text using TF-IDF cosine similarity. The stage is a pure function of
// the query and the loaded catalog; it has no failure modes beyond the
// crop lookup performed by the caller.
package retrieval

import (
	"cropdoc/internal/kb"
	"cropdoc/internal/textutil"
)

// Score pairs a catalog entry with its textual similarity in [0, 1].
type Score struct {
	Entry      *kb.Entry
	Similarity float64
}

// Retrieve scores every entry against the symptom text. Entries keep
// their catalog order; the global tie-break happens after ranking has
// combined all signals. Empty or unusable symptom text yields uniform
// zero scores rather than an error.
func Retrieve(index *kb.Index, symptoms string, entries []*kb.Entry) []Score {
	query := index.QueryFingerprint(symptoms)
	scores := make([]Score, 0, len(entries))
	for _, entry := range entries {
		scores = append(scores, Score{
			Entry:      entry,
			Similarity: textutil.CosineSimilarity(query, entry.Fingerprint()),
		})
	}
	return scores
}
