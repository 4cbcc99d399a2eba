package textutil

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm. With non-negative
// term weights the result is always within [0, 1]. The dot product is
// accumulated over the sorted term order so identical inputs always produce
// the identical float64.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for _, term := range a.terms {
		if other, ok := b.tokens[term]; ok {
			dot += a.tokens[term] * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
