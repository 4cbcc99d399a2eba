package textutil

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint represents a term-frequency vector for text similarity
// comparison. terms holds the token set in sorted order so every
// floating-point accumulation over the vector visits terms in the same
// sequence; map iteration order would make identical inputs produce
// bit-different sums.
type Fingerprint struct {
	tokens map[string]float64
	terms  []string
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	terms := sortedTerms(counts)
	var sum float64
	for _, term := range terms {
		count := counts[term]
		sum += count * count
	}
	return &Fingerprint{
		tokens: counts,
		terms:  terms,
		norm:   math.Sqrt(sum),
	}
}

// Tokenize splits text into lowercase tokens, filtering tokens shorter than
// 3 runes. Input is NFC-normalized first so combining sequences compare equal
// regardless of how the client encoded them.
func Tokenize(text string) []string {
	normalized := norm.NFC.String(text)
	lowered := strings.ToLower(normalized)
	raw := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if utf8.RuneCountInString(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Contains reports whether the fingerprint carries the given token.
func (f *Fingerprint) Contains(token string) bool {
	if f == nil {
		return false
	}
	_, ok := f.tokens[token]
	return ok
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// WithIDF returns a new Fingerprint with TF-IDF weights applied.
// Each term's count is multiplied by its IDF weight. The norm is recomputed.
// Terms absent from the IDF map retain their original weight.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	for _, term := range f.terms {
		w := f.tokens[term]
		if idfVal, ok := idf[term]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[term] = w
	}
	if len(weighted) == 0 {
		return nil
	}
	terms := sortedTerms(weighted)
	var sum float64
	for _, term := range terms {
		w := weighted[term]
		sum += w * w
	}
	return &Fingerprint{
		tokens: weighted,
		terms:  terms,
		norm:   math.Sqrt(sum),
	}
}

func sortedTerms(weights map[string]float64) []string {
	terms := make([]string, 0, len(weights))
	for term := range weights {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Corpus collects document frequency statistics for IDF computation.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a fingerprint's unique terms in the corpus.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// IDF computes inverse document frequency weights: log((N+1)/(1+df)) for each term.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n + 1) / (1 + float64(df)))
	}
	return idf
}
