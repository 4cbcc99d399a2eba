// Package textutil provides text processing utilities for fingerprinting,
// similarity scoring, and token sanitization.
//
// The primary use cases are:
//   - Creating term-frequency fingerprints from symptom descriptions
//   - Weighting fingerprints with inverse document frequency over a corpus
//   - Computing cosine similarity between a query and catalog entries
//
// Tokenization normalizes text to NFC, lowercases it, splits on anything
// that is not a letter or digit, and filters tokens shorter than 3 runes.
// Cyrillic and Latin script both survive tokenization; symptom text arrives
// in either.
package textutil
