// Package kb loads the disease knowledge base from YAML files and
// serves read-only lookups over it. The catalog is loaded once at
// startup; after Load returns the index is immutable and safe for
// concurrent readers.
package kb
