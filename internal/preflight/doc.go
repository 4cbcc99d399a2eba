// Package preflight validates the runtime environment before serving
// diagnoses: the knowledge base must load, data directories must be
// writable with free space, and the optional external services must
// answer when enabled.
package preflight
