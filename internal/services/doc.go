// Package services defines shared utilities consumed by the diagnosis
// pipeline stages and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp case IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across the pipeline: validation faults are
//     rejected before any stage runs, internal faults fail the request, and
//     unavailable externals only degrade the stage that needed them.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, fallbacks) stays uniform across the
// pipeline.
package services
