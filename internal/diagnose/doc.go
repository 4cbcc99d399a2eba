// Package diagnose defines the data model shared across the diagnosis
// pipeline: the request with its crop/growth-stage enums and validation
// rules, the ranked response, and the per-request trace.
//
// Requests are immutable once validated. The trace is owned by exactly one
// in-flight request and collects stage timings plus degraded-mode
// annotations; it is never shared across requests.
package diagnose
