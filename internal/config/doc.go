// Package config loads, normalizes, and validates cropdoc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates scoring weights and external
// service settings. The Config type centralizes every knob the CLI and
// pipeline need, so the KB directory, case store location, and collaborator
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
