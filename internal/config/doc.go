// Package config loads, normalizes, and validates snapsort configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs; run-level flags override file values before RunValidate is
// applied.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, canonical log formats, and clear validation
// errors.
package config
