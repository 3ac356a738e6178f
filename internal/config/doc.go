// Package config loads, normalizes, and validates rewind configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and SERIALIZD_EMAIL. The Config type centralizes every knob the
// CLI needs, so credentials, pacing, and mapping-file locations are discovered
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
