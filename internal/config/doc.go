// Package config loads, normalizes, and validates Quill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the QUILL_API_TOKEN environment
// fallback. The Config type centralizes backend endpoints, image slot limits,
// and the editor thresholds so the authoring session and the CLI read the same
// values.
//
// Always obtain settings through this package so downstream code receives
// resolved endpoint URLs, canonical log formats, and clear validation errors.
package config
