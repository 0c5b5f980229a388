// Package config loads, normalizes, and validates editpdf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// EDITPDF_CONVERTER_TOKEN. The Config type centralizes every knob the drain,
// the scheduler, and the CLI need, so the data directory, the document
// converter endpoint, and the conversion attempt limit are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
