// Package config loads, normalizes, and validates castcut configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// CASTCUT_FFMPEG. The Config type centralizes every knob the CLI and the
// pipeline need: scratch and output directories, external tool names, the
// selection engine's margins, and encoder settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
