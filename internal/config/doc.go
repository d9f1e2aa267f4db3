// Package config loads, normalizes, and validates the TOML
// configuration used by every backlog subsystem. Defaults are applied
// before the file is decoded so a partial config is always usable.
package config
