// Package config loads, normalizes, and validates bookmatch configuration.
//
// Configuration is TOML. Load looks for an explicit path first, then
// ~/.config/bookmatch/config.toml, then ./bookmatch.toml; a missing file
// yields the repository defaults. Every knob is validated eagerly so a bad
// run dies before any searching starts.
package config
