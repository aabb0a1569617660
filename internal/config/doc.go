// Package config holds webpilot's runtime configuration: documented default
// values, the flat Config struct populated from CLI flags, validation, and
// XDG base-directory helpers for locating data and config files.
package config
