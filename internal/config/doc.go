// Package config loads, validates and persists the YAML packaging settings
// shared by the shipkit binaries. Signing credentials deliberately do not
// live here: they are read from the environment at signing time so that
// their absence is a detected configuration state, never a config error.
package config
