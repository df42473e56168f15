// Package config loads the server configuration from TASKHUB_* environment
// variables and an optional config.yaml, applies defaults and validates the
// result before any component is built from it.
package config
