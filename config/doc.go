// Package config loads the router configuration from a YAML file,
// environment variables and command-line flags, and validates it.
//
// Precedence, highest first: flags and positional backend URLs, environment
// variables (dots become underscores, e.g. HEALTH_CHECK_TTL), the config file,
// built-in defaults.
package config
