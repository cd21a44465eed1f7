// Package config implements YAML configuration loading with environment
// variable overrides for secrets, and validation of every section before
// the service starts.
package config
