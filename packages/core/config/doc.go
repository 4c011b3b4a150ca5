// Package config handles configuration loading and management.
//
// It provides functionality for:
//   - Loading configuration from flowspec config files
//   - Default configuration values
//   - Global variables, environment-matched overrides and secrets
package config
