package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Global is one configured variable. Env, when set, restricts the value to
// tests declaring the same environment; an env-matched global overrides a
// plain one of the same name.
type Global struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Env   string `json:"env,omitempty"`
}

// Config represents the flowspec configuration
type Config struct {
	Environment       string            `json:"environment,omitempty"`
	Globals           []Global          `json:"globals,omitempty"`
	Secrets           map[string]string `json:"secrets,omitempty"`
	ContinueOnFailure *bool             `json:"continueOnFailure,omitempty"`
	Concurrency       int               `json:"concurrency,omitempty"` // Parallel test workers
	RateLimit         float64           `json:"rateLimit,omitempty"`   // Requests per second, 0 = unlimited
	Seed              *int64            `json:"seed,omitempty"`        // Generation seed, omitted = per-run random
	Timeout           int               `json:"timeout,omitempty"`     // milliseconds
	FollowRedirects   *bool             `json:"followRedirects,omitempty"`
	MaxRedirects      int               `json:"maxRedirects,omitempty"`
	ValidateSSL       *bool             `json:"validateSSL,omitempty"`
	Proxy             string            `json:"proxy,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"` // Default headers for all requests
	JUnitPath         string            `json:"junit,omitempty"`   // JUnit XML output file
	Verbose           *bool             `json:"verbose,omitempty"`
	NoColor           *bool             `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetContinueOnFailure reports whether later waves still dispatch after a
// test fails, defaulting to true.
func (c *Config) GetContinueOnFailure() bool {
	return getBool(c.ContinueOnFailure, true)
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GlobalValues flattens the globals for one environment: plain globals
// first, then env-matched ones on top.
func (c *Config) GlobalValues(env string) map[string]string {
	out := make(map[string]string, len(c.Globals))
	for _, g := range c.Globals {
		if g.Env == "" {
			out[g.Name] = g.Value
		}
	}
	for _, g := range c.Globals {
		if g.Env != "" && g.Env == env {
			out[g.Name] = g.Value
		}
	}
	return out
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".flowspec.config.json",
	"flowspec.config.json",
	".flowspecrc",
	".flowspecrc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Environment != "" {
		result.Environment = other.Environment
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Seed != nil {
		result.Seed = other.Seed
	}
	if other.JUnitPath != "" {
		result.JUnitPath = other.JUnitPath
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ContinueOnFailure != nil {
		result.ContinueOnFailure = other.ContinueOnFailure
	}
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	// Globals append, later entries winning by name at lookup time
	if len(other.Globals) > 0 {
		result.Globals = append(append([]Global{}, c.Globals...), other.Globals...)
	}

	if len(other.Secrets) > 0 {
		if result.Secrets == nil {
			result.Secrets = make(map[string]string)
		}
		for k, v := range other.Secrets {
			result.Secrets[k] = v
		}
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
