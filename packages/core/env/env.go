// Package env layers process-environment and dotenv overrides onto a
// loaded configuration. FLOWSPEC_GLOBAL_<name> and FLOWSPEC_SECRET_<name>
// variables become globals and secrets, so CI systems can inject values
// without touching config files.
package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/flowspec/packages/core/config"
)

const (
	globalPrefix = "FLOWSPEC_GLOBAL_"
	secretPrefix = "FLOWSPEC_SECRET_"
)

// Apply folds FLOWSPEC_GLOBAL_* and FLOWSPEC_SECRET_* entries from environ
// (os.Environ() form) into cfg. Injected globals are plain: they override
// same-named plain globals from the config file, while environment-scoped
// globals still win for their environment.
func Apply(cfg *config.Config, environ []string) *config.Config {
	overrides := &config.Config{}

	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}

		switch {
		case strings.HasPrefix(key, globalPrefix):
			name := key[len(globalPrefix):]
			if name == "" {
				continue
			}
			overrides.Globals = append(overrides.Globals, config.Global{Name: name, Value: value})

		case strings.HasPrefix(key, secretPrefix):
			name := key[len(secretPrefix):]
			if name == "" {
				continue
			}
			if overrides.Secrets == nil {
				overrides.Secrets = make(map[string]string)
			}
			overrides.Secrets[name] = value
		}
	}

	return cfg.Merge(overrides)
}

// ParseDotEnv reads a KEY=value file: one pair per line, # comments and
// blank lines skipped, surrounding single or double quotes stripped.
func ParseDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return result, nil
}

// ApplyDotEnv loads path and folds every pair into cfg as a plain global,
// available to every environment.
func ApplyDotEnv(cfg *config.Config, path string) (*config.Config, error) {
	pairs, err := ParseDotEnv(path)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{}
	for name, value := range pairs {
		overrides.Globals = append(overrides.Globals, config.Global{Name: name, Value: value})
	}

	return cfg.Merge(overrides), nil
}
