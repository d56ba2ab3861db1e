package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, interpolates, defaults, verifies, and validates the
// configuration file at configPath.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		// Directory provided - look for config.yaml inside
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Apply environment variable interpolation before parsing
	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DiscoverConfig finds the configuration file by checking standard
// locations. Priority order: $GROUSE_CONFIG, ~/.config/grouse,
// /etc/grouse, ./config.yaml.
func DiscoverConfig() (string, error) {
	if path := os.Getenv("GROUSE_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "grouse", "config.yaml")
		if _, err := os.Stat(userConfig); err == nil {
			return userConfig, nil
		}
	}

	systemConfig := "/etc/grouse/config.yaml"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig, nil
	}

	localConfig := "./config.yaml"
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	return "", fmt.Errorf("no config found (checked: $GROUSE_CONFIG, ~/.config/grouse, /etc/grouse, ./config.yaml)")
}

// applyDefaults merges default values into cfg where not explicitly set.
func applyDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Listen == "" {
		cfg.Listen = defaults.Listen
	}
	if cfg.Slack.Version == "" {
		cfg.Slack.Version = defaults.Slack.Version
	}
	if cfg.Slack.Leeway == 0 {
		cfg.Slack.Leeway = defaults.Slack.Leeway
	}
	if cfg.Slack.CommandPath == "" {
		cfg.Slack.CommandPath = defaults.Slack.CommandPath
	}
	if cfg.Slack.MaxBodySize == 0 {
		cfg.Slack.MaxBodySize = defaults.Slack.MaxBodySize
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	if cfg.Subject == "" {
		cfg.Subject = defaults.Subject
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// If not found, leave the placeholder (will fail validation if required)
		return match
	})
}

// requireResolved rejects values still carrying a ${VAR} placeholder.
func requireResolved(field, value string) error {
	if !envVarPattern.MatchString(value) {
		return nil
	}
	matches := envVarPattern.FindStringSubmatch(value)
	if len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return fmt.Errorf("%s: unresolved environment variable", field)
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Listen == "" {
		return fmt.Errorf("listen is required")
	}

	if cfg.Slack.SigningSecret == "" {
		return fmt.Errorf("slack.signing_secret is required")
	}
	if err := requireResolved("slack.signing_secret", cfg.Slack.SigningSecret); err != nil {
		return err
	}
	if cfg.Slack.Leeway < 0 {
		return fmt.Errorf("slack.leeway must not be negative (got %v)", cfg.Slack.Leeway)
	}
	if cfg.Slack.MaxBodySize <= 0 {
		return fmt.Errorf("slack.max_body_size must be positive (got %d)", cfg.Slack.MaxBodySize)
	}

	switch cfg.Storage.Backend {
	case BackendSQLite:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if cfg.Storage.DynamoDB.Table == "" {
			return fmt.Errorf("storage.dynamodb.table is required for the dynamodb backend")
		}
		if err := requireResolved("storage.dynamodb.secret_access_key", cfg.Storage.DynamoDB.SecretAccessKey); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q (got %q)", BackendSQLite, BackendDynamoDB, cfg.Storage.Backend)
	}

	if cfg.Admin.Enabled {
		if cfg.Admin.Token == "" {
			return fmt.Errorf("admin.token is required when admin is enabled")
		}
		if err := requireResolved("admin.token", cfg.Admin.Token); err != nil {
			return err
		}
	}

	return nil
}
