package config

import "time"

// Config represents the complete grouse configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Listen  string        `yaml:"listen"`
	Slack   SlackConfig   `yaml:"slack"`
	Storage StorageConfig `yaml:"storage"`
	Subject string        `yaml:"subject"`
	Admin   AdminConfig   `yaml:"admin"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	// LogFile, when set, sends logs to a size-rotated file instead of stdout.
	LogFile string `yaml:"log_file,omitempty"`
}

// SlackConfig defines the request-signing parameters for the webhook
// endpoint.
type SlackConfig struct {
	// SigningSecret is the Slack app signing secret. Required. Use
	// ${SLACK_SIGNING_SECRET} to source it from the environment.
	SigningSecret string `yaml:"signing_secret"`

	// Version is the signing scheme version (default "v0").
	Version string `yaml:"version,omitempty"`

	// Leeway is how far behind the wall clock a request timestamp may lag
	// (default 5m).
	Leeway time.Duration `yaml:"leeway,omitempty"`

	// CommandPath is the URL path the slash command posts to.
	CommandPath string `yaml:"command_path"`

	// MaxBodySize is the maximum allowed request body size in bytes
	// (default 1MB).
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`
}

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// StorageConfig selects and configures the complaint store.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Path     string         `yaml:"path,omitempty"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb,omitempty"`
}

// DynamoDBConfig defines the DynamoDB backend settings.
type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	// Static credentials override the AWS default chain when set.
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// AdminConfig defines the bearer-token-protected ops surface.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// ChecksumManifest is the .checksums file format.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "grouse",
			LogLevel: "info",
		},
		Listen: "127.0.0.1:8080",
		Slack: SlackConfig{
			Version:     "v0",
			Leeway:      5 * time.Minute,
			CommandPath: "/slack/command",
			MaxBodySize: 1 << 20,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    "./data/grouse.db",
		},
		Subject: "Curtis",
		Admin: AdminConfig{
			Enabled: true,
		},
	}
}
