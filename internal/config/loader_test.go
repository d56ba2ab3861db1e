package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal valid config",
			yaml: `
slack:
  signing_secret: 8f742231b10e8888abcd99yyyzzz85a5
admin:
  enabled: false
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.Name != "grouse" {
					t.Error("default service.name not applied")
				}
				if cfg.Service.LogLevel != "info" {
					t.Error("default log_level not applied")
				}
				if cfg.Listen != "127.0.0.1:8080" {
					t.Error("default listen not applied")
				}
				if cfg.Slack.Version != "v0" {
					t.Error("default slack.version not applied")
				}
				if cfg.Slack.Leeway != 5*time.Minute {
					t.Error("default slack.leeway not applied")
				}
				if cfg.Slack.CommandPath != "/slack/command" {
					t.Error("default slack.command_path not applied")
				}
				if cfg.Slack.MaxBodySize != 1<<20 {
					t.Error("default slack.max_body_size not applied")
				}
				if cfg.Storage.Backend != BackendSQLite {
					t.Error("default storage.backend not applied")
				}
				if cfg.Subject != "Curtis" {
					t.Error("default subject not applied")
				}
			},
		},
		{
			name: "full config",
			yaml: `
service:
  name: grouse-prod
  log_level: debug
listen: 0.0.0.0:9999
slack:
  signing_secret: s3cret
  leeway: 2m
  command_path: /hooks/complain
  max_body_size: 4096
storage:
  backend: dynamodb
  dynamodb:
    table: CurtisComplaints
    region: us-east-1
subject: Marvin
admin:
  enabled: true
  token: admin-token
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.Name != "grouse-prod" {
					t.Error("service.name not parsed")
				}
				if cfg.Slack.Leeway != 2*time.Minute {
					t.Error("slack.leeway not parsed")
				}
				if cfg.Slack.MaxBodySize != 4096 {
					t.Error("slack.max_body_size not parsed")
				}
				if cfg.Storage.Backend != BackendDynamoDB {
					t.Error("storage.backend not parsed")
				}
				if cfg.Storage.DynamoDB.Table != "CurtisComplaints" {
					t.Error("storage.dynamodb.table not parsed")
				}
				if cfg.Subject != "Marvin" {
					t.Error("subject not parsed")
				}
				if cfg.Admin.Token != "admin-token" {
					t.Error("admin.token not parsed")
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
slack:
  signing_secret: ${TEST_SIGNING_SECRET}
admin:
  enabled: true
  token: ${TEST_ADMIN_TOKEN}
`,
			env: map[string]string{
				"TEST_SIGNING_SECRET": "interpolated-secret",
				"TEST_ADMIN_TOKEN":    "interpolated-token",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Slack.SigningSecret != "interpolated-secret" {
					t.Errorf("signing_secret = %q, want interpolated value", cfg.Slack.SigningSecret)
				}
				if cfg.Admin.Token != "interpolated-token" {
					t.Errorf("admin.token = %q, want interpolated value", cfg.Admin.Token)
				}
			},
		},
		{
			name: "unset env var fails validation",
			yaml: `
slack:
  signing_secret: ${GROUSE_TEST_UNSET_VAR}
admin:
  enabled: false
`,
			wantErr: "GROUSE_TEST_UNSET_VAR",
		},
		{
			name: "missing signing secret",
			yaml: `
admin:
  enabled: false
`,
			wantErr: "slack.signing_secret is required",
		},
		{
			name: "bad log level",
			yaml: `
service:
  log_level: verbose
slack:
  signing_secret: s
admin:
  enabled: false
`,
			wantErr: "service.log_level",
		},
		{
			name: "negative leeway",
			yaml: `
slack:
  signing_secret: s
  leeway: -5m
admin:
  enabled: false
`,
			wantErr: "slack.leeway",
		},
		{
			name: "dynamodb backend requires table",
			yaml: `
slack:
  signing_secret: s
storage:
  backend: dynamodb
admin:
  enabled: false
`,
			wantErr: "storage.dynamodb.table",
		},
		{
			name: "unknown backend",
			yaml: `
slack:
  signing_secret: s
storage:
  backend: postgres
admin:
  enabled: false
`,
			wantErr: "storage.backend",
		},
		{
			name: "admin enabled requires token",
			yaml: `
slack:
  signing_secret: s
admin:
  enabled: true
`,
			wantErr: "admin.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(writeConfig(t, tt.yaml))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("Load() error = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %q, want file-not-found hint", err.Error())
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	yaml := "slack:\n  signing_secret: s\nadmin:\n  enabled: false\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir) error = %v", err)
	}
	if cfg.Slack.SigningSecret != "s" {
		t.Error("config.yaml inside directory not loaded")
	}
}

func TestInterpolateEnvLeavesUndefined(t *testing.T) {
	got := interpolateEnv("value: ${GROUSE_TEST_NEVER_SET_XYZ}")
	if got != "value: ${GROUSE_TEST_NEVER_SET_XYZ}" {
		t.Errorf("interpolateEnv() = %q, want placeholder preserved", got)
	}
}
