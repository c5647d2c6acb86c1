package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/travelmate/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestStorageConfig_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr bool
	}{
		{"fs with path", StorageConfig{Driver: "fs", Path: "./data"}, false},
		{"fs without path", StorageConfig{Driver: "fs"}, true},
		{"sqlite with path", StorageConfig{Driver: "sqlite", Path: "travel.db"}, false},
		{"postgres without dsn", StorageConfig{Driver: "postgres"}, true},
		{"postgres with dsn", StorageConfig{Driver: "postgres", DSN: "postgres://localhost/travel"}, false},
		{"memory", StorageConfig{Driver: "memory"}, false},
		{"unknown", StorageConfig{Driver: "redis", Path: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageConfig_WatchOnlyForFS(t *testing.T) {
	cfg := StorageConfig{Driver: "sqlite", Path: "travel.db", Watch: true}
	if cfg.WatchEnabled() {
		t.Error("watch should be ignored for sqlite")
	}
	cfg.Driver = "fs"
	if !cfg.WatchEnabled() {
		t.Error("watch should be enabled for fs")
	}
}

func TestPreferencesConfig_SystemTheme(t *testing.T) {
	for theme, ok := range map[string]bool{"": true, "light": true, "dark": true, "sepia": false} {
		cfg := PreferencesConfig{SystemTheme: theme}
		if err := cfg.Validate(); (err == nil) != ok {
			t.Errorf("system_theme %q: err = %v", theme, err)
		}
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Trips.RecentLimit != 3 {
		t.Errorf("recent_limit = %d, want 3", cfg.Trips.RecentLimit)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("TRAVEL_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `app:
  log_level: debug
  http:
    port: 9000
storage:
  driver: sqlite
  path: travel.db
auth:
  mode: token
  token: ${TRAVEL_TOKEN}
trips:
  validate: true
  recent_limit: 5
preferences:
  system_theme: dark
provider:
  latency: 50ms
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9000 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Storage.Driver != "sqlite" || !cfg.Storage.Watch {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Auth.Token != "s3cret" || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if !cfg.Trips.Strict || cfg.Trips.RecentLimit != 5 {
		t.Errorf("trips = %+v", cfg.Trips)
	}
	if cfg.Provider.Latency.Std() != 50*time.Millisecond {
		t.Errorf("latency = %v", cfg.Provider.Latency.Std())
	}
}
