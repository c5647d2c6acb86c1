package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/travelmate/internal/storage"
	"github.com/starford/travelmate/internal/tripstore"
	pkgconfig "github.com/starford/travelmate/pkg/config"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app" toml:"app"`
	Storage     StorageConfig     `yaml:"storage" toml:"storage"`
	Auth        AuthConfig        `yaml:"auth" toml:"auth"`
	Trips       TripsConfig       `yaml:"trips" toml:"trips"`
	Preferences PreferencesConfig `yaml:"preferences" toml:"preferences"`
	Provider    ProviderConfig    `yaml:"provider" toml:"provider"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Trips.Validate(); err != nil {
		return err
	}
	if err := c.Preferences.Validate(); err != nil {
		return err
	}
	return c.Provider.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the persistence backend.
//
// Path is the data directory for the fs driver and the database file for
// sqlite. DSN is only read by the postgres driver. Watch enables reloading
// the stores when another process edits the fs data directory.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
	DSN    string `yaml:"dsn" toml:"dsn"`
	Watch  bool   `yaml:"watch" toml:"watch"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(storage.DriverFS, storage.DriverSQLite, storage.DriverPostgres, storage.DriverMemory)),
		validation.Field(&c.Path, validation.When(
			c.Driver == storage.DriverFS || c.Driver == storage.DriverSQLite, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Driver == storage.DriverPostgres, validation.Required)),
	)
}

// Options converts the section into storage.Open options.
func (c *StorageConfig) Options() storage.Options {
	return storage.Options{Driver: c.Driver, Path: c.Path, DSN: c.DSN}
}

// WatchEnabled reports whether the fs watcher should run.
func (c *StorageConfig) WatchEnabled() bool {
	return c.Watch && c.Driver == storage.DriverFS
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TripsConfig configures the trip store.
type TripsConfig struct {
	// Strict rejects trips with missing fields or inverted dates.
	Strict      bool `yaml:"validate" toml:"validate"`
	RecentLimit int  `yaml:"recent_limit" toml:"recent_limit"`
}

// Validate validates the trips configuration.
func (c *TripsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RecentLimit, validation.Min(0)),
	)
}

// PreferencesConfig configures the preference store.
type PreferencesConfig struct {
	// SystemTheme overrides ambient theme detection when set.
	SystemTheme string `yaml:"system_theme" toml:"system_theme"`
}

// Validate validates the preferences configuration.
func (c *PreferencesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SystemTheme, validation.In("light", "dark")),
	)
}

// ProviderConfig configures the remote data provider.
type ProviderConfig struct {
	// Latency is the simulated response time of every lookup.
	Latency pkgconfig.Duration `yaml:"latency" toml:"latency"`
}

// Validate validates the provider configuration.
func (c *ProviderConfig) Validate() error {
	if c.Latency < 0 {
		return fmt.Errorf("provider: latency must not be negative")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: storage.DriverFS,
			Path:   "./data",
			Watch:  true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Trips: TripsConfig{
			RecentLimit: tripstore.DefaultRecentLimit,
		},
		Provider: ProviderConfig{
			Latency: pkgconfig.Duration(300 * time.Millisecond),
		},
	}
}
