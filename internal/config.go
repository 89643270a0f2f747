package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

const appDir = "stickit"

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Vault  VaultConfig       `yaml:"vault"`
	Auth   AuthConfig        `yaml:"auth"`
	Render RenderConfig      `yaml:"render"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  LogConfig  `yaml:"log_file"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.LogFile.Validate(); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// LogConfig configures the optional rotating log file. Logs always go to
// stdout; an empty Path disables the file.
type LogConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Validate validates the log file configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSizeMB, validation.Min(0)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
		validation.Field(&c.MaxAgeDays, validation.Min(0)),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// StoreConfig holds SQLite note store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// VaultConfig holds the markdown mirror directory.
//
// When Path is empty no mirror is kept. Watch picks up edits made to the
// mirror files by other programs.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Enabled reports whether notes are mirrored to disk.
func (c *VaultConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("vault: watch is enabled but path is empty")
	}
	return nil
}

// RenderConfig holds renderer defaults.
type RenderConfig struct {
	// PreviewLimit is the number of nodes shown in a note preview.
	PreviewLimit int `yaml:"preview_limit"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PreviewLimit, validation.Required, validation.Min(1)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
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

// NewDefaultConfig returns a new Config with sensible default values.
// Data files live under the XDG data home.
func NewDefaultConfig() *Config {
	dataDir := filepath.Join(xdg.DataHome, appDir)
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			LogFile: LogConfig{
				MaxSizeMB:  100,
				MaxBackups: 3,
				MaxAgeDays: 30,
				Compress:   true,
			},
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "stickit.db"),
		},
		Vault: VaultConfig{
			Path:  filepath.Join(dataDir, "vault"),
			Watch: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Render: RenderConfig{
			PreviewLimit: 8,
		},
	}
}
