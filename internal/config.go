package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Engagement drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverStatic   = "static"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app" toml:"app"`
	Content    ContentConfig     `yaml:"content" toml:"content"`
	Engagement EngagementConfig  `yaml:"engagement" toml:"engagement"`
	Search     SearchConfig      `yaml:"search" toml:"search"`
	Auth       AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Engagement.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// ContentConfig points at the Markdown corpus and the index artifact built from it.
type ContentConfig struct {
	Root          string `yaml:"root" toml:"root"`
	ArtifactPath  string `yaml:"artifact_path" toml:"artifact_path"`
	IncludeDrafts bool   `yaml:"include_drafts" toml:"include_drafts"`
	Watch         bool   `yaml:"watch" toml:"watch"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// EngagementConfig selects the engagement score backend.
//
// DSN is interpreted per driver: a file path for sqlite, a connection URL
// for postgres, comma-separated addresses for redis. static ignores it.
type EngagementConfig struct {
	Driver    string        `yaml:"driver" toml:"driver"`
	DSN       string        `yaml:"dsn" toml:"dsn"`
	BatchSize int           `yaml:"batch_size" toml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"`
}

// Validate validates the engagement configuration.
func (c *EngagementConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(DriverSQLite, DriverPostgres, DriverRedis, DriverStatic)),
		validation.Field(&c.DSN, validation.When(c.Driver != DriverStatic, validation.Required)),
		validation.Field(&c.BatchSize, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// SearchConfig holds page size bounds and the hot-sort fallback switch.
type SearchConfig struct {
	DefaultPageSize int  `yaml:"default_page_size" toml:"default_page_size"`
	MinPageSize     int  `yaml:"min_page_size" toml:"min_page_size"`
	MaxPageSize     int  `yaml:"max_page_size" toml:"max_page_size"`
	DegradeHot      bool `yaml:"degrade_hot" toml:"degrade_hot"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MinPageSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxPageSize, validation.Required, validation.Min(c.MinPageSize)),
		validation.Field(&c.DefaultPageSize, validation.Required),
	); err != nil {
		return err
	}
	if c.DefaultPageSize < c.MinPageSize || c.DefaultPageSize > c.MaxPageSize {
		return errors.New("search: default_page_size must lie within min_page_size and max_page_size")
	}
	return nil
}

// AuthConfig holds authentication configuration for the admin endpoints.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Root:         "./content",
			ArtifactPath: "./public/search-index.json",
		},
		Engagement: EngagementConfig{
			Driver:    DriverSQLite,
			DSN:       "./engagement.db",
			BatchSize: 200,
			Timeout:   2 * time.Second,
		},
		Search: SearchConfig{
			DefaultPageSize: 12,
			MinPageSize:     10,
			MaxPageSize:     50,
			DegradeHot:      true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
