package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dou/internal/canvas"
	"github.com/starford/dou/internal/session"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var redisURLRe = regexp.MustCompile(`^rediss?://`)

// Clipboard backends.
const (
	ClipboardMemory = "memory"
	ClipboardRedis  = "redis"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Projects  ProjectsConfig    `yaml:"projects" toml:"projects"`
	SQLite    SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
	Canvas    CanvasConfig      `yaml:"canvas" toml:"canvas"`
	Clipboard ClipboardConfig   `yaml:"clipboard" toml:"clipboard"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Projects.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Canvas.Validate(); err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	if err := c.Clipboard.Validate(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
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

// ProjectsConfig holds the path to the project directory.
type ProjectsConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the projects configuration.
func (c *ProjectsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
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

// CanvasConfig holds the zoom and stylus settings shared by every session.
type CanvasConfig struct {
	ZoomStep          float64       `yaml:"zoom_step" toml:"zoom_step"`
	MinZoom           float64       `yaml:"min_zoom" toml:"min_zoom"`
	MaxZoom           float64       `yaml:"max_zoom" toml:"max_zoom"`
	DoubleTapInterval time.Duration `yaml:"double_tap_interval" toml:"double_tap_interval"`
	DoubleTapDistance float64       `yaml:"double_tap_distance" toml:"double_tap_distance"`
}

// Validate validates the canvas configuration.
func (c *CanvasConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ZoomStep, validation.Required, validation.Min(1.0).Exclusive()),
		validation.Field(&c.MinZoom, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.MaxZoom, validation.Required),
		validation.Field(&c.DoubleTapInterval, validation.Required),
		validation.Field(&c.DoubleTapDistance, validation.Required, validation.Min(0.0).Exclusive()),
	); err != nil {
		return err
	}
	if c.MaxZoom < c.MinZoom {
		return fmt.Errorf("max_zoom %.2f is below min_zoom %.2f", c.MaxZoom, c.MinZoom)
	}
	return nil
}

// ClipboardConfig selects where copied nodes are kept. The redis backend
// shares the clipboard between processes.
type ClipboardConfig struct {
	Backend  string        `yaml:"backend" toml:"backend"`
	RedisURL string        `yaml:"redis_url" toml:"redis_url"`
	Key      string        `yaml:"key" toml:"key"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl"`
}

// Validate validates the clipboard configuration.
func (c *ClipboardConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = ClipboardMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(ClipboardMemory, ClipboardRedis)),
		validation.Field(&c.RedisURL,
			validation.When(c.Backend == ClipboardRedis, validation.Required, validation.Match(redisURLRe))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// SessionConfig converts the canvas settings into per-session settings.
// The clipboard is attached by the caller.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Zoom: canvas.ZoomConfig{
			Step: c.Canvas.ZoomStep,
			Min:  c.Canvas.MinZoom,
			Max:  c.Canvas.MaxZoom,
		},
		DoubleTapInterval: c.Canvas.DoubleTapInterval,
		DoubleTapDistance: c.Canvas.DoubleTapDistance,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	sess := session.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Projects: ProjectsConfig{
			Path: "./projects",
		},
		SQLite: SQLiteConfig{
			Path: "./dou.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Canvas: CanvasConfig{
			ZoomStep:          sess.Zoom.Step,
			MinZoom:           sess.Zoom.Min,
			MaxZoom:           sess.Zoom.Max,
			DoubleTapInterval: sess.DoubleTapInterval,
			DoubleTapDistance: sess.DoubleTapDistance,
		},
		Clipboard: ClipboardConfig{
			Backend: ClipboardMemory,
			Key:     canvas.DefaultClipboardKey,
		},
	}
}
