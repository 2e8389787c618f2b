package internal

import (
	"io"

	"github.com/starford/dou/internal/canvas"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	clipboard canvas.Clipboard
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sends the JSON log to w instead of stdout. The MCP command
// needs this because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithClipboard overrides the configured clipboard backend.
func WithClipboard(cb canvas.Clipboard) Option {
	return func(a *application) {
		a.clipboard = cb
	}
}
