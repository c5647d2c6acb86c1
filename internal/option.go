package internal

import (
	"io"
	"os"

	"github.com/starford/travelmate/internal/provider"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	provider provider.Provider
	logOut   io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithProvider replaces the development data provider.
func WithProvider(p provider.Provider) Option {
	return func(a *application) {
		a.provider = p
	}
}

// WithLogOutput sets where structured logs are written. The MCP command
// points this at stderr because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

func newApplication(opts []Option) *application {
	app := &application{logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
