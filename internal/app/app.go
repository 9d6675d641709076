// Package app provides the application context for the excellia CLI.
// It allows dependency injection for testing.
package app

import (
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/api"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/config"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/logging"
)

// App holds the application dependencies
type App struct {
	// Config is the effective configuration
	Config *config.Config

	// Client talks to the records service
	Client *api.Client

	// Audit records the changes made through the CLI
	Audit *audit.Logger
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets the configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithClient sets a custom records client
func WithClient(c *api.Client) Option {
	return func(a *App) {
		a.Client = c
	}
}

// WithAudit sets a custom audit logger
func WithAudit(l *audit.Logger) Option {
	return func(a *App) {
		a.Audit = l
	}
}

// New creates a new App with the given options.
// Missing dependencies are derived from the configuration.
func New(opts ...Option) *App {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.Config == nil {
		app.Config = config.Default()
	}

	if app.Client == nil {
		client, err := NewClient(app.Config)
		if err != nil {
			logging.Debug("failed to initialize records client", "error", err)
		} else {
			app.Client = client
		}
	}

	if app.Audit == nil {
		app.Audit = audit.NewLogger(app.Config.StateDir)
	}

	return app
}

// NewClient builds a records client from the [api] configuration.
func NewClient(cfg *config.Config) (*api.Client, error) {
	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = cfg.Upstream
	}
	return api.NewClient(api.ClientConfig{
		BaseURL:          baseURL,
		StudentsPath:     cfg.API.StudentsPath,
		ScholarshipsPath: cfg.API.ScholarshipsPath,
		Timeout:          cfg.API.Timeout.Duration,
		Logger:           logging.Component("api"),
	})
}

// Record appends an audit event, logging instead of failing when the
// audit log cannot be written.
func (a *App) Record(eventType audit.EventType, kind audit.Kind, recordID, details string) {
	if a.Audit == nil {
		return
	}
	if err := a.Audit.LogEvent(eventType, kind, recordID, details); err != nil {
		logging.Warn("failed to write audit event", "kind", kind, "type", eventType, "error", err)
	}
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
