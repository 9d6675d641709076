// Package app provides the application context for the excellia CLI.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Config *config.Config // Effective configuration
//	    Client *api.Client    // Records service client
//	    Audit  *audit.Logger  // Change log under state_dir
//	}
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage, after config.Load
//	a := app.New(app.WithConfig(cfg))
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithConfig(testConfig),
//	    app.WithClient(fakeClient),
//	    app.WithAudit(audit.NewLogger(t.TempDir())),
//	)
//
// # Available Options
//
//	WithConfig(cfg)    // Configuration (defaults otherwise)
//	WithClient(client) // Custom records client
//	WithAudit(logger)  // Custom audit logger
package app
