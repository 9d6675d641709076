package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/app"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/config"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "excellia",
	Short: "Excellia student and scholarship administration",
	Long: `excellia administers the students and scholarships kept by the
Excellia records service.

It provides:
  - serve: a same-origin relay that forwards /proxy/<path> to the records service
  - students, scholarships: list, search, add, edit and delete records
  - students import: bulk creation from an .xlsx spreadsheet
  - pick: an interactive picker over either record kind`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)
		return setupApp(configPath)
	},
}

// setupApp loads the configuration and installs the application.
// Tests replace it to keep an injected app.Default.
var setupApp = func(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return errors.ConfigError("invalid configuration", err)
	}
	logging.Debug("configuration loaded", "source", cfg.Source, "upstream", cfg.Upstream)
	app.SetDefault(app.New(app.WithConfig(cfg)))
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the TOML configuration file")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)
