package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/app"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configuration and check the records service",
	Long: `Show the effective configuration and probe the records service.

With --relay the health endpoint of a running relay is checked too, e.g.
--relay http://localhost:3000.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusRelay string

func init() {
	statusCmd.Flags().StringVar(&statusRelay, "relay", "", "Base URL of a running relay to check")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := app.Default.Config
	out := cmd.OutOrStdout()

	source := cfg.Source
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(out, "Config: %s\n", source)
	fmt.Fprintf(out, "Upstream: %s\n", cfg.Upstream)
	fmt.Fprintf(out, "Relay: %s%s (%s errors)\n", cfg.Listen, cfg.Prefix, cfg.ErrorMode)
	if len(cfg.AllowedOrigins) > 0 {
		fmt.Fprintf(out, "CORS origins: %s\n", strings.Join(cfg.AllowedOrigins, ", "))
	}
	if cfg.RateLimit > 0 {
		fmt.Fprintf(out, "Rate limit: %d per %s\n", cfg.RateLimit, cfg.RateWindow.Duration)
	}
	fmt.Fprintf(out, "State dir: %s\n", cfg.StateDir)

	c, err := client()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Records service: %s\n", c.BaseURL())

	result := health.Check(cmd.Context(), c.BaseURL(), c, statusRelay)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Health:")
	printProbe(cmd, "records service", result.Upstream)
	if result.Relay != nil {
		printProbe(cmd, "relay", *result.Relay)
	}
	fmt.Fprintf(out, "  Overall: %s\n", result.Summary())

	if result.Summary() == health.StatusUnreachable {
		return errors.UpstreamError("status", fmt.Errorf("records service or relay unreachable"))
	}
	return nil
}

func printProbe(cmd *cobra.Command, name string, p health.ProbeResult) {
	out := cmd.OutOrStdout()
	switch {
	case p.OK():
		fmt.Fprintf(out, "  ✓ %s reachable (%s)\n", name, health.FormatLatency(p.Latency))
	case p.Reachable:
		fmt.Fprintf(out, "  ! %s answered with an error: %v\n", name, p.Err)
	default:
		fmt.Fprintf(out, "  ✗ %s unreachable: %v\n", name, p.Err)
	}
}
