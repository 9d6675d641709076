package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/app"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
)

var auditLogCmd = &cobra.Command{
	Use:   "audit-log <students|scholarships>",
	Short: "Display the changes made through the CLI",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditLog,
}

var (
	auditLogOutput string
	auditLogClear  bool
)

func init() {
	auditLogCmd.Flags().StringVarP(&auditLogOutput, "output", "o", outputTable, "Output format: table or json (one event per line)")
	auditLogCmd.Flags().BoolVar(&auditLogClear, "clear", false, "Remove the recorded events")
	rootCmd.AddCommand(auditLogCmd)
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	if err := checkOutput(auditLogOutput); err != nil {
		return err
	}
	kind, err := audit.ParseKind(args[0])
	if err != nil {
		return errors.ValidationError("invalid record kind", err)
	}
	auditLogger := app.Default.Audit

	if auditLogClear {
		if err := auditLogger.Remove(kind); err != nil {
			return fmt.Errorf("failed to clear audit log: %w", err)
		}
		logSuccess("Audit log for %s cleared", kind)
		return nil
	}

	events, err := auditLogger.Events(kind)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events recorded for %s", kind)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range events {
		if auditLogOutput == outputJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}
		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		id := e.RecordID
		if id == "" {
			id = "-"
		}
		if e.Details != "" {
			fmt.Fprintf(out, "[%s] %-7s %s (%s)\n", ts, e.Type, id, e.Details)
		} else {
			fmt.Fprintf(out, "[%s] %-7s %s\n", ts, e.Type, id)
		}
	}

	return nil
}
