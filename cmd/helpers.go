package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/api"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/app"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// Output formats for commands that print records.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// client returns the records client of the application.
func client() (*api.Client, error) {
	if app.Default.Client == nil {
		return nil, errors.ConfigError("no records service configured", fmt.Errorf("set upstream or api.base_url"))
	}
	return app.Default.Client, nil
}

// record appends an audit event for a change made by a command.
func record(eventType audit.EventType, kind audit.Kind, id, details string) {
	app.Default.Record(eventType, kind, id, details)
}

// kindLabel names a record kind in messages.
func kindLabel(kind audit.Kind) string {
	if kind == audit.KindScholarships {
		return "scholarship"
	}
	return "student"
}

// upstreamError maps a client error to an exit-coded error.
func upstreamError(op string, kind audit.Kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if api.IsNotFound(err) && id != "" {
		return errors.RecordNotFound(kindLabel(kind), id)
	}
	if len(model.FieldErrors(err)) > 0 {
		return errors.ValidationError("invalid "+kindLabel(kind), err)
	}
	return errors.UpstreamError(op, err)
}

// validationError reports every invalid field of a form.
func validationError(kind audit.Kind, err error) error {
	return errors.ValidationError("invalid "+kindLabel(kind), err)
}

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	}
	return errors.ValidationError(fmt.Sprintf("unknown output format %q (want table or json)", format), nil)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// confirm asks a yes/no question on the command's input. Anything but
// an explicit yes declines.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [o/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "o", "oui", "y", "yes":
		return true
	}
	return false
}

// interactive reports whether both stdin and stdout are terminals.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// joinLines joins repeated flag values into the one-per-line form text.
func joinLines(values []string) string {
	return strings.Join(values, "\n")
}
