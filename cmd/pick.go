package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/api"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/logging"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick [students|scholarships]",
	Short: "Interactive records browser",
	Long: `Opens an interactive TUI over students (default) or scholarships.

Use arrow keys or j/k to navigate, / to filter, Enter for details.

Actions:
  Enter  - Show the selected record
  n      - Add a record
  e      - Edit the selected record
  d      - Delete the selected record
  q/Esc  - Quit

Without a terminal the records are printed as a plain list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	kind := audit.KindStudents
	if len(args) == 1 {
		k, err := audit.ParseKind(args[0])
		if err != nil {
			return errors.ValidationError("invalid record kind", err)
		}
		kind = k
	}

	c, err := client()
	if err != nil {
		return err
	}

	logging.Debug("picker mode started", "kind", kind)

	for {
		m, simple, err := loadPicker(cmd, c, kind)
		if err != nil {
			return err
		}
		if !interactive() {
			fmt.Fprint(cmd.OutOrStdout(), simple)
			return nil
		}

		result, err := tui.RunPicker(m)
		if err != nil {
			return fmt.Errorf("picker error: %w", err)
		}
		logging.Debug("picker result", "action", result.Action, "id", result.RecordID())

		switch result.Action {
		case tui.ActionNone, tui.ActionQuit:
			return nil
		case tui.ActionCreate:
			err = pickCreate(cmd, c, kind, result)
		case tui.ActionUpdate:
			err = pickUpdate(cmd, c, kind, result)
		case tui.ActionDelete:
			err = pickDelete(cmd, c, kind, result)
		}
		// Failed changes are reported and the picker reopens on fresh data.
		if err != nil {
			logError("%v", err)
		}
	}
}

// loadPicker fetches the records of kind and builds both renderings.
func loadPicker(cmd *cobra.Command, c *api.Client, kind audit.Kind) (tui.Model, string, error) {
	if kind == audit.KindScholarships {
		list, err := c.ListScholarships(cmd.Context())
		if err != nil {
			return tui.Model{}, "", upstreamError("list scholarships", kind, "", err)
		}
		return tui.NewScholarshipPicker(list), tui.SimpleScholarshipList(list), nil
	}
	list, err := c.ListStudents(cmd.Context())
	if err != nil {
		return tui.Model{}, "", upstreamError("list students", kind, "", err)
	}
	return tui.NewStudentPicker(list), tui.SimpleStudentList(list), nil
}

func pickCreate(cmd *cobra.Command, c *api.Client, kind audit.Kind, result tui.PickerResult) error {
	if result.Form == nil {
		return nil
	}
	ctx := cmd.Context()

	if kind == audit.KindStudents {
		s := result.Form.Student()
		s.ID = ""
		created, err := c.CreateStudent(ctx, s)
		if err != nil {
			record(audit.EventError, kind, "", "create: "+err.Error())
			return upstreamError("create student", kind, "", err)
		}
		record(audit.EventCreate, kind, string(created.ID), fmt.Sprintf("%s %s (%s)", created.Nom, created.Prenom, created.CNE))
		logSuccess("Étudiant ajouté avec succès!")
		return nil
	}

	var pdf *api.Attachment
	if path := result.Form.PDFPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return errors.ValidationError("cannot open PDF "+path, err)
		}
		defer f.Close()
		pdf = &api.Attachment{Filename: f.Name(), Content: f}
	}
	created, err := c.CreateScholarship(ctx, result.Form.ScholarshipForm(), pdf)
	if err != nil {
		record(audit.EventError, kind, "", "create: "+err.Error())
		return upstreamError("create scholarship", kind, "", err)
	}
	record(audit.EventCreate, kind, string(created.ID), created.Title)
	logSuccess("Bourse ajoutée avec succès!")
	return nil
}

func pickUpdate(cmd *cobra.Command, c *api.Client, kind audit.Kind, result tui.PickerResult) error {
	if result.Form == nil {
		return nil
	}
	id := result.RecordID()
	ctx := cmd.Context()

	if kind == audit.KindStudents {
		s := result.Form.Student()
		s.ID = model.ID(id)
		if _, err := c.UpdateStudent(ctx, id, s); err != nil {
			record(audit.EventError, kind, id, "update: "+err.Error())
			return upstreamError("update student", kind, id, err)
		}
		record(audit.EventUpdate, kind, id, fmt.Sprintf("%s %s (%s)", s.Nom, s.Prenom, s.CNE))
		logSuccess("Étudiant modifié avec succès!")
		return nil
	}

	updated, err := result.Form.ScholarshipForm().Parse()
	if err != nil {
		return validationError(kind, err)
	}
	updated.ID = model.ID(id)
	if _, err := c.UpdateScholarship(ctx, id, updated); err != nil {
		record(audit.EventError, kind, id, "update: "+err.Error())
		return upstreamError("update scholarship", kind, id, err)
	}
	record(audit.EventUpdate, kind, id, updated.Title)
	logSuccess("Bourse modifiée avec succès!")
	return nil
}

func pickDelete(cmd *cobra.Command, c *api.Client, kind audit.Kind, result tui.PickerResult) error {
	id := result.RecordID()
	if id == "" {
		return nil
	}

	var err error
	if kind == audit.KindStudents {
		err = c.DeleteStudent(cmd.Context(), id)
	} else {
		err = c.DeleteScholarship(cmd.Context(), id)
	}
	if err != nil {
		record(audit.EventError, kind, id, "delete: "+err.Error())
		return upstreamError("delete "+kindLabel(kind), kind, id, err)
	}
	record(audit.EventDelete, kind, id, "")
	logSuccess("Suppression réussie")
	return nil
}
