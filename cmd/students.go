package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/importer"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/tui"
)

var studentsCmd = &cobra.Command{
	Use:     "students",
	Aliases: []string{"student", "etudiants"},
	Short:   "Manage students",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	Long: `List students, optionally filtered by a case-insensitive search on
nom, prénom and CNE.`,
	Args: cobra.NoArgs,
	RunE: runStudentsList,
}

var studentsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsGet,
}

var studentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a student",
	Long: `Add a student. Every field is required; with --interactive a form
wizard asks for them.`,
	Args: cobra.NoArgs,
	RunE: runStudentsAdd,
}

var studentsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a student",
	Long: `Edit a student. The record is fetched, the given flags replace its
fields and the result is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runStudentsEdit,
}

var studentsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a student",
	Args:    cobra.ExactArgs(1),
	RunE:    runStudentsDelete,
}

var studentsImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import students from a spreadsheet",
	Long: `Import students from the first sheet of an .xlsx workbook.

The first row is the header. Columns named exactly Nom, Prénom and CNE are
used as they are; otherwise they are matched ignoring case and rows with a
missing value are skipped. Students are created one at a time and a
summary of added and failed rows is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runStudentsImport,
}

var (
	studentsSearch      string
	studentsOutput      string
	studentNom          string
	studentPrenom       string
	studentCNE          string
	studentsInteractive bool
	studentsYes         bool
)

func init() {
	studentsListCmd.Flags().StringVarP(&studentsSearch, "search", "s", "", "Filter on nom, prénom or CNE")
	studentsListCmd.Flags().StringVarP(&studentsOutput, "output", "o", outputTable, "Output format: table or json")
	studentsGetCmd.Flags().StringVarP(&studentsOutput, "output", "o", outputTable, "Output format: table or json")

	for _, c := range []*cobra.Command{studentsAddCmd, studentsEditCmd} {
		c.Flags().StringVar(&studentNom, "nom", "", "Last name")
		c.Flags().StringVar(&studentPrenom, "prenom", "", "First name")
		c.Flags().StringVar(&studentCNE, "cne", "", "Student number (CNE)")
		c.Flags().BoolVarP(&studentsInteractive, "interactive", "i", false, "Fill the form in a wizard")
	}
	studentsDeleteCmd.Flags().BoolVarP(&studentsYes, "yes", "y", false, "Do not ask for confirmation")

	studentsCmd.AddCommand(studentsListCmd, studentsGetCmd, studentsAddCmd,
		studentsEditCmd, studentsDeleteCmd, studentsImportCmd)
	rootCmd.AddCommand(studentsCmd)
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	if err := checkOutput(studentsOutput); err != nil {
		return err
	}
	c, err := client()
	if err != nil {
		return err
	}

	students, err := c.ListStudents(cmd.Context())
	if err != nil {
		return upstreamError("list students", audit.KindStudents, "", err)
	}
	students = model.FilterStudents(students, studentsSearch)

	if studentsOutput == outputJSON {
		if students == nil {
			students = []model.Student{}
		}
		return printJSON(cmd.OutOrStdout(), students)
	}

	if len(students) == 0 {
		if studentsSearch != "" {
			logInfo("No student matches %q", studentsSearch)
		} else {
			logInfo("No students found. Add one with: excellia students add --nom ... --prenom ... --cne ...")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOM\tPRÉNOM\tCNE")
	fmt.Fprintln(w, "--\t---\t------\t---")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Nom, s.Prenom, s.CNE)
	}
	return w.Flush()
}

func runStudentsGet(cmd *cobra.Command, args []string) error {
	if err := checkOutput(studentsOutput); err != nil {
		return err
	}
	c, err := client()
	if err != nil {
		return err
	}

	s, err := c.GetStudent(cmd.Context(), args[0])
	if err != nil {
		return upstreamError("get student", audit.KindStudents, args[0], err)
	}
	if studentsOutput == outputJSON {
		return printJSON(cmd.OutOrStdout(), s)
	}
	fmt.Fprint(cmd.OutOrStdout(), tui.StudentDetails(*s))
	return nil
}

// overlayStudent copies the flags that were set onto s.
func overlayStudent(cmd *cobra.Command, s *model.Student) {
	flags := cmd.Flags()
	if flags.Changed("nom") {
		s.Nom = studentNom
	}
	if flags.Changed("prenom") {
		s.Prenom = studentPrenom
	}
	if flags.Changed("cne") {
		s.CNE = studentCNE
	}
}

func runStudentsAdd(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	var s model.Student
	overlayStudent(cmd, &s)
	if studentsInteractive {
		result, err := tui.RunStudentWizard(nil)
		if err != nil {
			return err
		}
		if result == nil {
			logInfo("Cancelled")
			return nil
		}
		s = result.Student()
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return validationError(audit.KindStudents, err)
	}

	created, err := c.CreateStudent(cmd.Context(), s)
	if err != nil {
		record(audit.EventError, audit.KindStudents, "", "create: "+err.Error())
		return upstreamError("create student", audit.KindStudents, "", err)
	}
	record(audit.EventCreate, audit.KindStudents, string(created.ID), fmt.Sprintf("%s %s (%s)", created.Nom, created.Prenom, created.CNE))
	logSuccess("Étudiant ajouté avec succès! (id %s)", created.ID)
	return nil
}

func runStudentsEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	c, err := client()
	if err != nil {
		return err
	}

	current, err := c.GetStudent(cmd.Context(), id)
	if err != nil {
		return upstreamError("get student", audit.KindStudents, id, err)
	}

	s := *current
	overlayStudent(cmd, &s)
	if studentsInteractive {
		result, err := tui.RunStudentWizard(&s)
		if err != nil {
			return err
		}
		if result == nil {
			logInfo("Cancelled")
			return nil
		}
		s = result.Student()
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return validationError(audit.KindStudents, err)
	}

	if _, err := c.UpdateStudent(cmd.Context(), id, s); err != nil {
		record(audit.EventError, audit.KindStudents, id, "update: "+err.Error())
		return upstreamError("update student", audit.KindStudents, id, err)
	}
	record(audit.EventUpdate, audit.KindStudents, id, fmt.Sprintf("%s %s (%s)", s.Nom, s.Prenom, s.CNE))
	logSuccess("Étudiant modifié avec succès!")
	return nil
}

func runStudentsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	c, err := client()
	if err != nil {
		return err
	}

	if !studentsYes {
		s, err := c.GetStudent(cmd.Context(), id)
		if err != nil {
			return upstreamError("get student", audit.KindStudents, id, err)
		}
		if !confirm(cmd, fmt.Sprintf("Êtes-vous sûr de vouloir supprimer l'étudiant \"%s %s\" ?", s.Nom, s.Prenom)) {
			logInfo("Cancelled")
			return nil
		}
	}

	if err := c.DeleteStudent(cmd.Context(), id); err != nil {
		record(audit.EventError, audit.KindStudents, id, "delete: "+err.Error())
		return upstreamError("delete student", audit.KindStudents, id, err)
	}
	record(audit.EventDelete, audit.KindStudents, id, "")
	logSuccess("Étudiant supprimé")
	return nil
}

func runStudentsImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	c, err := client()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return errors.ImportError("cannot read "+path, err)
	}
	rows, err := importer.ReadFile(path)
	if err != nil {
		return errors.ImportError("cannot import "+filepath.Base(path), err)
	}
	logInfo("Importing %d students from %s", len(rows), filepath.Base(path))

	summary, err := importer.Import(cmd.Context(), c, rows)
	if err != nil {
		return errors.ImportError("import interrupted", err)
	}

	for _, f := range summary.Failed {
		s := f.Row.Student
		logWarning("ligne %d (%s %s, %s): %v", f.Row.Line, s.Nom, s.Prenom, s.CNE, f.Err)
	}
	record(audit.EventImport, audit.KindStudents, "",
		fmt.Sprintf("%s: %d added, %d failed", filepath.Base(path), len(summary.Added), len(summary.Failed)))

	switch {
	case len(summary.Failed) == 0:
		logSuccess("Importation réussie! %d étudiants ajoutés.", len(summary.Added))
	case len(summary.Added) > 0:
		logWarning("Importation partiellement réussie! %d étudiants ajoutés, %d erreurs.", len(summary.Added), len(summary.Failed))
	default:
		return errors.ImportError(fmt.Sprintf("no student imported, %d errors", len(summary.Failed)), nil)
	}
	return nil
}
