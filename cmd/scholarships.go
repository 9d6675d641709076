package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/api"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/editor"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/errors"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/tui"
)

var scholarshipsCmd = &cobra.Command{
	Use:     "scholarships",
	Aliases: []string{"scholarship", "bourses"},
	Short:   "Manage scholarships",
}

var scholarshipsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scholarships",
	Long: `List scholarships, optionally filtered by a case-insensitive search on
title, academic year and university.`,
	Args: cobra.NoArgs,
	RunE: runScholarshipsList,
}

var scholarshipsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one scholarship",
	Args:  cobra.ExactArgs(1),
	RunE:  runScholarshipsGet,
}

var scholarshipsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scholarship",
	Long: `Add a scholarship. It is sent as a multipart form, with the optional
PDF as its pdfLink file.

Documents and criteria are repeatable; criteria use the "name: value" form:

  excellia scholarships add --title "Bourse d'excellence" \
    --university "Université Mohammed V" --description "..." \
    --amount 15000 --duration 10 --places 5 \
    --start-date 2025-09-01 --deadline 2025-07-15 \
    --document CV --document "Relevé de notes" \
    --criterion "Moyenne: 16" --pdf reglement.pdf`,
	Args: cobra.NoArgs,
	RunE: runScholarshipsAdd,
}

var scholarshipsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a scholarship",
	Long: `Edit a scholarship. The record is fetched, the given flags replace its
fields and the result is saved as JSON. With --editor the record opens in
$VISUAL or $EDITOR as a TOML document.`,
	Args: cobra.ExactArgs(1),
	RunE: runScholarshipsEdit,
}

var scholarshipsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a scholarship",
	Args:    cobra.ExactArgs(1),
	RunE:    runScholarshipsDelete,
}

var (
	scholarshipsSearch      string
	scholarshipsOutput      string
	scholarshipsInteractive bool
	scholarshipsEditor      bool
	scholarshipsYes         bool
	scholarshipPDF          string
	scholarshipFlags        scholarshipFlagValues
)

type scholarshipFlagValues struct {
	title, university, description, year string
	amount, duration, places             string
	startDate, deadline                  string
	documents, criteria                  []string
}

// scholarshipDoc is the document opened by edit --editor.
type scholarshipDoc struct {
	Title               string   `toml:"title"`
	University          string   `toml:"university"`
	Description         string   `toml:"description,multiline"`
	AnneeAcademique     string   `toml:"annee_academique"`
	Amount              string   `toml:"amount"`
	Duration            string   `toml:"duration"`
	Places              string   `toml:"places"`
	StartDate           string   `toml:"start_date"`
	Deadline            string   `toml:"deadline"`
	RequiredDocuments   []string `toml:"required_documents"`
	EligibilityCriteria []string `toml:"eligibility_criteria"`
}

const scholarshipDocHeader = `Enregistrez et quittez pour appliquer les modifications.
Critères au format "nom: valeur". Un fichier inchangé annule la modification.`

func init() {
	scholarshipsListCmd.Flags().StringVarP(&scholarshipsSearch, "search", "s", "", "Filter on title, academic year or university")
	scholarshipsListCmd.Flags().StringVarP(&scholarshipsOutput, "output", "o", outputTable, "Output format: table or json")
	scholarshipsGetCmd.Flags().StringVarP(&scholarshipsOutput, "output", "o", outputTable, "Output format: table or json")

	for _, c := range []*cobra.Command{scholarshipsAddCmd, scholarshipsEditCmd} {
		f := c.Flags()
		f.StringVar(&scholarshipFlags.title, "title", "", "Title")
		f.StringVar(&scholarshipFlags.university, "university", "", "University")
		f.StringVar(&scholarshipFlags.description, "description", "", "Description")
		f.StringVar(&scholarshipFlags.year, "year", "", "Academic year (e.g. 2025-2026)")
		f.StringVar(&scholarshipFlags.amount, "amount", "", "Amount in MAD")
		f.StringVar(&scholarshipFlags.duration, "duration", "", "Duration in months")
		f.StringVar(&scholarshipFlags.places, "places", "", "Number of places")
		f.StringVar(&scholarshipFlags.startDate, "start-date", "", "Start date")
		f.StringVar(&scholarshipFlags.deadline, "deadline", "", "Application deadline")
		f.StringArrayVar(&scholarshipFlags.documents, "document", nil, "Required document (repeatable)")
		f.StringArrayVar(&scholarshipFlags.criteria, "criterion", nil, "Eligibility criterion as name: value (repeatable)")
		f.BoolVarP(&scholarshipsInteractive, "interactive", "i", false, "Fill the form in a wizard")
	}
	scholarshipsAddCmd.Flags().StringVar(&scholarshipPDF, "pdf", "", "PDF file attached to the scholarship")
	scholarshipsEditCmd.Flags().BoolVarP(&scholarshipsEditor, "editor", "e", false, "Edit the record in $EDITOR")
	scholarshipsDeleteCmd.Flags().BoolVarP(&scholarshipsYes, "yes", "y", false, "Do not ask for confirmation")

	scholarshipsCmd.AddCommand(scholarshipsListCmd, scholarshipsGetCmd, scholarshipsAddCmd,
		scholarshipsEditCmd, scholarshipsDeleteCmd)
	rootCmd.AddCommand(scholarshipsCmd)
}

func runScholarshipsList(cmd *cobra.Command, args []string) error {
	if err := checkOutput(scholarshipsOutput); err != nil {
		return err
	}
	c, err := client()
	if err != nil {
		return err
	}

	scholarships, err := c.ListScholarships(cmd.Context())
	if err != nil {
		return upstreamError("list scholarships", audit.KindScholarships, "", err)
	}
	scholarships = model.FilterScholarships(scholarships, scholarshipsSearch)

	if scholarshipsOutput == outputJSON {
		if scholarships == nil {
			scholarships = []model.Scholarship{}
		}
		return printJSON(cmd.OutOrStdout(), scholarships)
	}

	if len(scholarships) == 0 {
		if scholarshipsSearch != "" {
			logInfo("No scholarship matches %q", scholarshipsSearch)
		} else {
			logInfo("No scholarships found. Add one with: excellia scholarships add")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITRE\tUNIVERSITÉ\tANNÉE\tMONTANT\tPLACES\tDATE LIMITE")
	fmt.Fprintln(w, "--\t-----\t----------\t-----\t-------\t------\t-----------")
	for _, s := range scholarships {
		year := s.AnneeAcademique
		if year == "" {
			year = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.Title, s.University, year, model.FormFromScholarship(s).Amount, s.Places, s.Deadline)
	}
	return w.Flush()
}

func runScholarshipsGet(cmd *cobra.Command, args []string) error {
	if err := checkOutput(scholarshipsOutput); err != nil {
		return err
	}
	c, err := client()
	if err != nil {
		return err
	}

	s, err := c.GetScholarship(cmd.Context(), args[0])
	if err != nil {
		return upstreamError("get scholarship", audit.KindScholarships, args[0], err)
	}
	if scholarshipsOutput == outputJSON {
		return printJSON(cmd.OutOrStdout(), s)
	}
	fmt.Fprint(cmd.OutOrStdout(), tui.ScholarshipDetails(*s))
	return nil
}

// overlayScholarship copies the flags that were set onto f.
func overlayScholarship(cmd *cobra.Command, f *model.ScholarshipForm) {
	flags := cmd.Flags()
	v := scholarshipFlags
	for name, pair := range map[string]struct {
		dst *string
		src string
	}{
		"title":       {&f.Title, v.title},
		"university":  {&f.University, v.university},
		"description": {&f.Description, v.description},
		"year":        {&f.AnneeAcademique, v.year},
		"amount":      {&f.Amount, v.amount},
		"duration":    {&f.Duration, v.duration},
		"places":      {&f.Places, v.places},
		"start-date":  {&f.StartDate, v.startDate},
		"deadline":    {&f.Deadline, v.deadline},
	} {
		if flags.Changed(name) {
			*pair.dst = pair.src
		}
	}
	if flags.Changed("document") {
		f.RequiredDocuments = joinLines(v.documents)
	}
	if flags.Changed("criterion") {
		f.EligibilityCriteria = joinLines(v.criteria)
	}
}

func runScholarshipsAdd(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}

	var form model.ScholarshipForm
	overlayScholarship(cmd, &form)
	pdfPath := scholarshipPDF
	if scholarshipsInteractive {
		result, err := tui.RunScholarshipWizard(nil)
		if err != nil {
			return err
		}
		if result == nil {
			logInfo("Cancelled")
			return nil
		}
		form = result.ScholarshipForm()
		pdfPath = result.PDFPath()
	}

	if _, err := form.Parse(); err != nil {
		return validationError(audit.KindScholarships, err)
	}

	var pdf *api.Attachment
	if pdfPath != "" {
		f, err := os.Open(pdfPath)
		if err != nil {
			return errors.ValidationError("cannot open PDF "+pdfPath, err)
		}
		defer f.Close()
		pdf = &api.Attachment{Filename: filepath.Base(pdfPath), Content: f}
	}

	created, err := c.CreateScholarship(cmd.Context(), form, pdf)
	if err != nil {
		record(audit.EventError, audit.KindScholarships, "", "create: "+err.Error())
		return upstreamError("create scholarship", audit.KindScholarships, "", err)
	}
	record(audit.EventCreate, audit.KindScholarships, string(created.ID), created.Title)
	logSuccess("Bourse ajoutée avec succès! (id %s)", created.ID)
	return nil
}

func runScholarshipsEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	c, err := client()
	if err != nil {
		return err
	}
	if scholarshipsEditor && scholarshipsInteractive {
		return errors.ValidationError("--editor and --interactive cannot be combined", nil)
	}

	current, err := c.GetScholarship(cmd.Context(), id)
	if err != nil {
		return upstreamError("get scholarship", audit.KindScholarships, id, err)
	}

	form := model.FormFromScholarship(*current)
	overlayScholarship(cmd, &form)
	switch {
	case scholarshipsEditor:
		if err := editScholarshipForm(cmd, &form); err != nil {
			if stderrors.Is(err, editor.ErrUnchanged) {
				logInfo("No changes")
				return nil
			}
			return errors.ValidationError("edit failed", err)
		}
	case scholarshipsInteractive:
		result, err := tui.RunScholarshipWizard(current)
		if err != nil {
			return err
		}
		if result == nil {
			logInfo("Cancelled")
			return nil
		}
		form = result.ScholarshipForm()
	}

	updated, err := form.Parse()
	if err != nil {
		return validationError(audit.KindScholarships, err)
	}
	updated.ID = current.ID

	if _, err := c.UpdateScholarship(cmd.Context(), id, updated); err != nil {
		record(audit.EventError, audit.KindScholarships, id, "update: "+err.Error())
		return upstreamError("update scholarship", audit.KindScholarships, id, err)
	}
	record(audit.EventUpdate, audit.KindScholarships, id, updated.Title)
	logSuccess("Bourse modifiée avec succès!")
	return nil
}

// editScholarshipForm round-trips form through the user's editor.
func editScholarshipForm(cmd *cobra.Command, form *model.ScholarshipForm) error {
	doc := scholarshipDoc{
		Title:               form.Title,
		University:          form.University,
		Description:         form.Description,
		AnneeAcademique:     form.AnneeAcademique,
		Amount:              form.Amount,
		Duration:            form.Duration,
		Places:              form.Places,
		StartDate:           form.StartDate,
		Deadline:            form.Deadline,
		RequiredDocuments:   model.ParseDocuments(form.RequiredDocuments),
		EligibilityCriteria: criteriaLines(form.EligibilityCriteria),
	}
	if err := editor.EditTOML(cmd.Context(), &doc, scholarshipDocHeader); err != nil {
		return err
	}

	form.Title = doc.Title
	form.University = doc.University
	form.Description = doc.Description
	form.AnneeAcademique = doc.AnneeAcademique
	form.Amount = doc.Amount
	form.Duration = doc.Duration
	form.Places = doc.Places
	form.StartDate = doc.StartDate
	form.Deadline = doc.Deadline
	form.RequiredDocuments = joinLines(doc.RequiredDocuments)
	form.EligibilityCriteria = joinLines(doc.EligibilityCriteria)
	return nil
}

func criteriaLines(text string) []string {
	criteria := model.ParseCriteria(text)
	lines := make([]string, len(criteria))
	for i, c := range criteria {
		lines[i] = c.Name + ": " + c.Value
	}
	return lines
}

func runScholarshipsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	c, err := client()
	if err != nil {
		return err
	}

	if !scholarshipsYes {
		s, err := c.GetScholarship(cmd.Context(), id)
		if err != nil {
			return upstreamError("get scholarship", audit.KindScholarships, id, err)
		}
		if !confirm(cmd, fmt.Sprintf("Êtes-vous sûr de vouloir supprimer la bourse \"%s\" ?", s.Title)) {
			logInfo("Cancelled")
			return nil
		}
	}

	if err := c.DeleteScholarship(cmd.Context(), id); err != nil {
		record(audit.EventError, audit.KindScholarships, id, "delete: "+err.Error())
		return upstreamError("delete scholarship", audit.KindScholarships, id, err)
	}
	record(audit.EventDelete, audit.KindScholarships, id, "")
	logSuccess("Bourse supprimée")
	return nil
}
