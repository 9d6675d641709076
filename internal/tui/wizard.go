package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// Form field keys, named as on the wire.
const (
	FieldNom                 = "nom"
	FieldPrenom              = "prenom"
	FieldCNE                 = "cne"
	FieldTitle               = "title"
	FieldUniversity          = "university"
	FieldDescription         = "description"
	FieldAnneeAcademique     = "anneeAcademique"
	FieldAmount              = "amount"
	FieldDuration            = "duration"
	FieldPlaces              = "places"
	FieldStartDate           = "startDate"
	FieldDeadline            = "deadline"
	FieldRequiredDocuments   = "requiredDocuments"
	FieldEligibilityCriteria = "eligibilityCriteria"
	FieldPDF                 = "pdf"
)

// formField describes one wizard step.
type formField struct {
	key         string
	label       string
	placeholder string
	help        string
	multiline   bool
	// path enables file path completion.
	path bool
}

var studentFields = []formField{
	{key: FieldNom, label: "Nom", placeholder: "Entrez le nom de l'étudiant"},
	{key: FieldPrenom, label: "Prénom", placeholder: "Entrez le prénom de l'étudiant"},
	{key: FieldCNE, label: "CNE", placeholder: "Entrez le CNE de l'étudiant"},
}

func scholarshipFields(withPDF bool) []formField {
	fields := []formField{
		{key: FieldTitle, label: "Titre", placeholder: "Titre de la bourse"},
		{key: FieldUniversity, label: "Université", placeholder: "Université"},
		{key: FieldDescription, label: "Description", multiline: true},
		{key: FieldAnneeAcademique, label: "Année académique", placeholder: "2025-2026"},
		{key: FieldAmount, label: "Montant", placeholder: "15000"},
		{key: FieldDuration, label: "Durée (mois)", placeholder: "12"},
		{key: FieldPlaces, label: "Places", placeholder: "5"},
		{key: FieldStartDate, label: "Date de début", placeholder: "2025-09-01"},
		{key: FieldDeadline, label: "Date limite", placeholder: "2025-07-15"},
		{key: FieldRequiredDocuments, label: "Documents requis", multiline: true,
			help: "Un document par ligne."},
		{key: FieldEligibilityCriteria, label: "Critères d'éligibilité", multiline: true,
			help: "Un critère par ligne, au format nom: valeur."},
	}
	if withPDF {
		fields = append(fields, formField{key: FieldPDF, label: "Fichier PDF", placeholder: "/chemin/vers/bourse.pdf",
			help: "Optionnel. Tab pour compléter.", path: true})
	}
	return fields
}

// FormResult holds the values entered in a completed wizard.
type FormResult struct {
	Values map[string]string
}

// Student builds a student from the entered values.
func (r *FormResult) Student() model.Student {
	return StudentFromValues(r.Values)
}

// ScholarshipForm builds a scholarship form from the entered values.
func (r *FormResult) ScholarshipForm() model.ScholarshipForm {
	return ScholarshipFormFromValues(r.Values)
}

// PDFPath returns the attachment path, if one was entered.
func (r *FormResult) PDFPath() string {
	return strings.TrimSpace(r.Values[FieldPDF])
}

// StudentFromValues maps wizard values onto a student.
func StudentFromValues(v map[string]string) model.Student {
	s := model.Student{
		ID:     model.ID(v["id"]),
		Nom:    v[FieldNom],
		Prenom: v[FieldPrenom],
		CNE:    v[FieldCNE],
	}
	s.Normalize()
	return s
}

// StudentValues is the inverse of StudentFromValues.
func StudentValues(s model.Student) map[string]string {
	return map[string]string{
		"id":        string(s.ID),
		FieldNom:    s.Nom,
		FieldPrenom: s.Prenom,
		FieldCNE:    s.CNE,
	}
}

// ScholarshipFormFromValues maps wizard values onto a scholarship form.
func ScholarshipFormFromValues(v map[string]string) model.ScholarshipForm {
	f := model.ScholarshipForm{
		ID:                  model.ID(v["id"]),
		Title:               v[FieldTitle],
		University:          v[FieldUniversity],
		Description:         v[FieldDescription],
		AnneeAcademique:     v[FieldAnneeAcademique],
		Amount:              v[FieldAmount],
		Duration:            v[FieldDuration],
		Places:              v[FieldPlaces],
		StartDate:           v[FieldStartDate],
		Deadline:            v[FieldDeadline],
		RequiredDocuments:   v[FieldRequiredDocuments],
		EligibilityCriteria: v[FieldEligibilityCriteria],
		PDFLink:             v["pdfLink"],
	}
	f.Normalize()
	return f
}

// ScholarshipValues is the inverse of ScholarshipFormFromValues.
func ScholarshipValues(f model.ScholarshipForm) map[string]string {
	return map[string]string{
		"id":                     string(f.ID),
		FieldTitle:               f.Title,
		FieldUniversity:          f.University,
		FieldDescription:         f.Description,
		FieldAnneeAcademique:     f.AnneeAcademique,
		FieldAmount:              f.Amount,
		FieldDuration:            f.Duration,
		FieldPlaces:              f.Places,
		FieldStartDate:           f.StartDate,
		FieldDeadline:            f.Deadline,
		FieldRequiredDocuments:   f.RequiredDocuments,
		FieldEligibilityCriteria: f.EligibilityCriteria,
		"pdfLink":                f.PDFLink,
	}
}

func validateStudent(v map[string]string) error {
	return StudentFromValues(v).Validate()
}

func validateScholarship(v map[string]string) error {
	_, err := ScholarshipFormFromValues(v).Parse()
	return err
}

// wizardModel drives a multi-step record form, one field per step
// followed by a confirmation step.
type wizardModel struct {
	title    string
	fields   []formField
	inputs   []textinput.Model
	areas    []textarea.Model
	step     int
	hidden   map[string]string
	errors   map[string]string
	validate func(map[string]string) error

	width  int
	height int
}

// wizardStyles
var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	wizardStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardActiveStepStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	wizardLabelStyle = lipgloss.NewStyle().
				Bold(true).
				MarginBottom(1)

	wizardValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	wizardDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

func newWizardModel(title string, fields []formField, values map[string]string, validate func(map[string]string) error) wizardModel {
	w := wizardModel{
		title:    title,
		fields:   fields,
		inputs:   make([]textinput.Model, len(fields)),
		areas:    make([]textarea.Model, len(fields)),
		hidden:   make(map[string]string),
		errors:   make(map[string]string),
		validate: validate,
	}

	known := make(map[string]bool, len(fields))
	for i, f := range fields {
		known[f.key] = true
		if f.multiline {
			ta := textarea.New()
			ta.Placeholder = f.placeholder
			ta.ShowLineNumbers = false
			ta.SetWidth(60)
			ta.SetHeight(6)
			ta.SetValue(values[f.key])
			w.areas[i] = ta
			continue
		}
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.CharLimit = 256
		ti.Width = 60
		ti.ShowSuggestions = f.path
		ti.SetValue(values[f.key])
		w.inputs[i] = ti
	}
	for k, v := range values {
		if !known[k] {
			w.hidden[k] = v
		}
	}

	w.focus()
	return w
}

func newStudentWizard(s *model.Student) wizardModel {
	title := "Ajouter un étudiant"
	values := map[string]string{}
	if s != nil {
		title = "Modifier l'étudiant"
		values = StudentValues(*s)
	}
	return newWizardModel(title, studentFields, values, validateStudent)
}

func newScholarshipWizard(s *model.Scholarship) wizardModel {
	if s != nil {
		values := ScholarshipValues(model.FormFromScholarship(*s))
		return newWizardModel("Modifier la bourse", scholarshipFields(false), values, validateScholarship)
	}
	return newWizardModel("Ajouter une bourse", scholarshipFields(true), map[string]string{}, validateScholarship)
}

func (w *wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (w *wizardModel) onConfirm() bool {
	return w.step >= len(w.fields)
}

func (w *wizardModel) focus() tea.Cmd {
	for i := range w.fields {
		if w.fields[i].multiline {
			w.areas[i].Blur()
		} else {
			w.inputs[i].Blur()
		}
	}
	if w.onConfirm() {
		return nil
	}
	if w.fields[w.step].multiline {
		return w.areas[w.step].Focus()
	}
	w.inputs[w.step].Focus()
	return textinput.Blink
}

func (w *wizardModel) value(i int) string {
	if w.fields[i].multiline {
		return w.areas[i].Value()
	}
	return w.inputs[i].Value()
}

// Values returns the hidden values overlaid with every field.
func (w *wizardModel) Values() map[string]string {
	out := make(map[string]string, len(w.hidden)+len(w.fields))
	for k, v := range w.hidden {
		out[k] = v
	}
	for i, f := range w.fields {
		out[f.key] = w.value(i)
	}
	return out
}

// Update processes a message and returns (done, result, cmd).
// done=true with a non-nil result means the form was submitted.
// done=true with a nil result means the wizard was cancelled.
func (w *wizardModel) Update(msg tea.Msg) (bool, *FormResult, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		return false, nil, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return true, nil, nil
		case tea.KeyEsc:
			return w.handleBack()
		case tea.KeyShiftTab:
			if w.step > 0 {
				w.step--
				return false, nil, w.focus()
			}
			return false, nil, nil
		}
	}

	if w.onConfirm() {
		return w.updateConfirm(msg)
	}
	return w.updateField(msg)
}

func (w *wizardModel) handleBack() (bool, *FormResult, tea.Cmd) {
	if w.step == 0 {
		// Esc at first step cancels wizard
		return true, nil, nil
	}
	w.step--
	return false, nil, w.focus()
}

func (w *wizardModel) next() tea.Cmd {
	w.step++
	return w.focus()
}

func (w *wizardModel) updateField(msg tea.Msg) (bool, *FormResult, tea.Cmd) {
	f := w.fields[w.step]

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.Type == tea.KeyCtrlN:
			return false, nil, w.next()
		case keyMsg.Type == tea.KeyTab && f.multiline:
			return false, nil, w.next()
		case keyMsg.Type == tea.KeyTab && !f.path:
			return false, nil, w.next()
		case keyMsg.Type == tea.KeyEnter && !f.multiline:
			return false, nil, w.next()
		}
	}

	var cmd tea.Cmd
	if f.multiline {
		w.areas[w.step], cmd = w.areas[w.step].Update(msg)
		return false, nil, cmd
	}
	w.inputs[w.step], cmd = w.inputs[w.step].Update(msg)
	if f.path {
		w.updatePathSuggestions(&w.inputs[w.step])
	}
	return false, nil, cmd
}

func (w *wizardModel) updateConfirm(msg tea.Msg) (bool, *FormResult, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil, nil
	}
	switch keyMsg.String() {
	case "enter", "y":
		values := w.Values()
		if !w.check(values) {
			w.step = w.firstInvalid()
			return false, nil, w.focus()
		}
		return true, &FormResult{Values: values}, nil
	case "n":
		// Restart at the first field, keeping what was typed
		w.step = 0
		return false, nil, w.focus()
	}
	return false, nil, nil
}

// check validates values and records one message per invalid field.
func (w *wizardModel) check(values map[string]string) bool {
	w.errors = make(map[string]string)
	if w.validate == nil {
		return true
	}
	err := w.validate(values)
	if err == nil {
		return true
	}
	for _, fe := range model.FieldErrors(err) {
		if _, seen := w.errors[fe.Field]; !seen {
			w.errors[fe.Field] = fe.Message
		}
	}
	if len(w.errors) == 0 {
		w.errors[""] = err.Error()
	}
	return false
}

func (w *wizardModel) firstInvalid() int {
	for i, f := range w.fields {
		if _, ok := w.errors[f.key]; ok {
			return i
		}
	}
	return len(w.fields)
}

func (w *wizardModel) View() string {
	var b strings.Builder

	b.WriteString(wizardTitleStyle.Render(w.title))
	b.WriteString("\n")
	b.WriteString(w.progressBar())
	b.WriteString("\n\n")

	if !w.onConfirm() {
		f := w.fields[w.step]
		b.WriteString(wizardLabelStyle.Render(f.label + " :"))
		b.WriteString("\n")
		if f.multiline {
			b.WriteString(w.areas[w.step].View())
		} else {
			b.WriteString(w.inputs[w.step].View())
		}
		b.WriteString("\n")
		if msg, ok := w.errors[f.key]; ok {
			b.WriteString(wizardErrorStyle.Render(msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if f.help != "" {
			b.WriteString(wizardDimStyle.Render(f.help))
			b.WriteString("\n")
		}
		hint := "Enter to continue, Esc to go back."
		if f.multiline {
			hint = "Tab to continue, Esc to go back."
		}
		b.WriteString(wizardDimStyle.Render(hint))
		return b.String()
	}

	b.WriteString(wizardLabelStyle.Render("Confirmer :"))
	b.WriteString("\n\n")
	width := 0
	for _, f := range w.fields {
		if len([]rune(f.label)) > width {
			width = len([]rune(f.label))
		}
	}
	for i, f := range w.fields {
		val := strings.TrimSpace(w.value(i))
		if f.multiline {
			val = strings.ReplaceAll(val, "\n", " | ")
		}
		if val == "" {
			val = wizardDimStyle.Render("(vide)")
		} else {
			val = wizardValueStyle.Render(val)
		}
		pad := strings.Repeat(" ", width-len([]rune(f.label)))
		b.WriteString(fmt.Sprintf("  %s:%s %s\n", f.label, pad, val))
	}
	if msg, ok := w.errors[""]; ok {
		b.WriteString("\n" + wizardErrorStyle.Render(msg) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(wizardDimStyle.Render("Enter to save, n to restart, Esc to go back."))

	return b.String()
}

func (w *wizardModel) progressBar() string {
	current := w.step + 1
	total := len(w.fields) + 1
	label := fmt.Sprintf("%d/%d", current, total)
	if w.onConfirm() {
		return wizardActiveStepStyle.Render(label) + wizardDimStyle.Render(" > ") + wizardActiveStepStyle.Render("Confirmation")
	}
	return wizardStepStyle.Render(label) + wizardDimStyle.Render(" > ") + wizardActiveStepStyle.Render(w.fields[w.step].label)
}

func (w *wizardModel) updatePathSuggestions(input *textinput.Model) {
	val := input.Value()
	if val == "" {
		input.SetSuggestions(nil)
		return
	}

	// Expand ~ to home directory
	expanded := val
	if strings.HasPrefix(val, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = home + val[1:]
		}
	}

	dir := expanded
	prefix := ""

	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		dir = filepath.Dir(expanded)
		prefix = filepath.Base(expanded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		input.SetSuggestions(nil)
		return
	}

	var suggestions []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !entry.IsDir() && !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		full := filepath.Join(dir, name)
		// Convert back to use ~ if original used ~
		if strings.HasPrefix(val, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				full = "~" + strings.TrimPrefix(full, home)
			}
		}
		suggestions = append(suggestions, full)
	}

	input.SetSuggestions(suggestions)
}

// wizardProgram runs a wizard on its own as a tea.Model.
type wizardProgram struct {
	wizard *wizardModel
	result *FormResult
	done   bool
}

func (p wizardProgram) Init() tea.Cmd { return p.wizard.Init() }

func (p wizardProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	done, result, cmd := p.wizard.Update(msg)
	if done {
		p.done = true
		p.result = result
		return p, tea.Quit
	}
	return p, cmd
}

func (p wizardProgram) View() string {
	if p.done {
		return ""
	}
	return p.wizard.View()
}

func runWizard(w wizardModel) (*FormResult, error) {
	finalModel, err := tea.NewProgram(wizardProgram{wizard: &w}).Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(wizardProgram).result, nil
}

// RunStudentWizard prompts for a student, prefilled from s when editing.
// A nil result means the user cancelled.
func RunStudentWizard(s *model.Student) (*FormResult, error) {
	return runWizard(newStudentWizard(s))
}

// RunScholarshipWizard prompts for a scholarship, prefilled from s when
// editing. New scholarships also ask for an optional PDF path.
func RunScholarshipWizard(s *model.Scholarship) (*FormResult, error) {
	return runWizard(newScholarshipWizard(s))
}
