package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/audit"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action      Action
	Student     *model.Student
	Scholarship *model.Scholarship
	// Form is set for ActionCreate and ActionUpdate.
	Form *FormResult
}

// RecordID returns the id of the selected record, if any.
func (r PickerResult) RecordID() string {
	switch {
	case r.Student != nil:
		return string(r.Student.ID)
	case r.Scholarship != nil:
		return string(r.Scholarship.ID)
	}
	return ""
}

// studentItem implements list.Item for student display
type studentItem struct {
	student model.Student
}

func (i studentItem) Title() string {
	return i.student.Nom + " " + i.student.Prenom
}

func (i studentItem) Description() string {
	return fmt.Sprintf("CNE %s | #%s", i.student.CNE, i.student.ID)
}

func (i studentItem) FilterValue() string {
	return strings.Join([]string{i.student.Nom, i.student.Prenom, i.student.CNE}, " ")
}

// scholarshipItem implements list.Item for scholarship display
type scholarshipItem struct {
	scholarship model.Scholarship
}

func (i scholarshipItem) Title() string {
	return i.scholarship.Title
}

func (i scholarshipItem) Description() string {
	s := i.scholarship
	return fmt.Sprintf("%s | %s MAD | %d places | limite %s",
		truncate(s.University, 30), formatAmount(s.Amount), s.Places, s.Deadline)
}

func (i scholarshipItem) FilterValue() string {
	s := i.scholarship
	return strings.Join([]string{s.Title, s.AnneeAcademique, s.University}, " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatAmount(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// substringFilter ranks items whose filter value contains term, ignoring
// case, in list order.
func substringFilter(term string, targets []string) []list.Rank {
	needle := strings.ToLower(term)
	var ranks []list.Rank
	for i, target := range targets {
		lower := strings.ToLower(target)
		idx := strings.Index(lower, needle)
		if idx < 0 {
			continue
		}
		start := len([]rune(lower[:idx]))
		matched := make([]int, 0, len([]rune(needle)))
		for j := range []rune(needle) {
			matched = append(matched, start+j)
		}
		ranks = append(ranks, list.Rank{Index: i, MatchedIndexes: matched})
	}
	return ranks
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

type pickerMode int

const (
	modeList pickerMode = iota
	modeDetails
	modeConfirmDelete
	modeWizard
)

// Model is the bubbletea model for the records picker
type Model struct {
	kind     audit.Kind
	list     list.Model
	mode     pickerMode
	wizard   *wizardModel
	editing  list.Item
	result   PickerResult
	quitting bool
	width    int
	height   int
}

func newPicker(kind audit.Kind, title string, items []list.Item) Model {
	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Filter = substringFilter
	l.Styles.Title = titleStyle
	l.SetStatusBarItemName("élément", "éléments")

	m := Model{kind: kind, list: l}
	skipHeaders(&m.list, 1)
	return m
}

// NewStudentPicker creates a picker over students
func NewStudentPicker(students []model.Student) Model {
	return newPicker(audit.KindStudents, "Excellia - Étudiants", studentItems(students))
}

// NewScholarshipPicker creates a picker over scholarships
func NewScholarshipPicker(scholarships []model.Scholarship) Model {
	return newPicker(audit.KindScholarships, "Excellia - Bourses", scholarshipItems(scholarships))
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.list.SetSize(size.Width, size.Height-4)
		if m.wizard != nil {
			m.wizard.Update(size)
		}
		return m, nil
	}

	switch m.mode {
	case modeWizard:
		return m.updateWizard(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	case modeDetails:
		return m.updateDetails(msg)
	}
	return m.updateList(msg)
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	// Don't handle keys if filtering
	if ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "enter":
			if m.selected() != nil {
				m.mode = modeDetails
			}
			return m, nil

		case "e":
			return m.startEdit()

		case "d":
			if m.selected() != nil {
				m.mode = modeConfirmDelete
			}
			return m, nil

		case "n":
			return m.startWizard(nil)

		case "q":
			return m.quit(PickerResult{Action: ActionQuit})

		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			return m.quit(PickerResult{Action: ActionQuit})
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if ok && isHeaderSelected(&m.list) {
		skipHeaders(&m.list, navigationDirection(keyMsg))
	}
	return m, cmd
}

func (m Model) updateDetails(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "e":
		return m.startEdit()
	case "d":
		m.mode = modeConfirmDelete
	case "q", "ctrl+c":
		return m.quit(PickerResult{Action: ActionQuit})
	case "esc", "enter", "backspace":
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y", "o", "O":
		result := m.selectionResult()
		result.Action = ActionDelete
		return m.quit(result)
	default:
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	done, form, cmd := m.wizard.Update(msg)
	if !done {
		return m, cmd
	}
	if form == nil {
		m.wizard = nil
		m.editing = nil
		m.mode = modeList
		return m, nil
	}

	result := PickerResult{Action: ActionCreate, Form: form}
	if m.editing != nil {
		result = m.resultFor(m.editing)
		result.Action = ActionUpdate
		result.Form = form
	}
	return m.quit(result)
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	item := m.selected()
	if item == nil {
		return m, nil
	}
	m.editing = item
	return m.startWizard(item)
}

func (m Model) startWizard(item list.Item) (tea.Model, tea.Cmd) {
	var w wizardModel
	switch it := item.(type) {
	case studentItem:
		w = newStudentWizard(&it.student)
	case scholarshipItem:
		w = newScholarshipWizard(&it.scholarship)
	default:
		if m.kind == audit.KindScholarships {
			w = newScholarshipWizard(nil)
		} else {
			w = newStudentWizard(nil)
		}
	}
	w.width, w.height = m.width, m.height
	m.wizard = &w
	m.mode = modeWizard
	return m, w.Init()
}

func (m Model) quit(result PickerResult) (tea.Model, tea.Cmd) {
	m.result = result
	m.quitting = true
	return m, tea.Quit
}

// selected returns the highlighted record item, never a header.
func (m Model) selected() list.Item {
	switch item := m.list.SelectedItem().(type) {
	case studentItem, scholarshipItem:
		return item
	}
	return nil
}

func (m Model) selectionResult() PickerResult {
	return m.resultFor(m.selected())
}

func (m Model) resultFor(item list.Item) PickerResult {
	switch it := item.(type) {
	case studentItem:
		s := it.student
		return PickerResult{Student: &s}
	case scholarshipItem:
		s := it.scholarship
		return PickerResult{Scholarship: &s}
	}
	return PickerResult{}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.mode {
	case modeWizard:
		return m.wizard.View()
	case modeDetails:
		return m.detailsView() + "\n" + helpStyle.Render("[e] Modifier  [d] Supprimer  [esc] Retour  [q] Quitter")
	case modeConfirmDelete:
		return m.detailsView() + "\n" + warnStyle.Render(m.confirmPrompt())
	}

	help := helpStyle.Render("[enter] Détails  [e] Modifier  [d] Supprimer  [n] Ajouter  [/] Filtrer  [q] Quitter")
	return m.list.View() + "\n" + help
}

func (m Model) confirmPrompt() string {
	switch it := m.selected().(type) {
	case studentItem:
		return fmt.Sprintf("Supprimer l'étudiant %s %s ? [o/N]", it.student.Prenom, it.student.Nom)
	case scholarshipItem:
		return fmt.Sprintf("Supprimer la bourse %q ? [o/N]", it.scholarship.Title)
	}
	return ""
}

func (m Model) detailsView() string {
	var b strings.Builder
	switch it := m.selected().(type) {
	case studentItem:
		b.WriteString(titleStyle.Render(it.Title()))
		b.WriteString("\n")
		b.WriteString(StudentDetails(it.student))
	case scholarshipItem:
		b.WriteString(titleStyle.Render(it.Title()))
		b.WriteString("\n")
		b.WriteString(ScholarshipDetails(it.scholarship))
	}
	return b.String()
}

// StudentDetails renders one student as labelled lines.
func StudentDetails(s model.Student) string {
	return detailLines([][2]string{
		{"ID", string(s.ID)},
		{"Nom", s.Nom},
		{"Prénom", s.Prenom},
		{"CNE", s.CNE},
	})
}

// ScholarshipDetails renders one scholarship as labelled lines.
func ScholarshipDetails(s model.Scholarship) string {
	var b strings.Builder
	b.WriteString(detailLines([][2]string{
		{"ID", string(s.ID)},
		{"Titre", s.Title},
		{"Université", s.University},
		{"Année académique", s.AnneeAcademique},
		{"Montant", formatAmount(s.Amount) + " MAD"},
		{"Durée", fmt.Sprintf("%d mois", s.Duration)},
		{"Places", fmt.Sprint(s.Places)},
		{"Début", s.StartDate},
		{"Date limite", s.Deadline},
		{"PDF", s.PDFLink},
	}))
	if s.Description != "" {
		b.WriteString("\nDescription\n")
		for _, line := range strings.Split(s.Description, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	if len(s.EligibilityCriteria) > 0 {
		b.WriteString("\nCritères d'éligibilité\n")
		for _, c := range s.EligibilityCriteria {
			b.WriteString("  • " + c.Name + ": " + c.Value + "\n")
		}
	}
	if len(s.RequiredDocuments) > 0 {
		b.WriteString("\nDocuments requis\n")
		for _, d := range s.RequiredDocuments {
			b.WriteString("  • " + d + "\n")
		}
	}
	return b.String()
}

func detailLines(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if n := len([]rune(r[0])); n > width {
			width = n
		}
	}
	var b strings.Builder
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		pad := strings.Repeat(" ", width-len([]rune(r[0])))
		b.WriteString(fmt.Sprintf("  %s:%s %s\n", r[0], pad, r[1]))
	}
	return b.String()
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// Len returns the number of records, headers excluded.
func (m Model) Len() int {
	items := m.list.Items()
	return len(items) - headerCount(items)
}

// RunPicker runs the interactive records picker
func RunPicker(m Model) (PickerResult, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimpleStudentList is a non-interactive rendering of students
func SimpleStudentList(students []model.Student) string {
	var sb strings.Builder

	sb.WriteString("Excellia - Étudiants\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(students) == 0 {
		sb.WriteString("Aucun étudiant trouvé.\n")
		sb.WriteString("Ajoutez-en un avec: excellia students add --nom ... --prenom ... --cne ...\n")
		return sb.String()
	}

	for i, s := range students {
		sb.WriteString(fmt.Sprintf("%d. %s %s (CNE %s)\n", i+1, s.Nom, s.Prenom, s.CNE))
	}
	return sb.String()
}

// SimpleScholarshipList is a non-interactive rendering of scholarships
func SimpleScholarshipList(scholarships []model.Scholarship) string {
	var sb strings.Builder

	sb.WriteString("Excellia - Bourses\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(scholarships) == 0 {
		sb.WriteString("Aucune bourse trouvée.\n")
		sb.WriteString("Ajoutez-en une avec: excellia scholarships add\n")
		return sb.String()
	}

	for i, s := range scholarships {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, s.Title, scholarshipGroupKey(s)))
		sb.WriteString(fmt.Sprintf("   %s | %s MAD | %d places\n\n",
			truncate(s.University, 40), formatAmount(s.Amount), s.Places))
	}
	return sb.String()
}
