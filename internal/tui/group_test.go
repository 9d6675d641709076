package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

func labels(items []list.Item) []string {
	var out []string
	for _, item := range items {
		switch it := item.(type) {
		case headerItem:
			out = append(out, "["+it.label+"]")
		case studentItem:
			out = append(out, it.student.Nom)
		case scholarshipItem:
			out = append(out, it.scholarship.Title)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStudentGroupKey(t *testing.T) {
	tests := []struct {
		nom  string
		want string
	}{
		{"alami", "A"},
		{"Élise", "É"},
		{"  bennani", "B"},
		{"123", "#"},
		{"", "#"},
	}

	for _, tt := range tests {
		t.Run(tt.nom, func(t *testing.T) {
			if got := studentGroupKey(model.Student{Nom: tt.nom}); got != tt.want {
				t.Errorf("studentGroupKey(%q) = %q, want %q", tt.nom, got, tt.want)
			}
		})
	}
}

func TestStudentItems_Grouped(t *testing.T) {
	items := studentItems([]model.Student{
		{ID: "1", Nom: "Bennani", Prenom: "Omar"},
		{ID: "2", Nom: "alami", Prenom: "Sara"},
		{ID: "3", Nom: "Amrani", Prenom: "Ali"},
		{ID: "4", Nom: "42", Prenom: "X"},
	})

	want := []string{"[A]", "alami", "Amrani", "[B]", "Bennani", "[#]", "42"}
	if got := labels(items); !equalStrings(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
	if got := headerCount(items); got != 3 {
		t.Errorf("headerCount = %d, want 3", got)
	}
}

func TestScholarshipItems_GroupedByYear(t *testing.T) {
	items := scholarshipItems([]model.Scholarship{
		{ID: "1", Title: "Ancienne", AnneeAcademique: "2023-2024"},
		{ID: "2", Title: "Sans", AnneeAcademique: ""},
		{ID: "3", Title: "Récente", AnneeAcademique: "2025-2026"},
	})

	want := []string{"[2025-2026]", "Récente", "[2023-2024]", "Ancienne", "[" + noYear + "]", "Sans"}
	if got := labels(items); !equalStrings(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

func TestBuildGroupedItems_Empty(t *testing.T) {
	if items := buildGroupedItems(nil); items != nil {
		t.Errorf("buildGroupedItems(nil) = %v, want nil", items)
	}
}

func TestSkipHeaders(t *testing.T) {
	items := []list.Item{
		headerItem{label: "A"},
		studentItem{student: model.Student{Nom: "Alami"}},
		headerItem{label: "B"},
		studentItem{student: model.Student{Nom: "Bennani"}},
	}
	l := list.New(items, newGroupedDelegate(), 80, 20)

	l.Select(0)
	skipHeaders(&l, 1)
	if l.Index() != 1 {
		t.Errorf("down from header: index = %d, want 1", l.Index())
	}

	l.Select(2)
	skipHeaders(&l, -1)
	if l.Index() != 1 {
		t.Errorf("up onto header: index = %d, want 1", l.Index())
	}

	l.Select(3)
	skipHeaders(&l, 1)
	if l.Index() != 3 {
		t.Errorf("non-header should stay: index = %d, want 3", l.Index())
	}
}

func TestIsHeaderSelected(t *testing.T) {
	items := []list.Item{headerItem{label: "A"}, studentItem{}}
	l := list.New(items, newGroupedDelegate(), 80, 20)
	if !isHeaderSelected(&l) {
		t.Error("index 0 should be a header")
	}
	l.Select(1)
	if isHeaderSelected(&l) {
		t.Error("index 1 should not be a header")
	}
}

func TestNavigationDirection(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, -1},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, -1},
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, 1},
	}
	for _, tt := range tests {
		if got := navigationDirection(tt.key); got != tt.want {
			t.Errorf("navigationDirection(%q) = %d, want %d", tt.key.String(), got, tt.want)
		}
	}
}
