package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// headerItem is a non-selectable group separator in the picker list.
type headerItem struct {
	label string
}

func (h headerItem) FilterValue() string { return "" }
func (h headerItem) Title() string       { return h.label }
func (h headerItem) Description() string { return "" }

// noYear labels scholarships without an academic year.
const noYear = "Sans année"

// studentGroupKey groups students by the initial of their surname.
func studentGroupKey(s model.Student) string {
	for _, r := range strings.TrimSpace(s.Nom) {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
		break
	}
	return "#"
}

// scholarshipGroupKey groups scholarships by academic year.
func scholarshipGroupKey(s model.Scholarship) string {
	if y := strings.TrimSpace(s.AnneeAcademique); y != "" {
		return y
	}
	return noYear
}

// group is one header and the records under it.
type group struct {
	key   string
	items []list.Item
}

// buildGroupedItems orders groups by key and returns list items with
// headerItem separators.
func buildGroupedItems(groups map[string]*group) []list.Item {
	if len(groups) == 0 {
		return nil
	}

	sorted := make([]*group, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		// Years sort newest first; the catch-all groups go last.
		a, b := sorted[i].key, sorted[j].key
		if a == noYear || a == "#" {
			return false
		}
		if b == noYear || b == "#" {
			return true
		}
		if isYear(a) && isYear(b) {
			return a > b
		}
		return a < b
	})

	var items []list.Item
	for _, g := range sorted {
		items = append(items, headerItem{label: g.key})
		items = append(items, g.items...)
	}
	return items
}

func isYear(key string) bool {
	return len(key) >= 4 && unicode.IsDigit(rune(key[0]))
}

func studentItems(students []model.Student) []list.Item {
	groups := make(map[string]*group)
	for i := range students {
		s := students[i]
		key := studentGroupKey(s)
		g, ok := groups[key]
		if !ok {
			g = &group{key: key}
			groups[key] = g
		}
		g.items = append(g.items, studentItem{student: s})
	}
	for _, g := range groups {
		sort.SliceStable(g.items, func(i, j int) bool {
			a, b := g.items[i].(studentItem).student, g.items[j].(studentItem).student
			return strings.ToLower(a.Nom+" "+a.Prenom) < strings.ToLower(b.Nom+" "+b.Prenom)
		})
	}
	return buildGroupedItems(groups)
}

func scholarshipItems(list []model.Scholarship) []list.Item {
	groups := make(map[string]*group)
	for i := range list {
		s := list[i]
		key := scholarshipGroupKey(s)
		g, ok := groups[key]
		if !ok {
			g = &group{key: key}
			groups[key] = g
		}
		g.items = append(g.items, scholarshipItem{scholarship: s})
	}
	return buildGroupedItems(groups)
}

// headerStyle is the style for group header items.
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("241")).
	PaddingLeft(2)

// groupedDelegate renders both headerItem and record items in the picker list.
type groupedDelegate struct {
	inner list.DefaultDelegate
}

// newGroupedDelegate creates a groupedDelegate wrapping a configured DefaultDelegate.
func newGroupedDelegate() groupedDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	return groupedDelegate{inner: delegate}
}

func (d groupedDelegate) Height() int                             { return d.inner.Height() }
func (d groupedDelegate) Spacing() int                            { return d.inner.Spacing() }
func (d groupedDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d groupedDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if h, ok := item.(headerItem); ok {
		fmt.Fprint(w, headerStyle.Render(h.label))
		return
	}

	d.inner.Render(w, m, index, item)
}

// skipHeaders adjusts the cursor position to skip headerItem entries.
// direction should be 1 (down) or -1 (up).
func skipHeaders(l *list.Model, direction int) {
	items := l.VisibleItems()
	if len(items) == 0 {
		return
	}

	idx := l.Index()
	if idx < 0 || idx >= len(items) {
		return
	}
	if _, ok := items[idx].(headerItem); !ok {
		return
	}

	// Try to move in the given direction first
	next := idx + direction
	if next >= 0 && next < len(items) {
		if _, ok := items[next].(headerItem); !ok {
			l.Select(next)
			return
		}
	}

	// Fall back to the opposite direction
	opposite := idx - direction
	if opposite >= 0 && opposite < len(items) {
		if _, ok := items[opposite].(headerItem); !ok {
			l.Select(opposite)
			return
		}
	}

	for i := 0; i < len(items); i++ {
		candidate := (idx + i*direction + len(items)) % len(items)
		if _, ok := items[candidate].(headerItem); !ok {
			l.Select(candidate)
			return
		}
	}
}

// isHeaderSelected returns true if the currently selected item is a headerItem.
func isHeaderSelected(l *list.Model) bool {
	if item := l.SelectedItem(); item != nil {
		_, ok := item.(headerItem)
		return ok
	}
	return false
}

// navigationDirection returns 1 for down/j keys, -1 for up/k keys.
func navigationDirection(msg tea.KeyMsg) int {
	switch {
	case msg.String() == "up" || msg.String() == "k":
		return -1
	default:
		return 1
	}
}

// headerCount returns the number of headerItems in items.
func headerCount(items []list.Item) int {
	count := 0
	for _, item := range items {
		if _, ok := item.(headerItem); ok {
			count++
		}
	}
	return count
}
