// Package tui provides terminal user interface components for the
// excellia CLI.
//
// This package uses the Bubble Tea framework for the records picker and
// the form wizard.
//
// # Records Picker
//
// The picker lists students (grouped by surname initial) or scholarships
// (grouped by academic year) and allows selection:
//
//	result, err := tui.RunPicker(tui.NewScholarshipPicker(list))
//	switch result.Action {
//	case tui.ActionCreate:
//	    // result.Form holds the new record
//	case tui.ActionUpdate:
//	    // result.Scholarship was edited into result.Form
//	case tui.ActionDelete:
//	    // delete result.Scholarship, already confirmed
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Picker Features
//
//   - Case-insensitive substring filtering with /
//   - Keyboard navigation (j/k or arrows), headers auto-skipped
//   - Quick actions: Enter (details), e (edit), d (delete), n (new), q (quit)
//   - Deletion asks for confirmation
//   - Creation and edition through the form wizard
//
// # Form Wizard
//
// The wizard asks for one field per step and ends on a confirmation step.
// Submitting validates the values and sends the user back to the first
// invalid field with its message.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
