// Package wizard holds the interactive terminal screens.
package wizard

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mssqlscript/mssqlscript/internal/schema"
)

// ErrCancelled is returned when the user quits a screen without confirming.
var ErrCancelled = errors.New("cancelled")

// RunTablePicker shows the table selector and returns the chosen tables in
// catalog order. preSelected holds qualified names.
func RunTablePicker(tables []schema.Table, preSelected []string) ([]schema.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to choose from")
	}

	m := NewTableSelectModel(tables, preSelected)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running table picker: %w", err)
	}

	tm := finalModel.(TableSelectModel)
	if tm.Cancelled() {
		return nil, ErrCancelled
	}

	result := tm.Result()
	if result == nil {
		return nil, fmt.Errorf("no tables selected")
	}
	return result.Selected, nil
}

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	summaryStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)
