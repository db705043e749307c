package wizard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mssqlscript/mssqlscript/internal/schema"
)

// TableSelectResult is returned when the user confirms their selection.
type TableSelectResult struct {
	Selected []schema.Table
}

// Names returns the qualified names of the selected tables.
func (r *TableSelectResult) Names() []string {
	names := make([]string, len(r.Selected))
	for i, t := range r.Selected {
		names[i] = t.QualifiedName
	}
	return names
}

// SortField controls the column used for sorting.
type SortField int

const (
	SortByOrder SortField = iota
	SortByName
	SortByColumns
)

var sortLabels = [...]string{"catalog", "name", "columns"}

// tableEntry represents a table row in the selector.
type tableEntry struct {
	table    schema.Table
	order    int // position in catalog order
	selected bool
	visible  bool // false when filtered out by search
}

// TableSelectModel is the bubbletea model for interactive table selection.
type TableSelectModel struct {
	entries   []tableEntry
	cursor    int
	filter    textinput.Model
	filtering bool // true when the filter bar is active

	sortField SortField
	sortAsc   bool

	done      bool
	cancelled bool
	width     int
	height    int

	// precomputed visible indexes for fast cursor navigation
	visibleIdxs []int
}

// NewTableSelectModel creates a selector over the catalog's tables.
// preSelected optionally pre-selects tables by qualified name.
func NewTableSelectModel(tables []schema.Table, preSelected []string) TableSelectModel {
	preMap := make(map[string]bool, len(preSelected))
	for _, n := range preSelected {
		preMap[n] = true
	}

	entries := make([]tableEntry, len(tables))
	for i, t := range tables {
		entries[i] = tableEntry{
			table:    t,
			order:    i,
			selected: preMap[t.QualifiedName],
			visible:  true,
		}
	}

	filter := textinput.New()
	filter.Prompt = ""
	filter.Placeholder = "table name"
	filter.CharLimit = 128

	m := TableSelectModel{
		entries: entries,
		filter:  filter,
		sortAsc: true,
		width:   100,
		height:  24,
	}
	m.recomputeVisible()
	return m
}

func (m TableSelectModel) Init() tea.Cmd {
	return nil
}

func (m TableSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m TableSelectModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.cancelled = true
		m.done = true
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)

	case "down", "j":
		m.moveCursor(1)

	case "home":
		if len(m.visibleIdxs) > 0 {
			m.cursor = 0
		}

	case "end":
		if len(m.visibleIdxs) > 0 {
			m.cursor = len(m.visibleIdxs) - 1
		}

	case " ":
		m.toggleCurrent()

	case "a":
		m.selectAll()

	case "n":
		m.deselectAll()

	case "/":
		m.filtering = true
		m.filter.SetValue("")
		return m, m.filter.Focus()

	case "s":
		m.cycleSort()

	case "enter":
		if m.selectedCount() == 0 {
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m TableSelectModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil

	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m TableSelectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select Tables to Script") + "\n\n")

	if m.filtering {
		b.WriteString(highlightStyle.Render("  Filter: ") + m.filter.View() + "\n\n")
	} else if v := m.filter.Value(); v != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  Filter: %s (/ to change, esc in filter to clear)", v)) + "\n\n")
	}

	header := fmt.Sprintf("  %-3s %-40s %5s %4s %-14s", "", "Table", "Cols", "PK", "Identity")
	b.WriteString(dimStyle.Render(header) + "\n")
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", min(m.width-4, 72))) + "\n")

	listHeight := m.height - 12
	if listHeight < 5 {
		listHeight = 5
	}

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(m.visibleIdxs))

	if len(m.visibleIdxs) == 0 {
		b.WriteString(dimStyle.Render("  No tables match the filter\n"))
	}

	for vi := start; vi < end; vi++ {
		e := m.entries[m.visibleIdxs[vi]]

		checkbox := "[ ]"
		if e.selected {
			checkbox = selectedStyle.Render("[x]")
		}

		cursor := "  "
		nameStyle := lipgloss.NewStyle()
		if vi == m.cursor {
			cursor = highlightStyle.Render("> ")
			nameStyle = nameStyle.Bold(true)
		}

		pk := ""
		if e.table.HasPrimaryKey() {
			pk = "yes"
		}

		line := fmt.Sprintf("%s%s %-40s %5d %4s %-14s",
			cursor, checkbox, nameStyle.Render(truncate(e.table.QualifiedName, 40)),
			len(e.table.Columns), pk, identityLabel(e.table))
		b.WriteString(line + "\n")
	}

	if len(m.visibleIdxs) > listHeight {
		pct := 0
		if len(m.visibleIdxs) > 1 {
			pct = m.cursor * 100 / (len(m.visibleIdxs) - 1)
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n  Showing %d-%d of %d (%d%%)",
			start+1, end, len(m.visibleIdxs), pct)) + "\n")
	}

	b.WriteString("\n")

	selected := m.getSelected()
	cols, identity := 0, 0
	for _, t := range selected {
		cols += len(t.Columns)
		if t.HasIdentity() {
			identity++
		}
	}
	summary := fmt.Sprintf("  Selected: %d tables, %d columns", len(selected), cols)
	b.WriteString(summaryStyle.Render(summary) + "\n")
	if identity > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf(
			"  %d selected tables have identity columns; data inserts are wrapped in IDENTITY_INSERT", identity)) + "\n")
	}

	dir := "↑"
	if !m.sortAsc {
		dir = "↓"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  Sort: %s %s", sortLabels[m.sortField], dir)) + "\n")

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  space toggle • a all • n none • / filter • s sort • enter confirm • q quit") + "\n")

	return b.String()
}

// Result returns the selection in catalog order, or nil if cancelled.
func (m TableSelectModel) Result() *TableSelectResult {
	if m.cancelled {
		return nil
	}
	selected := m.getSelected()
	if len(selected) == 0 {
		return nil
	}
	return &TableSelectResult{Selected: selected}
}

// Done returns true if the model finished.
func (m TableSelectModel) Done() bool {
	return m.done
}

// Cancelled returns true if the user cancelled.
func (m TableSelectModel) Cancelled() bool {
	return m.cancelled
}

func (m *TableSelectModel) moveCursor(delta int) {
	if len(m.visibleIdxs) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.visibleIdxs) {
		m.cursor = len(m.visibleIdxs) - 1
	}
}

func (m *TableSelectModel) toggleCurrent() {
	if m.cursor < 0 || m.cursor >= len(m.visibleIdxs) {
		return
	}
	idx := m.visibleIdxs[m.cursor]
	m.entries[idx].selected = !m.entries[idx].selected
}

func (m *TableSelectModel) selectAll() {
	for _, vi := range m.visibleIdxs {
		m.entries[vi].selected = true
	}
}

func (m *TableSelectModel) deselectAll() {
	for _, vi := range m.visibleIdxs {
		m.entries[vi].selected = false
	}
}

// applyFilter matches the filter text against the qualified table name.
func (m *TableSelectModel) applyFilter() {
	lower := strings.ToLower(m.filter.Value())
	for i := range m.entries {
		m.entries[i].visible = lower == "" ||
			strings.Contains(strings.ToLower(m.entries[i].table.QualifiedName), lower)
	}
	m.recomputeVisible()
	if m.cursor >= len(m.visibleIdxs) {
		m.cursor = max(0, len(m.visibleIdxs)-1)
	}
}

func (m *TableSelectModel) recomputeVisible() {
	m.visibleIdxs = m.visibleIdxs[:0]
	for i, e := range m.entries {
		if e.visible {
			m.visibleIdxs = append(m.visibleIdxs, i)
		}
	}
}

func (m *TableSelectModel) cycleSort() {
	if m.sortAsc {
		m.sortAsc = false
	} else {
		m.sortField = (m.sortField + 1) % SortField(len(sortLabels))
		m.sortAsc = true
	}
	m.sortEntries()
	m.recomputeVisible()
	m.cursor = 0
}

func (m *TableSelectModel) sortEntries() {
	sort.SliceStable(m.entries, func(i, j int) bool {
		a, b := m.entries[i], m.entries[j]
		if !m.sortAsc {
			a, b = b, a
		}
		switch m.sortField {
		case SortByName:
			return a.table.QualifiedName < b.table.QualifiedName
		case SortByColumns:
			return len(a.table.Columns) < len(b.table.Columns)
		default:
			return a.order < b.order
		}
	})
}

func (m *TableSelectModel) selectedCount() int {
	n := 0
	for _, e := range m.entries {
		if e.selected {
			n++
		}
	}
	return n
}

// getSelected returns the selected tables in catalog order, whatever the
// current sort.
func (m *TableSelectModel) getSelected() []schema.Table {
	picked := make([]tableEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.selected {
			picked = append(picked, e)
		}
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i].order < picked[j].order })

	tables := make([]schema.Table, len(picked))
	for i, e := range picked {
		tables[i] = e.table
	}
	return tables
}

func identityLabel(t schema.Table) string {
	for _, c := range t.Columns {
		if c.HasIdentity() {
			return c.Name
		}
	}
	return ""
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
