// Package manager is the rule-builder contract of a table view: the filter
// and sort editors, the pagination controls and the rendered table model.
//
// A Manager never owns the committed state. It reads the controller's view
// and writes back only through Commit.
package manager

import (
	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
)

// Committer is the part of the controller a Manager drives.
type Committer interface {
	View() controller.View
	Commit(core.Patch) bool
	Columns() core.Columns
	PageSize() int
}

// Handle is the imperative surface exposed to hosts such as control badges.
type Handle interface {
	OpenFilterModal()
	OpenSortModal()
	ResetFilters()
	ResetSorters()
}

// Manager is not safe for concurrent use; hosts serialize access per view
// session.
type Manager struct {
	ctl          Committer
	emptyMessage string

	filters Editor[core.FilterRule]
	sorters Editor[core.SortRule]
}

var _ Handle = (*Manager)(nil)

// New creates a manager over ctl. An empty message falls back to
// "No data found.".
func New(ctl Committer, emptyMessage string) *Manager {
	if emptyMessage == "" {
		emptyMessage = "No data found."
	}
	return &Manager{ctl: ctl, emptyMessage: emptyMessage}
}

// Filters returns the filter editor.
func (m *Manager) Filters() *Editor[core.FilterRule] { return &m.filters }

// Sorters returns the sort editor.
func (m *Manager) Sorters() *Editor[core.SortRule] { return &m.sorters }

// OpenFilterModal seeds the filter draft from the committed filters.
func (m *Manager) OpenFilterModal() {
	m.filters.Open(m.ctl.View().State.Filters)
}

// OpenSortModal seeds the sort draft from the committed sorters.
func (m *Manager) OpenSortModal() {
	m.sorters.Open(m.ctl.View().State.Sorters)
}

// ResetFilters commits an empty filter list.
func (m *Manager) ResetFilters() {
	m.ctl.Commit(core.Patch{}.WithFilters([]core.FilterRule{}))
}

// ResetSorters commits an empty sorter list.
func (m *Manager) ResetSorters() {
	m.ctl.Commit(core.Patch{}.WithSorters([]core.SortRule{}))
}

// ApplyFilters commits the well-formed part of the draft together with
// page 1 and closes the editor. A draft of only malformed rows clears the
// filters.
func (m *Manager) ApplyFilters() bool {
	if !m.filters.IsOpen() {
		return false
	}
	rules := core.WellFormedFilters(m.filters.Rows(), m.FilterColumns())
	m.filters.Close()
	return m.ctl.Commit(core.Patch{}.WithFilters(rules).WithPage(1))
}

// ApplySorters commits the well-formed part of the sort draft together with
// page 1 and closes the editor.
func (m *Manager) ApplySorters() bool {
	if !m.sorters.IsOpen() {
		return false
	}
	rules := core.WellFormedSorters(m.sorters.Rows(), m.SortColumns())
	m.sorters.Close()
	return m.ctl.Commit(core.Patch{}.WithSorters(rules).WithPage(1))
}

// GoToPage commits page n clamped to [1, total pages].
func (m *Manager) GoToPage(n int) bool {
	v := m.ctl.View()
	return m.ctl.Commit(core.PageTo(clamp(n, v.TotalPages)))
}

// FilterColumns lists the columns offered by the filter editor.
func (m *Manager) FilterColumns() core.Columns {
	return m.ctl.Columns().Filterable()
}

// SortColumns lists the columns offered by the sort editor.
func (m *Manager) SortColumns() core.Columns {
	return m.ctl.Columns().Sortable()
}

// Status holds the counts shown on the control badges.
type Status struct {
	FilterCount int
	SorterCount int
}

// Status returns the committed rule counts.
func (m *Manager) Status() Status {
	st := m.ctl.View().State
	return Status{FilterCount: len(st.Filters), SorterCount: len(st.Sorters)}
}

func clamp(n, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return max(1, min(n, totalPages))
}
