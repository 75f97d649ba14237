package manager

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = core.Columns{
	{ID: "id", Caption: "ID", Kind: core.KindNumber, Sortable: true},
	{ID: "status", Caption: "Status", Filterable: true, Sortable: true},
	{ID: "note", Caption: "Note", Filterable: true, Sortable: true, Hidden: true},
}

func rows(n int) []core.Row {
	out := make([]core.Row, n)
	for i := range out {
		status := "Open"
		if i%2 == 1 {
			status = "Closed"
		}
		out[i] = core.Row{"id": i + 1, "status": status, "note": fmt.Sprint("n", i)}
	}
	return out
}

func newManager(t *testing.T, n int) (*Manager, *controller.Controller) {
	t.Helper()
	ctl := controller.New(controller.Options{
		Key:      "manager-test",
		Executor: core.NewLocalExecutor(rows(n), columns, 8),
		Columns:  columns,
		PageSize: 8,
		Initial:  core.DefaultState(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(ctl.Close)
	return New(ctl, "No tickets found."), ctl
}

// =============================================================================
// Editors
// =============================================================================

func TestOpenFilterModal_SeedsBlankRow(t *testing.T) {
	m, _ := newManager(t, 3)

	m.OpenFilterModal()

	require.True(t, m.Filters().IsOpen())
	assert.Equal(t, []core.FilterRule{{}}, m.Filters().Rows())
}

func TestOpenFilterModal_SeedsCommittedRules(t *testing.T) {
	m, ctl := newManager(t, 3)
	committed := []core.FilterRule{{Column: "status", Relation: core.RelEquals, Value: "open"}}
	ctl.Commit(core.Patch{}.WithFilters(committed))

	m.OpenFilterModal()

	assert.Equal(t, committed, m.Filters().Rows())
}

func TestEditingDraftDoesNotCommit(t *testing.T) {
	m, ctl := newManager(t, 20)

	m.OpenFilterModal()
	m.Filters().Set(0, core.FilterRule{Column: "status", Relation: core.RelEquals, Value: "open"})
	m.Filters().Add()

	assert.Empty(t, ctl.State().Filters)
	assert.Equal(t, 20, ctl.View().TotalRecords)
}

func TestCloseDiscardsDraft(t *testing.T) {
	m, ctl := newManager(t, 20)

	m.OpenSortModal()
	m.Sorters().Set(0, core.SortRule{Column: "id", Order: core.OrderDesc})
	m.Sorters().Close()

	assert.False(t, m.Sorters().IsOpen())
	assert.Empty(t, ctl.State().Sorters)
	assert.False(t, m.ApplySorters())
}

func TestRemoveLastRowLeavesEmptyDraft(t *testing.T) {
	m, _ := newManager(t, 3)

	m.OpenFilterModal()
	require.True(t, m.Filters().Remove(0))

	assert.Empty(t, m.Filters().Rows())
	assert.True(t, m.Filters().IsOpen())
	assert.False(t, m.Filters().Remove(0))
}

func TestRemoveByPosition(t *testing.T) {
	var e Editor[core.SortRule]
	e.Open([]core.SortRule{{Column: "a"}, {Column: "b"}, {Column: "c"}})

	e.Remove(1)

	assert.Equal(t, []core.SortRule{{Column: "a"}, {Column: "c"}}, e.Rows())
}

func TestResetRestoresOneBlankRow(t *testing.T) {
	m, ctl := newManager(t, 3)
	ctl.Commit(core.Patch{}.WithSorters([]core.SortRule{{Column: "id", Order: core.OrderDesc}}))

	m.OpenSortModal()
	m.Sorters().Reset()

	assert.Equal(t, []core.SortRule{{}}, m.Sorters().Rows())
	assert.Len(t, ctl.State().Sorters, 1)
}

func TestEditor_ClosedIgnoresEdits(t *testing.T) {
	var e Editor[core.FilterRule]

	e.Add()
	e.Reset()
	e.Replace([]core.FilterRule{{Column: "x"}})

	assert.False(t, e.Set(0, core.FilterRule{}))
	assert.Zero(t, e.Len())
}

// =============================================================================
// Apply
// =============================================================================

func TestApplyFilters_CommitsWellFormedAndResetsPage(t *testing.T) {
	m, ctl := newManager(t, 20)
	ctl.Commit(core.PageTo(2))

	m.OpenFilterModal()
	m.Filters().Replace([]core.FilterRule{
		{Column: "status", Value: "open"},
		{Column: "", Value: "x"},
		{Column: "status", Relation: core.RelEquals},
		{Column: "id", Relation: core.RelEquals, Value: "1"},
	})
	require.True(t, m.ApplyFilters())

	st := ctl.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, []core.FilterRule{{Column: "status", Relation: core.RelContains, Value: "open"}}, st.Filters)
	assert.False(t, m.Filters().IsOpen())
	assert.Equal(t, 10, ctl.View().TotalRecords)
}

func TestApplyFilters_OnlyMalformedClears(t *testing.T) {
	m, ctl := newManager(t, 20)
	ctl.Commit(core.Patch{}.WithFilters([]core.FilterRule{{Column: "status", Value: "open"}}))

	m.OpenFilterModal()
	m.Filters().Reset()
	m.ApplyFilters()

	assert.Empty(t, ctl.State().Filters)
	assert.Equal(t, 20, ctl.View().TotalRecords)
}

func TestApplySorters_DefaultsOrder(t *testing.T) {
	m, ctl := newManager(t, 5)

	m.OpenSortModal()
	m.Sorters().Replace([]core.SortRule{{Column: "status"}, {Column: "id", Order: core.OrderDesc}, {}})
	m.ApplySorters()

	assert.Equal(t, []core.SortRule{
		{Column: "status", Order: core.OrderAsc},
		{Column: "id", Order: core.OrderDesc},
	}, ctl.State().Sorters)

	got := ctl.View().Rows
	require.Len(t, got, 5)
	assert.Equal(t, 4, got[0]["id"])
	assert.Equal(t, 2, got[1]["id"])
}

func TestApplyIgnoresHiddenColumns(t *testing.T) {
	m, ctl := newManager(t, 5)

	m.OpenSortModal()
	m.Sorters().Replace([]core.SortRule{{Column: "note", Order: core.OrderDesc}})
	m.ApplySorters()

	assert.Empty(t, ctl.State().Sorters)
}

func TestResetHandles(t *testing.T) {
	m, ctl := newManager(t, 5)
	ctl.Commit(core.Patch{}.
		WithFilters([]core.FilterRule{{Column: "status", Value: "o"}}).
		WithSorters([]core.SortRule{{Column: "id"}}))

	assert.Equal(t, Status{FilterCount: 1, SorterCount: 1}, m.Status())

	m.ResetFilters()
	assert.Equal(t, Status{FilterCount: 0, SorterCount: 1}, m.Status())

	m.ResetSorters()
	assert.Equal(t, Status{}, m.Status())
}

// =============================================================================
// Pagination and table model
// =============================================================================

func TestGoToPage_Clamped(t *testing.T) {
	m, ctl := newManager(t, 20)

	m.GoToPage(99)
	assert.Equal(t, 3, ctl.State().Page)

	m.GoToPage(-4)
	assert.Equal(t, 1, ctl.State().Page)
}

func TestNewPager(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		total      int
		visible    bool
		firstOn    bool
		lastOn     bool
		prev, next int
	}{
		{"single page hidden", 1, 1, false, false, false, 1, 1},
		{"no pages hidden", 1, 0, false, false, false, 1, 1},
		{"first page", 1, 3, true, false, true, 1, 2},
		{"middle page", 2, 3, true, true, true, 1, 3},
		{"last page", 3, 3, true, true, false, 2, 3},
		{"out of range clamped", 9, 3, true, true, false, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(tt.page, tt.total)
			assert.Equal(t, tt.visible, p.Visible)
			assert.Equal(t, tt.firstOn, p.First.Enabled)
			assert.Equal(t, tt.firstOn, p.Prev.Enabled)
			assert.Equal(t, tt.lastOn, p.Next.Enabled)
			assert.Equal(t, tt.lastOn, p.Last.Enabled)
			assert.Equal(t, tt.prev, p.Prev.Page)
			assert.Equal(t, tt.next, p.Next.Page)
			for _, l := range p.Links() {
				assert.GreaterOrEqual(t, l.Page, 1)
				assert.LessOrEqual(t, l.Page, max(1, tt.total))
			}
		})
	}
}

func TestPager_Indicator(t *testing.T) {
	assert.Equal(t, "Page 2 of 5", NewPager(2, 5).Indicator())
}

func TestTable_VisibleColumnsAndRows(t *testing.T) {
	m, _ := newManager(t, 20)

	tbl := m.Table()

	assert.False(t, tbl.Empty)
	assert.Equal(t, []string{"id", "status"}, []string{tbl.Columns[0].ID, tbl.Columns[1].ID})
	assert.Len(t, tbl.Columns, 2)
	assert.Len(t, tbl.Rows, 8)
	assert.Equal(t, 20, tbl.TotalRecords)
	assert.True(t, tbl.Pager.Visible)
}

func TestTable_EmptyState(t *testing.T) {
	m, ctl := newManager(t, 20)
	ctl.Commit(core.Patch{}.WithFilters([]core.FilterRule{{Column: "status", Relation: core.RelEquals, Value: "nothing"}}))

	tbl := m.Table()

	assert.True(t, tbl.Empty)
	assert.Equal(t, "No tickets found.", tbl.EmptyMessage)
	assert.False(t, tbl.Pager.Visible)
}

func TestFilterAndSortColumns(t *testing.T) {
	m, _ := newManager(t, 1)

	assert.Len(t, m.FilterColumns(), 1)
	assert.Equal(t, "status", m.FilterColumns()[0].ID)
	assert.Len(t, m.SortColumns(), 2)
}

func TestRowKey(t *testing.T) {
	assert.Equal(t, "russellwhyte", RowKey(core.Row{"UserName": "russellwhyte", "id": 3}, 0))
	assert.Equal(t, "3", RowKey(core.Row{"id": 3}, 0))
	assert.Equal(t, "7", RowKey(core.Row{}, 7))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "12", Cell(core.Row{"id": 12}, core.Column{ID: "id"}))
	assert.Equal(t, "", Cell(core.Row{}, core.Column{ID: "id"}))
}
