package manager

import (
	"strconv"

	"github.com/JonMunkholm/gridview/internal/core"
)

// PageLink is one pagination button.
type PageLink struct {
	Label   string
	Page    int
	Enabled bool
}

// Pager is the pagination control model.
type Pager struct {
	Visible    bool // false when there is at most one page
	Page       int
	TotalPages int
	First      PageLink
	Prev       PageLink
	Next       PageLink
	Last       PageLink
}

// Links returns the buttons in display order.
func (p Pager) Links() []PageLink {
	return []PageLink{p.First, p.Prev, p.Next, p.Last}
}

// Indicator returns the "Page X of Y" caption.
func (p Pager) Indicator() string {
	return "Page " + strconv.Itoa(p.Page) + " of " + strconv.Itoa(p.TotalPages)
}

// NewPager builds the controls for page of totalPages. No button targets a
// page outside [1, totalPages].
func NewPager(page, totalPages int) Pager {
	if totalPages < 1 {
		totalPages = 1
	}
	page = clamp(page, totalPages)
	atFirst, atLast := page == 1, page == totalPages
	return Pager{
		Visible:    totalPages > 1,
		Page:       page,
		TotalPages: totalPages,
		First:      PageLink{Label: "First", Page: 1, Enabled: !atFirst},
		Prev:       PageLink{Label: "Prev", Page: max(1, page-1), Enabled: !atFirst},
		Next:       PageLink{Label: "Next", Page: min(totalPages, page+1), Enabled: !atLast},
		Last:       PageLink{Label: "Last", Page: totalPages, Enabled: !atLast},
	}
}

// Pager returns the pagination controls for the current view.
func (m *Manager) Pager() Pager {
	v := m.ctl.View()
	return NewPager(v.State.Page, v.TotalPages)
}

// Table is everything a renderer needs to draw one view.
type Table struct {
	Columns      core.Columns
	Rows         []core.Row
	TotalRecords int
	Empty        bool // render EmptyMessage instead of headers, rows and pager
	EmptyMessage string
	Loading      bool
	Error        string
	Pager        Pager
	Status       Status
}

// Table returns the render model of the current view.
func (m *Manager) Table() Table {
	v := m.ctl.View()
	return Table{
		Columns:      m.ctl.Columns().Visible(),
		Rows:         v.Rows,
		TotalRecords: v.TotalRecords,
		Empty:        v.TotalRecords == 0,
		EmptyMessage: m.emptyMessage,
		Loading:      v.Loading,
		Error:        v.Err,
		Pager:        NewPager(v.State.Page, v.TotalPages),
		Status:       Status{FilterCount: len(v.State.Filters), SorterCount: len(v.State.Sorters)},
	}
}

// Cell returns the display text of one cell.
func Cell(row core.Row, col core.Column) string {
	return core.Text(row[col.ID])
}

// RowKey identifies a rendered row: its UserName, else its id, else its
// position.
func RowKey(row core.Row, index int) string {
	for _, key := range []string{"UserName", "id"} {
		if s := core.Text(row[key]); s != "" {
			return s
		}
	}
	return strconv.Itoa(index)
}
