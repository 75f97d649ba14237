package application

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/admin"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/tickets"
)

var staffCols = core.Columns{
	{ID: "name", Caption: "Name", Filterable: true, Sortable: true},
	{ID: "age", Caption: "Age", Kind: core.KindNumber, Sortable: true},
}

var staff = []core.Row{
	{"name": "Mary", "age": 31},
	{"name": "Mark", "age": 45},
	{"name": "Anna", "age": 22},
	{"name": "Ben", "age": 39},
	{"name": "Martha", "age": 52},
	{"name": "Carl", "age": 27},
	{"name": "Dora", "age": 33},
}

func staffSource() Source {
	return Source{
		Def: core.ViewDefinition{
			Info:    core.ViewInfo{Key: "staff", Label: "Staff", Source: core.SourceLocal, EmptyMessage: "Nobody here."},
			Columns: staffCols,
		},
		Executor: core.NewLocalExecutor(staff, staffCols, 3),
		PageSize: 3,
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

// openStaff navigates Browse -> Staff and delivers the open message.
func openStaff(t *testing.T) *Model {
	t.Helper()
	m := New(Options{Sources: []Source{staffSource()}})
	t.Cleanup(m.close)

	press(m, "enter")
	require.Equal(t, "Browse", m.menu.Title)
	cmd := press(m, "enter")
	require.NotNil(t, cmd)
	m.Update(cmd())
	require.NotNil(t, m.browser)
	return m
}

func TestMenu_Navigation(t *testing.T) {
	m := New(Options{Sources: []Source{staffSource()}})

	assert.Contains(t, m.View(), "Browse ->")
	assert.NotContains(t, m.View(), "Tickets DB", "admin menu needs tasks")

	press(m, "enter")
	assert.Contains(t, m.View(), "Staff (local)")

	press(m, "esc")
	assert.Equal(t, "gridview", m.menu.Title)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowser_Paging(t *testing.T) {
	m := openStaff(t)

	assert.Contains(t, m.View(), "Page 1 of 3")
	assert.Contains(t, m.View(), "Mary")

	press(m, "n")
	assert.Equal(t, 2, m.browser.ctl.State().Page)
	assert.Contains(t, m.View(), "Ben")
	assert.Contains(t, m.View(), "page=2")

	press(m, "G")
	assert.Equal(t, 3, m.browser.ctl.State().Page)
	press(m, "n")
	assert.Equal(t, 3, m.browser.ctl.State().Page, "paging past the end is clamped")

	press(m, "g")
	assert.Equal(t, 1, m.browser.ctl.State().Page)

	press(m, "esc")
	assert.Nil(t, m.browser)
}

func TestBrowser_FilterEditor(t *testing.T) {
	m := openStaff(t)
	press(m, "n")

	press(m, "f")
	require.NotNil(t, m.browser.editor)
	assert.Contains(t, m.View(), "Filters")

	// column: "" -> name; relation: contains -> startsWith; value: "ma"
	press(m, "right", "tab", "left", "tab", "m", "a")
	draft := m.browser.mgr.Filters().Rows()
	require.Len(t, draft, 1)
	assert.Equal(t, core.FilterRule{Column: "name", Relation: core.RelStartsWith, Value: "ma"}, draft[0])
	assert.Empty(t, m.browser.ctl.State().Filters, "drafts are not committed")

	press(m, "enter")
	assert.Nil(t, m.browser.editor)

	st := m.browser.ctl.State()
	assert.Equal(t, []core.FilterRule{{Column: "name", Relation: core.RelStartsWith, Value: "ma"}}, st.Filters)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 3, m.browser.ctl.View().TotalRecords)
	assert.Contains(t, m.View(), "Filters 1")

	press(m, "x")
	assert.Empty(t, m.browser.ctl.State().Filters)
}

func TestBrowser_SortEditorCancel(t *testing.T) {
	m := openStaff(t)

	press(m, "s", "right", "right", "tab", "right")
	draft := m.browser.mgr.Sorters().Rows()
	require.Len(t, draft, 1)
	assert.Equal(t, core.SortRule{Column: "age", Order: core.OrderDesc}, draft[0])

	press(m, "esc")
	assert.Nil(t, m.browser.editor)
	assert.Empty(t, m.browser.ctl.State().Sorters, "cancel discards the draft")

	press(m, "s", "right", "right", "tab", "right", "enter")
	assert.Equal(t, []core.SortRule{{Column: "age", Order: core.OrderDesc}}, m.browser.ctl.State().Sorters)
	assert.Contains(t, m.View(), "Martha")
}

func TestBrowser_EmptyMessage(t *testing.T) {
	m := openStaff(t)

	press(m, "f", "right", "tab", "tab", "z", "z", "z", "enter")

	assert.Equal(t, 0, m.browser.ctl.View().TotalRecords)
	assert.Contains(t, m.View(), "Nobody here.")
}

func TestStep(t *testing.T) {
	opts := []string{"", "a", "b"}

	assert.Equal(t, "a", step(opts, "", 1))
	assert.Equal(t, "b", step(opts, "", -1))
	assert.Equal(t, "", step(opts, "b", 1))
	assert.Equal(t, "a", step(opts, "missing", 1))
}

type memStore struct{ seeded int }

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Reset(context.Context) error   { return nil }
func (s *memStore) Seed(_ context.Context, list []tickets.Ticket) (int, error) {
	s.seeded += len(list)
	return len(list), nil
}

func TestMenu_AdminTasks(t *testing.T) {
	store := &memStore{}
	m := New(Options{Tasks: &admin.Tasks{Store: store}})

	press(m, "down", "enter")
	require.Equal(t, "Tickets DB", m.menu.Title)

	cmd := press(m, "down", "enter")
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Working…")

	m.Update(cmd())
	assert.Contains(t, m.View(), "Seeded 14 tickets")
	assert.Equal(t, 14, store.seeded)
}
