package application

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/manager"
	"github.com/JonMunkholm/gridview/internal/urlstate"
)

// chromeLines is the height taken by the title, badges, pager and help.
const chromeLines = 8

// browser is the open view: a controller, its rule-builder manager and the
// rendered table.
type browser struct {
	src    Source
	ctl    *controller.Controller
	mgr    *manager.Manager
	table  table.Model
	editor *rulePane
}

func newBrowser(src Source, timeout time.Duration, logger *slog.Logger, width, height int) *browser {
	ctl := controller.New(controller.Options{
		Key:          src.Def.Info.Key,
		Source:       src.Def.Info.Source,
		Executor:     src.Executor,
		Columns:      src.Def.Columns,
		PageSize:     src.PageSize,
		Initial:      core.DefaultState(),
		FetchTimeout: timeout,
		Logger:       logger,
	})
	b := &browser{
		src: src,
		ctl: ctl,
		mgr: manager.New(ctl, src.Def.Info.EmptyMessage),
	}

	styles := table.DefaultStyles()
	styles.Selected = selectedStyle
	b.table = table.New(
		table.WithColumns(tableColumns(ctl.Columns().Visible(), width)),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	b.resize(width, height)
	b.sync()
	return b
}

// wait returns a command that fires at the next controller change.
func (b *browser) wait() tea.Cmd {
	ch, ctl := b.ctl.Changed(), b.ctl
	return func() tea.Msg {
		<-ch
		return viewChangedMsg{ctl: ctl}
	}
}

// sync copies the current page into the table.
func (b *browser) sync() {
	t := b.mgr.Table()
	rows := make([]table.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = manager.Cell(row, col)
		}
		rows = append(rows, cells)
	}
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(0)
	}
}

func (b *browser) resize(width, height int) {
	b.table.SetColumns(tableColumns(b.ctl.Columns().Visible(), width))
	b.table.SetHeight(max(3, min(height-chromeLines, b.ctl.PageSize()+1)))
}

func (b *browser) close() { b.ctl.Close() }

// update handles one key. It reports true when the user leaves the view.
func (b *browser) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	if b.editor != nil {
		done, cmd := b.editor.update(msg)
		if done {
			b.editor = nil
		}
		b.sync()
		return false, cmd
	}

	page := b.ctl.View().State.Page
	var cmd tea.Cmd
	switch msg.String() {
	case "esc", "q":
		return true, nil
	case "right", "n", "pgdown":
		b.mgr.GoToPage(page + 1)
	case "left", "p", "pgup":
		b.mgr.GoToPage(page - 1)
	case "home", "g":
		b.mgr.GoToPage(1)
	case "end", "G":
		b.mgr.GoToPage(b.ctl.View().TotalPages)
	case "f":
		b.mgr.OpenFilterModal()
		b.editor, cmd = newRulePane(b.mgr, paneFilters)
	case "s":
		b.mgr.OpenSortModal()
		b.editor, cmd = newRulePane(b.mgr, paneSorters)
	case "x":
		b.mgr.ResetFilters()
	case "X":
		b.mgr.ResetSorters()
	case "r":
		b.ctl.Refresh()
	default:
		b.table, cmd = b.table.Update(msg)
		return false, cmd
	}
	b.sync()
	return false, cmd
}

func (b *browser) view() string {
	t := b.mgr.Table()
	var s strings.Builder

	s.WriteString(titleStyle.Render(b.src.Def.Info.Label))
	s.WriteString("\n")
	s.WriteString(badge("Filters", t.Status.FilterCount))
	s.WriteString(" ")
	s.WriteString(badge("Sort", t.Status.SorterCount))
	s.WriteString(mutedStyle.Render(fmt.Sprintf("  %d records", t.TotalRecords)))
	s.WriteString("\n\n")

	if b.editor != nil {
		s.WriteString(b.editor.view())
		s.WriteString("\n")
		return s.String()
	}

	switch {
	case t.Error != "":
		s.WriteString(errorStyle.Render(t.Error))
	case t.Empty && t.Loading:
		s.WriteString(mutedStyle.Render("Loading…"))
	case t.Empty:
		s.WriteString(mutedStyle.Render(t.EmptyMessage))
	default:
		s.WriteString(b.table.View())
	}
	s.WriteString("\n")

	if t.Loading && !t.Empty {
		s.WriteString(mutedStyle.Render("Loading…"))
		s.WriteString("\n")
	}
	if t.Pager.Visible {
		s.WriteString(t.Pager.Indicator())
		s.WriteString("\n")
	}
	if q := urlstate.Encode(b.ctl.State()).Encode(); q != "" {
		s.WriteString(mutedStyle.Render("?" + q))
		s.WriteString("\n")
	}
	s.WriteString(mutedStyle.Render("←/→ page • f filter • s sort • x/X clear • r refresh • esc back"))
	return s.String()
}

func badge(label string, n int) string {
	if n == 0 {
		return mutedStyle.Render(label)
	}
	return badgeStyle.Render(fmt.Sprintf("%s %d", label, n))
}

// tableColumns spreads width over the visible columns, honoring width
// hints as minimums.
func tableColumns(cols core.Columns, width int) []table.Column {
	if len(cols) == 0 {
		return nil
	}
	share := max(8, (width-2*len(cols))/len(cols))
	out := make([]table.Column, len(cols))
	for i, c := range cols {
		w := share
		if hint := c.Width / 8; hint > w {
			w = hint
		}
		title := c.Caption
		if title == "" {
			title = c.ID
		}
		out[i] = table.Column{Title: title, Width: w}
	}
	return out
}
