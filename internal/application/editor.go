package application

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/manager"
)

type paneKind int

const (
	paneFilters paneKind = iota
	paneSorters
)

const (
	fieldColumn = iota
	fieldOperator
	fieldValue
)

// rulePane edits the draft of one rule editor. The draft lives in the
// manager; the pane only tracks the focused row and field.
type rulePane struct {
	kind  paneKind
	mgr   *manager.Manager
	row   int
	field int
	input textinput.Model
}

func newRulePane(mgr *manager.Manager, kind paneKind) (*rulePane, tea.Cmd) {
	in := textinput.New()
	in.Placeholder = "Value"
	in.CharLimit = 200
	p := &rulePane{kind: kind, mgr: mgr, input: in}
	return p, p.focus()
}

func (p *rulePane) fields() int {
	if p.kind == paneFilters {
		return 3
	}
	return 2
}

func (p *rulePane) rows() int {
	if p.kind == paneFilters {
		return p.mgr.Filters().Len()
	}
	return p.mgr.Sorters().Len()
}

func (p *rulePane) columns() core.Columns {
	if p.kind == paneFilters {
		return p.mgr.FilterColumns()
	}
	return p.mgr.SortColumns()
}

// focus loads the focused row's value into the input.
func (p *rulePane) focus() tea.Cmd {
	p.row = max(0, min(p.row, p.rows()-1))
	if p.kind != paneFilters || p.field != fieldValue || p.rows() == 0 {
		p.input.Blur()
		return nil
	}
	p.input.SetValue(p.mgr.Filters().Rows()[p.row].Value)
	p.input.CursorEnd()
	return p.input.Focus()
}

// update handles one key. It reports true once the editor closed.
func (p *rulePane) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.close()
		return true, nil
	case "enter":
		p.apply()
		return true, nil
	case "up":
		p.row--
		return false, p.focus()
	case "down":
		p.row++
		return false, p.focus()
	case "tab":
		p.field = (p.field + 1) % p.fields()
		return false, p.focus()
	case "shift+tab":
		p.field = (p.field + p.fields() - 1) % p.fields()
		return false, p.focus()
	case "ctrl+n":
		p.add()
		p.row = p.rows() - 1
		return false, p.focus()
	case "ctrl+d":
		p.remove()
		return false, p.focus()
	case "ctrl+r":
		p.reset()
		p.row = 0
		return false, p.focus()
	case "left", "right":
		if p.field != fieldValue {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			p.cycle(delta)
			return false, nil
		}
	}

	if p.kind != paneFilters || p.field != fieldValue || p.rows() == 0 {
		return false, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	rule := p.mgr.Filters().Rows()[p.row]
	rule.Value = p.input.Value()
	p.mgr.Filters().Set(p.row, rule)
	return false, cmd
}

func (p *rulePane) close() {
	if p.kind == paneFilters {
		p.mgr.Filters().Close()
	} else {
		p.mgr.Sorters().Close()
	}
}

func (p *rulePane) apply() {
	if p.kind == paneFilters {
		p.mgr.ApplyFilters()
	} else {
		p.mgr.ApplySorters()
	}
}

func (p *rulePane) add() {
	if p.kind == paneFilters {
		p.mgr.Filters().Add()
	} else {
		p.mgr.Sorters().Add()
	}
}

func (p *rulePane) remove() {
	if p.kind == paneFilters {
		p.mgr.Filters().Remove(p.row)
	} else {
		p.mgr.Sorters().Remove(p.row)
	}
}

func (p *rulePane) reset() {
	if p.kind == paneFilters {
		p.mgr.Filters().Reset()
	} else {
		p.mgr.Sorters().Reset()
	}
}

// cycle steps the focused column, relation or order through its options.
func (p *rulePane) cycle(delta int) {
	if p.rows() == 0 {
		return
	}
	colIDs := []string{""}
	for _, c := range p.columns() {
		colIDs = append(colIDs, c.ID)
	}

	if p.kind == paneFilters {
		rule := p.mgr.Filters().Rows()[p.row]
		if p.field == fieldColumn {
			rule.Column = step(colIDs, rule.Column, delta)
		} else {
			rels := make([]string, len(core.Relations))
			for i, r := range core.Relations {
				rels[i] = string(r)
			}
			cur := rule.Relation
			if !cur.Valid() {
				cur = core.RelContains
			}
			rule.Relation = core.Relation(step(rels, string(cur), delta))
		}
		p.mgr.Filters().Set(p.row, rule)
		return
	}

	rule := p.mgr.Sorters().Rows()[p.row]
	if p.field == fieldColumn {
		rule.Column = step(colIDs, rule.Column, delta)
	} else if rule.Order == core.OrderDesc {
		rule.Order = core.OrderAsc
	} else {
		rule.Order = core.OrderDesc
	}
	p.mgr.Sorters().Set(p.row, rule)
}

// step moves from cur by delta through options, wrapping at both ends. An
// unknown cur starts from the first option.
func step(options []string, cur string, delta int) string {
	i := 0
	for j, o := range options {
		if o == cur {
			i = j
			break
		}
	}
	n := len(options)
	return options[((i+delta)%n+n)%n]
}

func (p *rulePane) view() string {
	cols := p.columns()
	title := "Filters"
	if p.kind == paneSorters {
		title = "Sort"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if p.rows() == 0 {
		b.WriteString(mutedStyle.Render("No rules. ctrl+n adds one."))
		b.WriteString("\n")
	}

	if p.kind == paneFilters {
		for i, rule := range p.mgr.Filters().Rows() {
			rel := rule.Relation
			if !rel.Valid() {
				rel = core.RelContains
			}
			value := rule.Value
			if i == p.row && p.field == fieldValue {
				value = p.input.View()
			} else if value == "" {
				value = mutedStyle.Render("Value")
			}
			b.WriteString(p.line(i, columnLabel(cols, rule.Column), rel.Label(), value))
		}
	} else {
		for i, rule := range p.mgr.Sorters().Rows() {
			order := "Ascending"
			if rule.Order == core.OrderDesc {
				order = "Descending"
			}
			b.WriteString(p.line(i, columnLabel(cols, rule.Column), order))
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab field • ←/→ change • ctrl+n add • ctrl+d remove • ctrl+r reset • enter apply • esc cancel"))
	return dialogStyle.Render(b.String())
}

func (p *rulePane) line(row int, cells ...string) string {
	var b strings.Builder
	if row == p.row {
		b.WriteString("> ")
	} else {
		b.WriteString("  ")
	}
	for f, c := range cells {
		if f > 0 {
			b.WriteString("  ")
		}
		if row == p.row && f == p.field && f != fieldValue {
			c = focusStyle.Render(c)
		}
		b.WriteString("[" + c + "]")
	}
	b.WriteString("\n")
	return b.String()
}

func columnLabel(cols core.Columns, id string) string {
	if c, ok := cols.Find(id); ok {
		return c.Caption
	}
	return "Column"
}
