package templates

import (
	"context"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/a-h/templ"
)

// FilterEditor is the render model of the filter rule builder.
type FilterEditor struct {
	Action  string // form target
	Open    bool
	Rows    []core.FilterRule
	Columns core.Columns // filterable columns
	Active  int          // committed filter count
}

// SortEditor is the render model of the sort rule builder.
type SortEditor struct {
	Action  string
	Open    bool
	Rows    []core.SortRule
	Columns core.Columns // sortable columns
	Active  int
}

// FilterControls renders the badge button, the clear button and, when
// open, the editor dialog.
func FilterControls(e FilterEditor) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<form class="rule-editor filters" method="post"`)
		h.attr("action", e.Action)
		h.raw(">")
		badge(h, "Filter", e.Active)
		if !e.Open {
			h.raw("</form>")
			return
		}

		h.raw(`<div class="dialog" role="dialog" aria-label="Filters"><h3>Filters</h3>`)
		for i, rule := range e.Rows {
			h.raw(`<div class="rule-row">`)
			columnSelect(h, e.Columns, rule.Column)
			h.raw(`<select name="relation">`)
			rel := rule.Relation
			if !rel.Valid() {
				rel = core.RelContains
			}
			for _, r := range core.Relations {
				option(h, string(r), r.Label(), r == rel)
			}
			h.raw(`</select><input type="text" name="value"`)
			h.attr("value", rule.Value)
			h.raw(` placeholder="Value">`)
			removeButton(h, i)
			h.raw("</div>")
		}
		footer(h)
		h.raw("</div></form>")
	})
}

// SortControls renders the sort badge and, when open, the sort editor.
func SortControls(e SortEditor) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<form class="rule-editor sorters" method="post"`)
		h.attr("action", e.Action)
		h.raw(">")
		badge(h, "Sort", e.Active)
		if !e.Open {
			h.raw("</form>")
			return
		}

		h.raw(`<div class="dialog" role="dialog" aria-label="Sort"><h3>Sort</h3>`)
		for i, rule := range e.Rows {
			h.raw(`<div class="rule-row">`)
			columnSelect(h, e.Columns, rule.Column)
			h.raw(`<select name="order">`)
			option(h, string(core.OrderAsc), "Ascending", rule.Order != core.OrderDesc)
			option(h, string(core.OrderDesc), "Descending", rule.Order == core.OrderDesc)
			h.raw("</select>")
			removeButton(h, i)
			h.raw("</div>")
		}
		footer(h)
		h.raw("</div></form>")
	})
}

func badge(h *html, label string, active int) {
	h.raw(`<button type="submit" name="action" value="open" class="badge-button">`)
	h.text(label)
	if active > 0 {
		h.raw(` <span class="badge">`, itoa(active), "</span>")
	}
	h.raw("</button>")
	if active > 0 {
		h.raw(`<button type="submit" name="action" value="clear" class="clear-button"`)
		h.attr("aria-label", "Clear "+label)
		h.raw(">×</button>")
	}
}

func columnSelect(h *html, cols core.Columns, selected string) {
	h.raw(`<select name="column">`)
	option(h, "", "Column", selected == "")
	for _, c := range cols {
		option(h, c.ID, caption(c), c.ID == selected)
	}
	h.raw("</select>")
}

func option(h *html, value, label string, selected bool) {
	h.raw("<option")
	h.attr("value", value)
	h.flag("selected", selected)
	h.raw(">")
	h.text(label)
	h.raw("</option>")
}

func removeButton(h *html, i int) {
	h.raw(`<button type="submit" name="action"`)
	h.attr("value", "remove:"+itoa(i))
	h.raw(` aria-label="Remove rule">−</button>`)
}

func footer(h *html) {
	h.raw(`<div class="dialog-actions">`)
	h.raw(`<button type="submit" name="action" value="add">Add</button>`)
	h.raw(`<button type="submit" name="action" value="reset">Reset</button>`)
	h.raw(`<button type="submit" name="action" value="close">Cancel</button>`)
	h.raw(`<button type="submit" name="action" value="apply" class="primary">Apply</button>`)
	h.raw("</div>")
}
