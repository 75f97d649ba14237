package templates

import (
	"context"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/manager"
	"github.com/a-h/templ"
)

// TableRegionID is the element id replaced by stream patches.
const TableRegionID = "table-region"

// TableRegion renders the table, its status line and the pager. pageAction
// is the form target of the pager buttons.
func TableRegion(t manager.Table, pageAction string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div`)
		h.attr("id", TableRegionID)
		h.attr("aria-busy", boolText(t.Loading))
		h.raw(">")

		if t.Loading {
			h.raw(`<p class="loading">Loading…</p>`)
		}
		if t.Error != "" {
			h.raw(`<div class="alert alert-error" role="alert">`)
			h.text(t.Error)
			h.raw("</div>")
		}

		switch {
		case t.Empty && !t.Loading:
			h.raw(`<p class="empty">`)
			h.text(t.EmptyMessage)
			h.raw("</p>")
		case !t.Empty:
			h.render(ctx, dataTable(t))
			h.render(ctx, Pager(t.Pager, pageAction))
		}
		h.raw("</div>")
	})
}

func dataTable(t manager.Table) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<table class="grid"><thead><tr>`)
		for _, col := range t.Columns {
			h.raw("<th")
			h.attr("scope", "col")
			if s := cellStyle(col); s != "" {
				h.attr("style", s)
			}
			h.raw(">")
			h.text(caption(col))
			h.raw("</th>")
		}
		h.raw("</tr></thead><tbody>")
		for i, row := range t.Rows {
			h.raw("<tr")
			h.attr("data-key", manager.RowKey(row, i))
			h.raw(">")
			for _, col := range t.Columns {
				h.raw("<td")
				if col.Align != "" && col.Align != core.AlignLeft {
					h.attr("style", "text-align:"+string(col.Align))
				}
				h.raw(">")
				h.text(manager.Cell(row, col))
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table>")
	})
}

// Pager renders the first/prev/next/last buttons and the page indicator.
// Nothing is rendered when there is a single page.
func Pager(p manager.Pager, action string) templ.Component {
	return component(func(_ context.Context, h *html) {
		if !p.Visible {
			return
		}
		h.raw(`<form class="pager" method="post"`)
		h.attr("action", action)
		h.raw(">")
		for _, link := range p.Links() {
			h.raw(`<button type="submit" name="page"`)
			h.attr("value", itoa(link.Page))
			h.flag("disabled", !link.Enabled)
			h.raw(">")
			h.text(link.Label)
			h.raw("</button>")
		}
		h.raw(`<span class="page-indicator">`)
		h.text(p.Indicator())
		h.raw("</span></form>")
	})
}

func caption(col core.Column) string {
	if col.Caption != "" {
		return col.Caption
	}
	return col.ID
}

func cellStyle(col core.Column) string {
	s := ""
	if col.Width > 0 {
		s += "width:" + itoa(col.Width) + "px;"
	}
	if col.Align != "" {
		s += "text-align:" + string(col.Align) + ";"
	}
	return s
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ErrorRegion replaces the table region with an error alert.
func ErrorRegion(message, action, code string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div`)
		h.attr("id", TableRegionID)
		h.raw(">")
		h.render(ctx, ErrorAlert(message, action, code))
		h.raw("</div>")
	})
}
