package templates

import (
	"context"

	"github.com/JonMunkholm/gridview/internal/manager"
	"github.com/a-h/templ"
)

// ViewPage is the render model of one table page.
type ViewPage struct {
	Title      string
	Subtitle   string // e.g. the ticket preset label
	Table      manager.Table
	Filters    FilterEditor
	Sorters    SortEditor
	PageAction string
	// StreamURL subscribes the page to table patches; empty for views
	// that never load asynchronously.
	StreamURL string
}

// View renders the controls and the table region of a view.
func View(p ViewPage) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<header class="view-header"><h1>`)
		h.text(p.Title)
		h.raw("</h1>")
		if p.Subtitle != "" {
			h.raw(`<p class="subtitle">`)
			h.text(p.Subtitle)
			h.raw("</p>")
		}
		h.raw(`<span class="total">`, itoa(p.Table.TotalRecords), " records</span></header>")

		h.raw(`<div class="controls">`)
		h.render(ctx, FilterControls(p.Filters))
		h.render(ctx, SortControls(p.Sorters))
		h.raw("</div>")

		h.raw(`<section class="view-body"`)
		if p.StreamURL != "" {
			h.attr("data-init", "@get('"+p.StreamURL+"')")
		}
		h.raw(">")
		h.render(ctx, TableRegion(p.Table, p.PageAction))
		h.raw("</section>")
	})
}
