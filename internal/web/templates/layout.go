package templates

import (
	"context"

	"github.com/a-h/templ"
)

// DatastarScript is the client bundle that applies SSE element patches.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// NavItem is one sidebar link.
type NavItem struct {
	Label  string
	Href   string
	Count  int // shown when HasCount is set
	Active bool

	HasCount bool
}

// NavGroup is a titled block of sidebar links.
type NavGroup struct {
	Name  string
	Items []NavItem
}

// Layout wraps body in the document shell with the sidebar.
func Layout(title string, nav []NavGroup, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw(" - gridview</title>")
		h.raw(`<script type="module"`)
		h.attr("src", DatastarScript)
		h.raw("></script></head><body><div class=\"app\">")
		h.render(ctx, Sidebar(nav))
		h.raw(`<main id="content">`)
		h.render(ctx, body)
		h.raw("</main></div></body></html>")
	})
}

// Sidebar renders the navigation groups.
func Sidebar(nav []NavGroup) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<nav class="sidebar"><a class="brand" href="/">gridview</a>`)
		for _, g := range nav {
			h.raw(`<section class="nav-group"><h2>`)
			h.text(g.Name)
			h.raw("</h2><ul>")
			for _, it := range g.Items {
				h.raw("<li><a")
				h.attr("href", it.Href)
				if it.Active {
					h.attr("class", "active")
					h.attr("aria-current", "page")
				}
				h.raw(">")
				h.text(it.Label)
				if it.HasCount {
					h.raw(` <span class="count">`, itoa(it.Count), "</span>")
				}
				h.raw("</a></li>")
			}
			h.raw("</ul></section>")
		}
		h.raw("</nav>")
	})
}

// Dashboard lists every view with its sidebar counts.
func Dashboard(nav []NavGroup) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<h1>Dashboard</h1><div class="cards">`)
		for _, g := range nav {
			h.raw(`<section class="card"><h2>`)
			h.text(g.Name)
			h.raw("</h2><dl>")
			for _, it := range g.Items {
				h.raw("<dt><a")
				h.attr("href", it.Href)
				h.raw(">")
				h.text(it.Label)
				h.raw("</a></dt><dd>")
				if it.HasCount {
					h.raw(itoa(it.Count))
				}
				h.raw("</dd>")
			}
			h.raw("</dl></section>")
		}
		h.raw("</div>")
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="alert alert-error" role="alert"><p class="alert-message">`)
		h.text(message)
		h.raw("</p>")
		if action != "" {
			h.raw(`<p class="alert-action">`)
			h.text(action)
			h.raw("</p>")
		}
		if code != "" {
			h.raw(`<p class="alert-code">Code: `)
			h.text(code)
			h.raw("</p>")
		}
		h.raw("</div>")
	})
}
