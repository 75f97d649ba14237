// Package templates renders the HTML of the table pages as templ components.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// html accumulates markup and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

// raw writes trusted markup.
func (h *html) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

// text writes escaped character data.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with the value escaped.
func (h *html) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// flag writes a boolean attribute when on is true.
func (h *html) flag(name string, on bool) {
	if on {
		h.raw(" ", name)
	}
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// component adapts a body writer to templ.Component.
func component(body func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		body(ctx, h)
		return h.err
	})
}

func itoa(n int) string { return strconv.Itoa(n) }
