package web

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/odata"
	"github.com/JonMunkholm/gridview/internal/tickets"
)

// Scope is one selectable slice of a view's data, such as a ticket status
// preset.
type Scope struct {
	Value string
	Label string
	Count int
}

// Binding connects a registered view to the executor that serves it.
type Binding struct {
	// ScopeParam is the query parameter that narrows the data set before
	// any rule applies. Empty for views with a single data set.
	ScopeParam string
	// Normalize maps a raw ScopeParam value to a known scope.
	Normalize func(raw string) string
	// Scopes lists the selectable scopes with their row counts.
	Scopes func() []Scope
	// Executor builds the executor of one scope.
	Executor func(scope string) core.Executor
}

// scope extracts the scope of q.
func (b Binding) scope(q url.Values) string {
	if b.ScopeParam == "" || b.Normalize == nil {
		return ""
	}
	return b.Normalize(q.Get(b.ScopeParam))
}

// href returns the page URL of one scope of view key.
func (b Binding) href(key, scope string) string {
	base := "/views/" + key
	if b.ScopeParam == "" || b.Normalize == nil || scope == b.Normalize("") {
		return base
	}
	return base + "?" + url.Values{b.ScopeParam: {scope}}.Encode()
}

// label returns the display label of scope, or "".
func (b Binding) label(scope string) string {
	if b.Scopes == nil {
		return ""
	}
	for _, sc := range b.Scopes() {
		if sc.Value == scope {
			return sc.Label
		}
	}
	return ""
}

// TicketBinding serves the tickets view from svc, narrowed by the status
// preset in the "status" parameter.
func TicketBinding(svc *tickets.Service) Binding {
	return Binding{
		ScopeParam: "status",
		Normalize:  func(raw string) string { return string(tickets.ParsePreset(raw)) },
		Scopes: func() []Scope {
			counts := svc.Counts()
			presets := tickets.Presets()
			out := make([]Scope, 0, len(presets))
			for _, p := range presets {
				out = append(out, Scope{Value: string(p), Label: p.Label(), Count: counts[string(p)]})
			}
			return out
		},
		Executor: func(scope string) core.Executor {
			return svc.Executor(tickets.Preset(scope))
		},
	}
}

// RemoteBinding serves def from the OData collection at baseURL. extra is
// applied after the defaults.
func RemoteBinding(baseURL string, def core.ViewDefinition, pageSize int, hc *http.Client, logger *slog.Logger, extra ...odata.ClientOption) Binding {
	opts := []odata.ClientOption{odata.WithView(def.Info.Key)}
	if hc != nil {
		opts = append(opts, odata.WithHTTPClient(hc))
	}
	if logger != nil {
		opts = append(opts, odata.WithLogger(logger))
	}
	opts = append(opts, extra...)
	client := odata.NewClient(baseURL, def.Columns, pageSize, opts...)
	return Binding{
		Executor: func(string) core.Executor { return client },
	}
}

// LocalBinding serves def from a fixed row set.
func LocalBinding(rows []core.Row, def core.ViewDefinition, pageSize int) Binding {
	exec := core.NewLocalExecutor(rows, def.Columns, pageSize)
	return Binding{
		Executor: func(string) core.Executor { return exec },
	}
}
