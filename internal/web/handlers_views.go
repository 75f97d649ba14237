package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/manager"
	"github.com/JonMunkholm/gridview/internal/urlstate"
	"github.com/JonMunkholm/gridview/internal/web/templates"
)

// viewContext is a resolved {view} route parameter.
type viewContext struct {
	def     core.ViewDefinition
	binding Binding
	scope   string
}

// sessionKey separates the view sessions of different scopes.
func (vc viewContext) sessionKey() string {
	return vc.def.Info.Key + "|" + vc.scope
}

func (vc viewContext) path() string {
	return "/views/" + vc.def.Info.Key
}

// resolveView looks up the {view} parameter.
func (s *Server) resolveView(r *http.Request) (viewContext, error) {
	key := chi.URLParam(r, "view")
	def, err := core.Lookup(key)
	if err != nil {
		return viewContext{}, err
	}
	b, ok := s.bindings[key]
	if !ok || b.Executor == nil {
		return viewContext{}, fmt.Errorf("%w: %s has no data source", core.ErrUnknownView, key)
	}
	return viewContext{def: def, binding: b, scope: b.scope(r.URL.Query())}, nil
}

// pageSize returns the view's page size or the configured default.
func (s *Server) pageSize(def core.ViewDefinition) int {
	if def.PageSize > 0 {
		return def.PageSize
	}
	return s.cfg.Table.RowsPerPage
}

func (s *Server) newController(vc viewContext, st core.State, sink controller.StateSink) *controller.Controller {
	return controller.New(controller.Options{
		Key:          vc.def.Info.Key,
		Source:       vc.def.Info.Source,
		Executor:     vc.binding.Executor(vc.scope),
		Columns:      vc.def.Columns,
		PageSize:     s.pageSize(vc.def),
		Initial:      st,
		Sink:         sink,
		FetchTimeout: s.cfg.Remote.FetchTimeout,
		Logger:       s.logger,
	})
}

// openView returns the caller's view session, creating it from the
// request query when missing.
func (s *Server) openView(w http.ResponseWriter, r *http.Request, vc viewContext) (*viewSession, error) {
	sid, err := s.sessions.id(w, r)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	q := r.URL.Query()
	vs := s.sessions.view(sid, vc.sessionKey(), func() *viewSession {
		loc := urlstate.NewLocation(vc.path(), q)
		ctl := s.newController(vc, urlstate.Decode(q), loc)
		logging.WithFields(r.Context(), "view", vc.def.Info.Key, "scope", vc.scope).
			Debug("view session opened")
		return &viewSession{ctl: ctl, mgr: manager.New(ctl, vc.def.Info.EmptyMessage), loc: loc}
	})
	return vs, nil
}

// statePatch replaces every field of the committed state.
func statePatch(st core.State) core.Patch {
	return core.Patch{}.WithPage(st.Page).WithFilters(st.Filters).WithSorters(st.Sorters)
}

// handleViewPage renders a table page. The URL is authoritative: its state
// is committed, and a URL whose state was corrected (malformed rules, a
// page past the end) redirects to the canonical location.
func (s *Server) handleViewPage(w http.ResponseWriter, r *http.Request) {
	vc, err := s.resolveView(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	vs, err := s.openView(w, r, vc)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	want := urlstate.Decode(q)

	vs.mu.Lock()
	if !vs.ctl.Commit(statePatch(want)) && vc.def.Info.Source == core.SourceLocal {
		// Picks up ticket writes; a memo hit otherwise.
		vs.ctl.Refresh()
	}
	vs.mu.Unlock()

	if wait := s.cfg.Remote.RenderWait; wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		_ = vs.ctl.Await(ctx)
		cancel()
	}

	if st := vs.ctl.State(); !st.Equal(want) {
		target := vc.path()
		if enc := urlstate.Merge(q, st).Encode(); enc != "" {
			target += "?" + enc
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	vs.mu.Lock()
	page := s.viewPage(vc, vs)
	vs.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	body := templates.View(page)
	if err := templates.Layout(vc.def.Info.Label, s.nav(vc.binding.href(vc.def.Info.Key, vc.scope)), body).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render view", "view", vc.def.Info.Key, "error", err)
	}
}

// viewPage builds the render model. Callers hold vs.mu.
func (s *Server) viewPage(vc viewContext, vs *viewSession) templates.ViewPage {
	suffix := ""
	if enc := vs.loc.Query().Encode(); enc != "" {
		suffix = "?" + enc
	}
	base := vc.path()
	status := vs.mgr.Status()
	filters, sorters := vs.mgr.Filters(), vs.mgr.Sorters()

	p := templates.ViewPage{
		Title:    vc.def.Info.Label,
		Subtitle: vc.binding.label(vc.scope),
		Table:    vs.mgr.Table(),
		Filters: templates.FilterEditor{
			Action:  base + "/filters" + suffix,
			Open:    filters.IsOpen(),
			Rows:    filters.Rows(),
			Columns: vs.mgr.FilterColumns(),
			Active:  status.FilterCount,
		},
		Sorters: templates.SortEditor{
			Action:  base + "/sorters" + suffix,
			Open:    sorters.IsOpen(),
			Rows:    sorters.Rows(),
			Columns: vs.mgr.SortColumns(),
			Active:  status.SorterCount,
		},
		PageAction: base + "/page" + suffix,
	}
	if vc.def.Info.Source == core.SourceRemote {
		p.StreamURL = base + "/stream" + suffix
	}
	return p
}

// ruleEditor is the part of manager.Editor the form actions drive.
type ruleEditor interface {
	IsOpen() bool
	Add()
	Remove(i int) bool
	Reset()
	Close()
}

// editorActions binds the form actions to one editor of a manager.
type editorActions struct {
	editor  ruleEditor
	replace func(form url.Values)
	open    func()
	apply   func()
	clear   func()
}

func (s *Server) handleFilterForm(w http.ResponseWriter, r *http.Request) {
	s.handleEditorForm(w, r, func(m *manager.Manager) editorActions {
		return editorActions{
			editor:  m.Filters(),
			replace: func(form url.Values) { m.Filters().Replace(filterRows(form)) },
			open:    m.OpenFilterModal,
			apply:   func() { m.ApplyFilters() },
			clear:   m.ResetFilters,
		}
	})
}

func (s *Server) handleSorterForm(w http.ResponseWriter, r *http.Request) {
	s.handleEditorForm(w, r, func(m *manager.Manager) editorActions {
		return editorActions{
			editor:  m.Sorters(),
			replace: func(form url.Values) { m.Sorters().Replace(sorterRows(form)) },
			open:    m.OpenSortModal,
			apply:   func() { m.ApplySorters() },
			clear:   m.ResetSorters,
		}
	})
}

// handleEditorForm runs one rule-editor action and redirects to the
// synchronized location.
func (s *Server) handleEditorForm(w http.ResponseWriter, r *http.Request, bind func(*manager.Manager) editorActions) {
	vc, err := s.resolveView(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("parse form: %w", err), http.StatusBadRequest)
		return
	}
	vs, err := s.openView(w, r, vc)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	vs.mu.Lock()
	err = runEditorAction(bind(vs.mgr), r.PostForm)
	vs.mu.Unlock()
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, vs.loc.String(), http.StatusSeeOther)
}

// runEditorAction applies the submitted "action" field. While the editor
// is open the submitted rows replace the draft first, so edits survive
// add and remove round trips.
func runEditorAction(a editorActions, form url.Values) error {
	action, arg, _ := strings.Cut(form.Get("action"), ":")
	if action == "" {
		action = "update"
	}
	if a.editor.IsOpen() && action != "open" && action != "clear" {
		a.replace(form)
	}

	switch action {
	case "open":
		a.open()
	case "add":
		a.editor.Add()
	case "remove":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid rule index %q", arg)
		}
		a.editor.Remove(i)
	case "update":
	case "reset":
		a.editor.Reset()
	case "apply":
		a.apply()
	case "close":
		a.editor.Close()
	case "clear":
		a.clear()
	default:
		return fmt.Errorf("unknown editor action %q", action)
	}
	return nil
}

// filterRows reads the parallel column/relation/value fields.
func filterRows(form url.Values) []core.FilterRule {
	cols, rels, vals := form["column"], form["relation"], form["value"]
	rows := make([]core.FilterRule, len(cols))
	for i, c := range cols {
		rel := core.Relation(at(rels, i))
		if !rel.Valid() {
			rel = ""
		}
		rows[i] = core.FilterRule{Column: c, Relation: rel, Value: at(vals, i)}
	}
	return rows
}

// sorterRows reads the parallel column/order fields.
func sorterRows(form url.Values) []core.SortRule {
	cols, orders := form["column"], form["order"]
	rows := make([]core.SortRule, len(cols))
	for i, c := range cols {
		ord := core.Order(at(orders, i))
		if !ord.Valid() {
			ord = ""
		}
		rows[i] = core.SortRule{Column: c, Order: ord}
	}
	return rows
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// handlePageForm navigates to the submitted page, clamped to the range.
func (s *Server) handlePageForm(w http.ResponseWriter, r *http.Request) {
	vc, err := s.resolveView(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("parse form: %w", err), http.StatusBadRequest)
		return
	}
	n, err := strconv.Atoi(r.PostForm.Get("page"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid page %q", r.PostForm.Get("page")), http.StatusBadRequest)
		return
	}
	vs, err := s.openView(w, r, vc)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	vs.mu.Lock()
	vs.mgr.GoToPage(n)
	vs.mu.Unlock()
	http.Redirect(w, r, vs.loc.String(), http.StatusSeeOther)
}

// handleViewStream patches the table region on every view change until
// the controller settles.
func (s *Server) handleViewStream(w http.ResponseWriter, r *http.Request) {
	vc, err := s.resolveView(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	vs, err := s.openView(w, r, vc)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		changed := vs.ctl.Changed()

		vs.mu.Lock()
		page := s.viewPage(vc, vs)
		vs.mu.Unlock()

		if err := sse.PatchElementTempl(templates.TableRegion(page.Table, page.PageAction)); err != nil {
			if !errors.Is(err, context.Canceled) {
				logging.FromContext(ctx).Debug("stream patch failed", "view", vc.def.Info.Key, "error", err)
			}
			return
		}
		if !page.Table.Loading {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

// viewJSON is the body of GET /api/views/{view}.
type viewJSON struct {
	Data         []core.Row `json:"data"`
	TotalRecords int        `json:"totalRecords"`
	Page         int        `json:"page"`
	TotalPages   int        `json:"totalPages"`
	IsLoading    bool       `json:"isLoading"`
	Error        string     `json:"error,omitempty"`
}

// handleViewJSON runs a one-off controller for the state in the query and
// returns the settled view. A remote failure is reported in the error
// field, the way the page shows it.
func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	vc, err := s.resolveView(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	ctl := s.newController(vc, urlstate.Decode(r.URL.Query()), nil)
	defer ctl.Close()

	if err := ctl.Await(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}

	v := ctl.View()
	writeJSON(w, viewJSON{
		Data:         v.Rows,
		TotalRecords: v.TotalRecords,
		Page:         v.State.Page,
		TotalPages:   v.TotalPages,
		IsLoading:    v.Loading,
		Error:        v.Err,
	})
}

// viewSummary is one entry of GET /api/views.
type viewSummary struct {
	core.ViewInfo
	Columns  core.Columns `json:"columns"`
	PageSize int          `json:"pageSize"`
	Scopes   []Scope      `json:"scopes,omitempty"`
}

func (s *Server) handleListViews(w http.ResponseWriter, _ *http.Request) {
	var out []viewSummary
	for _, def := range core.All() {
		b, ok := s.bindings[def.Info.Key]
		if !ok {
			continue
		}
		sum := viewSummary{ViewInfo: def.Info, Columns: def.Columns, PageSize: s.pageSize(def)}
		if b.Scopes != nil {
			sum.Scopes = b.Scopes()
		}
		out = append(out, sum)
	}
	writeJSON(w, out)
}

// handleDashboard renders the list of views.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	nav := s.nav("/")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout("Dashboard", nav, templates.Dashboard(nav)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// nav builds the sidebar: one group per registry group, one item per
// bound view or, for scoped views, per scope with its count.
func (s *Server) nav(active string) []templates.NavGroup {
	var groups []templates.NavGroup
	for _, g := range core.Groups() {
		group := templates.NavGroup{Name: g}
		for _, def := range core.ByGroup(g) {
			b, ok := s.bindings[def.Info.Key]
			if !ok {
				continue
			}
			if b.Scopes == nil {
				href := b.href(def.Info.Key, "")
				group.Items = append(group.Items, templates.NavItem{
					Label: def.Info.Label, Href: href, Active: href == active,
				})
				continue
			}
			for _, sc := range b.Scopes() {
				href := b.href(def.Info.Key, sc.Value)
				group.Items = append(group.Items, templates.NavItem{
					Label: sc.Label, Href: href, Count: sc.Count, HasCount: true, Active: href == active,
				})
			}
		}
		if len(group.Items) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}
