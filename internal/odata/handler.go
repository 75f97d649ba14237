package odata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/gridview/internal/core"
)

// RowSource supplies the full row set of a local view.
type RowSource interface {
	Rows() []core.Row
}

// Handler serves a local view as an OData collection, honouring
// $filter, $orderby, $top, $skip and $count with the local matching rules.
type Handler struct {
	name    string
	columns core.Columns
	source  RowSource
}

// NewHandler creates a handler for the named collection.
func NewHandler(name string, cols core.Columns, source RowSource) *Handler {
	return &Handler{name: name, columns: cols, source: source}
}

type collectionResponse struct {
	Context string     `json:"@odata.context"`
	Count   *int       `json:"@odata.count,omitempty"`
	Value   []core.Row `json:"value"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := ParseFilter(q.Get("$filter"))
	if err == nil {
		err = h.checkColumns(filters, nil)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sorters, err := ParseOrderBy(q.Get("$orderby"))
	if err == nil {
		err = h.checkColumns(nil, sorters)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	top, err := nonNegative(q.Get("$top"), "$top", -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	skip, err := nonNegative(q.Get("$skip"), "$skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	matched := core.ApplyRules(h.source.Rows(), core.State{Filters: filters, Sorters: sorters}, h.columns)

	resp := collectionResponse{
		Context: "$metadata#" + h.name,
		Value:   []core.Row{},
	}
	if top != 0 {
		resp.Value = core.Window(matched, skip, top)
	}
	if q.Get("$count") == "true" {
		total := len(matched)
		resp.Count = &total
	}

	w.Header().Set("Content-Type", "application/json; odata.metadata=minimal")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("odata encode failed", "collection", h.name, "error", err)
	}
}

func (h *Handler) checkColumns(filters []core.FilterRule, sorters []core.SortRule) error {
	for _, f := range filters {
		if !h.columns.Has(f.Column) {
			return fmt.Errorf("invalid $filter: unknown property %q", f.Column)
		}
	}
	for _, s := range sorters {
		if !h.columns.Has(s.Column) {
			return fmt.Errorf("invalid $orderby: unknown property %q", s.Column)
		}
	}
	return nil
}

func nonNegative(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	var body errorBody
	body.Error.Code = msg.Code
	body.Error.Message = err.Error()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
