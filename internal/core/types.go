// Package core provides the query-rule engine shared by every table view.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"fmt"
	"slices"
)

// Kind is the declared value kind of a column.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Normalize returns the kind with the empty value mapped to KindString.
func (k Kind) Normalize() Kind {
	if k == "" {
		return KindString
	}
	return k
}

// Align is a presentation hint for cell alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column describes one displayable and queryable field of a view.
type Column struct {
	ID         string `json:"id"`
	Caption    string `json:"caption"`
	Kind       Kind   `json:"type,omitempty"`
	Filterable bool   `json:"filterable,omitempty"`
	Sortable   bool   `json:"sortable,omitempty"`

	// Presentation hints. Executors ignore them.
	Hidden bool  `json:"hidden,omitempty"`
	Width  int   `json:"width,omitempty"`
	Align  Align `json:"align,omitempty"`
}

// Columns is the ordered column contract of a view.
type Columns []Column

// Find returns the column with the given id.
func (cs Columns) Find(id string) (Column, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// Has reports whether a column with the given id exists.
func (cs Columns) Has(id string) bool {
	_, ok := cs.Find(id)
	return ok
}

// Visible returns the columns that are not hidden.
func (cs Columns) Visible() Columns {
	return cs.where(func(c Column) bool { return !c.Hidden })
}

// Filterable returns the visible columns that accept filter rules.
func (cs Columns) Filterable() Columns {
	return cs.where(func(c Column) bool { return c.Filterable && !c.Hidden })
}

// Sortable returns the visible columns that accept sort rules.
func (cs Columns) Sortable() Columns {
	return cs.where(func(c Column) bool { return c.Sortable && !c.Hidden })
}

func (cs Columns) where(keep func(Column) bool) Columns {
	out := make(Columns, 0, len(cs))
	for _, c := range cs {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Relation is the comparison a filter rule applies.
type Relation string

const (
	RelEquals     Relation = "equals"
	RelContains   Relation = "contains"
	RelStartsWith Relation = "startsWith"
)

// Relations lists every relation in editor display order.
var Relations = []Relation{RelContains, RelEquals, RelStartsWith}

// Valid reports whether r is one of the known relations.
func (r Relation) Valid() bool {
	return r == RelEquals || r == RelContains || r == RelStartsWith
}

// Label returns the caption shown in relation pickers.
func (r Relation) Label() string {
	switch r {
	case RelEquals:
		return "Equals"
	case RelContains:
		return "Contains"
	case RelStartsWith:
		return "Starts with"
	default:
		return string(r)
	}
}

// ParseRelation converts a string to a Relation.
func ParseRelation(s string) (Relation, error) {
	r := Relation(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown relation %q", s)
	}
	return r, nil
}

// UnmarshalText accepts only known relations or the empty string.
func (r *Relation) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = ""
		return nil
	}
	v, err := ParseRelation(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Order is the direction of a sort rule.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Valid reports whether o is asc or desc.
func (o Order) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// ParseOrder converts a string to an Order.
func ParseOrder(s string) (Order, error) {
	o := Order(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown order %q", s)
	}
	return o, nil
}

// UnmarshalText accepts only asc, desc or the empty string.
func (o *Order) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*o = ""
		return nil
	}
	v, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// FilterRule restricts rows to those whose column value matches Value.
type FilterRule struct {
	Column   string   `json:"column"`
	Relation Relation `json:"relation,omitempty"`
	Value    string   `json:"value"`
}

// SortRule orders rows by one column. A list of rules is a tie-break chain.
type SortRule struct {
	Column string `json:"column"`
	Order  Order  `json:"order,omitempty"`
}

// State is the canonical, navigable state of a table view.
type State struct {
	Page    int          `json:"page"`
	Filters []FilterRule `json:"filters"`
	Sorters []SortRule   `json:"sorters"`
}

// DefaultState returns page 1 with no rules.
func DefaultState() State {
	return State{Page: 1, Filters: []FilterRule{}, Sorters: []SortRule{}}
}

// Equal reports whether two states have the same page and rule lists.
// A nil list equals an empty one.
func (s State) Equal(o State) bool {
	return s.Page == o.Page &&
		slices.Equal(s.Filters, o.Filters) &&
		slices.Equal(s.Sorters, o.Sorters)
}

// Clone returns a deep copy of s with non-nil rule lists.
func (s State) Clone() State {
	out := State{Page: s.Page}
	out.Filters = append(make([]FilterRule, 0, len(s.Filters)), s.Filters...)
	out.Sorters = append(make([]SortRule, 0, len(s.Sorters)), s.Sorters...)
	return out
}

// Patch is a partial update of a State. Nil fields are left untouched.
type Patch struct {
	Page    *int
	Filters *[]FilterRule
	Sorters *[]SortRule
}

// PageTo returns a patch that only moves to page n.
func PageTo(n int) Patch {
	return Patch{Page: &n}
}

// WithFilters returns a copy of p that replaces the filter list.
func (p Patch) WithFilters(f []FilterRule) Patch {
	p.Filters = &f
	return p
}

// WithSorters returns a copy of p that replaces the sorter list.
func (p Patch) WithSorters(s []SortRule) Patch {
	p.Sorters = &s
	return p
}

// WithPage returns a copy of p that sets the page.
func (p Patch) WithPage(n int) Patch {
	p.Page = &n
	return p
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Page == nil && p.Filters == nil && p.Sorters == nil
}

// Apply returns s with the patch merged in.
func (s State) Apply(p Patch) State {
	out := s.Clone()
	if p.Page != nil {
		out.Page = *p.Page
	}
	if p.Filters != nil {
		out.Filters = append([]FilterRule{}, (*p.Filters)...)
	}
	if p.Sorters != nil {
		out.Sorters = append([]SortRule{}, (*p.Sorters)...)
	}
	return out
}

// Row is one record of a dataset keyed by column id.
type Row map[string]any

// Result is the uniform output of an executor.
type Result struct {
	Rows         []Row `json:"data"`
	TotalRecords int   `json:"totalRecords"`
	// Page is the page the rows belong to after clamping.
	Page int `json:"page"`
}

// Executor turns a table state into one page of rows.
type Executor interface {
	Execute(ctx context.Context, st State) (Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, st State) (Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, st State) (Result, error) {
	return f(ctx, st)
}

// Versioned is implemented by executors whose underlying rows can change.
// The version increases on every change and keys result memoization.
type Versioned interface {
	Version() uint64
}
