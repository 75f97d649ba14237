// Package odata compiles table state into OData-style query strings, fetches
// pages from a remote OData service, and serves local views over the same
// protocol.
package odata

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/gridview/internal/core"
)

// Request is a compiled remote query.
type Request struct {
	Top     int
	Skip    int
	OrderBy string // empty when there are no sorters
	Filter  string // empty when no clause survived compilation
}

// clauseFunc compiles one filter rule for a column kind.
// It reports false when the rule cannot be expressed and must be dropped.
type clauseFunc func(column string, rel core.Relation, value string) (string, bool)

// strategies maps a column kind to its filter compiler. Kinds not listed
// compile as strings.
var strategies = map[core.Kind]clauseFunc{
	core.KindString: textClause,
	core.KindDate:   textClause,
	core.KindNumber: numberClause,
}

// Compile turns st into a remote request for pages of pageSize rows.
// Malformed rules are dropped, as are rules their column kind cannot express.
func Compile(st core.State, cols core.Columns, pageSize int) Request {
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}
	st = core.Sanitize(st, cols)

	req := Request{
		Top:  pageSize,
		Skip: core.Offset(st.Page, pageSize),
	}

	if len(st.Sorters) > 0 {
		parts := make([]string, len(st.Sorters))
		for i, s := range st.Sorters {
			parts[i] = s.Column + " " + string(s.Order)
		}
		req.OrderBy = strings.Join(parts, ",")
	}

	var clauses []string
	for _, f := range st.Filters {
		if clause, ok := CompileFilter(f, cols); ok {
			clauses = append(clauses, clause)
		}
	}
	req.Filter = strings.Join(clauses, " and ")

	return req
}

// CompileFilter compiles a single well-formed rule.
func CompileFilter(f core.FilterRule, cols core.Columns) (string, bool) {
	col, ok := cols.Find(f.Column)
	if !ok || f.Value == "" {
		return "", false
	}
	rel := f.Relation
	if rel == "" {
		rel = core.RelContains
	}
	compile, ok := strategies[col.Kind.Normalize()]
	if !ok {
		compile = textClause
	}
	return compile(f.Column, rel, f.Value)
}

func textClause(column string, rel core.Relation, value string) (string, bool) {
	lit := Quote(value)
	switch rel {
	case core.RelEquals:
		return column + " eq " + lit, true
	case core.RelContains:
		return "contains(" + column + ", " + lit + ")", true
	case core.RelStartsWith:
		return "startswith(" + column + ", " + lit + ")", true
	default:
		return "", false
	}
}

func numberClause(column string, rel core.Relation, value string) (string, bool) {
	if rel != core.RelEquals {
		return "", false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return "", false
	}
	return column + " eq " + strconv.FormatFloat(n, 'f', -1, 64), true
}

// Quote renders s as an OData string literal, doubling single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Query renders the request as a query string. Keys keep their literal
// '$' and spaces are encoded as %20.
func (r Request) Query() string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(url.QueryEscape(value), "+", "%20"))
	}

	add("$count", "true")
	add("$top", strconv.Itoa(r.Top))
	add("$skip", strconv.Itoa(r.Skip))
	if r.OrderBy != "" {
		add("$orderby", r.OrderBy)
	}
	if r.Filter != "" {
		add("$filter", r.Filter)
	}
	return b.String()
}

// URL appends the request to base, keeping any query base already has.
func (r Request) URL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.RawQuery != "" {
		u.RawQuery += "&" + r.Query()
	} else {
		u.RawQuery = r.Query()
	}
	return u.String(), nil
}

// Values returns the request as url.Values.
func (r Request) Values() url.Values {
	v := url.Values{}
	v.Set("$count", "true")
	v.Set("$top", strconv.Itoa(r.Top))
	v.Set("$skip", strconv.Itoa(r.Skip))
	if r.OrderBy != "" {
		v.Set("$orderby", r.OrderBy)
	}
	if r.Filter != "" {
		v.Set("$filter", r.Filter)
	}
	return v
}
