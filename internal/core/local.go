package core

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// ExecuteLocal applies st to an in-memory row set: filter, stable sort,
// clamp the page against the filtered total, then slice one page.
// Malformed rules are ignored. It never fails and never mutates rows.
func ExecuteLocal(rows []Row, st State, cols Columns, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	st = Sanitize(st, cols)

	matched := ApplyRules(rows, st, cols)
	page := ClampPage(st.Page, len(matched), pageSize)

	return Result{
		Rows:         Window(matched, Offset(page, pageSize), pageSize),
		TotalRecords: len(matched),
		Page:         page,
	}
}

// ApplyRules returns the rows passing every well-formed filter of st,
// ordered by its sort chain. The input slice is left untouched.
func ApplyRules(rows []Row, st State, cols Columns) []Row {
	filters := WellFormedFilters(st.Filters, cols)
	sorters := WellFormedSorters(st.Sorters, cols)

	out := make([]Row, 0, len(rows))
	if len(filters) == 0 {
		out = append(out, rows...)
	} else {
		preds := compileFilters(filters)
		for _, row := range rows {
			if matchesAll(row, preds) {
				out = append(out, row)
			}
		}
	}

	if len(sorters) > 0 {
		keys := make([]sortKey, len(sorters))
		for i, s := range sorters {
			col, _ := cols.Find(s.Column)
			keys[i] = sortKey{column: s.Column, kind: col.Kind.Normalize(), desc: s.Order == OrderDesc}
		}
		slices.SortStableFunc(out, func(a, b Row) int {
			for _, k := range keys {
				c := CompareValues(k.kind, a[k.column], b[k.column])
				if k.desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	return out
}

// predicate is a filter rule with its value folded once.
type predicate struct {
	column   string
	relation Relation
	value    string
}

func compileFilters(filters []FilterRule) []predicate {
	fold := cases.Fold()
	preds := make([]predicate, len(filters))
	for i, f := range filters {
		preds[i] = predicate{column: f.Column, relation: f.Relation, value: fold.String(f.Value)}
	}
	return preds
}

func matchesAll(row Row, preds []predicate) bool {
	fold := cases.Fold()
	for _, p := range preds {
		if !Match(p.relation, fold.String(Text(row[p.column])), p.value) {
			return false
		}
	}
	return true
}

// Match applies rel to an already normalized field and value.
// Unknown relations match everything.
func Match(rel Relation, field, value string) bool {
	switch rel {
	case RelEquals:
		return field == value
	case RelContains:
		return strings.Contains(field, value)
	case RelStartsWith:
		return strings.HasPrefix(field, value)
	default:
		return true
	}
}

// MatchFold is Match with Unicode case folding applied to both sides.
func MatchFold(rel Relation, field, value string) bool {
	fold := cases.Fold()
	return Match(rel, fold.String(field), fold.String(value))
}

type sortKey struct {
	column string
	kind   Kind
	desc   bool
}

// Text coerces a field value to the string used for filtering and display.
// Nil becomes the empty string.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// CompareValues orders two field values by the native ordering of kind.
// Missing values sort before present ones. Values that cannot be read as
// the declared kind fall back to lexical order.
func CompareValues(kind Kind, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch kind {
	case KindNumber:
		fa, okA := toNumber(a)
		fb, okB := toNumber(b)
		if okA && okB {
			return cmp.Compare(fa, fb)
		}
	case KindDate:
		ta, okA := toTime(a)
		tb, okB := toTime(b)
		if okA && okB {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(Text(a), Text(b))
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// LocalExecutor serves a replaceable in-memory row set.
type LocalExecutor struct {
	mu       sync.RWMutex
	rows     []Row
	version  uint64
	columns  Columns
	pageSize int
}

// NewLocalExecutor creates an executor over rows.
func NewLocalExecutor(rows []Row, cols Columns, pageSize int) *LocalExecutor {
	return &LocalExecutor{rows: rows, version: 1, columns: cols, pageSize: pageSize}
}

// SetRows replaces the row set and bumps the version.
func (e *LocalExecutor) SetRows(rows []Row) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = rows
	e.version++
}

// Rows returns the current row set.
func (e *LocalExecutor) Rows() []Row {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rows
}

// Version identifies the current row set.
func (e *LocalExecutor) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Execute implements Executor. It never returns an error.
func (e *LocalExecutor) Execute(_ context.Context, st State) (Result, error) {
	e.mu.RLock()
	rows := e.rows
	e.mu.RUnlock()
	return ExecuteLocal(rows, st, e.columns, e.pageSize), nil
}
