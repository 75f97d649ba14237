package cli

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridview/internal/core"
)

// RuleFlags holds the rule flags shared by query and compile.
type RuleFlags struct {
	Filters []string
	Sorters []string
	Page    int
}

// parseFilter reads "column:relation:value" or "column:value" (contains).
// The value may itself contain colons.
func parseFilter(s string) (core.FilterRule, error) {
	parts := strings.SplitN(s, ":", 3)
	switch len(parts) {
	case 2:
		return core.FilterRule{Column: parts[0], Relation: core.RelContains, Value: parts[1]}, nil
	case 3:
		rel, err := core.ParseRelation(parts[1])
		if err != nil {
			// no relation given; the colon belongs to the value
			return core.FilterRule{Column: parts[0], Relation: core.RelContains, Value: parts[1] + ":" + parts[2]}, nil
		}
		return core.FilterRule{Column: parts[0], Relation: rel, Value: parts[2]}, nil
	default:
		return core.FilterRule{}, fmt.Errorf("invalid filter %q: want column:relation:value", s)
	}
}

// parseSort reads "column" or "column:asc|desc".
func parseSort(s string) (core.SortRule, error) {
	col, order, found := strings.Cut(s, ":")
	if col == "" {
		return core.SortRule{}, fmt.Errorf("invalid sort %q: want column[:asc|desc]", s)
	}
	if !found {
		return core.SortRule{Column: col, Order: core.OrderAsc}, nil
	}
	o, err := core.ParseOrder(order)
	if err != nil {
		return core.SortRule{}, fmt.Errorf("invalid sort %q: %w", s, err)
	}
	return core.SortRule{Column: col, Order: o}, nil
}

// State builds the requested state. Rules that are not well-formed for
// cols are returned in dropped so callers can warn about them.
func (f RuleFlags) State(cols core.Columns) (st core.State, dropped []string, err error) {
	st = core.DefaultState()
	if f.Page > 0 {
		st.Page = f.Page
	}

	for _, raw := range f.Filters {
		rule, err := parseFilter(raw)
		if err != nil {
			return core.State{}, nil, err
		}
		if !rule.WellFormed(cols.Filterable()) {
			dropped = append(dropped, "filter "+raw)
			continue
		}
		st.Filters = append(st.Filters, rule)
	}
	for _, raw := range f.Sorters {
		rule, err := parseSort(raw)
		if err != nil {
			return core.State{}, nil, err
		}
		if !rule.WellFormed(cols.Sortable()) {
			dropped = append(dropped, "sort "+raw)
			continue
		}
		st.Sorters = append(st.Sorters, rule)
	}
	return st, dropped, nil
}
