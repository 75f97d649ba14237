package core

// WellFormed reports whether the filter names a known column and has a value.
func (f FilterRule) WellFormed(cols Columns) bool {
	return f.Column != "" && f.Value != "" && cols.Has(f.Column)
}

// WellFormed reports whether the sort rule names a known column.
func (r SortRule) WellFormed(cols Columns) bool {
	return r.Column != "" && cols.Has(r.Column)
}

// WellFormedFilters returns the well-formed subset of rules in order.
// A missing relation becomes RelContains.
func WellFormedFilters(rules []FilterRule, cols Columns) []FilterRule {
	out := make([]FilterRule, 0, len(rules))
	for _, f := range rules {
		if !f.WellFormed(cols) {
			continue
		}
		if f.Relation == "" {
			f.Relation = RelContains
		}
		out = append(out, f)
	}
	return out
}

// WellFormedSorters returns the well-formed subset of rules in order.
// A missing or unknown order becomes OrderAsc.
func WellFormedSorters(rules []SortRule, cols Columns) []SortRule {
	out := make([]SortRule, 0, len(rules))
	for _, r := range rules {
		if !r.WellFormed(cols) {
			continue
		}
		if !r.Order.Valid() {
			r.Order = OrderAsc
		}
		out = append(out, r)
	}
	return out
}

// Sanitize drops malformed rules and lifts the page to at least 1.
// Upper page clamping needs a total and happens after execution.
func Sanitize(st State, cols Columns) State {
	out := State{
		Page:    st.Page,
		Filters: WellFormedFilters(st.Filters, cols),
		Sorters: WellFormedSorters(st.Sorters, cols),
	}
	if out.Page < 1 {
		out.Page = 1
	}
	return out
}
