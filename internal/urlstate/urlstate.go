// Package urlstate maps a table state to and from location query
// parameters. The keys are page, filters and sorters; rule lists travel as
// JSON arrays.
package urlstate

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/tidwall/gjson"
)

const (
	KeyPage    = "page"
	KeyFilters = "filters"
	KeySorters = "sorters"
)

type filterParam struct {
	Column   string `json:"column"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
}

type sorterParam struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// Encode returns the query parameters for st. Default values are omitted.
func Encode(st core.State) url.Values {
	v := url.Values{}
	if st.Page > 1 {
		v.Set(KeyPage, strconv.Itoa(st.Page))
	}
	if len(st.Filters) > 0 {
		params := make([]filterParam, len(st.Filters))
		for i, f := range st.Filters {
			params[i] = filterParam{Column: f.Column, Relation: string(f.Relation), Value: f.Value}
		}
		v.Set(KeyFilters, mustJSON(params))
	}
	if len(st.Sorters) > 0 {
		params := make([]sorterParam, len(st.Sorters))
		for i, s := range st.Sorters {
			params[i] = sorterParam{Column: s.Column, Order: string(s.Order)}
		}
		v.Set(KeySorters, mustJSON(params))
	}
	return v
}

// Decode reads a state from query parameters. Each field falls back to its
// default on its own when missing or invalid.
func Decode(v url.Values) core.State {
	return core.State{
		Page:    decodePage(v.Get(KeyPage)),
		Filters: decodeFilters(v.Get(KeyFilters)),
		Sorters: decodeSorters(v.Get(KeySorters)),
	}
}

// Merge returns a copy of base with the state keys replaced by st.
// Parameters unrelated to the table are kept.
func Merge(base url.Values, st core.State) url.Values {
	out := url.Values{}
	for k, vs := range base {
		switch k {
		case KeyPage, KeyFilters, KeySorters:
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	for k, vs := range Encode(st) {
		out[k] = vs
	}
	return out
}

func decodePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func decodeFilters(raw string) []core.FilterRule {
	out := []core.FilterRule{}
	items, ok := objects(raw)
	if !ok {
		return out
	}
	for _, item := range items {
		column, okC := str(item, "column")
		relation, okR := str(item, "relation")
		value, okV := str(item, "value")
		if !okC || !okR || !okV || !core.Relation(relation).Valid() {
			return []core.FilterRule{}
		}
		out = append(out, core.FilterRule{Column: column, Relation: core.Relation(relation), Value: value})
	}
	return out
}

func decodeSorters(raw string) []core.SortRule {
	out := []core.SortRule{}
	items, ok := objects(raw)
	if !ok {
		return out
	}
	for _, item := range items {
		column, okC := str(item, "column")
		order, okO := str(item, "order")
		if !okC || !okO || !core.Order(order).Valid() {
			return []core.SortRule{}
		}
		out = append(out, core.SortRule{Column: column, Order: core.Order(order)})
	}
	return out
}

// objects returns the elements of a JSON array of objects.
func objects(raw string) ([]gjson.Result, bool) {
	if raw == "" || !gjson.Valid(raw) {
		return nil, false
	}
	arr := gjson.Parse(raw)
	if !arr.IsArray() {
		return nil, false
	}
	items := arr.Array()
	for _, item := range items {
		if !item.IsObject() {
			return nil, false
		}
	}
	return items, true
}

func str(obj gjson.Result, key string) (string, bool) {
	r := obj.Get(key)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
