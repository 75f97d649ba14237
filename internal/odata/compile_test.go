package odata

import (
	"net/url"
	"testing"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var peopleColumns = core.Columns{
	{ID: "UserName", Filterable: true, Sortable: true},
	{ID: "FirstName", Filterable: true, Sortable: true},
	{ID: "LastName", Filterable: true, Sortable: true},
	{ID: "Gender", Filterable: true, Sortable: true},
	{ID: "Age", Kind: core.KindNumber, Sortable: true},
	{ID: "Born", Kind: core.KindDate, Filterable: true, Sortable: true},
}

func TestCompile_Paging(t *testing.T) {
	req := Compile(core.State{Page: 3}, peopleColumns, 8)

	assert.Equal(t, 8, req.Top)
	assert.Equal(t, 16, req.Skip)
	assert.Empty(t, req.OrderBy)
	assert.Empty(t, req.Filter)
	assert.Equal(t, "$count=true&$top=8&$skip=16", req.Query())
}

func TestCompile_EscapesSingleQuotes(t *testing.T) {
	st := core.State{Page: 1, Filters: []core.FilterRule{
		{Column: "LastName", Relation: core.RelEquals, Value: "O'Brien"},
	}}

	req := Compile(st, peopleColumns, 8)

	assert.Equal(t, "LastName eq 'O''Brien'", req.Filter)
}

func TestCompile_Relations(t *testing.T) {
	tests := []struct {
		name string
		rule core.FilterRule
		want string
	}{
		{"equals", core.FilterRule{Column: "FirstName", Relation: core.RelEquals, Value: "Russell"}, "FirstName eq 'Russell'"},
		{"contains", core.FilterRule{Column: "FirstName", Relation: core.RelContains, Value: "uss"}, "contains(FirstName, 'uss')"},
		{"starts with", core.FilterRule{Column: "FirstName", Relation: core.RelStartsWith, Value: "Ru"}, "startswith(FirstName, 'Ru')"},
		{"missing relation is contains", core.FilterRule{Column: "FirstName", Value: "a"}, "contains(FirstName, 'a')"},
		{"date compiles as string", core.FilterRule{Column: "Born", Relation: core.RelStartsWith, Value: "2024"}, "startswith(Born, '2024')"},
		{"number equals", core.FilterRule{Column: "Age", Relation: core.RelEquals, Value: "30"}, "Age eq 30"},
		{"number non-numeric dropped", core.FilterRule{Column: "Age", Relation: core.RelEquals, Value: "thirty"}, ""},
		{"number contains dropped", core.FilterRule{Column: "Age", Relation: core.RelContains, Value: "3"}, ""},
		{"number NaN dropped", core.FilterRule{Column: "Age", Relation: core.RelEquals, Value: "NaN"}, ""},
		{"unknown relation dropped", core.FilterRule{Column: "FirstName", Relation: "endsWith", Value: "l"}, ""},
		{"unknown column dropped", core.FilterRule{Column: "Email", Relation: core.RelEquals, Value: "x"}, ""},
		{"empty value dropped", core.FilterRule{Column: "FirstName", Relation: core.RelEquals}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Compile(core.State{Page: 1, Filters: []core.FilterRule{tt.rule}}, peopleColumns, 8)
			assert.Equal(t, tt.want, req.Filter)
		})
	}
}

func TestCompile_DropsOnlyInvalidRules(t *testing.T) {
	st := core.State{
		Page: 1,
		Filters: []core.FilterRule{
			{Column: "Gender", Relation: core.RelEquals, Value: "Male"},
			{Column: "Age", Relation: core.RelContains, Value: "3"},
			{Column: "FirstName", Relation: core.RelStartsWith, Value: "R"},
		},
	}

	req := Compile(st, peopleColumns, 8)

	assert.Equal(t, "Gender eq 'Male' and startswith(FirstName, 'R')", req.Filter)
}

func TestCompile_OrderByKeepsChainOrder(t *testing.T) {
	st := core.State{Page: 1, Sorters: []core.SortRule{
		{Column: "LastName", Order: core.OrderDesc},
		{Column: "FirstName"},
		{Column: "Nope", Order: core.OrderAsc},
	}}

	req := Compile(st, peopleColumns, 8)

	assert.Equal(t, "LastName desc,FirstName asc", req.OrderBy)
}

func TestRequest_URL(t *testing.T) {
	st := core.State{
		Page:    2,
		Filters: []core.FilterRule{{Column: "FirstName", Relation: core.RelContains, Value: "a b"}},
		Sorters: []core.SortRule{{Column: "Age", Order: core.OrderAsc}},
	}

	raw, err := Compile(st, peopleColumns, 8).URL(DefaultServiceURL)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "services.odata.org", u.Host)
	assert.NotContains(t, u.RawQuery, "+")

	q := u.Query()
	assert.Equal(t, "true", q.Get("$count"))
	assert.Equal(t, "8", q.Get("$top"))
	assert.Equal(t, "8", q.Get("$skip"))
	assert.Equal(t, "Age asc", q.Get("$orderby"))
	assert.Equal(t, "contains(FirstName, 'a b')", q.Get("$filter"))
}

func TestRequest_URLKeepsBaseQuery(t *testing.T) {
	raw, err := Compile(core.DefaultState(), peopleColumns, 8).URL("http://example.test/People?tenant=a")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", u.Query().Get("tenant"))
	assert.Equal(t, "0", u.Query().Get("$skip"))
}

func TestRequest_Values(t *testing.T) {
	v := Compile(core.State{Page: 1, Sorters: []core.SortRule{{Column: "Age", Order: core.OrderDesc}}}, peopleColumns, 5).Values()

	assert.Equal(t, "5", v.Get("$top"))
	assert.Equal(t, "Age desc", v.Get("$orderby"))
	assert.Empty(t, v.Get("$filter"))
}
