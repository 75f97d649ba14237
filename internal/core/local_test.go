package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statusColumns = Columns{
	{ID: "id", Caption: "ID", Kind: KindNumber, Sortable: true},
	{ID: "status", Caption: "Status", Filterable: true, Sortable: true},
}

func statusRows() []Row {
	return []Row{
		{"id": 1, "status": "Open"},
		{"id": 2, "status": "Closed"},
		{"id": 3, "status": "Open"},
	}
}

func ids(rows []Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

func TestExecuteLocal_FilterIsCaseInsensitive(t *testing.T) {
	st := State{Page: 1, Filters: []FilterRule{{Column: "status", Relation: RelEquals, Value: "open"}}}

	res := ExecuteLocal(statusRows(), st, statusColumns, 10)

	assert.Equal(t, []any{1, 3}, ids(res.Rows))
	assert.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, 1, res.Page)
}

func TestExecuteLocal_SortIsStable(t *testing.T) {
	st := State{Page: 1, Sorters: []SortRule{{Column: "status", Order: OrderAsc}}}

	res := ExecuteLocal(statusRows(), st, statusColumns, 10)

	assert.Equal(t, []any{2, 1, 3}, ids(res.Rows))
}

func TestExecuteLocal_SortDescKeepsTieOrder(t *testing.T) {
	st := State{Page: 1, Sorters: []SortRule{{Column: "status", Order: OrderDesc}}}

	res := ExecuteLocal(statusRows(), st, statusColumns, 10)

	assert.Equal(t, []any{1, 3, 2}, ids(res.Rows))
}

func TestExecuteLocal_TieBreakChain(t *testing.T) {
	st := State{Page: 1, Sorters: []SortRule{
		{Column: "status", Order: OrderDesc},
		{Column: "id", Order: OrderDesc},
	}}

	res := ExecuteLocal(statusRows(), st, statusColumns, 10)

	assert.Equal(t, []any{3, 1, 2}, ids(res.Rows))
}

func TestExecuteLocal_Relations(t *testing.T) {
	rows := []Row{
		{"id": 1, "status": "In Progress"},
		{"id": 2, "status": "Resolved"},
		{"id": 3, "status": "On Hold"},
	}

	tests := []struct {
		name string
		rule FilterRule
		want []any
	}{
		{"contains", FilterRule{Column: "status", Relation: RelContains, Value: "o"}, []any{1, 2, 3}},
		{"contains mixed case", FilterRule{Column: "status", Relation: RelContains, Value: "PROG"}, []any{1}},
		{"starts with", FilterRule{Column: "status", Relation: RelStartsWith, Value: "on"}, []any{3}},
		{"equals needs full match", FilterRule{Column: "status", Relation: RelEquals, Value: "resolv"}, []any{}},
		{"missing relation is contains", FilterRule{Column: "status", Value: "hold"}, []any{3}},
		{"unknown relation passes", FilterRule{Column: "status", Relation: "endsWith", Value: "zzz"}, []any{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := State{Page: 1, Filters: []FilterRule{tt.rule}}
			res := ExecuteLocal(rows, st, statusColumns, 10)
			assert.Equal(t, tt.want, ids(res.Rows))
			assert.Equal(t, len(tt.want), res.TotalRecords)
		})
	}
}

func TestExecuteLocal_FiltersAreConjunctive(t *testing.T) {
	cols := Columns{
		{ID: "id", Kind: KindNumber},
		{ID: "status", Filterable: true},
		{ID: "source", Filterable: true},
	}
	rows := []Row{
		{"id": 1, "status": "Open", "source": "Email"},
		{"id": 2, "status": "Open", "source": "Phone Call"},
		{"id": 3, "status": "Closed", "source": "Email"},
	}
	st := State{Page: 1, Filters: []FilterRule{
		{Column: "status", Relation: RelEquals, Value: "open"},
		{Column: "source", Relation: RelEquals, Value: "email"},
	}}

	res := ExecuteLocal(rows, st, cols, 10)

	assert.Equal(t, []any{1}, ids(res.Rows))
}

func TestExecuteLocal_MissingFieldIsEmptyString(t *testing.T) {
	rows := []Row{{"id": 1}, {"id": 2, "status": "Open"}}

	st := State{Page: 1, Filters: []FilterRule{{Column: "status", Relation: RelContains, Value: "o"}}}
	res := ExecuteLocal(rows, st, statusColumns, 10)
	assert.Equal(t, []any{2}, ids(res.Rows))

	st = State{Page: 1, Sorters: []SortRule{{Column: "status", Order: OrderAsc}}}
	res = ExecuteLocal([]Row{{"id": 2, "status": "Open"}, {"id": 1}}, st, statusColumns, 10)
	assert.Equal(t, []any{1, 2}, ids(res.Rows), "missing values order first")
}

func TestExecuteLocal_MalformedRulesAreIgnored(t *testing.T) {
	st := State{
		Page: 1,
		Filters: []FilterRule{
			{Column: "status", Relation: RelEquals, Value: ""},
			{Column: "nope", Relation: RelEquals, Value: "x"},
			{Relation: RelEquals, Value: "x"},
		},
		Sorters: []SortRule{{Column: ""}, {Column: "nope", Order: OrderDesc}},
	}

	res := ExecuteLocal(statusRows(), st, statusColumns, 10)

	assert.Equal(t, []any{1, 2, 3}, ids(res.Rows))
	assert.Equal(t, 3, res.TotalRecords)
}

func TestExecuteLocal_NativeOrderingPerKind(t *testing.T) {
	cols := Columns{
		{ID: "n", Kind: KindNumber, Sortable: true},
		{ID: "d", Kind: KindDate, Sortable: true},
		{ID: "s", Sortable: true},
	}
	rows := []Row{
		{"n": 10, "d": "2024-05-10T12:00:00Z", "s": "b"},
		{"n": 9, "d": "2024-05-06T12:00:00Z", "s": "a"},
		{"n": 100, "d": "2023-12-31T00:00:00Z", "s": "C"},
	}

	byNumber := ExecuteLocal(rows, State{Page: 1, Sorters: []SortRule{{Column: "n", Order: OrderAsc}}}, cols, 10)
	assert.Equal(t, []any{9, 10, 100}, column(byNumber.Rows, "n"))

	byDate := ExecuteLocal(rows, State{Page: 1, Sorters: []SortRule{{Column: "d", Order: OrderAsc}}}, cols, 10)
	assert.Equal(t, []any{100, 9, 10}, column(byDate.Rows, "n"))

	byString := ExecuteLocal(rows, State{Page: 1, Sorters: []SortRule{{Column: "s", Order: OrderAsc}}}, cols, 10)
	assert.Equal(t, []any{"C", "a", "b"}, column(byString.Rows, "s"))
}

func column(rows []Row, id string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[id]
	}
	return out
}

func TestExecuteLocal_PaginationCoversEveryRow(t *testing.T) {
	rows := make([]Row, 0, 21)
	for i := 1; i <= 21; i++ {
		rows = append(rows, Row{"id": i, "status": fmt.Sprintf("s%02d", i%4)})
	}
	st := State{Sorters: []SortRule{{Column: "status", Order: OrderAsc}}}

	total := 0
	seen := map[any]bool{}
	pages := TotalPages(len(rows), 8)
	require.Equal(t, 3, pages)
	for p := 1; p <= pages; p++ {
		st.Page = p
		res := ExecuteLocal(rows, st, statusColumns, 8)
		assert.LessOrEqual(t, len(res.Rows), 8)
		assert.Equal(t, 21, res.TotalRecords)
		total += len(res.Rows)
		for _, r := range res.Rows {
			seen[r["id"]] = true
		}
	}
	assert.Equal(t, 21, total)
	assert.Len(t, seen, 21)
}

func TestExecuteLocal_ClampsPage(t *testing.T) {
	rows := make([]Row, 10)
	for i := range rows {
		rows[i] = Row{"id": i + 1}
	}

	res := ExecuteLocal(rows, State{Page: 3}, statusColumns, 8)
	assert.Equal(t, 2, res.Page)
	assert.Len(t, res.Rows, 2)

	res = ExecuteLocal(rows, State{Page: 0}, statusColumns, 8)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Rows, 8)
}

func TestExecuteLocal_EmptyResult(t *testing.T) {
	st := State{Page: 4, Filters: []FilterRule{{Column: "status", Relation: RelEquals, Value: "dropped"}}}

	res := ExecuteLocal(statusRows(), st, statusColumns, 8)

	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.TotalRecords)
	assert.Equal(t, 1, res.Page)
}

func TestExecuteLocal_DoesNotMutateInput(t *testing.T) {
	rows := statusRows()
	st := State{Page: 1, Sorters: []SortRule{{Column: "status", Order: OrderAsc}}}

	_ = ExecuteLocal(rows, st, statusColumns, 10)

	assert.Equal(t, []any{1, 2, 3}, ids(rows))
}

func TestText(t *testing.T) {
	when := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "abc", Text("abc"))
	assert.Equal(t, "42", Text(42))
	assert.Equal(t, "3.5", Text(3.5))
	assert.Equal(t, "30", Text(float64(30)))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "2024-05-06T12:00:00Z", Text(when))
}

func TestCompareValues_MixedKindsFallBackToLexical(t *testing.T) {
	assert.Equal(t, 0, CompareValues(KindNumber, nil, nil))
	assert.Equal(t, -1, CompareValues(KindNumber, nil, 1))
	assert.Equal(t, 1, CompareValues(KindNumber, 1, nil))
	assert.Equal(t, -1, CompareValues(KindNumber, "2", "10"))
	assert.Equal(t, 1, CompareValues(KindNumber, "abc", "10"))
}

func TestLocalExecutor_SetRowsBumpsVersion(t *testing.T) {
	exec := NewLocalExecutor(statusRows(), statusColumns, 8)
	v := exec.Version()

	exec.SetRows(statusRows()[:1])

	assert.Greater(t, exec.Version(), v)
	res, err := exec.Execute(context.Background(), DefaultState())
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalRecords)
}
