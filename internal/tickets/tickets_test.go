package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = core.Columns{
	{ID: "id", Kind: core.KindNumber, Sortable: true},
	{ID: "ticketSubject", Filterable: true, Sortable: true},
	{ID: "ticketStatus", Filterable: true, Sortable: true},
	{ID: "dateRequested", Kind: core.KindDate, Sortable: true},
}

func TestSeed(t *testing.T) {
	seed := Seed()

	require.Len(t, seed, 14)
	for i, tk := range seed {
		assert.Equal(t, i+1, tk.ID)
		_, err := NormalizeStatus(tk.Status)
		assert.NoError(t, err, tk.Status)
	}
}

func TestCounts(t *testing.T) {
	counts := Counts(Seed())

	assert.Equal(t, 14, counts["all"])
	assert.Equal(t, 4, counts["open"])
	assert.Equal(t, 3, counts["in-progress"])
	assert.Equal(t, 3, counts["resolved"])
	assert.Equal(t, 2, counts["closed"])
	assert.Equal(t, 1, counts["dropped"])
	assert.Equal(t, 1, counts["on-hold"])
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []Preset{"all", "open", "in-progress", "resolved", "closed", "dropped", "on-hold"}, Presets())
	assert.Equal(t, Preset("on-hold"), ParsePreset("On-Hold"))
	assert.Equal(t, PresetAll, ParsePreset("archived"))
	assert.Equal(t, "In Progress", Preset("in-progress").Label())
	assert.Equal(t, "All Tickets", PresetAll.Label())
	assert.True(t, Preset("in-progress").Match(Ticket{Status: StatusInProgress}))
	assert.False(t, Preset("open").Match(Ticket{Status: StatusOnHold}))
}

func TestNormalizeStatus(t *testing.T) {
	for in, want := range map[string]string{
		"open":        StatusOpen,
		"IN PROGRESS": StatusInProgress,
		"on-hold":     StatusOnHold,
		" Dropped ":   StatusDropped,
	} {
		got, err := NormalizeStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := NormalizeStatus("archived")
	assert.ErrorContains(t, err, "invalid status")
	assert.Equal(t, "TKT003", core.MapError(err).Code)
}

func TestMemoryStore_Create(t *testing.T) {
	store := NewMemoryStore(Seed())
	store.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	tk, err := store.Create(context.Background(), NewTicket{
		MainCategory: "Sky Portal",
		SubCategory:  "Dashboard",
		ProblemIssue: "UI Bug",
		Description:  "Chart overlaps legend",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, tk.ID)
	assert.Equal(t, "UI Bug", tk.Subject)
	assert.Equal(t, StatusOpen, tk.Status)
	assert.Equal(t, "Portal", tk.Source)
	assert.Equal(t, "2025-01-02T03:04:05Z", core.Text(tk.DateRequested))

	list, _ := store.List(context.Background())
	assert.Len(t, list, 15)
}

func TestMemoryStore_CreateEmpty(t *testing.T) {
	store := NewMemoryStore(nil)

	tk, err := store.Create(context.Background(), NewTicket{MainCategory: "a", SubCategory: "b", ProblemIssue: "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, tk.ID)
}

func TestMemoryStore_CreateInvalid(t *testing.T) {
	store := NewMemoryStore(nil)

	_, err := store.Create(context.Background(), NewTicket{MainCategory: "a", SubCategory: "b"})

	assert.ErrorContains(t, err, "problem issue is required")
	assert.Equal(t, "TKT002", core.MapError(err).Code)
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	store := NewMemoryStore(Seed())
	ctx := context.Background()

	tk, err := store.UpdateStatus(ctx, 1, "resolved")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, tk.Status)

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)

	_, err = store.UpdateStatus(ctx, 99, "open")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "TKT001", core.MapError(err).Code)
}

func TestService_PresetExecutor(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, NewMemoryStore(Seed()), testColumns, 8)
	require.NoError(t, err)

	exec := svc.Executor(ParsePreset("open"))
	res, err := exec.Execute(ctx, core.State{
		Page:    1,
		Sorters: []core.SortRule{{Column: "dateRequested", Order: core.OrderDesc}},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.TotalRecords)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, 13, res.Rows[0]["id"])
	assert.Equal(t, 1, res.Rows[3]["id"])
}

func TestService_WritesBumpVersion(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, NewMemoryStore(Seed()), testColumns, 8)
	require.NoError(t, err)

	exec := svc.Executor(PresetAll).(core.Versioned)
	before := exec.Version()

	_, err = svc.UpdateStatus(ctx, 2, "open")
	require.NoError(t, err)
	assert.Greater(t, exec.Version(), before)
	assert.Equal(t, 5, svc.Counts()["open"])

	_, err = svc.Create(ctx, NewTicket{MainCategory: "API", SubCategory: "Keys", ProblemIssue: "Rotate key"})
	require.NoError(t, err)
	assert.Len(t, svc.Rows(), 15)
	assert.Len(t, svc.Tickets(), 15)
}

func TestService_FailedWriteKeepsVersion(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ctx, NewMemoryStore(Seed()), testColumns, 8)
	require.NoError(t, err)
	before := svc.Version()

	_, err = svc.UpdateStatus(ctx, 1, "nope")

	assert.Error(t, err)
	assert.Equal(t, before, svc.Version())
}

func TestTicketRow(t *testing.T) {
	row := Seed()[0].Row()

	assert.Equal(t, 1, row["id"])
	assert.Equal(t, "Addition of Guarantors to Loan Module", row["ticketSubject"])
	assert.Equal(t, "2024-05-06T12:00:00Z", core.Text(row["dateRequested"]))
}
