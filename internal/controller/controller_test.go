package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = core.Columns{
	{ID: "id", Kind: core.KindNumber, Filterable: true, Sortable: true},
	{ID: "name", Filterable: true, Sortable: true},
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func numberedRows(n int) []core.Row {
	rows := make([]core.Row, n)
	for i := range rows {
		rows[i] = core.Row{"id": i + 1, "name": fmt.Sprintf("row %02d", i+1)}
	}
	return rows
}

type recordingSink struct {
	mu     sync.Mutex
	states []core.State
}

func (s *recordingSink) Sync(st core.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func (s *recordingSink) all() []core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.State(nil), s.states...)
}

type countingExecutor struct {
	*core.LocalExecutor
	mu    sync.Mutex
	calls int
}

func (e *countingExecutor) Execute(ctx context.Context, st core.State) (core.Result, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.LocalExecutor.Execute(ctx, st)
}

func (e *countingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newLocal(t *testing.T, rows []core.Row, sink StateSink) (*Controller, *countingExecutor) {
	t.Helper()
	exec := &countingExecutor{LocalExecutor: core.NewLocalExecutor(rows, testColumns, 8)}
	c := New(Options{
		Key:      "local-test",
		Source:   core.SourceLocal,
		Executor: exec,
		Columns:  testColumns,
		PageSize: 8,
		Initial:  core.DefaultState(),
		Sink:     sink,
		Logger:   quietLogger(),
	})
	t.Cleanup(c.Close)
	return c, exec
}

// gatedExecutor answers each page only once its gate is released and
// ignores cancellation, like a server that replies after the client moved on.
type gatedExecutor struct {
	mu    sync.Mutex
	gates map[int]chan struct{}
	pages []int
	total int
}

func newGatedExecutor(total int, pages ...int) *gatedExecutor {
	g := &gatedExecutor{gates: make(map[int]chan struct{}), total: total}
	for _, p := range pages {
		g.gates[p] = make(chan struct{})
	}
	return g
}

func (g *gatedExecutor) release(page int) { close(g.gates[page]) }

func (g *gatedExecutor) Execute(_ context.Context, st core.State) (core.Result, error) {
	g.mu.Lock()
	g.pages = append(g.pages, st.Page)
	gate := g.gates[st.Page]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return core.Result{Rows: []core.Row{{"id": st.Page}}, TotalRecords: g.total, Page: st.Page}, nil
}

func (g *gatedExecutor) seen() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.pages...)
}

func newRemote(t *testing.T, key string, exec core.Executor, sink StateSink, timeout time.Duration) *Controller {
	t.Helper()
	c := New(Options{
		Key:          key,
		Source:       core.SourceRemote,
		Executor:     exec,
		Columns:      testColumns,
		PageSize:     8,
		Initial:      core.DefaultState(),
		Sink:         sink,
		FetchTimeout: timeout,
		Logger:       quietLogger(),
	})
	t.Cleanup(c.Close)
	return c
}

func await(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Await(ctx))
}

// =============================================================================
// Local views
// =============================================================================

func TestLocal_InitialDerivation(t *testing.T) {
	c, _ := newLocal(t, numberedRows(20), nil)

	v := c.View()
	assert.Equal(t, PhaseLoaded, v.Phase)
	assert.False(t, v.Loading)
	assert.Equal(t, 20, v.TotalRecords)
	assert.Equal(t, 3, v.TotalPages)
	assert.Len(t, v.Rows, 8)
	assert.Equal(t, 1, v.Rows[0]["id"])
}

func TestLocal_CommitMovesPageAndSyncs(t *testing.T) {
	sink := &recordingSink{}
	c, _ := newLocal(t, numberedRows(20), sink)

	assert.True(t, c.Commit(core.PageTo(3)))

	v := c.View()
	assert.Equal(t, 3, v.State.Page)
	require.Len(t, v.Rows, 4)
	assert.Equal(t, 17, v.Rows[0]["id"])

	states := sink.all()
	require.Len(t, states, 1)
	assert.Equal(t, 3, states[0].Page)
}

func TestLocal_UnchangedCommitIsNoOp(t *testing.T) {
	sink := &recordingSink{}
	c, exec := newLocal(t, numberedRows(20), sink)
	before := exec.count()

	assert.False(t, c.Commit(core.PageTo(1)))
	assert.False(t, c.Commit(core.Patch{}))

	assert.Equal(t, before, exec.count())
	assert.Empty(t, sink.all())
}

func TestLocal_MalformedRulesDropped(t *testing.T) {
	c, _ := newLocal(t, numberedRows(20), nil)

	c.Commit(core.Patch{}.WithFilters([]core.FilterRule{
		{Column: "nope", Relation: core.RelEquals, Value: "x"},
		{Column: "name", Value: "row 1"},
	}))

	st := c.State()
	require.Len(t, st.Filters, 1)
	assert.Equal(t, core.RelContains, st.Filters[0].Relation)
	assert.Equal(t, 10, c.View().TotalRecords)
}

func TestLocal_PageCorrection(t *testing.T) {
	sink := &recordingSink{}
	c, _ := newLocal(t, numberedRows(10), sink)

	c.Commit(core.PageTo(5))

	assert.Equal(t, 2, c.State().Page)
	v := c.View()
	assert.Len(t, v.Rows, 2)

	states := sink.all()
	require.NotEmpty(t, states)
	assert.Equal(t, 2, states[len(states)-1].Page)
}

func TestLocal_FilterShrinksPastCurrentPage(t *testing.T) {
	c, _ := newLocal(t, numberedRows(20), nil)
	c.Commit(core.PageTo(3))

	c.Commit(core.Patch{}.WithFilters([]core.FilterRule{{Column: "name", Relation: core.RelStartsWith, Value: "row 0"}}))

	assert.Equal(t, 2, c.State().Page)
	assert.Equal(t, 9, c.View().TotalRecords)
}

func TestLocal_Memoized(t *testing.T) {
	c, exec := newLocal(t, numberedRows(20), nil)
	before := exec.count()
	hits := testutil.ToFloat64(metrics.LocalExecutions.WithLabelValues("local-test", "hit"))

	c.Refresh()
	assert.Equal(t, before, exec.count())
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.LocalExecutions.WithLabelValues("local-test", "hit")))

	exec.SetRows(numberedRows(3))
	c.Refresh()
	assert.Equal(t, before+1, exec.count())
	assert.Equal(t, 3, c.View().TotalRecords)
}

func TestLocal_EmptyRows(t *testing.T) {
	c, _ := newLocal(t, nil, nil)

	v := c.View()
	assert.NotNil(t, v.Rows)
	assert.Empty(t, v.Rows)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.State.Page)
}

func TestLocal_ChangedFiresOnCommit(t *testing.T) {
	c, _ := newLocal(t, numberedRows(20), nil)
	ch := c.Changed()

	c.Commit(core.PageTo(2))

	select {
	case <-ch:
	default:
		t.Fatal("Changed channel not closed after commit")
	}
}

// =============================================================================
// Remote views
// =============================================================================

func TestRemote_LoadingThenLoaded(t *testing.T) {
	exec := newGatedExecutor(20, 1)
	c := newRemote(t, "remote-loading", exec, nil, 0)

	v := c.View()
	assert.True(t, v.Loading)
	assert.Equal(t, PhaseLoading, v.Phase)
	assert.Equal(t, uint64(1), v.Token)

	exec.release(1)
	await(t, c)

	v = c.View()
	assert.False(t, v.Loading)
	assert.Equal(t, PhaseLoaded, v.Phase)
	assert.Equal(t, 20, v.TotalRecords)
	assert.Equal(t, 3, v.TotalPages)
}

func TestRemote_StaleResponseDiscarded(t *testing.T) {
	exec := newGatedExecutor(40, 1, 2)
	c := newRemote(t, "remote-stale", exec, nil, 0)
	stale := testutil.ToFloat64(metrics.StaleResponses.WithLabelValues("remote-stale"))

	c.Commit(core.PageTo(2))

	// The newer fetch finishes first.
	exec.release(2)
	await(t, c)
	exec.release(1)
	c.Close()

	v := c.View()
	assert.Equal(t, 2, v.State.Page)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, 2, v.Rows[0]["id"])
	assert.Equal(t, uint64(2), v.Token)
	assert.Equal(t, stale+1, testutil.ToFloat64(metrics.StaleResponses.WithLabelValues("remote-stale")))
}

func TestRemote_NewFetchCancelsPrevious(t *testing.T) {
	cancelled := make(chan struct{})
	var once sync.Once
	exec := core.ExecutorFunc(func(ctx context.Context, st core.State) (core.Result, error) {
		if st.Page == 1 {
			<-ctx.Done()
			once.Do(func() { close(cancelled) })
			return core.Result{}, ctx.Err()
		}
		return core.Result{Rows: []core.Row{{"id": st.Page}}, TotalRecords: 40, Page: st.Page}, nil
	})
	c := newRemote(t, "remote-cancel", exec, nil, 0)

	c.Commit(core.PageTo(2))

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("previous fetch was not cancelled")
	}
	await(t, c)
	assert.Equal(t, PhaseLoaded, c.View().Phase)
}

func TestRemote_PageCorrectionRefetches(t *testing.T) {
	exec := newGatedExecutor(10)
	sink := &recordingSink{}
	c := newRemote(t, "remote-correct", exec, sink, 0)
	await(t, c)

	c.Commit(core.PageTo(5))
	await(t, c)

	assert.Equal(t, 2, c.State().Page)
	assert.Equal(t, []int{1, 5, 2}, exec.seen())

	v := c.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, 2, v.Rows[0]["id"])

	states := sink.all()
	require.NotEmpty(t, states)
	assert.Equal(t, 2, states[len(states)-1].Page)
}

func TestRemote_ErrorState(t *testing.T) {
	exec := core.ExecutorFunc(func(context.Context, core.State) (core.Result, error) {
		return core.Result{}, errors.New("remote transport: connection refused")
	})
	c := newRemote(t, "remote-error", exec, nil, 0)
	await(t, c)

	v := c.View()
	assert.Equal(t, PhaseError, v.Phase)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Rows)
	assert.Equal(t, 0, v.TotalRecords)
	assert.Contains(t, v.Err, "REM001")
}

func TestRemote_FetchTimeout(t *testing.T) {
	exec := core.ExecutorFunc(func(ctx context.Context, _ core.State) (core.Result, error) {
		<-ctx.Done()
		return core.Result{}, fmt.Errorf("remote transport: %w", ctx.Err())
	})
	c := newRemote(t, "remote-timeout", exec, nil, 20*time.Millisecond)
	await(t, c)

	v := c.View()
	assert.Equal(t, PhaseError, v.Phase)
	assert.Contains(t, v.Err, "REM004")
}

func TestRemote_RecoversAfterError(t *testing.T) {
	var mu sync.Mutex
	fail := true
	exec := core.ExecutorFunc(func(_ context.Context, st core.State) (core.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return core.Result{}, errors.New("remote status 503: unavailable")
		}
		return core.Result{Rows: []core.Row{{"id": st.Page}}, TotalRecords: 20, Page: st.Page}, nil
	})
	c := newRemote(t, "remote-recover", exec, nil, 0)
	await(t, c)
	require.Equal(t, PhaseError, c.View().Phase)

	mu.Lock()
	fail = false
	mu.Unlock()
	c.Refresh()
	await(t, c)

	v := c.View()
	assert.Equal(t, PhaseLoaded, v.Phase)
	assert.Empty(t, v.Err)
	assert.Equal(t, 20, v.TotalRecords)
}

func TestAwait_ContextDone(t *testing.T) {
	exec := newGatedExecutor(10, 1)
	c := newRemote(t, "remote-await", exec, nil, 0)
	defer exec.release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, c.Await(ctx), context.DeadlineExceeded)
}

func TestClose_StopsInFlightFetch(t *testing.T) {
	exec := core.ExecutorFunc(func(ctx context.Context, _ core.State) (core.Result, error) {
		<-ctx.Done()
		return core.Result{}, ctx.Err()
	})
	c := newRemote(t, "remote-close", exec, nil, 0)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.False(t, c.Commit(core.PageTo(2)))
	assert.NoError(t, c.Await(context.Background()))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "loaded", PhaseLoaded.String())
	assert.Equal(t, "error", PhaseError.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
