// Package controller owns the canonical state of one table view and derives
// the rows to display from it, locally or through a remote executor.
//
// A remote view moves through Idle, Loading, Loaded and Error. Every fetch
// carries a token; only the response to the most recently issued token is
// applied, and issuing a new fetch cancels the previous one.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/metrics"
)

// Phase is the fetch state of a view.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// View is a snapshot of everything a renderer needs.
type View struct {
	State        core.State
	Rows         []core.Row
	TotalRecords int
	TotalPages   int
	Loading      bool
	Err          string // human-readable; empty when the last fetch succeeded
	Phase        Phase
	Token        uint64 // token of the latest issued fetch
}

// StateSink receives every committed state change, including corrections.
type StateSink interface {
	Sync(core.State)
}

// SinkFunc adapts a function to StateSink.
type SinkFunc func(core.State)

// Sync calls f.
func (f SinkFunc) Sync(st core.State) { f(st) }

// Options configures a Controller.
type Options struct {
	Key          string // view key used in logs and metrics
	Source       core.Source
	Executor     core.Executor
	Columns      core.Columns
	PageSize     int
	Initial      core.State
	Sink         StateSink
	FetchTimeout time.Duration // zero disables the per-fetch timeout
	Logger       *slog.Logger
}

type memoEntry struct {
	valid   bool
	state   core.State
	version uint64
	result  core.Result
}

// Controller is safe for concurrent use.
type Controller struct {
	key      string
	source   core.Source
	exec     core.Executor
	columns  core.Columns
	pageSize int
	sink     StateSink
	timeout  time.Duration
	logger   *slog.Logger

	life context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	state   core.State
	view    View
	token   uint64
	cancel  context.CancelFunc
	changed chan struct{}
	memo    memoEntry
	closed  bool
	syncSeq uint64

	sinkMu sync.Mutex
	pushed uint64
}

// New creates a controller and runs the initial derivation. For a remote
// source the first fetch starts immediately.
func New(opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultPageSize
	}
	if opts.Source == "" {
		opts.Source = core.SourceLocal
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	life, stop := context.WithCancel(context.Background())
	c := &Controller{
		key:      opts.Key,
		source:   opts.Source,
		exec:     opts.Executor,
		columns:  opts.Columns,
		pageSize: opts.PageSize,
		sink:     opts.Sink,
		timeout:  opts.FetchTimeout,
		logger:   opts.Logger.With("component", "controller", "view", opts.Key),
		life:     life,
		stop:     stop,
		state:    core.Sanitize(opts.Initial, opts.Columns),
		changed:  make(chan struct{}),
	}
	c.view = View{State: c.state.Clone(), Rows: []core.Row{}, TotalPages: 1, Phase: PhaseIdle}

	c.mu.Lock()
	synced := c.runLocked()
	c.mu.Unlock()
	c.push(synced)

	return c
}

// Key returns the view key.
func (c *Controller) Key() string { return c.key }

// Source returns the executor family of the view.
func (c *Controller) Source() core.Source { return c.source }

// Columns returns the column contract.
func (c *Controller) Columns() core.Columns { return c.columns }

// PageSize returns the number of rows per page.
func (c *Controller) PageSize() int { return c.pageSize }

// State returns a copy of the committed state.
func (c *Controller) State() core.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// View returns a snapshot of the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.State = c.state.Clone()
	v.Rows = append(make([]core.Row, 0, len(c.view.Rows)), c.view.Rows...)
	return v
}

// Changed returns a channel closed at the next view change.
func (c *Controller) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Commit merges p into the committed state. It is the only way to change
// the state. Malformed rules are dropped. It reports whether the state
// changed; an unchanged state does not re-run the executor.
func (c *Controller) Commit(p core.Patch) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	next := core.Sanitize(c.state.Apply(p), c.columns)
	if next.Equal(c.state) {
		c.mu.Unlock()
		return false
	}
	c.state = next
	synced := c.pendingLocked()
	if corrected := c.runLocked(); corrected != nil {
		synced = corrected
	}
	c.mu.Unlock()

	c.push(synced)
	return true
}

// Refresh re-derives the current state, for example after the local rows
// changed.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	synced := c.runLocked()
	c.mu.Unlock()
	c.push(synced)
}

// Await blocks until the view is not loading or ctx is done.
func (c *Controller) Await(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.view.Loading || c.closed {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels any in-flight fetch and waits for it to return.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stop()
	c.notifyLocked()
	c.mu.Unlock()

	c.wg.Wait()
}

// runLocked derives the view for the committed state. It returns the state
// to push to the sink when a correction changed it, or nil.
func (c *Controller) runLocked() *pending {
	if c.source == core.SourceRemote {
		c.fetchLocked()
		return nil
	}
	return c.deriveLocked()
}

func (c *Controller) version() uint64 {
	if v, ok := c.exec.(core.Versioned); ok {
		return v.Version()
	}
	return 0
}

// deriveLocked runs a local executor synchronously, memoized on
// (state, rows version).
func (c *Controller) deriveLocked() *pending {
	version := c.version()
	if c.memo.valid && c.memo.version == version && c.memo.state.Equal(c.state) {
		metrics.LocalExecutions.WithLabelValues(c.key, "hit").Inc()
		return c.applyLocked(c.memo.result)
	}

	res, err := c.exec.Execute(c.life, c.state)
	metrics.LocalExecutions.WithLabelValues(c.key, "miss").Inc()
	if err != nil {
		c.failLocked(err)
		return nil
	}
	c.memo = memoEntry{valid: true, state: c.state.Clone(), version: version, result: res}
	return c.applyLocked(res)
}

// fetchLocked issues a new remote fetch for the committed state.
func (c *Controller) fetchLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.token++
	token := c.token

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(c.life, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(c.life)
	}
	c.cancel = cancel

	c.view.Loading = true
	c.view.Phase = PhaseLoading
	c.view.Err = ""
	c.view.Token = token
	c.notifyLocked()

	st := c.state.Clone()
	c.logger.Debug("fetch started", "token", token, "page", st.Page,
		"filters", len(st.Filters), "sorters", len(st.Sorters))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		start := time.Now()
		res, err := c.exec.Execute(ctx, st)

		c.mu.Lock()
		if c.closed || token != c.token {
			c.mu.Unlock()
			metrics.StaleResponses.WithLabelValues(c.key).Inc()
			c.logger.Debug("stale response discarded", "token", token,
				"duration_ms", time.Since(start).Milliseconds())
			return
		}

		var synced *pending
		if err != nil {
			c.failLocked(err)
			c.logger.Warn("fetch failed", "token", token, "error", err,
				"duration_ms", time.Since(start).Milliseconds())
		} else {
			synced = c.applyLocked(res)
			c.logger.Debug("fetch finished", "token", token, "rows", len(res.Rows),
				"total", res.TotalRecords, "duration_ms", time.Since(start).Milliseconds())
		}
		c.mu.Unlock()
		c.push(synced)
	}()
}

// applyLocked installs a result. When the committed page lies beyond the
// last page it is corrected; a remote view then fetches the corrected page.
func (c *Controller) applyLocked(res core.Result) *pending {
	var synced *pending
	page := core.ClampPage(c.state.Page, res.TotalRecords, c.pageSize)
	if page != c.state.Page {
		c.state.Page = page
		synced = c.pendingLocked()
		c.logger.Debug("page corrected", "page", page, "total", res.TotalRecords)
		if c.source == core.SourceRemote {
			c.fetchLocked()
			return synced
		}
	}

	rows := res.Rows
	if rows == nil {
		rows = []core.Row{}
	}
	c.view.Rows = rows
	c.view.TotalRecords = res.TotalRecords
	c.view.TotalPages = core.TotalPages(res.TotalRecords, c.pageSize)
	c.view.Loading = false
	c.view.Err = ""
	c.view.Phase = PhaseLoaded
	c.notifyLocked()

	return synced
}

func (c *Controller) failLocked(err error) {
	msg := core.FormatUserError(err)
	if errors.Is(err, context.DeadlineExceeded) && c.timeout > 0 {
		c.logger.Debug("fetch timed out", "timeout", c.timeout)
	}
	c.view.Rows = []core.Row{}
	c.view.TotalRecords = 0
	c.view.TotalPages = 1
	c.view.Loading = false
	c.view.Err = msg
	c.view.Phase = PhaseError
	c.notifyLocked()
}

func (c *Controller) notifyLocked() {
	c.view.State = c.state.Clone()
	close(c.changed)
	c.changed = make(chan struct{})
}

// pending is a state waiting to be pushed to the sink. Pushes are ordered
// by seq so a slower caller never overwrites a newer state.
type pending struct {
	state core.State
	seq   uint64
}

func (c *Controller) pendingLocked() *pending {
	c.syncSeq++
	return &pending{state: c.state.Clone(), seq: c.syncSeq}
}

// push hands p to the sink. Sinks must not call back into the controller.
func (c *Controller) push(p *pending) {
	if p == nil || c.sink == nil {
		return
	}
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	if p.seq <= c.pushed {
		return
	}
	c.pushed = p.seq
	c.sink.Sync(p.state)
}
