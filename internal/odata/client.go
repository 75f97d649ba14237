package odata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/metrics"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// DefaultServiceURL is the public TripPin people collection.
const DefaultServiceURL = "https://services.odata.org/v4/TripPinServiceRW/People"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 16 << 20

// RemoteQueryError describes a failed remote fetch.
type RemoteQueryError struct {
	Op         string // transport, status or response
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteQueryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// Client fetches pages of a view from a remote OData collection.
// It implements core.Executor.
type Client struct {
	baseURL  string
	columns  core.Columns
	pageSize int
	view     string
	http     *http.Client
	limiter  *FetchLimiter
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLimiter bounds concurrent fetches with l, usually shared by every
// client of one service.
func WithLimiter(l *FetchLimiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithView sets the view key used in logs and metrics.
func WithView(key string) ClientOption {
	return func(c *Client) { c.view = key }
}

// NewClient creates a client for the collection at baseURL.
func NewClient(baseURL string, cols core.Columns, pageSize int, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultServiceURL
	}
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}
	c := &Client{
		baseURL:  baseURL,
		columns:  cols,
		pageSize: pageSize,
		view:     "remote",
		http:     http.DefaultClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute compiles st, fetches the page and parses the response.
// Any failure is returned as a *RemoteQueryError.
func (c *Client) Execute(ctx context.Context, st core.State) (core.Result, error) {
	st = core.Sanitize(st, c.columns)
	req := Compile(st, c.columns, c.pageSize)

	target, err := req.URL(c.baseURL)
	if err != nil {
		return core.Result{}, &RemoteQueryError{Op: "transport", URL: c.baseURL, Err: err}
	}

	start := time.Now()
	res, err := c.fetch(ctx, target)
	metrics.RemoteFetchDuration.WithLabelValues(c.view).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.RemoteFetches.WithLabelValues(c.view, "ok").Inc()
	case errors.Is(err, context.Canceled):
		metrics.RemoteFetches.WithLabelValues(c.view, "cancelled").Inc()
		return core.Result{}, err
	default:
		metrics.RemoteFetches.WithLabelValues(c.view, "error").Inc()
		return core.Result{}, err
	}

	res.Page = st.Page
	return res, nil
}

func (c *Client) fetch(ctx context.Context, target string) (core.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return core.Result{}, err
			}
			return core.Result{}, &RemoteQueryError{Op: "transport", URL: target, Err: err}
		}
		defer c.limiter.Release()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return core.Result{}, &RemoteQueryError{Op: "transport", URL: target, Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("remote fetch", "view", c.view, "url", target, "remote_request_id", requestID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return core.Result{}, &RemoteQueryError{Op: "transport", URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return core.Result{}, &RemoteQueryError{
			Op:         "status",
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	body, n, err := readBody(resp.Body, maxBodySize)
	if err != nil {
		return core.Result{}, &RemoteQueryError{Op: "transport", URL: target, Err: err}
	}
	c.logger.Debug("remote response", "view", c.view, "bytes", n, "remote_request_id", requestID)

	res, err := ParseResponse(body)
	if err != nil {
		return core.Result{}, &RemoteQueryError{Op: "response", URL: target, Err: err}
	}
	return res, nil
}

// ParseResponse reads an OData collection body: a "value" array of objects
// and a numeric "@odata.count".
func ParseResponse(body []byte) (core.Result, error) {
	if !gjson.ValidBytes(body) {
		return core.Result{}, errors.New("body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return core.Result{}, errors.New("body is not an object")
	}
	fields := root.Map()

	value, ok := fields["value"]
	if !ok || !value.IsArray() {
		return core.Result{}, errors.New("value is not an array")
	}
	count, ok := fields["@odata.count"]
	if !ok || count.Type != gjson.Number {
		return core.Result{}, errors.New("@odata.count is not a number")
	}

	items := value.Array()
	rows := make([]core.Row, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return core.Result{}, fmt.Errorf("value[%d] is not an object", i)
		}
		row := make(core.Row)
		item.ForEach(func(key, val gjson.Result) bool {
			row[key.String()] = val.Value()
			return true
		})
		rows = append(rows, row)
	}

	return core.Result{Rows: rows, TotalRecords: int(count.Int())}, nil
}
