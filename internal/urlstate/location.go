package urlstate

import (
	"net/url"
	"sync"

	"github.com/JonMunkholm/gridview/internal/core"
)

// Location tracks the query string of one view as the controller commits
// states. It implements controller.StateSink.
type Location struct {
	mu    sync.Mutex
	path  string
	query url.Values
}

// NewLocation starts at path with the given query parameters.
func NewLocation(path string, query url.Values) *Location {
	return &Location{path: path, query: Merge(query, Decode(query))}
}

// Sync replaces the state keys with st.
func (l *Location) Sync(st core.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = Merge(l.query, st)
}

// Set replaces a parameter unrelated to the table, such as a status preset.
func (l *Location) Set(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if value == "" {
		l.query.Del(key)
		return
	}
	l.query.Set(key, value)
}

// Query returns a copy of the current parameters.
func (l *Location) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Merge(l.query, Decode(l.query))
}

// String returns the path with its encoded query.
func (l *Location) String() string {
	q := l.Query().Encode()
	if q == "" {
		return l.path
	}
	return l.path + "?" + q
}
