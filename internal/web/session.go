package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/manager"
	"github.com/JonMunkholm/gridview/internal/metrics"
	"github.com/JonMunkholm/gridview/internal/urlstate"
)

const (
	sessionCookie = "gridview"
	sessionIDKey  = "sid"
)

// viewSession is one browser's live view: its controller, the draft
// editors and the synchronized location.
type viewSession struct {
	mu  sync.Mutex // guards mgr editors between concurrent form posts
	ctl *controller.Controller
	mgr *manager.Manager
	loc *urlstate.Location
}

type browserSession struct {
	views    map[string]*viewSession
	lastSeen time.Time
}

// sessionRegistry maps cookie session ids to server-side view state.
type sessionRegistry struct {
	store sessions.Store
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*browserSession
}

func newSessionRegistry(store sessions.Store, ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*browserSession),
	}
}

// id returns the session id of r, issuing a new cookie when the request
// has none or an unreadable one. It must run before the response body is
// written.
func (reg *sessionRegistry) id(w http.ResponseWriter, r *http.Request) (string, error) {
	// An undecodable cookie (e.g. signed with an old key) still yields a
	// fresh session alongside the error.
	sess, err := reg.store.Get(r, sessionCookie)
	if sess == nil {
		return "", err
	}
	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// view returns the view session under key, building it with create when
// missing.
func (reg *sessionRegistry) view(id, key string, create func() *viewSession) *viewSession {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	bs, ok := reg.sessions[id]
	if !ok {
		bs = &browserSession{views: make(map[string]*viewSession)}
		reg.sessions[id] = bs
		metrics.ActiveSessions.Inc()
	}
	bs.lastSeen = reg.now()

	vs, ok := bs.views[key]
	if !ok {
		vs = create()
		bs.views[key] = vs
	}
	return vs
}

// lookup returns an existing view session without creating one.
func (reg *sessionRegistry) lookup(id, key string) (*viewSession, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	bs, ok := reg.sessions[id]
	if !ok {
		return nil, false
	}
	vs, ok := bs.views[key]
	return vs, ok
}

// sweep closes sessions idle for longer than the TTL and returns how many
// were dropped.
func (reg *sessionRegistry) sweep() int {
	cutoff := reg.now().Add(-reg.ttl)

	reg.mu.Lock()
	var expired []*browserSession
	for id, bs := range reg.sessions {
		if bs.lastSeen.Before(cutoff) {
			expired = append(expired, bs)
			delete(reg.sessions, id)
		}
	}
	reg.mu.Unlock()

	for _, bs := range expired {
		bs.close()
		metrics.ActiveSessions.Dec()
	}
	return len(expired)
}

// closeAll closes every session.
func (reg *sessionRegistry) closeAll() {
	reg.mu.Lock()
	all := reg.sessions
	reg.sessions = make(map[string]*browserSession)
	reg.mu.Unlock()

	for _, bs := range all {
		bs.close()
		metrics.ActiveSessions.Dec()
	}
}

// count returns the number of live sessions.
func (reg *sessionRegistry) count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

func (bs *browserSession) close() {
	for _, vs := range bs.views {
		vs.ctl.Close()
	}
}
