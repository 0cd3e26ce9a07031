package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgruber/texpad/internal/editor"
)

const (
	// SessionCookie names the cookie tying a webview window to its session.
	SessionCookie = "texpad_session"
	// sessionIdleTTL is how long an untouched session keeps its timers alive.
	sessionIdleTTL = 4 * time.Hour
)

type sessionEntry struct {
	sess     *editor.Session
	lastSeen time.Time
}

// Registry maps session IDs to editor sessions. Each webview window gets its
// own session; abandoned ones are swept so their autosave timers stop.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*sessionEntry
	newSession func() *editor.Session
	now        func() time.Time
}

func NewRegistry(newSession func() *editor.Session) *Registry {
	return &Registry{
		sessions:   make(map[string]*sessionEntry),
		newSession: newSession,
		now:        time.Now,
	}
}

// Create builds a new session and returns its ID.
func (r *Registry) Create() (string, *editor.Session) {
	sess := r.newSession()
	id := uuid.New().String()

	r.mu.Lock()
	r.sessions[id] = &sessionEntry{sess: sess, lastSeen: r.now()}
	r.mu.Unlock()
	return id, sess
}

// Get returns the session for an ID, or nil if unknown. A hit refreshes the
// idle clock.
func (r *Registry) Get(id string) *editor.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil
	}
	entry.lastSeen = r.now()
	return entry.sess
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		entry.sess.Close()
	}
}

// Sweep closes sessions idle longer than the TTL and reports how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-sessionIdleTTL)

	r.mu.Lock()
	var stale []*sessionEntry
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, entry := range stale {
		entry.sess.Close()
	}
	return len(stale)
}

// CloseAll shuts down every session, for server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for id, entry := range r.sessions {
		entries = append(entries, entry)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, entry := range entries {
		entry.sess.Close()
	}
}
