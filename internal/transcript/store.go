package transcript

import (
	"sync"
	"time"
)

const defaultMaxSessions = 1000

// Store keeps the live sessions, keyed by session ID. When the session
// count passes the cap, the least recently used sessions are discarded;
// their transcripts are gone for good, matching the single-session
// lifetime contract.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
}

// NewStore creates a session store with the default capacity.
func NewStore() *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: defaultMaxSessions,
	}
}

// Get returns the session for id, creating it if absent.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		s.touch()
		return s
	}

	if len(st.sessions) >= st.maxSessions {
		st.evictOldest()
	}

	s := NewSession(id)
	st.sessions[id] = s
	return s
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// evictOldest removes the least recently used session. Caller holds st.mu.
func (st *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, s := range st.sessions {
		if used := s.LastUsed(); oldestID == "" || used.Before(oldest) {
			oldestID = id
			oldest = used
		}
	}
	if oldestID != "" {
		delete(st.sessions, oldestID)
	}
}
