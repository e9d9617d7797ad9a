package voice

import (
	"bytes"
	"sync"
	"time"
)

// SessionStore owns the set of live sessions. The mutex guards the map and
// the per-session buffer mutations; beyond chunk arrival order the store
// makes no promise about the interleaving of concurrent calls on the same
// session id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SessionStore{sessions: make(map[string]*Session), now: now}
}

func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	return s, ok
}

func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	n := len(st.sessions)
	st.mu.RUnlock()
	return n
}

// Append adds one audio chunk and refreshes the activity timestamp.
func (st *SessionStore) Append(id string, chunk []byte) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return false
	}
	s.pendingAudio = append(s.pendingAudio, chunk)
	s.LastActivityAt = st.now()
	return true
}

// TakePending drains the buffer, returning the chunks concatenated in
// arrival order. The buffer is consumed exactly once.
func (st *SessionStore) TakePending(id string) ([]byte, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if len(s.pendingAudio) == 0 {
		return nil, true
	}
	joined := bytes.Join(s.pendingAudio, nil)
	s.pendingAudio = nil
	return joined, true
}

// IdleBefore lists sessions whose last activity is strictly older than
// now minus threshold.
func (st *SessionStore) IdleBefore(now time.Time, threshold time.Duration) []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var idle []*Session
	for _, s := range st.sessions {
		if now.Sub(s.LastActivityAt) > threshold {
			idle = append(idle, s)
		}
	}
	return idle
}
