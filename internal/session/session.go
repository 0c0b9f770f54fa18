// Package session keeps the per-client state of the inline word counter.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toricodesthings/officetools/internal/extract"
)

// Session is one client's counter. It only ever holds the latest count.
type Session struct {
	ID        string
	mu        sync.Mutex
	wordCount int
	lastSeen  time.Time
}

// Update recounts text and replaces the stored value.
func (s *Session) Update(text string) int {
	n := extract.CountWords(text)
	s.mu.Lock()
	s.wordCount = n
	s.lastSeen = time.Now()
	s.mu.Unlock()
	return n
}

func (s *Session) WordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wordCount
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating a fresh one when id is unknown
// or malformed. The bool reports whether a new session was made.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		s.touch()
		return s, false
	}
	s := &Session{ID: uuid.NewString(), lastSeen: time.Now()}
	st.sessions[s.ID] = s
	return s, true
}

// Sweep drops sessions idle for longer than maxIdle and returns how many.
func (st *Store) Sweep(maxIdle time.Duration) int {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince(now) > maxIdle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
