package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one visitor's dashboard state.
type Session struct {
	ID string

	mu       sync.Mutex
	selected string
	lastSeen time.Time
}

// Selected returns the city name currently chosen in this session.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select records a new city choice. Callers validate the name first.
func (s *Session) Select(city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = city
}

func (s *Session) touch(at time.Time) {
	s.mu.Lock()
	s.lastSeen = at
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store keeps sessions in memory, keyed by ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	defaultCity string
	now         func() time.Time
}

// NewStore creates a Store whose new sessions start on defaultCity.
func NewStore(defaultCity string) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		defaultCity: defaultCity,
		now:         time.Now,
	}
}

// Get returns the session for id and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now())
	return s, true
}

// Create starts a new session on the default city.
func (st *Store) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		selected: st.defaultCity,
		lastSeen: st.now(),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown.
// created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

// Sweep removes sessions idle for longer than maxIdle and returns how many
// were dropped.
func (st *Store) Sweep(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
