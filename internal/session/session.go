package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/filter"
	"github.com/KaramelBytes/sheetlens/internal/theme"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Session is one browser's working state. The dataset is shared with the
// load cache and must not be mutated.
type Session struct {
	ID        string            `json:"id"`
	Dataset   *dataset.Dataset  `json:"-"`
	Source    string            `json:"source,omitempty"`
	Selection *filter.Selection `json:"selection"`
	Notes     string            `json:"notes,omitempty"`
	Theme     string            `json:"theme"`
	LoadedAt  time.Time         `json:"loaded_at,omitempty"`
	LastSeen  time.Time         `json:"last_seen"`
}

// HasData reports whether a non-empty dataset is loaded.
func (s Session) HasData() bool {
	return s.Dataset != nil && !s.Dataset.Empty()
}

// Store keeps sessions in memory. Sessions idle for longer than the idle
// timeout are dropped the next time the store is accessed.
type Store struct {
	mu           sync.Mutex
	idle         time.Duration
	defaultTheme string
	now          func() time.Time
	sessions     map[string]*Session
}

// NewStore creates a store. A zero idle duration keeps sessions forever.
func NewStore(idle time.Duration, defaultTheme string) *Store {
	th, _ := theme.Lookup(defaultTheme)
	return &Store{
		idle:         idle,
		defaultTheme: th.Name,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
}

// Create starts an empty session.
func (s *Store) Create() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Selection: filter.NewSelection(),
		Theme:     s.defaultTheme,
		LastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	return snapshot(sess)
}

// Get returns a copy of the session and marks it as seen.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.LastSeen = s.now()
	return snapshot(sess), true
}

// Touch creates a session when id is unknown or expired, otherwise it behaves
// like Get.
func (s *Store) Touch(id string) Session {
	if sess, ok := s.Get(id); ok {
		return sess
	}
	return s.Create()
}

// Update applies fn to the stored session under the store lock.
func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if err := fn(sess); err != nil {
		return Session{}, err
	}
	sess.LastSeen = s.now()
	return snapshot(sess), nil
}

// Replace swaps in a freshly loaded dataset and resets the filter selection.
func (s *Store) Replace(id string, ds *dataset.Dataset, source string) (Session, error) {
	return s.Update(id, func(sess *Session) error {
		sess.Dataset = ds
		sess.Source = source
		sess.Selection = filter.NewSelection()
		sess.LoadedAt = s.now()
		return nil
	})
}

// SetNotes stores free-form notes.
func (s *Store) SetNotes(id, notes string) (Session, error) {
	return s.Update(id, func(sess *Session) error {
		sess.Notes = strings.TrimSpace(notes)
		return nil
	})
}

// SetTheme selects a theme by name; unknown names fall back to the default.
func (s *Store) SetTheme(id, name string) (Session, error) {
	th, _ := theme.Lookup(name)
	return s.Update(id, func(sess *Session) error {
		sess.Theme = th.Name
		return nil
	})
}

// Len counts live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	return len(s.sessions)
}

func (s *Store) prune() {
	if s.idle <= 0 {
		return
	}
	cutoff := s.now().Add(-s.idle)
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func snapshot(sess *Session) Session {
	cp := *sess
	cp.Selection = sess.Selection.Clone()
	return cp
}
