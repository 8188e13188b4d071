package studio

import (
	"sync"
	"time"

	"ai-portrait-studio/internal/style"
	"ai-portrait-studio/internal/upload"
)

// Phase is the position of a session in its lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreview    Phase = "preview"
	PhaseGenerating Phase = "generating"
	PhaseResult     Phase = "result"
)

// statusMessages is the fixed cycle shown while a generation is in flight.
var statusMessages = []string{
	"Studying the original photo…",
	"Mixing the palette…",
	"Sketching the outline…",
	"Laying down brushstrokes…",
	"Refining the details…",
	"Almost there…",
}

type Session struct {
	ID string

	Phase    Phase
	Image    *upload.Image
	StyleID  string
	FreeText string

	ResultBase64 string
	ErrorMessage string

	Generating  bool
	StatusIndex int

	// attempt tags each generation so an outcome arriving after a reset is
	// discarded instead of being applied to stale state. Monotonic for the
	// lifetime of the session entry, surviving resets.
	attempt int

	UpdatedAt time.Time
}

// StatusMessage returns the current entry of the rotating status cycle, or an
// empty string outside the Generating phase.
func (s Session) StatusMessage() string {
	if !s.Generating {
		return ""
	}
	return statusMessages[s.StatusIndex%len(statusMessages)]
}

func (s Session) HasResult() bool {
	return s.Phase == PhaseResult && s.ResultBase64 != ""
}

// Store holds per-session state keyed by an opaque session identifier. All
// mutation goes through Update so every transition happens under the lock.
type Store struct {
	mu sync.Mutex
	m  map[string]*Session
}

func NewStore() *Store {
	return &Store{m: make(map[string]*Session)}
}

func (st *Store) Get(id string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	return *st.getOrCreateLocked(id)
}

func (st *Store) Update(id string, fn func(*Session)) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.getOrCreateLocked(id)
	if fn != nil {
		fn(s)
	}
	s.UpdatedAt = time.Now()
	return *s
}

// Reset restores the initial state. The attempt counter is carried over so a
// generation still in flight cannot land on the fresh session.
func (st *Store) Reset(id string) Session {
	return st.Update(id, func(s *Session) {
		attempt := s.attempt
		*s = defaultSession(id)
		s.attempt = attempt
	})
}

func (st *Store) getOrCreateLocked(id string) *Session {
	if s, ok := st.m[id]; ok {
		return s
	}
	s := defaultSession(id)
	st.m[id] = &s
	return st.m[id]
}

func defaultSession(id string) Session {
	return Session{
		ID:        id,
		Phase:     PhaseIdle,
		StyleID:   style.Default().ID,
		UpdatedAt: time.Now(),
	}
}
