// Package wizard keeps the in-progress onboarding sessions: one aggregate
// per session, driven step by step until it is submitted.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"merchant-onboarding/internal/autofill"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/submission"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Manager manages the live wizard sessions.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

// Session owns one onboarding aggregate. Every field is guarded by mu.
type Session struct {
	ID             string
	ContractID     string
	ContractNumber string
	Data           *onboarding.Data
	Steps          []onboarding.OnboardingStep
	Current        int
	CreatedAt      time.Time
	LastUsed       time.Time

	navigator *autofill.Navigator
	saver     *submission.AutoSaver
	mu        sync.Mutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// NewSession creates a session over data. An empty id is generated.
func NewSession(id string, data *onboarding.Data, steps []onboarding.OnboardingStep) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	if data == nil {
		data = onboarding.NewData()
	}
	now := time.Now()
	return &Session{
		ID:        id,
		Data:      data,
		Steps:     steps,
		CreatedAt: now,
		LastUsed:  now,
		navigator: autofill.NewNavigator(),
	}
}

// Add registers s, replacing a session with the same id.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastUsed = m.now()
	m.sessions[s.ID] = s
}

// Get retrieves an existing session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.LastUsed = m.now()
	return s, nil
}

// Delete removes a session and stops its auto-saver without saving.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.stopSaver()
	return nil
}

// List returns all session IDs
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes sessions idle for longer than maxAge. Pending
// drafts of removed sessions are saved first.
func (m *Manager) CleanupExpired(ctx context.Context, maxAge time.Duration) int {
	m.mu.Lock()
	now := m.now()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed) > maxAge {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.flushSaver(ctx)
		s.stopSaver()
	}
	return len(expired)
}

// RunJanitor calls CleanupExpired every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupExpired(ctx, maxAge); n > 0 {
				log.Printf("🧹 Removed %d expired wizard sessions", n)
			}
		}
	}
}

func (s *Session) flushSaver(ctx context.Context) {
	s.mu.Lock()
	saver := s.saver
	s.mu.Unlock()
	if saver != nil {
		saver.Flush(ctx)
	}
}

func (s *Session) stopSaver() {
	s.mu.Lock()
	saver := s.saver
	s.saver = nil
	s.mu.Unlock()
	if saver != nil {
		saver.Stop()
	}
}
