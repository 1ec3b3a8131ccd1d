package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/pkg/distlock"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

// Manager owns every live session.
type Manager struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
	locker     distlock.Locker
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. locker serializes credential refreshes.
func NewManager(cfg config.SessionConfig, locker distlock.Locker) *Manager {
	if locker == nil {
		locker = distlock.NewLocalLocker()
	}
	return &Manager{
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge(),
		secure:     cfg.SecureCookie,
		locker:     locker,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
}

// Create starts a session for operator.
func (m *Manager) Create(operator, name string) *Session {
	now := m.now()
	id := uuid.NewString()
	s := &Session{
		ID:          id,
		Operator:    operator,
		Name:        name,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.maxAge),
		Credentials: NewCredentialStore(id, m.locker),
		Cache:       &QueryCache{},
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("session created", "operator", operator)
	return s
}

// Get returns a live session. Expired sessions are destroyed on access.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.Expired(m.now()) {
		m.Destroy(id)
		return nil
	}
	return s
}

// FromRequest looks up the session named by the request's cookie.
func (m *Manager) FromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}
	return m.Get(cookie.Value)
}

// Destroy wipes and removes a session.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.wipe()
	}
}

// Len reports the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Sweep destroys expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	var expired []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if s.Expired(now) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Destroy(id)
	}
	return len(expired)
}

// StartCleanup sweeps expired sessions every interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
			}
		}
	}()
}
