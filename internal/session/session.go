// Package session holds per-operator state: credentials, the last report of
// each kind and the UI selection. Nothing here outlives the session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
)

// Selection is what the operator last picked in the UI.
type Selection struct {
	SiteURL    string           `json:"site_url,omitempty"`
	CustomerID string           `json:"customer_id,omitempty"`
	Period     daterange.Period `json:"period,omitempty"`
}

// Session is one authenticated operator session.
type Session struct {
	ID        string
	Operator  string
	Name      string
	CreatedAt time.Time
	ExpiresAt time.Time

	Credentials *CredentialStore
	Cache       *QueryCache

	mu              sync.RWMutex
	selection       Selection
	metaAccessToken string
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Selection returns the current UI selection.
func (s *Session) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// UpdateSelection applies fn to the selection.
func (s *Session) UpdateSelection(fn func(*Selection)) {
	s.mu.Lock()
	fn(&s.selection)
	s.mu.Unlock()
}

// SetMetaAccessToken stores the operator-supplied Meta token.
func (s *Session) SetMetaAccessToken(token string) {
	s.mu.Lock()
	s.metaAccessToken = token
	s.mu.Unlock()
}

// MetaAccessToken returns the operator-supplied Meta token, if any.
func (s *Session) MetaAccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metaAccessToken
}

// wipe clears everything the session holds.
func (s *Session) wipe() {
	s.Credentials.Clear()
	s.Cache.Clear()
	s.mu.Lock()
	s.selection = Selection{}
	s.metaAccessToken = ""
	s.mu.Unlock()
}

type contextKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
