package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/distlock"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

// Integration names an OAuth-backed data source.
type Integration string

const (
	SearchConsole Integration = "search_console"
	GoogleAds     Integration = "google_ads"
)

// Integrations lists every OAuth-backed integration.
var Integrations = []Integration{SearchConsole, GoogleAds}

// ParseIntegration validates an integration name.
func ParseIntegration(s string) (Integration, bool) {
	for _, i := range Integrations {
		if string(i) == s {
			return i, true
		}
	}
	return "", false
}

// ErrNotConnected is returned when no credential is stored for an integration.
var ErrNotConnected = errors.New("integration not connected")

// RefreshFunc turns the stored credential into a usable one.
type RefreshFunc func(ctx context.Context, cred *oauth.Credential) (*oauth.Credential, error)

// CredentialStore holds one credential per integration for a session.
// Refresh runs under a lock keyed by session and integration so two
// requests never spend the same refresh token concurrently.
type CredentialStore struct {
	scope  string
	locker distlock.Locker

	mu    sync.RWMutex
	creds map[Integration]*oauth.Credential
}

// NewCredentialStore creates an empty store. scope namespaces lock keys.
func NewCredentialStore(scope string, locker distlock.Locker) *CredentialStore {
	if locker == nil {
		locker = distlock.NewLocalLocker()
	}
	return &CredentialStore{
		scope:  scope,
		locker: locker,
		creds:  make(map[Integration]*oauth.Credential),
	}
}

// Get returns a copy of the stored credential.
func (s *CredentialStore) Get(i Integration) (*oauth.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[i]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Put stores a copy of cred, replacing any previous credential.
func (s *CredentialStore) Put(i Integration, cred *oauth.Credential) {
	s.mu.Lock()
	s.creds[i] = cred.Clone()
	s.mu.Unlock()
}

// Delete drops the credential for i.
func (s *CredentialStore) Delete(i Integration) {
	s.mu.Lock()
	delete(s.creds, i)
	s.mu.Unlock()
}

// Clear drops every credential.
func (s *CredentialStore) Clear() {
	s.mu.Lock()
	s.creds = make(map[Integration]*oauth.Credential)
	s.mu.Unlock()
}

// Connected lists integrations with a stored credential, sorted.
func (s *CredentialStore) Connected() []Integration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Integration, 0, len(s.creds))
	for i := range s.creds {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Refresh runs fn on the stored credential inside the credential's critical
// section and stores the result. When fn reports that the credential can no
// longer be used, only that credential is deleted.
func (s *CredentialStore) Refresh(ctx context.Context, i Integration, fn RefreshFunc) (*oauth.Credential, error) {
	unlock, err := s.locker.Lock(ctx, s.scope+":"+string(i))
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.mu.RLock()
	current, ok := s.creds[i]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotConnected
	}

	next, err := fn(ctx, current.Clone())
	if err != nil {
		if oauth.NeedsReauthorization(err) {
			s.Delete(i)
			logger.Info("credential discarded", "integration", string(i), "reason", string(oauth.ReasonOf(err)))
		}
		return nil, err
	}

	s.Put(i, next)
	return next.Clone(), nil
}
