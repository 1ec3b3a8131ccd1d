package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// CredentialState classifies a Credential at a point in time.
type CredentialState int

const (
	// Fresh credentials can be used as-is.
	Fresh CredentialState = iota
	// Refreshable credentials are expired but hold a refresh token.
	Refreshable
	// Dead credentials are expired with no refresh token and must be discarded.
	Dead
)

func (s CredentialState) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Refreshable:
		return "refreshable"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Credential is the token bundle for one integration. It carries the client
// and endpoint it was minted for so it can be refreshed on its own.
type Credential struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenURL     string    `json:"token_url"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"-"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry"`
}

// Expired reports whether the access token is no longer usable at now.
// A zero Expiry means the provider did not report one; such tokens never expire.
func (c *Credential) Expired(now time.Time) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Before(c.Expiry)
}

// State returns fresh, refreshable or dead for now.
func (c *Credential) State(now time.Time) CredentialState {
	if !c.Expired(now) {
		return Fresh
	}
	if c.RefreshToken != "" {
		return Refreshable
	}
	return Dead
}

// Token converts the credential for use with oauth2 transports.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	out.Scopes = append([]string(nil), c.Scopes...)
	return &out
}
