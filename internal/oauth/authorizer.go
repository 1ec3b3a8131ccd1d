// Package oauth implements the authorization-code and refresh-token flows
// shared by the Google integrations.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

// Config identifies the OAuth client. Empty URLs fall back to Google's endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
}

// Authorizer builds consent URLs, exchanges codes and refreshes credentials.
// It holds no per-operator state.
type Authorizer struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	httpClient   *http.Client
	now          func() time.Time
}

// NewAuthorizer creates an Authorizer. httpClient carries token endpoint
// traffic; nil uses http.DefaultClient.
func NewAuthorizer(cfg Config, httpClient *http.Client) *Authorizer {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Authorizer{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		endpoint:     endpoint,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

func (a *Authorizer) config(scopes []string, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Endpoint:     a.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
	}
}

func (a *Authorizer) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// GenerateState returns 32 random bytes, URL-safe base64 encoded.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// BuildAuthorizationURL returns the consent URL and the anti-forgery state the
// caller must store and verify on the callback. Offline access and forced
// consent make the provider issue a refresh token every time.
func (a *Authorizer) BuildAuthorizationURL(scopes []string, redirectURI string) (string, string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	url := a.config(scopes, redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	return url, state, nil
}

// ExchangeCode trades an authorization code for a Credential. A code can be
// redeemed once; submitting it again fails with invalid_grant.
func (a *Authorizer) ExchangeCode(ctx context.Context, code, redirectURI string, scopes []string) (*Credential, error) {
	if code == "" {
		return nil, &AuthError{Reason: ReasonInvalidGrant, Err: errors.New("empty authorization code")}
	}

	tok, err := a.config(scopes, redirectURI).Exchange(a.context(ctx), code)
	if err != nil {
		ae := classify(err)
		logger.Warn("oauth code exchange failed", "reason", string(ae.Reason), "error", err.Error())
		return nil, ae
	}

	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURL:     a.endpoint.TokenURL,
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Scopes:       grantedScopes(tok, scopes),
		Expiry:       tok.Expiry,
	}, nil
}

// grantedScopes prefers the scope list the provider reports over the requested one.
func grantedScopes(tok *oauth2.Token, requested []string) []string {
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		return strings.Fields(s)
	}
	return append([]string(nil), requested...)
}

// EnsureFresh returns cred unchanged when it is fresh, refreshes it when it is
// expired but refreshable and fails with dead_credential otherwise. The input
// is never mutated. Callers serialize calls per credential.
func (a *Authorizer) EnsureFresh(ctx context.Context, cred *Credential) (*Credential, error) {
	if cred == nil {
		return nil, &AuthError{Reason: ReasonDeadCredential, Err: errors.New("no credential")}
	}

	switch cred.State(a.now()) {
	case Fresh:
		return cred, nil
	case Dead:
		return nil, &AuthError{Reason: ReasonDeadCredential}
	}

	cfg := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cred.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: cred.Scopes,
	}

	// An empty access token forces the token source to run the refresh grant.
	tok, err := cfg.TokenSource(a.context(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		ae := classify(err)
		logger.Warn("oauth refresh failed", "reason", string(ae.Reason), "error", err.Error())
		return nil, ae
	}

	refreshed := cred.Clone()
	refreshed.AccessToken = tok.AccessToken
	refreshed.Expiry = tok.Expiry
	logger.Debug("oauth credential refreshed", "expiry", tok.Expiry.Format(time.RFC3339))
	return refreshed, nil
}

// Client returns an HTTP client that authenticates with cred's current access
// token. It never refreshes on its own; call EnsureFresh first.
func Client(base *http.Client, cred *Credential) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(cred.Token()),
			Base:   transport,
		},
	}
}

// ValidateClient probes the token endpoint with a throwaway code. A valid
// client gets invalid_grant back; a rejected id or secret gets invalid_client.
func (a *Authorizer) ValidateClient(ctx context.Context, redirectURI string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := a.config(nil, redirectURI).Exchange(a.context(ctx), "validation_probe")
	if err == nil {
		return nil
	}
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("token endpoint unreachable: %w", err)
	}
	switch re.ErrorCode {
	case "invalid_grant", "invalid_request", "redirect_uri_mismatch":
		return nil
	case "invalid_client", "unauthorized_client":
		return fmt.Errorf("oauth client rejected by provider: %w", err)
	}
	return fmt.Errorf("unexpected token endpoint response (HTTP %d): %w", re.Response.StatusCode, err)
}
