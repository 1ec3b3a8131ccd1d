package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedirect = "http://localhost:8080/oauth/callback"

type tokenServer struct {
	*httptest.Server
	calls int32
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ts.calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("redirect_uri") != testRedirect {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "redirect_uri_mismatch"})
				return
			}
			switch r.PostForm.Get("code") {
			case "good-code":
				json.NewEncoder(w).Encode(map[string]any{
					"access_token":  "access-1",
					"refresh_token": "refresh-1",
					"token_type":    "Bearer",
					"expires_in":    3600,
					"scope":         "https://www.googleapis.com/auth/webmasters.readonly",
				})
			default:
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant", "error_description": "Bad Request"})
			}
		case "refresh_token":
			switch r.PostForm.Get("refresh_token") {
			case "refresh-1":
				json.NewEncoder(w).Encode(map[string]any{
					"access_token":  "access-2",
					"refresh_token": "rotated",
					"token_type":    "Bearer",
					"expires_in":    3600,
				})
			case "revoked":
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			default:
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "backend_error"})
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) count() int32 { return atomic.LoadInt32(&ts.calls) }

func newTestAuthorizer(ts *tokenServer) *Authorizer {
	return NewAuthorizer(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      "https://accounts.example.com/o/oauth2/auth",
		TokenURL:     ts.URL + "/token",
	}, ts.Client())
}

func TestBuildAuthorizationURL(t *testing.T) {
	a := NewAuthorizer(Config{ClientID: "client-id", ClientSecret: "client-secret"}, nil)
	scopes := []string{"https://www.googleapis.com/auth/adwords"}

	raw, state, err := a.BuildAuthorizationURL(scopes, testRedirect)
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(state)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, testRedirect, q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t, scopes[0], q.Get("scope"))
	assert.Equal(t, state, q.Get("state"))
	assert.Empty(t, q.Get("client_secret"))

	_, state2, err := a.BuildAuthorizationURL(scopes, testRedirect)
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
}

func TestExchangeCode(t *testing.T) {
	ts := newTokenServer(t)
	a := newTestAuthorizer(ts)

	cred, err := a.ExchangeCode(context.Background(), "good-code", testRedirect, []string{"requested"})
	require.NoError(t, err)

	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.Equal(t, ts.URL+"/token", cred.TokenURL)
	assert.Equal(t, "client-id", cred.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/webmasters.readonly"}, cred.Scopes)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cred.Expiry, time.Minute)
	assert.Equal(t, Fresh, cred.State(time.Now()))
}

func TestExchangeCodeErrors(t *testing.T) {
	ts := newTokenServer(t)
	a := newTestAuthorizer(ts)
	ctx := context.Background()

	_, err := a.ExchangeCode(ctx, "already-used", testRedirect, nil)
	assert.Equal(t, ReasonInvalidGrant, ReasonOf(err))
	assert.True(t, NeedsReauthorization(err))

	_, err = a.ExchangeCode(ctx, "good-code", "http://evil.example.com/cb", nil)
	assert.Equal(t, ReasonRedirectMismatch, ReasonOf(err))

	before := ts.count()
	_, err = a.ExchangeCode(ctx, "", testRedirect, nil)
	assert.Equal(t, ReasonInvalidGrant, ReasonOf(err))
	assert.Equal(t, before, ts.count())
}

func TestEnsureFreshFreshCredentialNoNetwork(t *testing.T) {
	ts := newTokenServer(t)
	a := newTestAuthorizer(ts)

	cred := &Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenURL:     ts.URL + "/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Expiry:       time.Now().Add(time.Hour),
	}

	got, err := a.EnsureFresh(context.Background(), cred)
	require.NoError(t, err)
	assert.Same(t, cred, got)
	assert.Equal(t, int32(0), ts.count())
}

func TestEnsureFreshDeadCredentialNoNetwork(t *testing.T) {
	ts := newTokenServer(t)
	a := newTestAuthorizer(ts)

	cred := &Credential{
		AccessToken: "access-1",
		TokenURL:    ts.URL + "/token",
		Expiry:      time.Now().Add(-time.Minute),
	}

	_, err := a.EnsureFresh(context.Background(), cred)
	require.Error(t, err)
	assert.ErrorIs(t, err, &AuthError{Reason: ReasonDeadCredential})
	assert.Equal(t, int32(0), ts.count())
}

func TestEnsureFreshRefreshes(t *testing.T) {
	ts := newTokenServer(t)
	a := newTestAuthorizer(ts)

	cred := &Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenURL:     ts.URL + "/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"scope-a"},
		Expiry:       time.Now().Add(-time.Minute),
	}

	got, err := a.EnsureFresh(context.Background(), cred)
	require.NoError(t, err)

	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken, "refresh token kept verbatim")
	assert.True(t, got.Expiry.After(time.Now()))
	assert.Equal(t, []string{"scope-a"}, got.Scopes)
	assert.Equal(t, int32(1), ts.count())

	// Input is untouched.
	assert.Equal(t, "access-1", cred.AccessToken)
}

func TestEnsureFreshRefreshErrors(t *testing.T) {
	ts := newTokenServer(t)
	a := newTestAuthorizer(ts)

	cred := &Credential{
		RefreshToken: "revoked",
		TokenURL:     ts.URL + "/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Expiry:       time.Now().Add(-time.Minute),
	}
	_, err := a.EnsureFresh(context.Background(), cred)
	assert.Equal(t, ReasonInvalidGrant, ReasonOf(err))

	cred.RefreshToken = "flaky"
	_, err = a.EnsureFresh(context.Background(), cred)
	assert.Equal(t, ReasonProviderError, ReasonOf(err))
	assert.False(t, NeedsReauthorization(err))
}

func TestCredentialState(t *testing.T) {
	now := time.Now()

	assert.Equal(t, Fresh, (&Credential{}).State(now), "zero expiry never expires")
	assert.Equal(t, Fresh, (&Credential{Expiry: now.Add(time.Second)}).State(now))
	assert.Equal(t, Dead, (&Credential{Expiry: now}).State(now), "expiry equal to now is expired")
	assert.Equal(t, Refreshable, (&Credential{Expiry: now, RefreshToken: "r"}).State(now))
	assert.Equal(t, "dead", Dead.String())
}

func TestClientSetsBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := Client(srv.Client(), &Credential{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)})
	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc", auth)
}

func TestValidateClient(t *testing.T) {
	ts := newTokenServer(t)
	assert.NoError(t, newTestAuthorizer(ts).ValidateClient(context.Background(), testRedirect))

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
	}))
	defer rejecting.Close()

	a := NewAuthorizer(Config{ClientID: "bad", ClientSecret: "bad", TokenURL: rejecting.URL}, rejecting.Client())
	err := a.ValidateClient(context.Background(), testRedirect)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}
