package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/httputil"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/session"
)

const metaIntegration = "meta_ads"

// scopesFor returns the OAuth scopes requested for an integration.
func (h *Handlers) scopesFor(i session.Integration) []string {
	switch i {
	case session.SearchConsole:
		return []string{h.cfg.Google.SearchConsoleScope}
	case session.GoogleAds:
		return []string{h.cfg.Google.AdsScope}
	}
	return nil
}

// ConnectIntegration starts the authorization-code flow for an integration.
// The state is bound to this session, the integration and the redirect URI.
//
//	GET /oauth/{integration}/connect
func (h *Handlers) ConnectIntegration(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	i, ok := session.ParseIntegration(chi.URLParam(r, "integration"))
	if !ok {
		httputil.NotFound(w, "unknown integration")
		return
	}
	if h.cfg.Google.ClientID == "" {
		respondIntegrationError(w, string(i), errNotConfigured)
		return
	}

	scopes := h.scopesFor(i)
	redirectURI := h.cfg.RedirectURI()
	authURL, state, err := h.authorizer.BuildAuthorizationURL(scopes, redirectURI)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to start authorization")
		return
	}

	err = h.states.Save(r.Context(), state, oauth.PendingAuthorization{
		SessionID:   s.ID,
		Integration: string(i),
		RedirectURI: redirectURI,
		Scopes:      scopes,
		CreatedAt:   h.now(),
	})
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to start authorization")
		return
	}

	logger.Info("authorization started", "integration", string(i))
	respondJSON(w, http.StatusOK, map[string]string{"authorization_url": authURL})
}

// OAuthCallback verifies the state, exchanges the code and stores the
// credential in the session. The browser is always sent back to the UI.
//
//	GET /oauth/callback
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s := h.sessions.FromRequest(r)
	if s == nil {
		redirectToUI(w, r, url.Values{"oauth_error": {"session_expired"}})
		return
	}

	// The state is consumed before anything else so it can never be replayed.
	pending, err := oauth.VerifyState(r.Context(), h.states, q.Get("state"), s.ID)
	if err != nil {
		logger.Warn("oauth callback rejected", "error", err.Error())
		redirectToUI(w, r, url.Values{"oauth_error": {string(oauth.ReasonInvalidState)}})
		return
	}

	i, ok := session.ParseIntegration(pending.Integration)
	if !ok {
		redirectToUI(w, r, url.Values{"oauth_error": {string(oauth.ReasonInvalidState)}})
		return
	}

	if providerErr := q.Get("error"); providerErr != "" {
		logger.Warn("provider declined authorization", "integration", string(i), "error", providerErr)
		redirectToUI(w, r, url.Values{"oauth_error": {providerErr}, "integration": {string(i)}})
		return
	}

	cred, err := h.authorizer.ExchangeCode(r.Context(), q.Get("code"), pending.RedirectURI, pending.Scopes)
	if err != nil {
		redirectToUI(w, r, url.Values{"oauth_error": {string(oauth.ReasonOf(err))}, "integration": {string(i)}})
		return
	}

	s.Credentials.Put(i, cred)
	s.Cache.Forget(i)
	logger.Info("integration connected", "integration", string(i), "has_refresh_token", cred.RefreshToken != "")

	redirectToUI(w, r, url.Values{"connected": {string(i)}})
}

func redirectToUI(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, "/?"+params.Encode(), http.StatusTemporaryRedirect)
}

type integrationStatus struct {
	Name       string     `json:"name"`
	Configured bool       `json:"configured"`
	Connected  bool       `json:"connected"`
	State      string     `json:"state,omitempty"`
	Expiry     *time.Time `json:"expiry,omitempty"`
	Scopes     []string   `json:"scopes,omitempty"`
}

// GetIntegrations reports which integrations the session can use.
//
//	GET /api/integrations
func (h *Handlers) GetIntegrations(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	now := h.now()

	out := make([]integrationStatus, 0, len(session.Integrations)+1)
	for _, i := range session.Integrations {
		st := integrationStatus{Name: string(i), Configured: h.cfg.Google.ClientID != ""}
		if i == session.GoogleAds {
			st.Configured = st.Configured && h.cfg.GoogleAds.DeveloperToken != ""
		}
		if cred, ok := s.Credentials.Get(i); ok {
			st.Connected = true
			st.State = cred.State(now).String()
			st.Scopes = cred.Scopes
			if !cred.Expiry.IsZero() {
				expiry := cred.Expiry
				st.Expiry = &expiry
			}
		}
		out = append(out, st)
	}

	out = append(out, integrationStatus{
		Name:       metaIntegration,
		Configured: len(h.meta.Accounts()) > 0,
		Connected:  h.metaToken(s) != "",
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{"integrations": out})
}

// DisconnectIntegration drops an integration's credential and cached results.
//
//	DELETE /api/integrations/{integration}
func (h *Handlers) DisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	name := chi.URLParam(r, "integration")
	if name == metaIntegration {
		s.SetMetaAccessToken("")
		s.Cache.SetMeta(nil)
		httputil.NoContent(w)
		return
	}

	i, ok := session.ParseIntegration(name)
	if !ok {
		httputil.NotFound(w, "unknown integration")
		return
	}
	s.Credentials.Delete(i)
	s.Cache.Forget(i)
	logger.Info("integration disconnected", "integration", string(i))
	httputil.NoContent(w)
}
