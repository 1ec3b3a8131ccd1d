package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignite/marketing-dashboard/internal/pkg/httputil"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool                  `json:"authenticated"`
	Operator      string                `json:"operator,omitempty"`
	Name          string                `json:"name,omitempty"`
	CreatedAt     *time.Time            `json:"created_at,omitempty"`
	ExpiresAt     *time.Time            `json:"expires_at,omitempty"`
	Connected     []session.Integration `json:"connected,omitempty"`
	Selection     *session.Selection    `json:"selection,omitempty"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	sel := s.Selection()
	return sessionResponse{
		Authenticated: true,
		Operator:      s.Operator,
		Name:          s.Name,
		CreatedAt:     &s.CreatedAt,
		ExpiresAt:     &s.ExpiresAt,
		Connected:     s.Credentials.Connected(),
		Selection:     &sel,
	}
}

// Login checks the operator's username and password and starts a session.
//
//	POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	if !h.checkOperator(req.Username, req.Password) {
		logger.Warn("login rejected", "username", req.Username)
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	// A fresh session id on every login; any previous session is discarded.
	if old := h.sessions.FromRequest(r); old != nil {
		h.sessions.Destroy(old.ID)
	}

	name := h.cfg.Operator.Name
	if name == "" {
		name = h.cfg.Operator.Username
	}
	s := h.sessions.Create(h.cfg.Operator.Username, name)
	h.sessions.SetCookie(w, s)

	respondJSON(w, http.StatusOK, newSessionResponse(s))
}

// checkOperator compares against the single configured operator.
func (h *Handlers) checkOperator(username, password string) bool {
	op := h.cfg.Operator
	if op.Username == "" || op.PasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(op.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

// Logout destroys the session and everything it holds.
//
//	POST /auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if s := h.sessions.FromRequest(r); s != nil {
		h.sessions.Destroy(s.ID)
		logger.Info("session destroyed", "operator", s.Operator)
	}
	h.sessions.ClearCookie(w)
	httputil.NoContent(w)
}

// SessionInfo returns the current operator and connected integrations.
//
//	GET /auth/session
func (h *Handlers) SessionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newSessionResponse(session.FromContext(r.Context())))
}

// RequireSession is middleware that requires a live operator session.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := h.sessions.FromRequest(r)
		if s == nil {
			httputil.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}
