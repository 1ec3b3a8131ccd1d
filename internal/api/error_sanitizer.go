package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/httputil"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/searchconsole"
	"github.com/ignite/marketing-dashboard/internal/session"
)

// Provider errors carry response bodies and token endpoint descriptions.
// Those are logged here and never sent to the browser; the envelope only
// says which integration failed, at which stage, and what the operator can do.

// respondSafeError logs the internal error and sends a sanitized JSON error response.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error("request failed", "status", code, "message", publicMsg, "error", internalErr.Error())
	}
	respondError(w, code, publicMsg)
}

// respondIntegrationError maps a credential or provider failure onto the error envelope.
func respondIntegrationError(w http.ResponseWriter, integration string, err error) {
	details := &httputil.ErrorDetails{Integration: integration, Stage: string(apierr.StageOf(err))}

	switch {
	case errors.Is(err, session.ErrNotConnected):
		details.Stage = string(apierr.StageAuth)
		httputil.ErrorWithCode(w, http.StatusConflict, "not_connected", integration+" is not connected", details)
		return
	case errors.Is(err, errNotConfigured):
		httputil.ErrorWithCode(w, http.StatusServiceUnavailable, "not_configured", integration+" is not configured on the server", nil)
		return
	}

	logger.Warn("integration request failed", "integration", integration, "stage", details.Stage, "error", err.Error())

	var ae *oauth.AuthError
	if errors.As(err, &ae) {
		details.Stage = string(apierr.StageAuth)
		httputil.ErrorWithCode(w, http.StatusUnauthorized, string(ae.Reason), authMessage(ae.Reason), details)
		return
	}

	switch apierr.Stage(details.Stage) {
	case apierr.StageAuth:
		httputil.ErrorWithCode(w, http.StatusUnauthorized, "provider_unauthorized", "the provider rejected the credential; reconnect "+integration, details)
	case apierr.StageParse:
		httputil.ErrorWithCode(w, http.StatusBadGateway, "parse_error", "unexpected data from "+integration, details)
	default:
		httputil.ErrorWithCode(w, http.StatusBadGateway, "fetch_failed", safeErrorMessage(err), details)
	}
}

// authMessage is the operator-facing text for each authorization failure.
func authMessage(r oauth.Reason) string {
	switch r {
	case oauth.ReasonInvalidGrant, oauth.ReasonDeadCredential:
		return "authorization expired or was revoked; connect again"
	case oauth.ReasonRedirectMismatch:
		return "redirect URI is not registered for this OAuth client"
	case oauth.ReasonInvalidState:
		return "authorization request is invalid or expired"
	default:
		return "authorization server error"
	}
}

// safeErrorMessage maps common transport failures to public-safe messages.
func safeErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "request timed out"
	}

	var te *apierr.TransportError
	if errors.As(err, &te) && te.StatusCode != 0 {
		return fmt.Sprintf("provider returned HTTP %d", te.StatusCode)
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "provider temporarily unavailable"
	case strings.Contains(errStr, "timeout"):
		return "request timed out"
	default:
		return "provider request failed"
	}
}

// partialError is one entry of the errors list shipped alongside partial results.
type partialError struct {
	Integration string `json:"integration"`
	Stage       string `json:"stage"`
	Cursor      int    `json:"cursor,omitempty"`
	Message     string `json:"message"`
}

func partialErrors(integration string, err error) []partialError {
	if err == nil {
		return []partialError{}
	}
	logger.Warn("partial result", "integration", integration, "error", err.Error())
	pe := partialError{
		Integration: integration,
		Stage:       string(apierr.StageOf(err)),
		Message:     safeErrorMessage(err),
	}
	var fe *searchconsole.FetchError
	if errors.As(err, &fe) {
		pe.Stage = string(fe.Stage)
		pe.Cursor = fe.Cursor
	}
	return []partialError{pe}
}
