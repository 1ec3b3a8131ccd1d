package oauth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// Reason is the machine-readable cause of an AuthError.
type Reason string

const (
	ReasonInvalidGrant     Reason = "invalid_grant"
	ReasonRedirectMismatch Reason = "redirect_mismatch"
	ReasonProviderError    Reason = "provider_error"
	ReasonDeadCredential   Reason = "dead_credential"
	ReasonInvalidState     Reason = "invalid_state"
)

// AuthError is returned for every failure of the authorization lifecycle.
// The remedy for all of them is to discard the credential and authorize again.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth: %s: %v", e.Reason, e.Err)
	}
	return "oauth: " + string(e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthFailure marks the error as an auth-stage failure for display.
func (e *AuthError) AuthFailure() bool { return true }

// Is matches any *AuthError with the same reason, so callers can write
// errors.Is(err, &AuthError{Reason: ReasonDeadCredential}).
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Reason == e.Reason
}

// ReasonOf extracts the reason from err, or "" if err is not an AuthError.
func ReasonOf(err error) Reason {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}

// NeedsReauthorization reports whether the stored credential must be dropped.
func NeedsReauthorization(err error) bool {
	switch ReasonOf(err) {
	case ReasonInvalidGrant, ReasonDeadCredential:
		return true
	}
	return false
}

// classify maps a token endpoint failure onto an AuthError.
func classify(err error) *AuthError {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "invalid_grant":
			return &AuthError{Reason: ReasonInvalidGrant, Err: err}
		case "redirect_uri_mismatch":
			return &AuthError{Reason: ReasonRedirectMismatch, Err: err}
		}
		// Google reports a mismatched redirect as invalid_request with a description.
		if strings.Contains(strings.ToLower(re.ErrorDescription), "redirect_uri") {
			return &AuthError{Reason: ReasonRedirectMismatch, Err: err}
		}
	}
	return &AuthError{Reason: ReasonProviderError, Err: err}
}
