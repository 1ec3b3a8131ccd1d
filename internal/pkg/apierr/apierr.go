// Package apierr holds the failure types shared by the reporting API clients.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stage names where in a flow an error happened.
type Stage string

const (
	StageAuth  Stage = "auth"
	StageFetch Stage = "fetch"
	StageParse Stage = "parse"
)

// TransportError is a network or HTTP failure reported by a provider.
type TransportError struct {
	Provider   string
	StatusCode int // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Unauthorized reports whether the provider rejected the credential itself.
func (e *TransportError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// DataError is a malformed or missing field in a provider response.
type DataError struct {
	Provider string
	Field    string
	Value    string
	Err      error
}

func (e *DataError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: bad value %q for %s: %v", e.Provider, e.Value, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Field, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// StageOf classifies err for display. Auth failures are recognised by the
// AuthFailure interface so this package need not import the oauth package.
func StageOf(err error) Stage {
	var af interface{ AuthFailure() bool }
	if errors.As(err, &af) && af.AuthFailure() {
		return StageAuth
	}
	var te *TransportError
	if errors.As(err, &te) && te.Unauthorized() {
		return StageAuth
	}
	var de *DataError
	if errors.As(err, &de) {
		return StageParse
	}
	return StageFetch
}
