package shared

import "errors"

var (
	// ErrSessionMissing indicates the session middleware did not run.
	ErrSessionMissing = errors.New("session missing")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrSubmissionInFlight rejects a form submitted again while the first
	// submission is still being processed.
	ErrSubmissionInFlight = errors.New("submission already in progress")
)
