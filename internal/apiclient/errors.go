package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is returned for every failed backend call. Status is zero when no
// response was received.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string][]string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("apiclient: %s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("apiclient: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("apiclient: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns a message safe to show in the dashboard.
func (e *Error) UserMessage() string {
	switch {
	case e.Status == 0:
		return "Unable to reach the inventory service. Please try again."
	case e.Status >= http.StatusInternalServerError:
		return "The inventory service failed to process the request. Please try again."
	case e.Message != "":
		return e.Message
	case len(e.Fields) > 0:
		return e.firstFieldMessage()
	default:
		return http.StatusText(e.Status)
	}
}

func (e *Error) firstFieldMessage() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return http.StatusText(e.Status)
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func newStatusError(status int, body []byte) *Error {
	apiErr := &Error{Status: status, Body: body}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = strings.TrimSpace(parsed.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(parsed.Error)
		}
		apiErr.Fields = parsed.Errors
	}
	return apiErr
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the credential.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports a 403 response.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// IsNotFound reports a 404 response.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsServer reports a 5xx response.
func IsServer(err error) bool {
	return StatusOf(err) >= http.StatusInternalServerError
}

// IsNetwork reports a failure where no response was received.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// UserMessage extracts a displayable message from any error.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
