// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

// RespondError maps backend and session errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrSubmissionInFlight):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case apiclient.IsUnauthorized(err):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in again")
	case apiclient.IsForbidden(err):
		Problem(w, http.StatusForbidden, "Forbidden", apiclient.UserMessage(err, ""))
	case apiclient.IsNotFound(err):
		Problem(w, http.StatusNotFound, "Not Found", apiclient.UserMessage(err, ""))
	case apiclient.StatusOf(err) == http.StatusUnprocessableEntity:
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", apiclient.UserMessage(err, ""))
	case apiclient.IsNetwork(err), apiclient.IsServer(err):
		Problem(w, http.StatusBadGateway, "Bad Gateway", apiclient.UserMessage(err, "backend unavailable"))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
