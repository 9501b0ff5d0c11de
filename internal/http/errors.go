package http

import (
	"errors"
	"net/http"

	"bookfinder/internal/httpx"
	"bookfinder/internal/platform/openlibrary"
	"bookfinder/internal/view"
)

// writeError maps a controller error to its envelope. message is the
// user-facing text the screen shows for upstream failures.
func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var verr *view.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]httpx.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, httpx.ErrorDetail{Field: f.Field, Message: f.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Invalid search form", details)
	case errors.Is(err, view.ErrValidationEmpty), errors.Is(err, openlibrary.ErrEmptyQuery):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidationEmpty, "Enter something to search for", nil)
	case errors.Is(err, view.ErrMissingID), errors.Is(err, openlibrary.ErrInvalidKey):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, message, nil)
	case errors.Is(err, view.ErrLoadMoreRefused):
		httpx.JSONError(w, r, http.StatusConflict, httpx.CodeLoadMoreRefused, "No further results can be loaded", nil)
	case errors.Is(err, view.ErrStale):
		httpx.JSONError(w, r, http.StatusConflict, httpx.CodeStale, "Request was superseded", nil)
	case errors.Is(err, openlibrary.ErrUpstream):
		httpx.JSONError(w, r, http.StatusBadGateway, httpx.CodeUpstreamUnavailable, message, nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "An internal error occurred", nil)
	}
}
