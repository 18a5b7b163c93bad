package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

// UserHeader carries the caller's identity. Authentication happens upstream.
const UserHeader = "X-User-ID"

// Error codes returned in the "code" field of error bodies.
const (
	errCodeValidation       = "VALIDATION_ERROR"
	errCodeNotFound         = "NOT_FOUND"
	errCodeUpstream         = "UPSTREAM_UNAVAILABLE"
	errCodeConflict         = "CONFLICT"
	errCodeForbidden        = "FORBIDDEN"
	errCodeUnauthorized     = "UNAUTHORIZED"
	errCodeUnsupported      = "UNSUPPORTED_MEDIA_TYPE"
	errCodeNoConfidentMatch = "NO_CONFIDENT_MATCH"
	errCodeInternal         = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.With("rest").Error().Err(err).Msg("encode response failed")
	}
}

func writeErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeError maps a service error onto a status code and error body.
func writeError(w http.ResponseWriter, err error) {
	var invalid domain.ValidationError
	switch {
	case errors.As(err, &invalid):
		writeErrorWithCode(w, http.StatusBadRequest, invalid.Error(), errCodeValidation)
	case errors.Is(err, domain.ErrValidationFailed):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeValidation)
	case errors.Is(err, ports.ErrNoConfidentMatch):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNoConfidentMatch)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, "resource not found", errCodeNotFound)
	case errors.Is(err, domain.ErrConflict):
		writeErrorWithCode(w, http.StatusConflict, "already exists", errCodeConflict)
	case errors.Is(err, domain.ErrForbidden):
		writeErrorWithCode(w, http.StatusForbidden, "not allowed", errCodeForbidden)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logging.With("rest").Warn().Err(err).Msg("upstream unavailable")
		writeErrorWithCode(w, http.StatusServiceUnavailable, "upstream service unavailable", errCodeUpstream)
	default:
		logging.With("rest").Error().Err(err).Msg("request failed")
		writeErrorWithCode(w, http.StatusInternalServerError, "internal error", errCodeInternal)
	}
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeBody decodes a JSON body into v and validates its tags. It writes
// the error response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if !isJSONContentType(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errCodeUnsupported)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeValidation)
		return false
	}
	if err := validateStruct(v); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// requireUser returns the caller's id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := strings.TrimSpace(r.Header.Get(UserHeader))
	if user == "" {
		writeErrorWithCode(w, http.StatusUnauthorized, UserHeader+" header is required", errCodeUnauthorized)
		return "", false
	}
	return user, true
}

// queryInt reads an optional integer parameter. Absent parameters yield 0 so
// that services apply their defaults.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return n, nil
}

// pageParams reads page and limit together.
func pageParams(r *http.Request) (page, limit int, err error) {
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
