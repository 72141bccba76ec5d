package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/identity"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps the error taxonomy onto HTTP statuses. Validation errors
// name the field; infrastructure errors never leak internals beyond the
// dependency name already present in the message.
func writeError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
		return
	}

	var rle *apperr.RateLimitError
	if errors.As(err, &rle) {
		seconds := int(math.Ceil(rle.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":       "rate limit exceeded",
			"retry_after": seconds,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case apperr.IsTimeout(err):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
	case apperr.IsUnavailable(err):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// decodeJSON rejects malformed bodies and unknown fields up front.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// requireOwner extracts the caller id or fails with a validation error.
func requireOwner(r *http.Request) (string, error) {
	owner := identity.CallerID(r.Context())
	if owner == "" {
		return "", apperr.Validation(identity.Header, "required")
	}
	return owner, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
