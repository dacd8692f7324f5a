package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

const maxBodyBytes = 1 << 20

// envelope is the JSON body shape shared by every API response.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, payload envelope) {
	body := envelope{"message": message, "success": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"message": message, "success": false})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal failures are logged here if the service
// did not classify them, and never reach the client verbatim.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	kind := domain.KindOf(err)
	var de *domain.Error
	if kind == domain.KindInternal && !errors.As(err, &de) {
		log.ErrorContext(r.Context(), "Unhandled error", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
	}
	writeFailure(w, statusFor(kind), domain.PublicMessage(err))
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst
// at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("Invalid request body")
	}
	return nil
}
