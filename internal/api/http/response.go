package http

import (
	"encoding/json"
	"io"
	"net/http"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
)

const maxJSONBody = 1 << 20

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindNotAuthorized:     http.StatusForbidden,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindInvalidState:      http.StatusConflict,
	domain.KindAlreadyApplied:    http.StatusConflict,
	domain.KindOpportunityClosed: http.StatusConflict,
	domain.KindCapacityExceeded:  http.StatusConflict,
	domain.KindConflictRetry:     http.StatusServiceUnavailable,
	domain.KindInternal:          http.StatusInternalServerError,
}

type errorBody struct {
	Code    domain.ErrorKind `json:"code"`
	Message string           `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

// writeError renders err as {code, message}. Internal failures never leak
// their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		logger.ErrorContext(r.Context(), "Internal error serving request", "path", r.URL.Path, "error", err)
	}
	if kind == domain.KindConflictRetry {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, kindStatus[kind], errorBody{Code: kind, Message: domain.PublicMessage(err)})
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Code: "UNAUTHENTICATED", Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		if err == io.EOF {
			return domain.NewError(domain.KindValidation, "request body is required")
		}
		return domain.WrapError(domain.KindValidation, err, "malformed JSON body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
	if err == nil || err == io.EOF {
		return nil
	}
	return domain.WrapError(domain.KindValidation, err, "malformed JSON body")
}
