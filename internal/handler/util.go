// Package handler implements the HTTP API for the messaging platform.
package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/roomlink/messaging-platform/internal/store"
	"github.com/roomlink/messaging-platform/pkg/errors"
	"github.com/roomlink/messaging-platform/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError maps the error taxonomy onto HTTP status codes. Internal
// details stay in the log; the client sees a generic message.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	code := errors.CodeOf(err)

	var status int
	switch code {
	case errors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case errors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case errors.CodePermissionDenied:
		status = http.StatusForbidden
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeFailedPrecondition:
		status = http.StatusConflict
	case errors.CodeUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && status != http.StatusInternalServerError {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}

	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  string(code),
	})
}

// parsePage reads limit/offset query parameters, falling back to store
// defaults.
func parsePage(r *http.Request) store.Page {
	page := store.Page{}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Offset = n
		}
	}
	return page.Normalize()
}

func parseID(r *http.Request, param string) (uint64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.InvalidArg("invalid " + param)
	}
	return id, nil
}
