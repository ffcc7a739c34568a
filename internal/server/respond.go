package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
	"github.com/creative280/proyecto-fs-servicios/internal/errcode"
)

// errorBody is the JSON shape of every classified error response.
type errorBody struct {
	Error string       `json:"error"`
	Code  errcode.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// statusFor maps an error classification to its HTTP status.
func statusFor(code errcode.Code) int {
	switch code {
	case errcode.InvalidName, errcode.ForbiddenCharacters, errcode.PathEscape,
		errcode.ContentTooLarge, errcode.IsADirectory:
		return http.StatusBadRequest
	case errcode.NotFound:
		return http.StatusNotFound
	case errcode.PermissionDenied:
		return http.StatusForbidden
	case errcode.InsufficientSpace:
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

// writeError renders err. Classified errors keep their message and are
// logged at debug for bad input, warn otherwise. Anything else is logged
// and reported as an internal error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *errcode.Error
	if errors.As(err, &ce) {
		status := statusFor(ce.Code)
		switch {
		case status == http.StatusInternalServerError:
			s.logger.Error("unmapped error code", "id", RequestID(r.Context()), "code", ce.Code, "error", err)
		case errcode.IsValidation(err):
			s.logger.Debug("rejected input", "id", RequestID(r.Context()), "code", ce.Code, "error", err)
		default:
			s.logger.Warn("request failed", "id", RequestID(r.Context()), "code", ce.Code, "error", err)
		}
		writeJSON(w, status, errorBody{Error: ce.Message, Code: ce.Code})
		return
	}

	s.logger.Error("request failed", "id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":     "Error interno del servidor",
		"timestamp": accesslog.FormatTimestamp(s.clock.Now()),
	})
}

// badRequest reports a transport-level input problem that has no
// classification.
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}
