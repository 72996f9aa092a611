// Package api is the HTTP edge: the chi router, JSend envelopes, the
// bearer-token middleware and the request handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/softcane/agropower/internal/apperr"
)

// successEnvelope is the JSend success shape.
type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorEnvelope is the JSend failure shape. Detail is only populated
// in development mode.
type errorEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

// respondError maps the error taxonomy to the wire. Internal causes
// are logged but never surfaced in production.
func respondError(w http.ResponseWriter, r *http.Request, err error, devMode bool, logger *slog.Logger) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	env := errorEnvelope{Success: false, Message: "Error interno del servidor"}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if kind != apperr.Internal || devMode {
			env.Message = ae.Message
		}
		env.Errors = ae.Fields
	}
	if devMode {
		env.Detail = err.Error()
	}

	if kind == apperr.Internal && logger != nil {
		logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()), "error", err)
	}
	writeJSON(w, status, env)
}
