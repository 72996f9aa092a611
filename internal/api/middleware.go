package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/metrics"
)

type ctxKey int

const (
	ctxKeyIdentity ctxKey = iota
	ctxKeyRequestID
)

// requestID tags every request with a UUID, echoed in X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// accessLog emits one structured line per request and feeds the
// request counter.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sr, r)

			endpoint := chi.RouteContext(r.Context()).RoutePattern()
			if endpoint == "" {
				endpoint = r.URL.Path
			}
			outcome := "success"
			if sr.status >= 400 {
				outcome = "error"
			}
			metrics.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()

			logger.Info("request",
				"method", r.Method,
				"endpoint", endpoint,
				"status", sr.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestIDFrom(r.Context()),
			)
		})
	}
}

// authenticate verifies the bearer token and stores the identity in
// the request context.
func authenticate(signer *auth.Signer, devMode bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, r, apperr.New(apperr.Unauthenticated, "Autenticación requerida"), devMode, logger)
				return
			}

			ident, err := signer.Verify(token)
			if err != nil {
				msg := "Token inválido"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token expirado"
				}
				respondError(w, r, apperr.Wrap(apperr.Unauthenticated, msg, err), devMode, logger)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, *ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFrom(ctx context.Context) auth.Identity {
	ident, _ := ctx.Value(ctxKeyIdentity).(auth.Identity)
	return ident
}
