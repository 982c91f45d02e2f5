package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/shelf/internal/http/response"
	"github.com/listenupapp/shelf/internal/service"
)

// userHeader identifies the calling user. Authentication happens upstream.
const userHeader = "X-User-ID"

// requestLogger logs one line per request with the request id chi assigned.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// requireUser rejects requests without a user header on plain chi routes.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userHeader) == "" {
			response.Unauthorized(w, "Missing "+userHeader+" header", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session resolves the caller's session for huma handlers.
// A session whose first load failed is returned with the load error.
func (s *Server) session(ctx context.Context, userID string) (*service.Session, error) {
	if userID == "" {
		return nil, huma.Error401Unauthorized("Missing " + userHeader + " header")
	}
	return s.services.Sessions.Get(ctx, userID)
}
