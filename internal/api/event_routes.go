package api

import (
	"github.com/listenupapp/shelf/internal/sse"
)

// registerEventRoutes mounts the SSE stream directly on chi; huma does not model streaming bodies.
func (s *Server) registerEventRoutes() {
	if s.services.SSE == nil {
		return
	}
	handler := sse.NewHandler(s.services.SSE, s.logger, sse.HeaderUser)
	s.router.With(s.requireUser).Get("/api/v1/events", handler.ServeHTTP)
}
