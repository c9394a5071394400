package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter creates the operation listener router
func NewRouter(h *Handler, logger *logrus.Logger, maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))
	r.Use(BodyLimit(maxBodyBytes))

	// Every path is accepted; only the method matters
	r.Get("/*", h.Echo)
	r.Post("/*", h.ApplyOperation)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
