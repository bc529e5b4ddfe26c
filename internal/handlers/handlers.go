package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felo/reply-drafter/internal/drafter"
	"github.com/felo/reply-drafter/internal/reply"
)

// maxBodyBytes bounds request bodies accepted by the API
const maxBodyBytes = 8 << 20

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	normalizer *reply.Normalizer
	source     drafter.ReplySource
	logger     *slog.Logger
}

// New creates a new Handlers instance. source may be nil, which disables /api/reply.
func New(normalizer *reply.Normalizer, source drafter.ReplySource, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		normalizer: normalizer,
		source:     source,
		logger:     logger,
	}
}

// Routes returns the API router
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", h.Healthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/normalize", h.Normalize)
		r.Post("/reply", h.Reply)
	})

	return r
}

// Healthz reports that the server is up
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
