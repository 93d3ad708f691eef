package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/minimax"
)

type Option func(h *handlers)

func WithLogger(logger zerolog.Logger) Option {
	return func(h *handlers) {
		h.logger = logger
	}
}

// WithSearcher sets the engine behind /api/solve.
func WithSearcher(s *minimax.Searcher) Option {
	return func(h *handlers) {
		if s != nil {
			h.searcher = s
		}
	}
}

// NewServer wires routes and returns an http.Handler. It also installs the
// board fragment as the service's broadcast renderer.
func NewServer(s *app.Service, options ...Option) http.Handler {
	h := &handlers{svc: s, tpl: loadTemplates(), searcher: minimax.New(), logger: zerolog.Nop()}
	for _, option := range options {
		option(h)
	}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Get("/events", h.events)
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/games/{id}", h.apiGame)
		r.Post("/games/{id}/hint", h.apiHint)
		r.Post("/solve", h.apiSolve)
		r.Get("/archive", h.apiArchive)
		r.Get("/archive/{id}", h.apiArchived)
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
