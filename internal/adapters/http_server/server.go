package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// DefaultRequestTimeout bounds every request except the CSV export, which
// streams a business's full history.
const DefaultRequestTimeout = 15 * time.Second

type Server struct {
	mux     *chi.Mux
	timeout time.Duration
}

// Option configures the server.
type Option func(*Server)

// WithRequestTimeout overrides DefaultRequestTimeout. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func New(opts ...Option) *Server {
	s := &Server{mux: chi.NewRouter(), timeout: DefaultRequestTimeout}
	for _, o := range opts {
		o(s)
	}

	// middlewares must be registered before any route
	s.mux.Use(chimw.RealIP)
	s.mux.Use(chimw.RequestID)
	s.mux.Use(chimw.Recoverer)
	s.mux.Use(Metrics)
	s.mux.Use(Logger(log.Logger))
	s.mux.Use(Timeout(s.timeout, exportPath))

	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches an extra handler such as /metrics.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
