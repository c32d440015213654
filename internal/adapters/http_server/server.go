package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Timeout      time.Duration // per-request deadline
	RateLimitRPM int           // analyse requests per client per minute, 0 disables
	CORSOrigins  []string
	TrustProxy   bool // rewrite RemoteAddr from proxy headers; only safe behind a proxy
}

type Server struct {
	mux   *chi.Mux
	limit func(http.Handler) http.Handler
}

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added)
	if opts.TrustProxy {
		m.Use(chimw.RealIP)
	}
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(CORS(opts.CORSOrigins))
	m.Use(Timeout(opts.Timeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	return &Server{mux: m, limit: RateLimit(opts.RateLimitRPM)}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
