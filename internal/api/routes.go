package api

import (
	"net/http"
	"time"

	appmiddleware "github.com/coderunr/judge/internal/middleware"
	"github.com/coderunr/judge/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RouterConfig bundles the pieces NewRouter needs beyond the Handler
// itself: body size limit and rate-limit wiring vary per deployment.
type RouterConfig struct {
	BodyLimitBytes   int64
	RequestTimeout   time.Duration
	RateLimiter      *ratelimit.Limiter
	RateLimitConfig  ratelimit.Config
}

// NewRouter builds the full chi router for the Dispatch API, mirroring
// the teacher's cmd/server/main.go route wiring: a global middleware
// chain (request id, real ip, structured logging, panic recovery, CORS,
// body-size limit), then a JSON-content-type group carrying the
// submission/language routes, plus unauthenticated health and root
// routes exempted from rate limiting (spec.md section 4.5).
func NewRouter(h *Handler, cfg RouterConfig, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appmiddleware.Logger(logger))
	r.Use(appmiddleware.Recovery(logger))
	r.Use(appmiddleware.CORS())
	r.Use(appmiddleware.BodyLimit(cfg.BodyLimitBytes))

	if cfg.RateLimiter != nil {
		r.Use(ratelimit.Middleware(cfg.RateLimiter, cfg.RateLimitConfig, logger))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/submissions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.JSON)
			r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
			r.Post("/", h.CreateSubmission)
			r.Post("/batch", h.CreateBatch)
		})
		r.Get("/", h.ListSubmissions)
		r.Get("/batch", h.GetBatch)
		r.Get("/{id}", h.GetSubmission)
		r.Delete("/{id}", h.DeleteSubmission)
	})

	r.Route("/languages", func(r chi.Router) {
		r.Get("/", h.ListLanguages)
		r.Get("/{id}", h.GetLanguage)
	})

	return r
}
