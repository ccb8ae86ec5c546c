package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"climatefund/internal/http/handlers"
	"climatefund/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	Limiter        *middleware.IPLimiter
	RequestTimeout time.Duration
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.Logger(opts.Logger),
	)
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/metrics", app.PrometheusMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.Limiter))

		r.Get("/platform-stats", app.PlatformStats)
		r.Get("/project/{id}", app.Project)
		r.Get("/project-progress/{id}", app.ProjectProgress)
		r.Get("/projects", app.Projects)
		r.Get("/users/{address}/projects", app.UserProjects)

		r.Post("/nfts", app.RecordNFT)
		r.Get("/nfts/{address}", app.NFTs)
		r.Get("/nfts/{address}/stats", app.NFTStats)
		r.Get("/nfts/{address}/export", app.ExportNFTs)
		r.Get("/submissions/{txHash}", app.Submission)

		r.Get("/fhe/status", app.FHEStatus)
	})

	return r
}
