package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"vydio/internal/http/handlers"
	"vydio/internal/middleware"
)

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	// RateCounter backs the per-IP limit; nil selects an in-process counter.
	RateCounter        middleware.Counter
	RateLimitPerMinute int
	Logger             zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	counter := opts.RateCounter
	if counter == nil {
		counter = middleware.NewMemoryCounter()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.RateLimit(counter, opts.RateLimitPerMinute, time.Minute, opts.Logger),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/packages", app.Packages)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		// Authenticated by the signature header, not a session token.
		r.Post("/payments/snippe/webhook", app.SnippeWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
			r.Get("/me", app.Me)
			r.Post("/jobs", app.JobsCreate)
			r.Get("/jobs", app.JobsList)
			r.Get("/jobs/{job_id}", app.JobStatus)
			r.Get("/payments", app.PaymentsList)
			r.Post("/payments/checkout", app.PaymentsCheckout)
		})
	})

	return r
}
