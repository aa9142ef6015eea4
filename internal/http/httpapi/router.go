package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/awonak/pool-party/internal/http/handlers"
	"github.com/awonak/pool-party/internal/idempotency"
	"github.com/awonak/pool-party/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	Authenticator   middleware.Authenticator
	Locales         middleware.LocaleMatcher
	CountryLookup   middleware.CountryLookup
	Idempotency     idempotency.Store // nil disables Idempotency-Key handling
	IdempotencyTTL  time.Duration
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.Locales, opts.CountryLookup),
		middleware.Authenticate(opts.Authenticator),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
	)

	idem := func(next http.Handler) http.Handler { return next }
	if opts.Idempotency != nil {
		scope := func(r *http.Request) string { return middleware.UserIDFromContext(r.Context()) }
		idem = idempotency.Middleware(opts.Idempotency, opts.IdempotencyTTL, scope, opts.Logger)
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/site", app.SiteGet)
		r.With(middleware.RequireUser).Get("/auth/me", app.Me)

		r.Route("/funding-pools", func(r chi.Router) {
			r.Get("/", app.PoolsList)
			r.Get("/{id}", app.PoolsGet)
			r.With(middleware.RequireModerator, idem).Post("/", app.PoolsCreate)
			r.With(middleware.RequireModerator, idem).Put("/{id}", app.PoolsUpdate)
		})

		r.With(idem).Post("/donations/capture", app.DonationsCapture)
		r.With(middleware.RequireModerator, idem).Post("/donations/external", app.DonationsExternal)
		r.With(middleware.RequireModerator, idem).Post("/withdrawals", app.WithdrawalsCreate)

		r.Get("/ledger", app.LedgerGet)
	})

	return r
}
