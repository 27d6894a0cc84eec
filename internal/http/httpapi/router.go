package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"t4studio/internal/http/handlers"
	"t4studio/internal/infra"
	"t4studio/internal/middleware"
)

// Options configures the middleware stack around the handlers.
type Options struct {
	Logger          *infra.Logger
	CORSOrigins     []string
	DefaultLocale   string
	LocaleLookup    middleware.LocaleLookup
	SessionCookie   string
	SessionTTL      time.Duration
	SecureCookie    bool
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	if opts.SessionCookie == "" {
		opts.SessionCookie = "t4_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*infra.OrDiscard(opts.Logger)),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.LocaleLookup),
		middleware.APIKey,
	)

	generate := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/studio", func(r chi.Router) {
		r.Get("/catalog", app.Catalog)
		r.Post("/prompt", app.Prompt)
		r.With(generate).Post("/quick", app.QuickStudio)
		r.With(generate).Post("/reference", app.ReferenceStudio)
	})

	r.Route("/v1/wizard", func(r chi.Router) {
		r.Use(middleware.Session(opts.SessionCookie, opts.SessionTTL, opts.SecureCookie))
		r.Get("/", app.WizardView)
		r.Post("/start", app.WizardStart)
		r.Post("/scoping", app.WizardScoping)
		r.Post("/back", app.WizardBack)
		r.Post("/assets", app.WizardAssets)
		r.Post("/new", app.WizardNew)
		r.With(generate).Post("/generate", app.WizardGenerate)
		r.With(generate).Get("/stream", app.WizardStream)
		r.Get("/results.zip", app.WizardArchive)
		r.Get("/results/{variant}", app.WizardResult)
		r.Get("/history", app.WizardHistory)
		r.Get("/history/{id}/thumbnail", app.WizardThumbnail)
	})

	return r
}
