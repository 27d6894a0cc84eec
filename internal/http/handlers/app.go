package handlers

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"

	"t4studio/internal/compositor"
	"t4studio/internal/domain"
	"t4studio/internal/infra"
	"t4studio/internal/middleware"
	imageprovider "t4studio/internal/providers/image"
	"t4studio/internal/wizard"
)

// App holds the dependencies shared by every handler.
type App struct {
	Logger     *infra.Logger
	Quick      imageprovider.Generator
	Reference  imageprovider.Generator
	Wizard     *wizard.Service
	Compositor *compositor.Compositor
	MaxUpload  int64

	// DefaultAPIKey is used when a request carries no Gemini key.
	DefaultAPIKey string

	// AllowedOrigins gates websocket upgrades; empty allows any origin.
	AllowedOrigins []string

	// Seed draws a random seed in [1, MaxSeed].
	Seed func() int
}

// MaxSeed is the upper bound of random seeds.
const MaxSeed = 99999

func NewApp(logger *infra.Logger, quick, reference imageprovider.Generator, wiz *wizard.Service, comp *compositor.Compositor, maxUpload int64) *App {
	return &App{
		Logger:     infra.OrDiscard(logger),
		Quick:      quick,
		Reference:  reference,
		Wizard:     wiz,
		Compositor: comp,
		MaxUpload:  maxUpload,
		Seed:       func() int { return rand.IntN(MaxSeed) + 1 },
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	a.json(w, status, map[string]any{"error": errorBody{
		Code:    code,
		Message: message(middleware.LocaleFromContext(r.Context()), code),
		Detail:  detail,
	}})
}

// fail maps err onto a status and code. extra, when set, is attached next to
// the error so the client can keep rendering the current page.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("request failed")
	}
	body := map[string]any{"error": errorBody{
		Code:    code,
		Message: message(middleware.LocaleFromContext(r.Context()), code),
		Detail:  err.Error(),
	}}
	for k, v := range extra {
		body[k] = v
	}
	a.json(w, status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrTopicRequired):
		return http.StatusUnprocessableEntity, "topic_required"
	case errors.Is(err, domain.ErrAPIKeyRequired):
		return http.StatusBadRequest, "api_key_required"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnsupportedUpload):
		return http.StatusUnsupportedMediaType, "unsupported_upload"
	case errors.Is(err, domain.ErrInvalidColor):
		return http.StatusBadRequest, "invalid_color"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
