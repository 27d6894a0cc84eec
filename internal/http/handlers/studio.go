package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"

	"t4studio/internal/compositor"
	"t4studio/internal/domain"
	"t4studio/internal/middleware"
	imageprovider "t4studio/internal/providers/image"
	"t4studio/internal/prompt"
)

// DownloadName is the attachment name of studio outputs, without extension.
const DownloadName = "t4_design"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rangeSpec struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// Catalog lists the quick studio choices and control defaults.
func (a *App) Catalog(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"categories":      prompt.Categories(),
		"sizes":           prompt.SizePresets(),
		"aspect_ratios":   []domain.AspectRatio{domain.AspectSquare, domain.AspectPortrait, domain.AspectLandscape, domain.AspectClassic, domain.AspectTall},
		"negative_prompt": prompt.DefaultNegativePrompt,
		"overlay_text":    prompt.DefaultOverlayText,
		"color":           DefaultColor,
		"font_size":       rangeSpec{Min: MinFontSize, Max: MaxFontSize, Default: DefaultFontSize},
		"text_offset":     rangeSpec{Min: -MaxOffset, Max: MaxOffset, Default: 0},
		"logo_size":       rangeSpec{Min: MinLogoSize, Max: MaxLogoSize, Default: DefaultLogoSize},
		"logo_y":          DefaultLogoY,
		"logo_inset":      DefaultLogoInset,
		"seed":            rangeSpec{Min: 1, Max: MaxSeed, Default: DefaultSeed},
	})
}

type promptRequest struct {
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Theme    string  `json:"theme"`
	Negative *string `json:"negative"`
}

// Prompt previews the auto prompt for a category, item and theme.
func (a *App) Prompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	text := prompt.AutoPrompt(req.Category, req.Item, req.Theme)
	negative := prompt.DefaultNegativePrompt
	if req.Negative != nil {
		negative = *req.Negative
	}
	a.json(w, http.StatusOK, map[string]string{
		"prompt":      text,
		"negative":    negative,
		"full_prompt": prompt.WithNegative(text, negative),
	})
}

func (a *App) resolveSeed(r *http.Request) int {
	if strings.EqualFold(strings.TrimSpace(r.FormValue("seed_mode")), "fixed") {
		return clamp(formInt(r, "seed", DefaultSeed), 1, MaxSeed)
	}
	return a.Seed()
}

// QuickStudio renders a prompt through Pollinations and composites the overlays.
func (a *App) QuickStudio(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	overlay, err := parseOverlay(r)
	if err != nil {
		a.uploadError(w, r, err)
		return
	}

	text := strings.TrimSpace(r.FormValue("prompt"))
	if text == "" {
		text = prompt.AutoPrompt(r.FormValue("category"), r.FormValue("item"), r.FormValue("theme"))
	}
	negative, sent := formValue(r, "negative")
	if !sent {
		negative = prompt.DefaultNegativePrompt
	}
	size := prompt.ResolveSize(r.FormValue("size"))
	seed := a.resolveSeed(r)

	res := a.Quick.Generate(r.Context(), imageprovider.Request{
		Prompt: prompt.WithNegative(text, negative),
		Width:  size.Width,
		Height: size.Height,
		Seed:   seed,
	})
	if !res.OK() {
		a.generationFailed(w, r, res, "quick")
		return
	}
	w.Header().Set("X-Seed", strconv.Itoa(seed))
	a.writeComposite(w, r, res.Image, overlay)
}

// ReferenceStudio sends a prompt plus reference uploads to Gemini and composites
// the overlays onto the first returned image.
func (a *App) ReferenceStudio(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	text := strings.TrimSpace(r.FormValue("prompt"))
	if text == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	overlay, err := parseOverlay(r)
	if err != nil {
		a.uploadError(w, r, err)
		return
	}
	uploads, err := readUploads(r, "references")
	if err != nil {
		a.uploadError(w, r, err)
		return
	}
	refs := make([]domain.LabeledUpload, 0, len(uploads))
	for i, u := range uploads {
		refs = append(refs, domain.LabeledUpload{Label: fmt.Sprintf("reference image %d", i+1), Upload: u})
	}

	res := a.Reference.Generate(r.Context(), imageprovider.Request{
		Prompt:      text,
		AspectRatio: string(domain.NormalizeAspectRatio(r.FormValue("aspect_ratio"))),
		References:  refs,
		APIKey:      a.apiKey(r),
	})
	if !res.OK() {
		a.generationFailed(w, r, res, "reference")
		return
	}
	a.writeComposite(w, r, res.Image, overlay)
}

func (a *App) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUnsupportedUpload) || errors.Is(err, domain.ErrInvalidColor) {
		a.fail(w, r, err, nil)
		return
	}
	a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

func (a *App) generationFailed(w http.ResponseWriter, r *http.Request, res imageprovider.Result, studio string) {
	err := res.Err
	if err == nil {
		err = domain.ErrNoResult
	}
	if errors.Is(err, domain.ErrAPIKeyRequired) {
		a.fail(w, r, err, nil)
		return
	}
	a.Logger.Warn().Err(err).Str("studio", studio).Int("seed", res.Seed).Msg("generation failed")
	a.error(w, r, http.StatusBadGateway, "generation_failed", err.Error())
}

func (a *App) writeComposite(w http.ResponseWriter, r *http.Request, base image.Image, overlay overlayForm) {
	out, source := a.Compositor.Render(base, overlay.text, overlay.logoOptions(base.Bounds().Dx()))
	if source != "" {
		w.Header().Set("X-Font-Source", string(source))
	}
	a.writeImage(w, r, out, DownloadName)
}

func (a *App) writeImage(w http.ResponseWriter, r *http.Request, img image.Image, name string) {
	format := compositor.ParseFormat(r.URL.Query().Get("format"))
	if v := r.FormValue("format"); v != "" {
		format = compositor.ParseFormat(v)
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+format.Ext()))
	if err := compositor.Encode(w, img, format); err != nil {
		a.Logger.Error().Err(err).Str("format", string(format)).Msg("encode output failed")
	}
}

// apiKey prefers a key sent with the request over the server's own key.
func (a *App) apiKey(r *http.Request) string {
	if key := middleware.APIKeyFromContext(r.Context()); key != "" {
		return key
	}
	if key := strings.TrimSpace(r.FormValue("api_key")); key != "" {
		return key
	}
	return a.DefaultAPIKey
}
