package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"t4studio/internal/compositor"
	"t4studio/internal/domain"
	"t4studio/internal/middleware"
	"t4studio/internal/wizard"
	"t4studio/pkg/zip"
)

type resultView struct {
	Variant     domain.Variant `json:"variant"`
	Label       string         `json:"label"`
	Prompt      string         `json:"prompt"`
	OK          bool           `json:"ok"`
	Error       string         `json:"error,omitempty"`
	DownloadURL string         `json:"download_url,omitempty"`
}

type historyView struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	CreatedAt    time.Time `json:"created_at"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

type assetsView struct {
	Subjects       map[domain.Subject]string `json:"subjects,omitempty"`
	StyleReference string                    `json:"style_reference,omitempty"`
	Instructions   string                    `json:"instructions,omitempty"`
}

type sessionView struct {
	Page     wizard.Page           `json:"page"`
	Commands []wizard.Command      `json:"commands"`
	Scoping  *domain.ScopingConfig `json:"scoping,omitempty"`
	Assets   *assetsView           `json:"assets,omitempty"`
	Results  []resultView          `json:"results,omitempty"`
	History  []historyView         `json:"history"`
}

func newSessionView(s *wizard.Session) sessionView {
	v := sessionView{
		Page:     s.Page,
		Commands: wizard.Commands(s.Page),
		Scoping:  s.Scoping,
		History:  historyViews(s.History),
	}
	if s.Assets != nil {
		av := &assetsView{Instructions: s.Assets.Instructions}
		for subject, u := range s.Assets.Subjects {
			if u.Empty() {
				continue
			}
			if av.Subjects == nil {
				av.Subjects = map[domain.Subject]string{}
			}
			av.Subjects[subject] = u.Name
		}
		if s.Assets.HasStyleReference() {
			av.StyleReference = s.Assets.StyleReference.Name
		}
		v.Assets = av
	}
	for _, r := range s.Results {
		rv := resultView{Variant: r.Variant, Label: r.Label, Prompt: r.Prompt, OK: r.OK(), Error: r.Error}
		if rv.OK {
			rv.DownloadURL = "/v1/wizard/results/" + string(r.Variant)
		}
		v.Results = append(v.Results, rv)
	}
	return v
}

func historyViews(entries []wizard.HistoryEntry) []historyView {
	out := make([]historyView, 0, len(entries))
	// newest first
	for i := len(entries) - 1; i >= 0; i-- {
		h := entries[i]
		hv := historyView{ID: h.ID, Topic: h.Topic, CreatedAt: h.CreatedAt}
		if len(h.Thumbnail) > 0 {
			hv.ThumbnailURL = "/v1/wizard/history/" + h.ID + "/thumbnail"
		}
		out = append(out, hv)
	}
	return out
}

// WizardView returns the current page of the caller's session.
func (a *App) WizardView(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Wizard.Session(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err, nil)
		return
	}
	a.json(w, http.StatusOK, newSessionView(sess))
}

func (a *App) dispatch(w http.ResponseWriter, r *http.Request, cmd wizard.Command, in wizard.Input) {
	sess, err := a.Wizard.Dispatch(r.Context(), middleware.SessionIDFromContext(r.Context()), cmd, in)
	if err != nil {
		var extra map[string]any
		if sess != nil {
			extra = map[string]any{"session": newSessionView(sess)}
		}
		a.fail(w, r, err, extra)
		return
	}
	a.json(w, http.StatusOK, newSessionView(sess))
}

func (a *App) WizardStart(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, wizard.CmdStartProject, wizard.Input{})
}

func (a *App) WizardBack(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, wizard.CmdBack, wizard.Input{})
}

func (a *App) WizardNew(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, wizard.CmdNewProject, wizard.Input{})
}

// WizardScoping accepts the scoping form as JSON or as form fields named
// topic, aspect_ratio and <subject>_role, <subject>_quantity and so on.
func (a *App) WizardScoping(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ScopingConfig
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUpload)
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
	} else {
		if err := a.parseForm(w, r); err != nil {
			a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		cfg = scopingFromForm(r)
	}
	a.dispatch(w, r, wizard.CmdSubmitScoping, wizard.Input{Scoping: &cfg})
}

func scopingFromForm(r *http.Request) domain.ScopingConfig {
	cfg := domain.ScopingConfig{
		Topic:       r.FormValue("topic"),
		AspectRatio: domain.AspectRatio(r.FormValue("aspect_ratio")),
		Subjects:    map[domain.Subject]domain.SubjectSpec{},
	}
	for _, s := range domain.Subjects {
		key := string(s)
		if _, sent := formValue(r, key+"_role"); !sent {
			continue
		}
		cfg.Subjects[s] = domain.SubjectSpec{
			Role:      domain.ParseRole(r.FormValue(key + "_role")),
			Quantity:  formInt(r, key+"_quantity", 1),
			Gender:    r.FormValue(key + "_gender"),
			LineCount: formInt(r, key+"_lines", 0),
			FocusLine: formInt(r, key+"_focus_line", 0),
		}
	}
	return cfg
}

// WizardAssets accepts one optional file per subject (field named after the
// subject), an optional "style" reference and free-form "instructions".
func (a *App) WizardAssets(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	bundle := domain.AssetBundle{Instructions: strings.TrimSpace(r.FormValue("instructions"))}
	for _, s := range domain.Subjects {
		u, err := readUpload(r, string(s))
		if err != nil {
			a.uploadError(w, r, err)
			return
		}
		if u.Empty() {
			continue
		}
		if bundle.Subjects == nil {
			bundle.Subjects = map[domain.Subject]*domain.Upload{}
		}
		bundle.Subjects[s] = u
	}
	style, err := readUpload(r, "style")
	if err != nil {
		a.uploadError(w, r, err)
		return
	}
	if !style.Empty() {
		bundle.StyleReference = style
	}
	a.dispatch(w, r, wizard.CmdSubmitAssets, wizard.Input{Assets: &bundle})
}

// WizardGenerate runs all variants and answers once they are done. Clients
// that want each variant as it lands use WizardStream instead.
func (a *App) WizardGenerate(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, wizard.CmdGenerate, wizard.Input{APIKey: a.apiKey(r)})
}

func (a *App) currentSession(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	sess, err := a.Wizard.Session(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err, nil)
		return nil, false
	}
	return sess, true
}

func resultName(v domain.Variant) string {
	return "t4_" + string(v)
}

// WizardResult downloads one successful variant.
func (a *App) WizardResult(w http.ResponseWriter, r *http.Request) {
	v, ok := domain.ParseVariant(chi.URLParam(r, "variant"))
	if !ok {
		a.fail(w, r, fmt.Errorf("%w: variant %q", domain.ErrNotFound, chi.URLParam(r, "variant")), nil)
		return
	}
	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	res, ok := sess.Result(v)
	if !ok {
		a.fail(w, r, fmt.Errorf("%w: no image for %s", domain.ErrNotFound, v), nil)
		return
	}
	if compositor.ParseFormat(r.URL.Query().Get("format")) == compositor.FormatPNG {
		w.Header().Set("Content-Type", compositor.FormatPNG.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resultName(v)+compositor.FormatPNG.Ext()))
		_, _ = w.Write(res.Image)
		return
	}
	img, _, err := image.Decode(bytes.NewReader(res.Image))
	if err != nil {
		a.fail(w, r, fmt.Errorf("decode stored result: %w", err), nil)
		return
	}
	a.writeImage(w, r, img, resultName(v))
}

// WizardArchive bundles every successful variant into one zip.
func (a *App) WizardArchive(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	var assets []zip.Asset
	for _, res := range sess.Successful() {
		assets = append(assets, zip.Asset{
			Filename: resultName(res.Variant) + compositor.FormatPNG.Ext(),
			Data:     res.Image,
			Modified: sess.UpdatedAt,
		})
	}
	if len(assets) == 0 {
		a.fail(w, r, fmt.Errorf("%w: no successful variants", domain.ErrNotFound), nil)
		return
	}
	data, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err, nil)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="t4_campaign.zip"`)
	_, _ = w.Write(data)
}

// WizardHistory lists finished campaigns, newest first.
func (a *App) WizardHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"history": historyViews(sess.History)})
}

func (a *App) WizardThumbnail(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.currentSession(w, r)
	if !ok {
		return
	}
	entry, found := sess.HistoryEntry(chi.URLParam(r, "id"))
	if !found || len(entry.Thumbnail) == 0 {
		a.fail(w, r, fmt.Errorf("%w: history %q", domain.ErrNotFound, chi.URLParam(r, "id")), nil)
		return
	}
	w.Header().Set("Content-Type", compositor.FormatPNG.ContentType())
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(entry.Thumbnail)
}
