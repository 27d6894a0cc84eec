package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"t4studio/internal/compositor"
	"t4studio/internal/domain"
	"t4studio/internal/prompt"
)

// Overlay control limits.
const (
	MinFontSize     = 30
	MaxFontSize     = 200
	DefaultFontSize = 80
	MaxOffset       = 500
	MinLogoSize     = 50
	MaxLogoSize     = 400
	DefaultLogoSize = 150
	DefaultLogoY    = 50
	// DefaultLogoInset is the logo's default distance from the right edge.
	DefaultLogoInset = 200
	DefaultSeed      = 42
	DefaultColor     = "#FFFFFF"
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formInt(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// formValue returns the field and whether it was sent at all, so an empty
// negative prompt can be told apart from a missing one.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			return vs[0], true
		}
	}
	if vs, ok := r.Form[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

func (a *App) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUpload)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(a.MaxUpload)
	}
	return r.ParseForm()
}

// readUpload reads the first file sent as key. A missing file yields nil.
func readUpload(r *http.Request, key string) (*domain.Upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[key]) == 0 {
		return nil, nil
	}
	return readFileHeader(r.MultipartForm.File[key][0])
}

func readUploads(r *http.Request, key string) ([]*domain.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []*domain.Upload
	for _, fh := range r.MultipartForm.File[key] {
		u, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func readFileHeader(fh *multipart.FileHeader) (*domain.Upload, error) {
	if !domain.AllowedUploadExtension(fh.Filename) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedUpload, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return &domain.Upload{Name: fh.Filename, MIMEType: mime, Data: data}, nil
}

// overlayForm is the text and logo controls shared by both studios.
type overlayForm struct {
	text  compositor.TextOptions
	logo  *domain.Upload
	size  int
	logoX *int
	logoY int
}

func parseOverlay(r *http.Request) (overlayForm, error) {
	var out overlayForm
	text, sent := formValue(r, "text")
	if !sent {
		text = prompt.DefaultOverlayText
	}
	colorHex := strings.TrimSpace(r.FormValue("color"))
	if colorHex == "" {
		colorHex = DefaultColor
	}
	fill, err := compositor.ParseHexColor(colorHex)
	if err != nil {
		return out, err
	}
	out.text = compositor.TextOptions{
		Text:     strings.ReplaceAll(text, "\r\n", "\n"),
		FontSize: clamp(formInt(r, "font_size", DefaultFontSize), MinFontSize, MaxFontSize),
		Color:    fill,
		OffsetX:  clamp(formInt(r, "text_x", 0), -MaxOffset, MaxOffset),
		OffsetY:  clamp(formInt(r, "text_y", 0), -MaxOffset, MaxOffset),
	}

	out.logo, err = readUpload(r, "logo")
	if err != nil {
		return out, err
	}
	out.size = clamp(formInt(r, "logo_size", DefaultLogoSize), MinLogoSize, MaxLogoSize)
	if v := strings.TrimSpace(r.FormValue("logo_x")); v != "" {
		if x, err := strconv.Atoi(v); err == nil {
			out.logoX = &x
		}
	}
	out.logoY = formInt(r, "logo_y", DefaultLogoY)
	return out, nil
}

// logoOptions resolves the logo placement against the generated image width.
func (o overlayForm) logoOptions(imageWidth int) *compositor.LogoOptions {
	if o.logo.Empty() {
		return nil
	}
	x := imageWidth - DefaultLogoInset
	if o.logoX != nil {
		x = *o.logoX
	}
	return &compositor.LogoOptions{Data: o.logo.Data, Width: o.size, X: x, Y: o.logoY}
}
