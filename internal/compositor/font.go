package compositor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"t4studio/internal/infra"
)

// FontSource records which fallback level produced a face.
type FontSource string

const (
	FontWorkingDir FontSource = "working_dir"
	FontSystem     FontSource = "system"
	FontBuiltin    FontSource = "builtin"
)

// FontOptions locates the overlay font. File is looked up as given (relative
// to the working directory) and then by base name inside SystemDir.
type FontOptions struct {
	File      string
	SystemDir string
	Size      float64
	Logger    *infra.Logger
}

var parsedFonts sync.Map // path -> *opentype.Font

func loadFont(path string) (*opentype.Font, error) {
	if f, ok := parsedFonts.Load(path); ok {
		return f.(*opentype.Font), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	parsedFonts.Store(path, f)
	return f, nil
}

func newFace(path string, size float64) (font.Face, error) {
	f, err := loadFont(path)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// ResolveFace tries the working directory, then the system font directory,
// then the built-in bitmap face. Each fallback is logged at warn level.
func ResolveFace(opts FontOptions) (font.Face, FontSource) {
	logger := infra.OrDiscard(opts.Logger)
	size := opts.Size
	if size <= 0 {
		size = 80
	}
	file := strings.TrimSpace(opts.File)
	if file == "" {
		logger.Warn().Msg("no overlay font configured, using built-in face")
		return basicfont.Face7x13, FontBuiltin
	}

	face, err := newFace(file, size)
	if err == nil {
		return face, FontWorkingDir
	}
	logger.Warn().Err(err).Str("font", file).Msg("overlay font not found in working directory")

	if dir := strings.TrimSpace(opts.SystemDir); dir != "" {
		path := filepath.Join(dir, filepath.Base(file))
		face, err = newFace(path, size)
		if err == nil {
			return face, FontSystem
		}
		logger.Warn().Err(err).Str("font", path).Msg("overlay font not found in system directory")
	}
	return basicfont.Face7x13, FontBuiltin
}
