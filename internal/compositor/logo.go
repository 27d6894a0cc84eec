package compositor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// LogoOptions places an uploaded logo. Width is the target width in pixels;
// the height follows the logo's aspect ratio.
type LogoOptions struct {
	Data  []byte
	Width int
	X     int
	Y     int
}

// ApplyLogo decodes the logo, scales it and alpha-blends it at (X, Y). On any
// failure dst is returned untouched along with the error.
func ApplyLogo(dst image.Image, opts LogoOptions) (image.Image, error) {
	if len(opts.Data) == 0 {
		return dst, fmt.Errorf("logo: empty upload")
	}
	if opts.Width < 1 {
		return dst, fmt.Errorf("logo: invalid width %d", opts.Width)
	}
	logo, _, err := image.Decode(bytes.NewReader(opts.Data))
	if err != nil {
		return dst, fmt.Errorf("logo: decode: %w", err)
	}
	if logo.Bounds().Dx() == 0 || logo.Bounds().Dy() == 0 {
		return dst, fmt.Errorf("logo: empty image")
	}
	scaled := imaging.Resize(logo, opts.Width, 0, imaging.Lanczos)
	return imaging.Overlay(dst, scaled, image.Pt(opts.X, opts.Y), 1.0), nil
}
