package compositor

import (
	"image"

	"t4studio/internal/infra"
)

// Compositor applies the studio overlays: an optional logo and centred text
// with a drop shadow. The logo is pasted first and the text drawn over it.
type Compositor struct {
	font   FontOptions
	logger *infra.Logger
}

func New(font FontOptions, logger *infra.Logger) *Compositor {
	font.Logger = infra.OrDiscard(logger)
	return &Compositor{font: font, logger: font.Logger}
}

// Render returns a new image; base is never modified. A logo that cannot be
// applied is logged and skipped.
func (c *Compositor) Render(base image.Image, text TextOptions, logo *LogoOptions) (image.Image, FontSource) {
	var out image.Image = base
	if logo != nil && len(logo.Data) > 0 {
		withLogo, err := ApplyLogo(out, *logo)
		if err != nil {
			c.logger.Warn().Err(err).Msg("logo skipped")
		}
		out = withLogo
	}
	source := FontSource("")
	if text.Text != "" {
		opts := c.font
		opts.Size = float64(text.FontSize)
		face, src := ResolveFace(opts)
		defer face.Close()
		source = src
		out = Overlay(out, face, LayoutText(out.Bounds(), face, text))
	}
	return out, source
}
