package compositor

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Format is a download encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ParseFormat defaults to PNG for anything but "webp".
func ParseFormat(s string) Format {
	if Format(s) == FormatWebP {
		return FormatWebP
	}
	return FormatPNG
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// Ext returns the file extension of f including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// DefaultWebPQuality is used for WebP downloads.
const DefaultWebPQuality = 90

func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func EncodeWebP(w io.Writer, img image.Image, quality float32) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return fmt.Errorf("webp options: %w", err)
	}
	return webp.Encode(w, img, options)
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	if f == FormatWebP {
		return EncodeWebP(w, img, DefaultWebPQuality)
	}
	return EncodePNG(w, img)
}

// Thumbnail scales img to width keeping its aspect ratio.
func Thumbnail(img image.Image, width int) *image.NRGBA {
	if width < 1 {
		width = 1
	}
	return imaging.Resize(img, width, 0, imaging.Box)
}
