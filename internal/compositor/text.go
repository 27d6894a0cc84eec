package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ShadowOffset is how far the drop shadow sits below and right of the text.
const ShadowOffset = 4

// ShadowColor is the drop shadow fill.
var ShadowColor = color.RGBA{A: 0xff}

// DrawOp is one string placed at a top-left position.
type DrawOp struct {
	Text   string
	X, Y   int
	Color  color.Color
	Shadow bool
}

// TextOptions describes an overlay block.
type TextOptions struct {
	Text     string
	FontSize int
	Color    color.Color
	OffsetX  int
	OffsetY  int
}

// LineHeight is the measured height of "hg" plus 40% of the font size, or
// fontSize+10 when the face reports no height.
func LineHeight(face font.Face, fontSize int) int {
	b, _ := font.BoundString(face, "hg")
	h := (b.Max.Y - b.Min.Y).Ceil()
	if h <= 0 {
		return fontSize + 10
	}
	return h + int(float64(fontSize)*0.4)
}

// LineWidth measures line in pixels, estimating half an em per rune when the
// face cannot measure it.
func LineWidth(face font.Face, line string, fontSize int) int {
	w := font.MeasureString(face, line).Ceil()
	if w <= 0 && line != "" {
		return utf8.RuneCountInString(line) * fontSize / 2
	}
	return w
}

// LayoutText centres each line of opts.Text inside bounds, shifts the block by
// the offsets and emits a shadow op followed by the coloured op per line.
func LayoutText(bounds image.Rectangle, face font.Face, opts TextOptions) []DrawOp {
	if opts.Text == "" {
		return nil
	}
	fill := opts.Color
	if fill == nil {
		fill = color.White
	}
	lines := strings.Split(opts.Text, "\n")
	lineH := LineHeight(face, opts.FontSize)
	totalH := lineH * len(lines)

	y := bounds.Min.Y + (bounds.Dy()-totalH)/2 + opts.OffsetY
	ops := make([]DrawOp, 0, 2*len(lines))
	for _, line := range lines {
		x := bounds.Min.X + (bounds.Dx()-LineWidth(face, line, opts.FontSize))/2 + opts.OffsetX
		ops = append(ops,
			DrawOp{Text: line, X: x + ShadowOffset, Y: y + ShadowOffset, Color: ShadowColor, Shadow: true},
			DrawOp{Text: line, X: x, Y: y, Color: fill},
		)
		y += lineH
	}
	return ops
}

// Overlay draws ops onto a copy of base. Op positions are the top of the
// line; the baseline sits one ascent lower.
func Overlay(base image.Image, face font.Face, ops []DrawOp) *image.RGBA {
	dst := image.NewRGBA(base.Bounds())
	draw.Draw(dst, dst.Bounds(), base, base.Bounds().Min, draw.Src)
	ascent := face.Metrics().Ascent.Ceil()
	for _, op := range ops {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(op.Color),
			Face: face,
			Dot:  fixed.P(op.X, op.Y+ascent),
		}
		d.DrawString(op.Text)
	}
	return dst
}
