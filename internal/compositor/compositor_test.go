package compositor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"

	"t4studio/internal/domain"
)

func TestHexColorRoundTrip(t *testing.T) {
	for _, in := range []string{"#FFFFFF", "#000000", "#1A2B3C", "#FF8800"} {
		c, err := ParseHexColor(in)
		if err != nil {
			t.Fatalf("ParseHexColor(%s): %v", in, err)
		}
		if got := HexColor(c); got != in {
			t.Fatalf("round trip %s -> %s", in, got)
		}
	}
	c, err := ParseHexColor("#abc")
	if err != nil || HexColor(c) != "#AABBCC" {
		t.Fatalf("short form: %v %s", err, HexColor(c))
	}
}

func TestParseHexColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#12345", "#GGGGGG", "red"} {
		if _, err := ParseHexColor(in); !errors.Is(err, domain.ErrInvalidColor) {
			t.Fatalf("ParseHexColor(%q) expected ErrInvalidColor, got %v", in, err)
		}
	}
}

func TestLayoutTextShadowPairs(t *testing.T) {
	face := basicfont.Face7x13
	bounds := image.Rect(0, 0, 400, 300)
	ops := LayoutText(bounds, face, TextOptions{Text: "one\ntwo\nthree", FontSize: 40, Color: color.White, OffsetX: 10, OffsetY: -20})
	if len(ops) != 6 {
		t.Fatalf("expected 6 ops, got %d", len(ops))
	}
	lineH := LineHeight(face, 40)
	startY := (300-3*lineH)/2 - 20
	for i := 0; i < 3; i++ {
		shadow, main := ops[2*i], ops[2*i+1]
		if !shadow.Shadow || main.Shadow {
			t.Fatalf("line %d: shadow must precede main op", i)
		}
		if shadow.X != main.X+ShadowOffset || shadow.Y != main.Y+ShadowOffset {
			t.Fatalf("line %d: shadow offset wrong: %+v vs %+v", i, shadow, main)
		}
		if shadow.Color != ShadowColor {
			t.Fatalf("line %d: shadow must be black", i)
		}
		if main.Y != startY+i*lineH {
			t.Fatalf("line %d: y=%d want %d", i, main.Y, startY+i*lineH)
		}
		wantX := (400-LineWidth(face, main.Text, 40))/2 + 10
		if main.X != wantX {
			t.Fatalf("line %d: x=%d want %d", i, main.X, wantX)
		}
	}
}

func TestLineHeightUsesFontSize(t *testing.T) {
	face := basicfont.Face7x13
	if LineHeight(face, 100)-LineHeight(face, 50) != 20 {
		t.Fatalf("line height should grow by 0.4 per font size unit")
	}
}

func TestLayoutTextEmpty(t *testing.T) {
	if ops := LayoutText(image.Rect(0, 0, 10, 10), basicfont.Face7x13, TextOptions{}); ops != nil {
		t.Fatalf("expected no ops, got %d", len(ops))
	}
}

func TestResolveFaceFallbacks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "go.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}

	face, src := ResolveFace(FontOptions{File: path, Size: 40})
	if src != FontWorkingDir {
		t.Fatalf("expected working_dir source, got %s", src)
	}
	face.Close()

	face, src = ResolveFace(FontOptions{File: "missing/go.ttf", SystemDir: dir, Size: 40})
	if src != FontSystem {
		t.Fatalf("expected system source, got %s", src)
	}
	face.Close()

	face, src = ResolveFace(FontOptions{File: "missing.ttf", SystemDir: filepath.Join(dir, "nope")})
	if src != FontBuiltin || face != basicfont.Face7x13 {
		t.Fatalf("expected builtin fallback, got %s", src)
	}
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngData(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestApplyLogoInvalidLeavesImageUnchanged(t *testing.T) {
	base := solid(50, 50, color.NRGBA{B: 255, A: 255})
	out, err := ApplyLogo(base, LogoOptions{Data: []byte("not an image"), Width: 20})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if out != image.Image(base) {
		t.Fatalf("base image must be returned untouched")
	}
}

func TestApplyLogoScalesAndBlends(t *testing.T) {
	base := solid(100, 100, color.NRGBA{B: 255, A: 255})
	logo := solid(10, 5, color.NRGBA{R: 255, A: 255})

	out, err := ApplyLogo(base, LogoOptions{Data: pngData(t, logo), Width: 20, X: 30, Y: 40})
	if err != nil {
		t.Fatalf("ApplyLogo: %v", err)
	}
	r, _, b, _ := out.At(35, 45).RGBA()
	if r>>8 < 250 || b>>8 > 5 {
		t.Fatalf("logo not pasted at target, got r=%d b=%d", r>>8, b>>8)
	}
	r, _, b, _ = out.At(35, 55).RGBA()
	if r>>8 != 0 || b>>8 != 255 {
		t.Fatalf("logo height should follow aspect ratio, got r=%d b=%d", r>>8, b>>8)
	}
	r, _, b, _ = base.At(35, 45).RGBA()
	if r>>8 != 0 || b>>8 != 255 {
		t.Fatalf("base image was modified")
	}
}

func TestApplyLogoTransparentPixelsKeepBase(t *testing.T) {
	base := solid(40, 40, color.NRGBA{G: 255, A: 255})
	logo := solid(4, 4, color.NRGBA{})

	out, err := ApplyLogo(base, LogoOptions{Data: pngData(t, logo), Width: 8})
	if err != nil {
		t.Fatalf("ApplyLogo: %v", err)
	}
	_, g, _, _ := out.At(2, 2).RGBA()
	if g>>8 != 255 {
		t.Fatalf("transparent logo pixels must not cover base, got g=%d", g>>8)
	}
}

func TestRenderLeavesBaseUntouched(t *testing.T) {
	base := solid(200, 120, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	c := New(FontOptions{File: "definitely-missing.ttf"}, nil)

	out, src := c.Render(base, TextOptions{Text: "HELLO", FontSize: 40, Color: color.White}, &LogoOptions{Data: []byte("bad"), Width: 10})
	if src != FontBuiltin {
		t.Fatalf("expected builtin font, got %s", src)
	}
	if out.Bounds() != base.Bounds() {
		t.Fatalf("bounds changed: %v", out.Bounds())
	}
	if r, g, b, _ := base.At(100, 60).RGBA(); r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("base modified")
	}
	changed := false
	for y := 0; y < 120 && !changed; y++ {
		for x := 0; x < 200; x++ {
			if r, _, _, _ := out.At(x, y).RGBA(); r>>8 == 255 {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Fatalf("expected white text pixels in output")
	}
}

func TestRenderDrawsTextOverLogo(t *testing.T) {
	base := solid(200, 120, color.NRGBA{B: 255, A: 255})
	logo := solid(10, 10, color.NRGBA{R: 255, A: 255})
	c := New(FontOptions{File: "definitely-missing.ttf"}, nil)

	out, _ := c.Render(base, TextOptions{Text: "HELLO", FontSize: 40, Color: color.White}, &LogoOptions{Data: pngData(t, logo), Width: 200})
	white := false
	for y := 0; y < 120 && !white; y++ {
		for x := 0; x < 200; x++ {
			r, g, b, _ := out.At(x, y).RGBA()
			if r>>8 == 255 && g>>8 == 255 && b>>8 == 255 {
				white = true
				break
			}
		}
	}
	if !white {
		t.Fatalf("text must be visible on top of a full-frame logo")
	}
	if r, _, b, _ := out.At(0, 0).RGBA(); r>>8 != 255 || b>>8 != 0 {
		t.Fatalf("logo missing at origin, got r=%d b=%d", r>>8, b>>8)
	}
}

func TestThumbnail(t *testing.T) {
	thumb := Thumbnail(solid(400, 200, color.White), 100)
	if b := thumb.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("unexpected thumbnail size %v", b)
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("webp") != FormatWebP || ParseFormat("gif") != FormatPNG {
		t.Fatalf("unexpected format parsing")
	}
	if FormatWebP.ContentType() != "image/webp" || FormatPNG.Ext() != ".png" {
		t.Fatalf("unexpected format metadata")
	}
}
