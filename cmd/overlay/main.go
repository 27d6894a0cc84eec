package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"t4studio/internal/compositor"
	"t4studio/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		in       = flag.String("in", "", "base image (png or jpg)")
		out      = flag.String("out", "t4_design.png", "output file; a .webp extension selects WebP")
		text     = flag.String("text", "", "overlay text, \\n separates lines")
		size     = flag.Int("size", 80, "font size (30-200)")
		colorHex = flag.String("color", "#FFFFFF", "text color")
		x        = flag.Int("x", 0, "horizontal text offset from center")
		y        = flag.Int("y", 0, "vertical text offset from center")
		logoPath = flag.String("logo", "", "optional logo png")
		logoSize = flag.Int("logo-size", 150, "logo width (50-400)")
		logoX    = flag.Int("logo-x", -1, "logo left edge; negative places it 200px from the right")
		logoY    = flag.Int("logo-y", 50, "logo top edge")
		fontFile = flag.String("font", "", "font file, defaults to FONT_FILE")
	)
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "-in is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if *fontFile != "" {
		cfg.FontFile = *fontFile
	}

	if err := run(cfg, &logger, options{
		in: *in, out: *out, text: *text, size: *size, color: *colorHex, x: *x, y: *y,
		logo: *logoPath, logoSize: *logoSize, logoX: *logoX, logoY: *logoY,
	}); err != nil {
		logger.Error().Err(err).Msg("overlay failed")
		os.Exit(1)
	}
}

type options struct {
	in, out, text, color string
	size, x, y           int
	logo                 string
	logoSize             int
	logoX, logoY         int
}

func run(cfg *infra.Config, logger *infra.Logger, opts options) error {
	f, err := os.Open(opts.in)
	if err != nil {
		return err
	}
	base, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", opts.in, err)
	}

	fill, err := compositor.ParseHexColor(opts.color)
	if err != nil {
		return err
	}
	textOpts := compositor.TextOptions{
		Text:     strings.ReplaceAll(opts.text, `\n`, "\n"),
		FontSize: clamp(opts.size, 30, 200),
		Color:    fill,
		OffsetX:  clamp(opts.x, -500, 500),
		OffsetY:  clamp(opts.y, -500, 500),
	}

	var logo *compositor.LogoOptions
	if opts.logo != "" {
		data, err := os.ReadFile(opts.logo)
		if err != nil {
			return err
		}
		lx := opts.logoX
		if lx < 0 {
			lx = base.Bounds().Dx() - 200
		}
		logo = &compositor.LogoOptions{Data: data, Width: clamp(opts.logoSize, 50, 400), X: lx, Y: opts.logoY}
	}

	comp := compositor.New(compositor.FontOptions{File: cfg.FontFile, SystemDir: cfg.FontSystemDir}, logger)
	img, source := comp.Render(base, textOpts, logo)

	format := compositor.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.out)), "."))
	w, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := compositor.Encode(w, img, format); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Info().Str("out", opts.out).Str("font_source", string(source)).Msg("overlay written")
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
