package image

import (
	"context"
	"image"

	"t4studio/internal/domain"
)

// Request is a backend-neutral generation request. Backends ignore fields
// they do not understand: Pollinations has no references, Gemini has no
// explicit pixel size.
type Request struct {
	Prompt      string
	Width       int
	Height      int
	AspectRatio string
	Seed        int
	References  []domain.LabeledUpload
	APIKey      string
}

// Result is the outcome of one generation attempt. Exactly one of Image and
// Err is set.
type Result struct {
	Image image.Image
	Seed  int
	Err   error
}

// OK reports whether the attempt produced a bitmap.
func (r Result) OK() bool {
	return r.Err == nil && r.Image != nil
}

// Generator is the contract implemented by all image backends.
type Generator interface {
	Generate(ctx context.Context, req Request) Result
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) Result

func (f GeneratorFunc) Generate(ctx context.Context, req Request) Result {
	return f(ctx, req)
}
