package image

import (
	"context"
	"fmt"

	"t4studio/internal/domain"
	"t4studio/internal/providers/genai"
)

// GeminiGenerator sends prompt and references to the Gemini backend.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) Result {
	refs := make([]genai.Reference, 0, len(req.References))
	for _, ref := range req.References {
		if ref.Upload.Empty() {
			continue
		}
		refs = append(refs, genai.Reference{
			Label:    ref.Label,
			MIMEType: ref.Upload.MIMEType,
			Data:     ref.Upload.Data,
		})
	}
	res, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		References:  refs,
		Seed:        req.Seed,
		APIKey:      req.APIKey,
	})
	if err != nil {
		return Result{Seed: req.Seed, Err: err}
	}
	if res == nil || res.Image == nil {
		return Result{Seed: req.Seed, Err: fmt.Errorf("gemini: %w", domain.ErrNoResult)}
	}
	return Result{Image: res.Image, Seed: req.Seed}
}

var _ Generator = (*GeminiGenerator)(nil)
