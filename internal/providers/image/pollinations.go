package image

import (
	"context"

	"t4studio/internal/imagegen"
)

// PollinationsGenerator renders prompts through the public Pollinations endpoint.
type PollinationsGenerator struct {
	client *imagegen.PollinationsClient
}

func NewPollinationsGenerator(client *imagegen.PollinationsClient) *PollinationsGenerator {
	return &PollinationsGenerator{client: client}
}

func (g *PollinationsGenerator) Generate(ctx context.Context, req Request) Result {
	img, err := g.client.Generate(ctx, imagegen.Request{
		Prompt: req.Prompt,
		Width:  req.Width,
		Height: req.Height,
		Seed:   req.Seed,
	})
	if err != nil {
		return Result{Seed: req.Seed, Err: err}
	}
	return Result{Image: img, Seed: req.Seed}
}

var _ Generator = (*PollinationsGenerator)(nil)
