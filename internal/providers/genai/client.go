package genai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	genaisdk "google.golang.org/genai"

	"t4studio/internal/domain"
	"t4studio/internal/infra"
)

// DefaultModel is the Gemini image model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image"

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	HTTPClient      *http.Client
	SendAspectRatio bool
	Logger          *infra.Logger
}

// Client wraps the Gemini multimodal API. A fresh SDK client is built per
// call because the API key may change from one request to the next.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	httpClient      *http.Client
	sendAspectRatio bool
	logger          *infra.Logger
}

// Reference is an uploaded image sent alongside the prompt.
type Reference struct {
	Label    string
	MIMEType string
	Data     []byte
}

// ImageRequest represents the information required to generate one image.
// APIKey overrides the configured key when set.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	References  []Reference
	Seed        int
	APIKey      string
}

// ImageResult is the first image part returned by the model.
type ImageResult struct {
	Image    image.Image
	MIMEType string
	Data     []byte
	Text     string
}

// NewClient constructs a Gemini client with sane defaults.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:          strings.TrimSpace(opts.APIKey),
		baseURL:         strings.TrimSpace(opts.BaseURL),
		model:           model,
		httpClient:      client,
		sendAspectRatio: opts.SendAspectRatio,
		logger:          infra.OrDiscard(opts.Logger),
	}
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasAPIKey reports whether a default key was configured.
func (c *Client) HasAPIKey() bool {
	return c != nil && c.apiKey != ""
}

// GenerateImage sends one GenerateContent call and returns the first inline
// image. No retry is attempted.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return nil, domain.ErrAPIKeyRequired
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("gemini: prompt required")
	}

	clientCfg := &genaisdk.ClientConfig{
		APIKey:     key,
		Backend:    genaisdk.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		clientCfg.HTTPOptions = genaisdk.HTTPOptions{BaseURL: c.baseURL}
	}
	sdk, err := genaisdk.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	ratio := strings.TrimSpace(req.AspectRatio)
	if ratio != "" && !strings.Contains(prompt, ratio) {
		prompt += " Output aspect ratio: " + ratio + "."
	}
	parts := []*genaisdk.Part{genaisdk.NewPartFromText(prompt)}
	for _, ref := range req.References {
		if len(ref.Data) == 0 {
			continue
		}
		mime := ref.MIMEType
		if mime == "" {
			mime = http.DetectContentType(ref.Data)
		}
		if ref.Label != "" {
			parts = append(parts, genaisdk.NewPartFromText(ref.Label+":"))
		}
		parts = append(parts, &genaisdk.Part{
			InlineData: &genaisdk.Blob{
				MIMEType: mime,
				Data:     ref.Data,
			},
		})
	}

	config := &genaisdk.GenerateContentConfig{}
	if ratio != "" && c.sendAspectRatio {
		config.ImageConfig = &genaisdk.ImageConfig{AspectRatio: ratio}
	}
	if req.Seed > 0 {
		seed := int32(req.Seed)
		config.Seed = &seed
	}

	start := time.Now()
	result, err := sdk.Models.GenerateContent(
		ctx,
		c.model,
		[]*genaisdk.Content{{Role: "user", Parts: parts}},
		config,
	)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.model).Msg("gemini generate content failed")
		return nil, fmt.Errorf("gemini: %w", err)
	}

	var text []string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				img, _, err := image.Decode(bytes.NewReader(part.InlineData.Data))
				if err != nil {
					return nil, fmt.Errorf("gemini: decode image: %w", err)
				}
				c.logger.Debug().
					Int("references", len(req.References)).
					Int("bytes", len(part.InlineData.Data)).
					Dur("elapsed", time.Since(start)).
					Msg("gemini image generated")
				return &ImageResult{
					Image:    img,
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
					Text:     strings.Join(text, "\n"),
				}, nil
			}
			if t := strings.TrimSpace(part.Text); t != "" {
				text = append(text, t)
			}
		}
	}
	if len(text) > 0 {
		return nil, fmt.Errorf("gemini: %w: model replied %q", domain.ErrNoResult, truncate(strings.Join(text, " "), 200))
	}
	return nil, fmt.Errorf("gemini: %w", domain.ErrNoResult)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
