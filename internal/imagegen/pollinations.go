package imagegen

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"t4studio/internal/domain"
	"t4studio/internal/infra"
)

const (
	DefaultPollinationsBaseURL = "https://image.pollinations.ai"
	DefaultPollinationsModel   = "flux"
)

type PollinationsOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
}

// PollinationsClient fetches images from the public prompt-in-path endpoint.
// It needs no credentials and makes exactly one attempt per call.
type PollinationsClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	logger     *infra.Logger
}

// Request describes one text-to-image call.
type Request struct {
	Prompt string
	Width  int
	Height int
	Seed   int
	Model  string
}

func NewPollinationsClient(opts PollinationsOptions) *PollinationsClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultPollinationsBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultPollinationsModel
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PollinationsClient{
		httpClient: client,
		baseURL:    base,
		model:      model,
		logger:     infra.OrDiscard(opts.Logger),
	}
}

// URL builds the request URL for req without performing it.
func (c *PollinationsClient) URL(req Request) string {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	q := url.Values{}
	q.Set("width", strconv.Itoa(req.Width))
	q.Set("height", strconv.Itoa(req.Height))
	q.Set("model", model)
	q.Set("seed", strconv.Itoa(req.Seed))
	q.Set("nologo", "true")
	return c.baseURL + "/prompt/" + url.PathEscape(req.Prompt) + "?" + q.Encode()
}

// Generate performs the request and decodes the returned bitmap.
func (c *PollinationsClient) Generate(ctx context.Context, req Request) (image.Image, error) {
	if c == nil {
		return nil, fmt.Errorf("pollinations client not configured")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("pollinations: prompt required")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("pollinations: invalid size %dx%d", req.Width, req.Height)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(req), nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pollinations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pollinations: http %d: %w", resp.StatusCode, domain.ErrNoResult)
	}
	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pollinations: decode: %w", err)
	}
	c.logger.Debug().
		Int("seed", req.Seed).
		Str("format", format).
		Dur("elapsed", time.Since(start)).
		Msg("pollinations image received")
	return img, nil
}
