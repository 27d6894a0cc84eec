package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"t4studio/internal/domain"
)

type capturedRequest struct {
	Contents []struct {
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateImageReturnsFirstInlineImage(t *testing.T) {
	data := pngBytes(t)
	var captured capturedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-test:generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role": "model",
						"parts": []any{
							map[string]any{"text": "here you go"},
							map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": data}},
						},
					},
				},
			},
		})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, Model: "gemini-test", HTTPClient: ts.Client()})
	res, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:      "A bottle on a beach",
		AspectRatio: "16:9",
		APIKey:      "user-key",
		References: []Reference{
			{Label: "product reference", MIMEType: "image/png", Data: data},
			{Label: "style reference", Data: data},
		},
	})
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if b := res.Image.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("unexpected bounds: %v", b)
	}
	if res.Text != "here you go" {
		t.Fatalf("unexpected text: %q", res.Text)
	}

	if len(captured.Contents) != 1 {
		t.Fatalf("expected one content, got %d", len(captured.Contents))
	}
	var inline int
	var texts []string
	for _, part := range captured.Contents[0].Parts {
		if part.InlineData != nil {
			inline++
			continue
		}
		texts = append(texts, part.Text)
	}
	if inline != 2 {
		t.Fatalf("expected 2 inline references, got %d", inline)
	}
	joined := strings.Join(texts, "|")
	if !strings.Contains(joined, "A bottle on a beach Output aspect ratio: 16:9.") {
		t.Fatalf("aspect ratio not stated in prompt: %s", joined)
	}
	if !strings.Contains(joined, "product reference:") {
		t.Fatalf("reference label missing: %s", joined)
	}
}

func TestGenerateImageNoImagePart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"I cannot draw that."}]}}]}`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()})
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	if !errors.Is(err, domain.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
	if !strings.Contains(err.Error(), "I cannot draw that.") {
		t.Fatalf("expected model reply in error: %v", err)
	}
}

func TestGenerateImageRequiresAPIKey(t *testing.T) {
	client := NewClient(Options{})
	if client.HasAPIKey() {
		t.Fatalf("no key configured")
	}
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	if !errors.Is(err, domain.ErrAPIKeyRequired) {
		t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestGenerateImageUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "bad", BaseURL: ts.URL, HTTPClient: ts.Client()})
	if _, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"}); err == nil {
		t.Fatalf("expected upstream error")
	}
}
