package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "LOG_LEVEL", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_SEND_ASPECT_RATIO", "REDIS_URL", "MAX_UPLOAD_MB", "DEFAULT_LOCALE", "CORS_ALLOWED_ORIGINS", "HTTP_WRITE_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.AppEnv != "development" || cfg.LogLevel != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.GeminiModel != "gemini-2.5-flash-image" {
		t.Fatalf("GeminiModel mismatch: %q", cfg.GeminiModel)
	}
	if !cfg.GeminiSendAspectRatio {
		t.Fatalf("expected aspect ratio to be sent by default")
	}
	if cfg.PollinationsTimeout != 60*time.Second {
		t.Fatalf("PollinationsTimeout mismatch: %v", cfg.PollinationsTimeout)
	}
	if cfg.HTTPWriteTimeout <= 4*120*time.Second {
		t.Fatalf("HTTPWriteTimeout %v must outlast four sequential Gemini calls", cfg.HTTPWriteTimeout)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("MaxUploadBytes mismatch: %d", cfg.MaxUploadBytes)
	}
	if cfg.RedisURL != "" || cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected empty optional values: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "1919")
	t.Setenv("GEMINI_SEND_ASPECT_RATIO", "false")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("GENERATION_MAX_CONCURRENT", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example ")
	t.Setenv("DEFAULT_LOCALE", "my")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "1919" {
		t.Fatalf("Port mismatch: %q", cfg.Port)
	}
	if cfg.GeminiSendAspectRatio {
		t.Fatalf("expected aspect ratio flag to be disabled")
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("SessionTTL mismatch: %v", cfg.SessionTTL)
	}
	if cfg.GenerationMaxConcurrent != 1 {
		t.Fatalf("GenerationMaxConcurrent should clamp to 1, got %d", cfg.GenerationMaxConcurrent)
	}
	expected := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigRejectsUnknownLocale(t *testing.T) {
	t.Setenv("DEFAULT_LOCALE", "fr")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unsupported locale")
	}
}
