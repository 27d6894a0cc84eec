package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	GeminiSendAspectRatio bool

	PollinationsBaseURL string
	PollinationsModel   string
	PollinationsTimeout time.Duration

	FontFile      string
	FontSystemDir string

	// ExportDir, when set, receives a copy of every finished campaign.
	ExportDir string

	RedisURL          string
	SessionTTL        time.Duration
	SessionCookieName string

	GeoIPDBPath   string
	DefaultLocale string

	MaxUploadBytes          int64
	GenerationMaxConcurrent int
	RateLimitPerMin         int
	CORSAllowedOrigins      []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// defaultWriteTimeoutSeconds covers a synchronous wizard run: four sequential
// Gemini calls at 120s each, plus encoding.
const defaultWriteTimeoutSeconds = 4*120 + 60

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                  getEnv("APP_ENV", "development"),
		Port:                    getEnv("PORT", "8080"),
		LogLevel:                strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		GeminiAPIKey:            strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:           os.Getenv("GEMINI_BASE_URL"),
		GeminiSendAspectRatio:   getEnvBool("GEMINI_SEND_ASPECT_RATIO", true),
		PollinationsBaseURL:     getEnv("POLLINATIONS_BASE_URL", "https://image.pollinations.ai"),
		PollinationsModel:       getEnv("POLLINATIONS_MODEL", "flux"),
		PollinationsTimeout:     time.Second * time.Duration(getEnvInt("POLLINATIONS_TIMEOUT_SECONDS", 60)),
		FontFile:                getEnv("FONT_FILE", "mmrtext.ttf"),
		FontSystemDir:           getEnv("FONT_SYSTEM_DIR", "C:/Windows/Fonts"),
		ExportDir:               strings.TrimSpace(os.Getenv("EXPORT_DIR")),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		SessionTTL:              time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 720)),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "t4_session"),
		GeoIPDBPath:             os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:           getEnv("DEFAULT_LOCALE", "en"),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		GenerationMaxConcurrent: getEnvInt("GENERATION_MAX_CONCURRENT", 4),
		RateLimitPerMin:         getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS"),
		HTTPReadTimeout:         time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:        time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", defaultWriteTimeoutSeconds)),
		HTTPIdleTimeout:         time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.PollinationsTimeout <= 0 {
		cfg.PollinationsTimeout = 60 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.GenerationMaxConcurrent < 1 {
		cfg.GenerationMaxConcurrent = 1
	}
	switch cfg.DefaultLocale {
	case "en", "my":
	default:
		return nil, fmt.Errorf("DEFAULT_LOCALE must be en or my, got %q", cfg.DefaultLocale)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
