package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"t4studio/internal/compositor"
	"t4studio/internal/http/handlers"
	httpapi "t4studio/internal/http/httpapi"
	"t4studio/internal/imagegen"
	"t4studio/internal/infra"
	"t4studio/internal/infra/geoip"
	"t4studio/internal/middleware"
	"t4studio/internal/providers/genai"
	imageprovider "t4studio/internal/providers/image"
	"t4studio/internal/storage"
	"t4studio/internal/wizard"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	var store wizard.Store = wizard.NewMemoryStore(cfg.SessionTTL)
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		store = wizard.NewRedisStore(rdb, cfg.SessionTTL)
		logger.Info().Msg("wizard sessions stored in redis")
	}

	pollinations := imagegen.NewPollinationsClient(imagegen.PollinationsOptions{
		BaseURL: cfg.PollinationsBaseURL,
		Model:   cfg.PollinationsModel,
		Timeout: cfg.PollinationsTimeout,
		Logger:  &logger,
	})
	gemini := genai.NewClient(genai.Options{
		APIKey:          cfg.GeminiAPIKey,
		BaseURL:         cfg.GeminiBaseURL,
		Model:           cfg.GeminiModel,
		SendAspectRatio: cfg.GeminiSendAspectRatio,
		Logger:          &logger,
	})

	quick := imageprovider.NewLimited(imageprovider.NewPollinationsGenerator(pollinations), cfg.GenerationMaxConcurrent)
	reference := quick.Share(imageprovider.NewGeminiGenerator(gemini))

	comp := compositor.New(compositor.FontOptions{File: cfg.FontFile, SystemDir: cfg.FontSystemDir}, &logger)
	wiz := wizard.NewService(store, reference, &logger)
	if cfg.ExportDir != "" {
		exports, err := storage.NewDirStore(cfg.ExportDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare export dir")
		}
		wiz.SetExporter(exports)
		logger.Info().Str("dir", exports.Root()).Msg("campaign export enabled")
	}

	app := handlers.NewApp(&logger, quick, reference, wiz, comp, cfg.MaxUploadBytes)
	app.DefaultAPIKey = cfg.GeminiAPIKey
	app.AllowedOrigins = cfg.CORSAllowedOrigins

	var lookup middleware.LocaleLookup = func(ip string) string {
		return geoip.LocaleFor(resolver, ip)
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          &logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		LocaleLookup:    lookup,
		SessionCookie:   cfg.SessionCookieName,
		SessionTTL:      cfg.SessionTTL,
		SecureCookie:    cfg.AppEnv == "production",
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router, &logger)
	logger.Info().
		Str("addr", server.Addr()).
		Str("gemini_model", gemini.Model()).
		Bool("gemini_key", gemini.HasAPIKey()).
		Msg("api listening")
	if err := server.Run(ctx, nil, cfg.HTTPIdleTimeout); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
