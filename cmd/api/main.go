package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vydio/internal/adapter/memory"
	"vydio/internal/adapter/repo"
	"vydio/internal/domain"
	"vydio/internal/http/handlers"
	httpapi "vydio/internal/http/httpapi"
	"vydio/internal/infra"
	"vydio/internal/middleware"
	"vydio/internal/providers/genai"
	"vydio/internal/providers/snippe"
	"vydio/internal/providers/video"
	"vydio/internal/service"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis is optional; without it the per-IP limit is per replica.
	var counter middleware.Counter
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		counter = middleware.NewRedisCounter(rdb, "")
	}

	gemini := genai.NewClient(genai.Options{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		Model:          cfg.VeoModel,
		Logger:         logger.With().Str("component", "genai").Logger(),
		SyntheticDelay: cfg.SyntheticVideoDelay,
	})
	if gemini.Synthetic() {
		logger.Warn().Msg("GEMINI_API_KEY not set, using synthetic video generation")
	}
	veo := video.NewVeoGateway(gemini)

	payments := snippe.NewClient(snippe.Options{
		APIKey:  cfg.SnippeAPIKey,
		BaseURL: cfg.SnippeBaseURL,
		Logger:  logger.With().Str("component", "snippe").Logger(),
	})

	opts := service.Options{
		ProviderTimeout:  cfg.ProviderTimeout,
		StaleQueuedAfter: cfg.StaleQueuedAfter,
	}
	app := &handlers.App{
		Store:     store,
		Submitter: service.NewSubmitter(store, veo, logger, opts),
		Status:    service.NewStatusReconciler(store, veo, logger, opts),
		Checkout: service.NewCheckout(store, payments, service.CheckoutURLs{
			Webhook: cfg.PublicAPIURL + "/v1/payments/snippe/webhook",
			Success: cfg.AppURL + "/payment/success",
			Cancel:  cfg.AppURL + "/payment/cancel",
		}, logger, opts),
		Webhooks: service.NewWebhookProcessor(store, snippe.NewWebhookDecoder(cfg.SnippeWebhookSecret), logger, opts),
		Logger:   logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:          cfg.JWTSecret,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateCounter:        counter,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		Logger:             logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("store", cfg.StoreBackend).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.Store, func(), error) {
	if cfg.StoreBackend == infra.StoreBackendMemory {
		logger.Warn().Msg("using in-memory store, balances are lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RunMigrations {
		if err := repo.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	runner := infra.NewSQLRunner(pool, logger.With().Str("component", "sql").Logger())
	return repo.NewStore(runner), pool.Close, nil
}
