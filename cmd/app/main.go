package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/application"
	"telegram-marketplace-bot/internal/config"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/adapters/geocoder"
	"telegram-marketplace-bot/internal/infra/adapters/marketplace"
	"telegram-marketplace-bot/internal/infra/adapters/photostore"
	tele "telegram-marketplace-bot/internal/infra/adapters/telegram"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/memory"
	"telegram-marketplace-bot/internal/infra/metrics"
	red "telegram-marketplace-bot/internal/infra/redis"
	"telegram-marketplace-bot/internal/infra/web"
	"telegram-marketplace-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		logger.Fatal().Err(err).Msg("load locales")
	}

	// ---- Session store ----
	var sessions repository.SessionRepository
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect")
		}
		defer client.Close()
		sessions = red.NewSessionRepo(client, cfg.Session.TTL)
		logger.Info().Str("store", "redis").Msg("session store ready")
	default:
		memStore := memory.NewSessionRepo(cfg.Session.TTL)
		go sweepLoop(ctx, memStore, cfg.Session.TTL, logger.With().Str("component", "sweeper").Logger())
		sessions = memStore
		logger.Info().Str("store", "memory").Msg("session store ready")
	}

	// ---- Gateways ----
	market := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout)
	geo := geocoder.NewYandexClient(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, cfg.Geocoder.Timeout)
	photos := photostore.NewS3Store(&cfg.Photos, logger)

	// ---- Core ----
	engine := usecase.NewEngine(sessions, market, geo, photos, tr, cfg.Geocoder.TargetCountry, logger)
	svc := application.NewFlowService(engine, tr, logger)

	// ---- Telegram ----
	bot, err := tele.NewRealBot(&cfg.Bot, svc, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram init")
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Ops HTTP ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.SecureAuth && !cfg.Runtime.Dev, cfg.Web.AuthTTL)
	opsSrv := web.NewServer(sessions, auth, cfg.Web.AdminAPIKey, logger)
	httpServer := opsSrv.HTTPServer(fmt.Sprintf(":%d", cfg.Web.Port))
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	cancel()
	bot.StopPolling()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

// sweepLoop evicts expired in-memory sessions in the background. Redis
// expires keys natively and does not need this.
func sweepLoop(ctx context.Context, store *memory.SessionRepo, ttl time.Duration, logger zerolog.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug().Int("evicted", n).Msg("expired sessions removed")
			}
		}
	}
}
