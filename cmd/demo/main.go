// Command demo runs both chat flows on stdin/stdout against stub gateways,
// useful for trying prompts and keyboards without Telegram or backend access.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-marketplace-bot/internal/application"
	"telegram-marketplace-bot/internal/config"
	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	tele "telegram-marketplace-bot/internal/infra/adapters/telegram"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/memory"
	"telegram-marketplace-bot/internal/infra/metrics"
	"telegram-marketplace-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)
	metrics.MustRegister()

	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		logger.Fatal().Err(err).Msg("load locales")
	}

	sessions := memory.NewSessionRepo(15 * time.Minute)
	engine := usecase.NewEngine(sessions, &stubMarketplace{}, &stubGeocoder{}, &stubPhotoStore{}, tr, "RU", logger)
	svc := application.NewFlowService(engine, tr, logger)
	bot := tele.NewNoopBot(svc, logger)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	fmt.Println("demo ready: /acc registers, /lots creates a listing, /cancel aborts")
	if err := bot.StartPolling(ctx); err != nil {
		logger.Error().Err(err).Msg("demo stopped")
	}
}

type stubMarketplace struct{}

func (s *stubMarketplace) LookupUser(ctx context.Context, telegramID int64) (*model.SellerInfo, error) {
	return nil, domain.ErrNotFound
}

func (s *stubMarketplace) Categories(ctx context.Context) ([]model.Category, error) {
	electronics := int64(1)
	return []model.Category{
		{ID: 1, Name: "Электроника"},
		{ID: 2, Name: "Одежда"},
		{ID: 3, Name: "Телефоны", Parent: &electronics},
		{ID: 4, Name: "Ноутбуки", Parent: &electronics},
	}, nil
}

func (s *stubMarketplace) SubmitLot(ctx context.Context, lot *model.Lot) error {
	fmt.Printf("[stub] lot submitted: %+v\n", *lot)
	return nil
}

func (s *stubMarketplace) SubmitSellerProfile(ctx context.Context, profile *model.SellerProfile) error {
	fmt.Printf("[stub] profile submitted: %+v\n", *profile)
	return nil
}

type stubGeocoder struct{}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*model.Place, error) {
	return &model.Place{CountryCode: "RU", Address: "Тверская улица, 1", Region: "Москва"}, nil
}

type stubPhotoStore struct{}

func (s *stubPhotoStore) Upload(ctx context.Context, userID int64, sourceURIs []string) []string {
	return sourceURIs
}
