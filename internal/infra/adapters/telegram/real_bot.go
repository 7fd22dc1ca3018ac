package telegram

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/application"
	"telegram-marketplace-bot/internal/config"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
	"telegram-marketplace-bot/internal/infra/worker"
)

// RealBot runs long polling against the Telegram Bot API, normalizes updates
// into flow events and renders the produced effects back into the chat.
type RealBot struct {
	api      *tgbotapi.BotAPI
	svc      *application.FlowService
	pool     *worker.Pool
	stickers config.StickerConfig
	log      *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealBot(cfg *config.BotConfig, svc *application.FlowService, logger *zerolog.Logger) (*RealBot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if svc == nil {
		return nil, errors.New("flow service is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &RealBot{
		api:      api,
		svc:      svc,
		pool:     worker.NewPool(cfg.Workers, logger),
		stickers: cfg.Stickers,
		log:      logger,
	}, nil
}

// StartPolling consumes updates until ctx is canceled. Updates fan out over
// the worker pool; per-user ordering is guaranteed downstream by the flow
// service, not here.
func (r *RealBot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.pool.Start(ctx)
	defer r.pool.Stop()

	for {
		select {
		case <-ctx.Done():
			r.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			upd := update
			if err := r.pool.Submit(func(taskCtx context.Context) error {
				return r.handleUpdate(taskCtx, upd)
			}); err != nil {
				r.log.Warn().Err(err).Int("update_id", upd.UpdateID).Msg("update dropped")
			}
		}
	}
}

// StopPolling stops the polling loop gracefully.
func (r *RealBot) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ev, chatID, ok := r.normalize(update)
	if !ok {
		return nil
	}
	metrics.IncTelegramUpdate(string(ev.Type))

	if update.CallbackQuery != nil {
		// Acknowledge early so the client stops showing the spinner.
		if _, err := r.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("callback ack failed")
		}
	}

	effects, err := r.svc.HandleEvent(ctx, ev)
	if err != nil {
		return err
	}
	for _, eff := range effects {
		if sendErr := r.render(chatID, eff); sendErr != nil {
			metrics.IncTelegramSendError()
			logging.With(ctx, r.log).Error().Err(sendErr).Msg("send failed")
		}
	}
	return nil
}

// normalize maps a raw update onto a flow event. Unsupported update kinds
// return ok=false and are ignored.
func (r *RealBot) normalize(update tgbotapi.Update) (adapter.Event, int64, bool) {
	if cb := update.CallbackQuery; cb != nil && cb.Message != nil {
		return adapter.Event{
			UserID:    cb.From.ID,
			Username:  cb.From.UserName,
			FirstName: cb.From.FirstName,
			Type:      adapter.EventCallback,
			Text:      cb.Data,
			MessageID: cb.Message.MessageID,
		}, cb.Message.Chat.ID, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return adapter.Event{}, 0, false
	}

	ev := adapter.Event{
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		MessageID: msg.MessageID,
	}

	switch {
	case msg.IsCommand():
		ev.Type = adapter.EventCommand
		ev.Command = msg.Command()
		ev.Text = msg.CommandArguments()
	case msg.Location != nil:
		ev.Type = adapter.EventLocation
		ev.Lat = msg.Location.Latitude
		ev.Lon = msg.Location.Longitude
	case len(msg.Photo) > 0:
		ev.Type = adapter.EventPhoto
		// Sizes come smallest first; take the largest.
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		uri, err := r.api.GetFileDirectURL(fileID)
		if err != nil {
			r.log.Warn().Err(err).Str("file_id", fileID).Msg("file url lookup failed")
			return adapter.Event{}, 0, false
		}
		ev.PhotoURI = uri
	case msg.Text != "":
		ev.Type = adapter.EventText
		ev.Text = strings.TrimSpace(msg.Text)
	default:
		return adapter.Event{}, 0, false
	}
	return ev, msg.Chat.ID, true
}

func (r *RealBot) render(chatID int64, eff adapter.Effect) error {
	switch eff.Kind {
	case adapter.EffectPrompt:
		msg := tgbotapi.NewMessage(chatID, eff.Text)
		switch {
		case len(eff.Choices) > 0:
			rows := make([][]tgbotapi.KeyboardButton, 0, len(eff.Choices))
			for _, choice := range eff.Choices {
				rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(choice)))
			}
			msg.ReplyMarkup = tgbotapi.NewOneTimeReplyKeyboard(rows...)
		case len(eff.Buttons) > 0:
			rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(eff.Buttons))
			for _, row := range eff.Buttons {
				btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
				for _, b := range row {
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
				}
				rows = append(rows, btns)
			}
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		case eff.RemoveKeyboard:
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		}
		_, err := r.api.Send(msg)
		return err

	case adapter.EffectSticker:
		fileID := r.pickSticker(eff.Sticker)
		if fileID == "" {
			return nil
		}
		_, err := r.api.Send(tgbotapi.NewSticker(chatID, tgbotapi.FileID(fileID)))
		return err

	case adapter.EffectDeleteMessage:
		_, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, eff.MessageID))
		return err
	}
	return nil
}

// pickSticker resolves a logical sticker name to a random configured file ID.
func (r *RealBot) pickSticker(name string) string {
	var ids []string
	switch name {
	case adapter.StickerGreeting:
		ids = r.stickers.Greeting
	case adapter.StickerTada:
		ids = r.stickers.Tada
	}
	if len(ids) == 0 {
		return ""
	}
	return ids[rand.Intn(len(ids))]
}
