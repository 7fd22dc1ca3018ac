package telegram

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/application"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

// NoopBot is a stdin/stdout stand-in for local development without a bot
// token. Lines typed on stdin become text events for a fixed user; "/cmd"
// lines become commands. Effects are printed instead of sent.
type NoopBot struct {
	svc    *application.FlowService
	userID int64
	log    *zerolog.Logger
}

func NewNoopBot(svc *application.FlowService, logger *zerolog.Logger) *NoopBot {
	return &NoopBot{svc: svc, userID: 1, log: logger}
}

// StartPolling reads stdin until EOF or ctx cancellation.
func (b *NoopBot) StartPolling(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev := adapter.Event{
			UserID:    b.userID,
			Username:  "dev",
			FirstName: "Dev",
			Type:      adapter.EventText,
			Text:      line,
		}
		switch {
		case strings.HasPrefix(line, "/"):
			ev.Type = adapter.EventCommand
			ev.Command = strings.TrimPrefix(strings.Fields(line)[0], "/")
		case strings.HasPrefix(line, "photo:"):
			ev.Type = adapter.EventPhoto
			ev.PhotoURI = strings.TrimPrefix(line, "photo:")
		case strings.HasPrefix(line, "geo:"):
			// "geo:<lat>,<lon>"
			var lat, lon float64
			if _, err := fmt.Sscanf(strings.TrimPrefix(line, "geo:"), "%f,%f", &lat, &lon); err == nil {
				ev.Type = adapter.EventLocation
				ev.Lat, ev.Lon = lat, lon
			}
		case strings.HasPrefix(line, "cb:"):
			ev.Type = adapter.EventCallback
			ev.Text = strings.TrimPrefix(line, "cb:")
		}

		effects, err := b.svc.HandleEvent(ctx, ev)
		if err != nil {
			b.log.Error().Err(err).Msg("handle event")
			continue
		}
		for _, eff := range effects {
			b.print(eff)
		}
	}
	return scanner.Err()
}

func (b *NoopBot) StopPolling() {}

func (b *NoopBot) print(eff adapter.Effect) {
	switch eff.Kind {
	case adapter.EffectPrompt:
		fmt.Printf("[bot] %s\n", eff.Text)
		if len(eff.Choices) > 0 {
			fmt.Printf("      choices: %s\n", strings.Join(eff.Choices, " | "))
		}
		for _, row := range eff.Buttons {
			for _, btn := range row {
				fmt.Printf("      button: %s (%s)\n", btn.Text, btn.Data)
			}
		}
	case adapter.EffectSticker:
		fmt.Printf("[bot] <sticker:%s>\n", eff.Sticker)
	case adapter.EffectDeleteMessage:
		fmt.Printf("[bot] <delete message %d>\n", eff.MessageID)
	}
}
