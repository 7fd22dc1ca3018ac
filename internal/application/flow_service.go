package application

import (
	"context"
	"sync"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// Entry commands mapped onto flows.
const (
	cmdStart    = "start"
	cmdRegister = "acc"
	cmdLots     = "lots"
)

// FlowService is the application facade between the chat transport and the
// step engine: it routes entry commands, forwards everything else into the
// engine and serializes event handling per user. The transport may call
// HandleEvent from many workers; events of the same user are processed one
// at a time, fully finishing effect production before the next one starts.
type FlowService struct {
	eng *usecase.Engine
	tr  *i18n.Translator
	log *zerolog.Logger

	// userLocks keeps one mutex per active user. Entries are never evicted;
	// the set of chatting users is small and a mutex is a few words.
	userLocks sync.Map // int64 -> *sync.Mutex
}

// NewFlowService wires the facade.
func NewFlowService(eng *usecase.Engine, tr *i18n.Translator, logger *zerolog.Logger) *FlowService {
	return &FlowService{eng: eng, tr: tr, log: logger}
}

// HandleEvent processes one inbound event and returns the effects to render.
func (f *FlowService) HandleEvent(ctx context.Context, ev adapter.Event) ([]adapter.Effect, error) {
	ctx = logging.WithTgID(ctx, ev.UserID)

	mu := f.lockFor(ev.UserID)
	mu.Lock()
	defer mu.Unlock()

	if ev.Type == adapter.EventCommand {
		switch ev.Command {
		case cmdStart:
			return f.greet(ev), nil
		case cmdRegister:
			return f.eng.Start(ctx, model.FlowRegistration, ev)
		case cmdLots:
			return f.eng.Start(ctx, model.FlowLotCreation, ev)
		}
	}
	return f.eng.Handle(ctx, ev)
}

func (f *FlowService) greet(ev adapter.Event) []adapter.Effect {
	return []adapter.Effect{
		adapter.Sticker(adapter.StickerGreeting),
		adapter.Prompt(f.tr.T("welcome_message", ev.FirstName)),
	}
}

func (f *FlowService) lockFor(userID int64) *sync.Mutex {
	if mu, ok := f.userLocks.Load(userID); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := f.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
