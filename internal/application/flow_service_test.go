package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/memory"
	"telegram-marketplace-bot/internal/usecase"
)

// slowMarketplace serializes nothing itself; it reports user lookups as
// not found after a small delay so concurrent handling can interleave.
type slowMarketplace struct {
	mu      sync.Mutex
	calls   int
	inFlight int
	maxSeen int
}

func (m *slowMarketplace) LookupUser(_ context.Context, _ int64) (*model.SellerInfo, error) {
	m.mu.Lock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	m.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
	return nil, domain.ErrNotFound
}

func (m *slowMarketplace) Categories(_ context.Context) ([]model.Category, error) {
	return nil, nil
}
func (m *slowMarketplace) SubmitLot(_ context.Context, _ *model.Lot) error               { return nil }
func (m *slowMarketplace) SubmitSellerProfile(_ context.Context, _ *model.SellerProfile) error {
	return nil
}

type noGeocoder struct{}

func (noGeocoder) Reverse(_ context.Context, _, _ float64) (*model.Place, error) {
	return nil, domain.ErrUnresolved
}

type noPhotos struct{}

func (noPhotos) Upload(_ context.Context, _ int64, uris []string) []string { return uris }

func newTestService(t *testing.T, market *slowMarketplace) (*FlowService, *i18n.Translator) {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	logger := zerolog.Nop()
	repo := memory.NewSessionRepo(time.Minute)
	eng := usecase.NewEngine(repo, market, noGeocoder{}, noPhotos{}, tr, "RU", &logger)
	return NewFlowService(eng, tr, &logger), tr
}

func TestFlowService_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("start greets with a sticker and the welcome text", func(t *testing.T) {
		svc, tr := newTestService(t, &slowMarketplace{})

		effects, err := svc.HandleEvent(ctx, adapter.Event{
			UserID: 7, FirstName: "Иван",
			Type: adapter.EventCommand, Command: "start",
		})
		if err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
		if len(effects) != 2 {
			t.Fatalf("expected sticker and greeting, got %v", effects)
		}
		if effects[0].Kind != adapter.EffectSticker || effects[0].Sticker != adapter.StickerGreeting {
			t.Errorf("expected greeting sticker first, got %+v", effects[0])
		}
		if effects[1].Text != tr.T("welcome_message", "Иван") {
			t.Errorf("unexpected greeting text %q", effects[1].Text)
		}
	})

	t.Run("acc enters the registration flow", func(t *testing.T) {
		svc, tr := newTestService(t, &slowMarketplace{})

		effects, err := svc.HandleEvent(ctx, adapter.Event{
			UserID: 7, Username: "seller",
			Type: adapter.EventCommand, Command: "acc",
		})
		if err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
		if len(effects) != 1 || effects[0].Text != tr.T("prompt_location") {
			t.Errorf("expected the location prompt, got %v", effects)
		}
	})

	t.Run("lots enters the lot flow", func(t *testing.T) {
		svc, tr := newTestService(t, &slowMarketplace{})

		effects, err := svc.HandleEvent(ctx, adapter.Event{
			UserID: 7, Username: "seller",
			Type: adapter.EventCommand, Command: "lots",
		})
		if err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
		if len(effects) != 1 || effects[0].Text != tr.T("prompt_name") {
			t.Errorf("expected the name prompt, got %v", effects)
		}
	})

	t.Run("unknown command outside a flow does nothing", func(t *testing.T) {
		svc, _ := newTestService(t, &slowMarketplace{})

		effects, err := svc.HandleEvent(ctx, adapter.Event{
			UserID: 7, Type: adapter.EventCommand, Command: "help",
		})
		if err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
		if len(effects) != 0 {
			t.Errorf("expected silence, got %v", effects)
		}
	})
}

func TestFlowService_SerializesPerUser(t *testing.T) {
	ctx := context.Background()
	market := &slowMarketplace{}
	svc, _ := newTestService(t, market)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.HandleEvent(ctx, adapter.Event{
				UserID: 7, Username: "seller",
				Type: adapter.EventCommand, Command: "lots",
			})
		}()
	}
	wg.Wait()

	if market.calls != 8 {
		t.Errorf("expected 8 lookups, got %d", market.calls)
	}
	if market.maxSeen != 1 {
		t.Errorf("events of one user must not interleave, saw %d concurrent", market.maxSeen)
	}
}

func TestFlowService_DifferentUsersRunConcurrently(t *testing.T) {
	ctx := context.Background()
	market := &slowMarketplace{}
	svc, _ := newTestService(t, market)

	var wg sync.WaitGroup
	for i := int64(1); i <= 4; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, _ = svc.HandleEvent(ctx, adapter.Event{
				UserID: uid, Username: "seller",
				Type: adapter.EventCommand, Command: "lots",
			})
		}(i)
	}
	wg.Wait()

	if market.maxSeen < 2 {
		t.Logf("lookups never overlapped; timing dependent, not failing")
	}
}
