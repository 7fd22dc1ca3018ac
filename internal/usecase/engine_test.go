package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

func TestEngine_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("event without a session produces nothing", func(t *testing.T) {
		eng, _, _ := newTestEngine(&mockMarketplace{}, &mockGeocoder{}, &mockPhotoStore{})

		effects, err := eng.Handle(ctx, textEvent(7, "hello"))
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if len(effects) != 0 {
			t.Fatalf("expected no effects, got %d", len(effects))
		}
	})

	t.Run("cancel deletes the session and closes the form", func(t *testing.T) {
		market := &mockMarketplace{lookupErr: domain.ErrNotFound}
		eng, repo, tr := newTestEngine(market, &mockGeocoder{}, &mockPhotoStore{})

		if _, err := eng.Start(ctx, model.FlowLotCreation, commandEvent(7, "lots")); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		effects, err := eng.Handle(ctx, commandEvent(7, "cancel"))
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		wantPrompt(t, effects, tr.T("form_closed"))
		if !effects[0].RemoveKeyboard {
			t.Error("expected the reply keyboard to be removed")
		}
		if _, err := repo.Get(ctx, 7); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected session gone, got err=%v", err)
		}
	})

	t.Run("starting a flow discards the previous session", func(t *testing.T) {
		market := &mockMarketplace{lookupErr: domain.ErrNotFound}
		eng, repo, _ := newTestEngine(market, &mockGeocoder{}, &mockPhotoStore{})

		if _, err := eng.Start(ctx, model.FlowLotCreation, commandEvent(7, "lots")); err != nil {
			t.Fatalf("first Start failed: %v", err)
		}
		first, _ := repo.Get(ctx, 7)

		if _, err := eng.Start(ctx, model.FlowRegistration, commandEvent(7, "acc")); err != nil {
			t.Fatalf("second Start failed: %v", err)
		}
		second, err := repo.Get(ctx, 7)
		if err != nil {
			t.Fatalf("expected fresh session: %v", err)
		}
		if second.ID == first.ID {
			t.Error("expected a new session id after restart")
		}
		if second.Flow != model.FlowRegistration {
			t.Errorf("expected registration flow, got %s", second.Flow)
		}
	})

	t.Run("validation rejection repeats the step and records the error", func(t *testing.T) {
		market := &mockMarketplace{lookupErr: domain.ErrNotFound}
		eng, repo, tr := newTestEngine(market, &mockGeocoder{}, &mockPhotoStore{})

		if _, err := eng.Start(ctx, model.FlowLotCreation, commandEvent(7, "lots")); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		effects, err := eng.Handle(ctx, textEvent(7, "короткое"))
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		wantPrompt(t, effects, tr.T("err_name_length"))

		s, err := repo.Get(ctx, 7)
		if err != nil {
			t.Fatalf("session must survive a rejection: %v", err)
		}
		if s.Step != model.StepName {
			t.Errorf("expected step %s, got %s", model.StepName, s.Step)
		}
		if s.LastError != "err_name_length" {
			t.Errorf("expected last error recorded, got %q", s.LastError)
		}
	})

	t.Run("gateway failure entering a step keeps the session in place", func(t *testing.T) {
		market := &mockMarketplace{lookupErr: domain.ErrNotFound, catsErr: errors.New("boom")}
		eng, repo, tr := newTestEngine(market, &mockGeocoder{}, &mockPhotoStore{})

		if _, err := eng.Start(ctx, model.FlowLotCreation, commandEvent(7, "lots")); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		effects, err := eng.Handle(ctx, textEvent(7, "Продаю велосипед почти новый"))
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		wantPrompt(t, effects, tr.T("err_api_retry"))

		s, err := repo.Get(ctx, 7)
		if err != nil {
			t.Fatalf("session must survive a gateway error: %v", err)
		}
		if s.Step != model.StepName {
			t.Errorf("expected to stay on %s, got %s", model.StepName, s.Step)
		}

		// The backend recovers and the same answer goes through.
		market.catsErr = nil
		market.cats = testCategories()
		effects, err = eng.Handle(ctx, textEvent(7, "Продаю велосипед почти новый"))
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		wantPrompt(t, effects, tr.T("prompt_category"))
	})
}

func wantPrompt(t *testing.T, effects []adapter.Effect, text string) {
	t.Helper()
	if len(effects) == 0 {
		t.Fatal("expected at least one effect")
	}
	var last *adapter.Effect
	for i := range effects {
		if effects[i].Kind == adapter.EffectPrompt {
			last = &effects[i]
		}
	}
	if last == nil {
		t.Fatalf("no prompt effect in %v", effects)
	}
	if last.Text != text {
		t.Fatalf("expected prompt %q, got %q", text, last.Text)
	}
}

func wantSticker(t *testing.T, effects []adapter.Effect, name string) {
	t.Helper()
	for _, e := range effects {
		if e.Kind == adapter.EffectSticker && e.Sticker == name {
			return
		}
	}
	t.Fatalf("no %q sticker among %v", name, effects)
}
