package usecase

import (
	"context"
	"errors"
	"strconv"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

// lotCreationFlow builds the listing-creation flow table:
//
//	Name → Category → Subcategory → MainPhoto → AdditionalPhoto(×0–4)
//	     → Description → Price → Submitted
//
// Entry requires an unblocked user with a Telegram username; the username
// becomes the contact link buyers open.
func lotCreationFlow() *FlowDefinition {
	return &FlowDefinition{
		Kind:  model.FlowLotCreation,
		Entry: lotEntry,
		Steps: map[model.Step]StepSpec{
			model.StepName: {
				Validate: func(_ context.Context, _ *Engine, _ *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventText {
						return "", Reject("err_name_length")
					}
					if err := ValidateName(ev.Text); err != nil {
						return "", err
					}
					return ev.Text, nil
				},
				Apply: storeField(model.FieldName),
				Next:  staticNext(model.StepCategory),
				Enter: promptEnter("prompt_name"),
			},

			model.StepCategory: {
				Validate: func(_ context.Context, _ *Engine, s *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventText {
						return "", Reject("err_category_not_found")
					}
					cat, ok := model.FindCategoryByName(model.RootCategories(s.Categories), ev.Text)
					if !ok {
						return "", Reject("err_category_not_found")
					}
					return strconv.FormatInt(cat.ID, 10), nil
				},
				Apply: storeField(model.FieldParentID),
				Next:  staticNext(model.StepSubcategory),
				Enter: enterCategory,
			},

			model.StepSubcategory: {
				Validate: func(_ context.Context, e *Engine, s *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventText {
						return "", Reject("err_subcategory_not_found")
					}
					if ev.Text == e.tr.T("button_back") {
						return "back", nil
					}
					parentID, _ := strconv.ParseInt(s.Fields[model.FieldParentID], 10, 64)
					sub, ok := model.FindCategoryByName(model.ChildCategories(s.Categories, parentID), ev.Text)
					if !ok {
						return "", Reject("err_subcategory_not_found")
					}
					return strconv.FormatInt(sub.ID, 10), nil
				},
				Apply: func(s *model.Session, ev adapter.Event, value string) {
					if value != "back" {
						s.SetField(model.FieldCategoryID, value)
					}
				},
				Next: func(_ *model.Session, _ adapter.Event, value string) model.Step {
					if value == "back" {
						return model.StepCategory
					}
					return model.StepMainPhoto
				},
				Enter: enterSubcategory,
			},

			model.StepMainPhoto: {
				Validate: func(_ context.Context, _ *Engine, _ *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventPhoto || ev.PhotoURI == "" {
						return "", Reject("err_need_photo")
					}
					return ev.PhotoURI, nil
				},
				Apply: func(s *model.Session, _ adapter.Event, value string) { s.AddPhoto(value) },
				Next:  staticNext(model.StepAdditionalPhoto),
				Enter: func(_ context.Context, e *Engine, _ *model.Session) ([]adapter.Effect, error) {
					return []adapter.Effect{adapter.ClosePrompt(e.tr.T("prompt_main_photo"))}, nil
				},
			},

			model.StepAdditionalPhoto: {
				Validate: func(_ context.Context, _ *Engine, s *model.Session, ev adapter.Event) (string, error) {
					switch {
					case ev.Type == adapter.EventCommand && ev.Command == "skip":
						// The skip affordance only exists once the main
						// photo is in place.
						if len(s.Photos) < 1 {
							return "", Reject("err_need_photo")
						}
						return "skip", nil
					case ev.Type == adapter.EventPhoto && ev.PhotoURI != "":
						if len(s.Photos) >= model.MaxPhotos {
							return "", Reject("err_photo_limit")
						}
						return ev.PhotoURI, nil
					default:
						return "", Reject("err_need_photo")
					}
				},
				Apply: func(s *model.Session, _ adapter.Event, value string) {
					if value != "skip" {
						s.AddPhoto(value)
					}
				},
				Next: func(s *model.Session, _ adapter.Event, value string) model.Step {
					// At capacity the flow moves on even without a skip.
					if value == "skip" || len(s.Photos) >= model.MaxPhotos {
						return model.StepDescription
					}
					return model.StepAdditionalPhoto
				},
				Enter: func(_ context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
					if len(s.Photos) <= 1 {
						return []adapter.Effect{adapter.Prompt(e.tr.T("prompt_additional_photo"))}, nil
					}
					return []adapter.Effect{adapter.Prompt(e.tr.T("prompt_more_photos", s.RemainingPhotos()))}, nil
				},
			},

			model.StepDescription: {
				Validate: func(_ context.Context, _ *Engine, _ *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventText {
						return "", Reject("err_description_length")
					}
					if err := ValidateDescription(ev.Text); err != nil {
						return "", err
					}
					return ev.Text, nil
				},
				Apply: storeField(model.FieldDescription),
				Next:  staticNext(model.StepPrice),
				Enter: promptEnter("prompt_description"),
			},

			model.StepPrice: {
				Validate: func(_ context.Context, _ *Engine, _ *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventText {
						return "", Reject("err_price_format")
					}
					if err := ValidatePrice(ev.Text); err != nil {
						return "", err
					}
					return ev.Text, nil
				},
				Apply: storeField(model.FieldPrice),
				Next:  staticNext(model.StepSubmitted),
				Enter: promptEnter("prompt_price"),
			},

			model.StepSubmitted: {
				Terminal: true,
				FailKey:  "lot_submit_failed",
				Enter:    submitLot,
			},
		},
	}
}

// lotEntry checks the flow preconditions: the marketplace must not report
// the user as blocked, and the user needs a reachable @username.
func lotEntry(ctx context.Context, e *Engine, ev adapter.Event) (*model.Session, []adapter.Effect, error) {
	info, err := e.market.LookupUser(ctx, ev.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, []adapter.Effect{adapter.Prompt(e.tr.T("err_api_entry"))}, nil
	}
	if info != nil && info.Blocked {
		// Blocked users get no prompt at all.
		return nil, nil, nil
	}
	if ev.Username == "" {
		return nil, []adapter.Effect{adapter.Prompt(e.tr.T("err_no_username"))}, nil
	}

	s := model.NewSession(ev.UserID, model.FlowLotCreation, model.StepName)
	s.SetField(model.FieldChatURL, "https://t.me/"+ev.Username)
	return s, []adapter.Effect{adapter.Prompt(e.tr.T("prompt_name"))}, nil
}

// enterCategory fetches the category tree on first entry and renders the
// top-level keyboard. Re-entry via "Назад" reuses the session cache, so no
// second fetch happens.
func enterCategory(ctx context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
	if len(s.Categories) == 0 {
		cats, err := e.market.Categories(ctx)
		if err != nil {
			return nil, gatewayErr("fetch categories", err)
		}
		s.Categories = cats
	}
	var names []string
	for _, c := range model.RootCategories(s.Categories) {
		names = append(names, c.Name)
	}
	return []adapter.Effect{adapter.PromptChoices(e.tr.T("prompt_category"), names)}, nil
}

// enterSubcategory renders the children of the chosen category plus the
// back button. A childless category still yields a keyboard: just the back
// button.
func enterSubcategory(_ context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
	parentID, _ := strconv.ParseInt(s.Fields[model.FieldParentID], 10, 64)
	var names []string
	for _, c := range model.ChildCategories(s.Categories, parentID) {
		names = append(names, c.Name)
	}
	names = append(names, e.tr.T("button_back"))
	return []adapter.Effect{adapter.PromptChoices(e.tr.T("prompt_subcategory"), names)}, nil
}

// submitLot is the terminal step: upload the collected photos (best-effort)
// and publish the listing. The engine discards the session afterwards no
// matter what this returns.
func submitLot(ctx context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
	urls := e.photos.Upload(ctx, s.UserID, s.Photos)

	categoryID, _ := strconv.ParseInt(s.Fields[model.FieldCategoryID], 10, 64)
	lot := &model.Lot{
		TelegramID:  s.UserID,
		Name:        s.Fields[model.FieldName],
		CategoryIDs: []int64{categoryID},
		PhotoURLs:   urls,
		ChatURL:     s.Fields[model.FieldChatURL],
		Description: s.Fields[model.FieldDescription],
		Price:       s.Fields[model.FieldPrice],
	}
	if err := e.market.SubmitLot(ctx, lot); err != nil {
		return nil, gatewayErr("submit lot", err)
	}
	return []adapter.Effect{
		adapter.Sticker(adapter.StickerTada),
		adapter.ClosePrompt(e.tr.T("lot_submitted")),
	}, nil
}
