package usecase

import (
	"context"
	"errors"
	"strconv"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

// Callback payloads of the registration keyboards.
const (
	cbEditProfile = "edit_reg"
	cbExitProfile = "exit_reg"
	cbTimeLong    = "time_one"
	cbTimeShort   = "time_two"
)

// Transient fields used by the review branch.
const (
	fieldReviewChoice = "review_choice"
	fieldReviewMsg    = "review_msg"
)

// registrationFlow builds the seller registration table:
//
//	Location → WorkingTime → Completed
//
// with an entry short-circuit: an already registered user lands on a review
// branch instead, and a blocked user gets silence.
func registrationFlow() *FlowDefinition {
	return &FlowDefinition{
		Kind:  model.FlowRegistration,
		Entry: registrationEntry,
		Steps: map[model.Step]StepSpec{
			model.StepReview: {
				Validate: func(_ context.Context, _ *Engine, _ *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventCallback {
						return "", Reject("err_review_choice")
					}
					switch ev.Text {
					case cbEditProfile, cbExitProfile:
						return ev.Text, nil
					}
					return "", Reject("err_review_choice")
				},
				Apply: func(s *model.Session, ev adapter.Event, value string) {
					s.SetField(fieldReviewChoice, value)
					s.SetField(fieldReviewMsg, strconv.Itoa(ev.MessageID))
				},
				Next:  staticNext(model.StepClosed),
				Enter: enterReview,
			},

			model.StepClosed: {
				Terminal: true,
				FailKey:  "profile_submit_failed",
				Enter:    closeReview,
			},

			model.StepLocation: {
				Validate: validateLocation,
				Next:     staticNext(model.StepWorkingTime),
				Enter:    promptEnter("prompt_location"),
			},

			model.StepWorkingTime: {
				Validate: func(_ context.Context, _ *Engine, _ *model.Session, ev adapter.Event) (string, error) {
					if ev.Type != adapter.EventCallback {
						return "", Reject("err_choose_time")
					}
					switch ev.Text {
					case cbTimeLong, cbTimeShort:
						return ev.Text, nil
					}
					return "", Reject("err_choose_time")
				},
				Apply: func(s *model.Session, _ adapter.Event, value string) {
					hours := model.WorkingHoursLong
					if value == cbTimeShort {
						hours = model.WorkingHoursShort
					}
					s.SetField(model.FieldWorkStart, hours.Start)
					s.SetField(model.FieldWorkEnd, hours.End)
				},
				Next: staticNext(model.StepCompleted),
				Enter: func(_ context.Context, e *Engine, _ *model.Session) ([]adapter.Effect, error) {
					rows := [][]adapter.Button{
						{{Text: e.tr.T("button_time_long"), Data: cbTimeLong}},
						{{Text: e.tr.T("button_time_short"), Data: cbTimeShort}},
					}
					return []adapter.Effect{adapter.PromptButtons(e.tr.T("prompt_working_time"), rows)}, nil
				},
			},

			model.StepCompleted: {
				Terminal: true,
				FailKey:  "profile_submit_failed",
				Enter:    submitSellerProfile,
			},
		},
	}
}

// registrationEntry looks the user up: blocked means silence, an existing
// profile opens the review branch, not-found starts the real registration.
func registrationEntry(ctx context.Context, e *Engine, ev adapter.Event) (*model.Session, []adapter.Effect, error) {
	info, err := e.market.LookupUser(ctx, ev.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s := model.NewSession(ev.UserID, model.FlowRegistration, model.StepLocation)
		return s, []adapter.Effect{adapter.Prompt(e.tr.T("prompt_location"))}, nil
	case err != nil:
		return nil, []adapter.Effect{adapter.Prompt(e.tr.T("err_api_entry"))}, nil
	case info.Blocked:
		return nil, nil, nil
	default:
		s := model.NewSession(ev.UserID, model.FlowRegistration, model.StepReview)
		s.SetField(model.FieldRegion, info.Region)
		s.SetField(model.FieldAddress, info.Address)
		s.SetField(model.FieldWorkStart, info.WorkStart)
		s.SetField(model.FieldWorkEnd, info.WorkEnd)
		effects, _ := enterReview(ctx, e, s)
		return s, effects, nil
	}
}

// enterReview shows the stored profile with edit/exit buttons. Working hours
// render trimmed to HH:MM.
func enterReview(_ context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
	text := e.tr.T("profile_review",
		s.Fields[model.FieldRegion],
		s.Fields[model.FieldAddress],
		trimClock(s.Fields[model.FieldWorkStart]),
		trimClock(s.Fields[model.FieldWorkEnd]),
	)
	rows := [][]adapter.Button{
		{{Text: e.tr.T("button_edit_profile"), Data: cbEditProfile}},
		{{Text: e.tr.T("button_exit_profile"), Data: cbExitProfile}},
	}
	return []adapter.Effect{adapter.PromptButtons(text, rows)}, nil
}

// closeReview ends the review branch. Exit removes the review message;
// edit answers with the not-yet-available stub. Either way the flow is over.
func closeReview(_ context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
	if s.Fields[fieldReviewChoice] == cbExitProfile {
		msgID, _ := strconv.Atoi(s.Fields[fieldReviewMsg])
		return []adapter.Effect{adapter.DeleteMessage(msgID)}, nil
	}
	return []adapter.Effect{adapter.Prompt(e.tr.T("edit_not_available"))}, nil
}

// validateLocation resolves the sent coordinates and accepts them only when
// the resolved country matches the configured target. The resolved address
// is merged right here: the accepted value of this step is structured, not a
// plain string.
func validateLocation(ctx context.Context, e *Engine, s *model.Session, ev adapter.Event) (string, error) {
	if ev.Type != adapter.EventLocation {
		return "", Reject("err_need_location")
	}
	place, err := e.geo.Reverse(ctx, ev.Lat, ev.Lon)
	if errors.Is(err, domain.ErrUnresolved) {
		return "", Reject("err_geo_rejected")
	}
	if err != nil {
		return "", gatewayErr("reverse geocode", err)
	}
	if place.CountryCode != e.targetCountry || place.Address == "" || place.Region == "" {
		return "", Reject("err_geo_rejected")
	}

	s.SetField(model.FieldLat, strconv.FormatFloat(ev.Lat, 'f', -1, 64))
	s.SetField(model.FieldLon, strconv.FormatFloat(ev.Lon, 'f', -1, 64))
	s.SetField(model.FieldRegion, place.Region)
	s.SetField(model.FieldAddress, place.Address)
	return "", nil
}

// submitSellerProfile is the registration terminal: assemble the profile
// from the accumulator and push it to the marketplace.
func submitSellerProfile(ctx context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error) {
	profile := &model.SellerProfile{
		TelegramID: s.UserID,
		Coordinates: model.Coordinates{
			Lat: s.Fields[model.FieldLat],
			Lon: s.Fields[model.FieldLon],
		},
		Region:    s.Fields[model.FieldRegion],
		Address:   s.Fields[model.FieldAddress],
		WorkStart: s.Fields[model.FieldWorkStart],
		WorkEnd:   s.Fields[model.FieldWorkEnd],
		Blocked:   false,
	}
	if err := e.market.SubmitSellerProfile(ctx, profile); err != nil {
		return nil, gatewayErr("submit seller profile", err)
	}
	return []adapter.Effect{
		adapter.Sticker(adapter.StickerTada),
		adapter.ClosePrompt(e.tr.T("profile_submitted")),
	}, nil
}

// trimClock shortens "08:00:00" to "08:00" for display.
func trimClock(v string) string {
	if len(v) >= 5 {
		return v[:5]
	}
	return v
}
