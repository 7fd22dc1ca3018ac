package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/i18n"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Engine drives flow definitions against per-user sessions. It owns no
// transport: inbound events arrive already normalized and outbound actions
// leave as effects for the transport to render.
//
// The engine processes one event per user at a time; the caller serializes
// per-user access (see application.FlowService). Sessions of different users
// never share state beyond the session repository.
type Engine struct {
	sessions repository.SessionRepository
	market   adapter.Marketplace
	geo      adapter.Geocoder
	photos   adapter.PhotoStore
	tr       *i18n.Translator
	log      *zerolog.Logger

	targetCountry string
	flows         map[model.FlowKind]*FlowDefinition
}

// NewEngine wires the engine with its gateways and registers both flows.
func NewEngine(
	sessions repository.SessionRepository,
	market adapter.Marketplace,
	geo adapter.Geocoder,
	photos adapter.PhotoStore,
	tr *i18n.Translator,
	targetCountry string,
	logger *zerolog.Logger,
) *Engine {
	e := &Engine{
		sessions:      sessions,
		market:        market,
		geo:           geo,
		photos:        photos,
		tr:            tr,
		log:           logger,
		targetCountry: targetCountry,
	}
	e.flows = map[model.FlowKind]*FlowDefinition{
		model.FlowRegistration: registrationFlow(),
		model.FlowLotCreation:  lotCreationFlow(),
	}
	return e
}

// Start enters a flow for the user. Any leftover session from an earlier
// attempt is discarded first: a restarted flow carries no memory.
func (e *Engine) Start(ctx context.Context, kind model.FlowKind, ev adapter.Event) ([]adapter.Effect, error) {
	defer logging.TraceDuration(e.log, "Engine.Start")()

	def, ok := e.flows[kind]
	if !ok {
		return nil, fmt.Errorf("unknown flow kind %q", kind)
	}
	if err := e.sessions.Delete(ctx, ev.UserID); err != nil {
		return nil, fmt.Errorf("discard previous session: %w", err)
	}

	s, effects, err := def.Entry(ctx, e, ev)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return effects, nil
	}

	if err := e.sessions.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.IncFlowStarted(string(kind))
	e.log.Info().
		Int64("tg_id", ev.UserID).
		Str("flow", string(kind)).
		Str("step", string(s.Step)).
		Str("session_id", s.ID).
		Msg("flow started")
	return effects, nil
}

// Handle routes an inbound event into the user's in-progress flow. Events
// from users without a session produce no effects.
func (e *Engine) Handle(ctx context.Context, ev adapter.Event) ([]adapter.Effect, error) {
	s, err := e.sessions.Get(ctx, ev.UserID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	ctx = logging.WithSessID(ctx, s.ID)

	if ev.Type == adapter.EventCommand && ev.Command == "cancel" {
		return e.cancel(ctx, s)
	}

	def, ok := e.flows[s.Flow]
	if !ok {
		// A stale session from an older build; drop it.
		_ = e.sessions.Delete(ctx, s.UserID)
		return nil, fmt.Errorf("session %s references unknown flow %q", s.ID, s.Flow)
	}
	return e.advance(ctx, def, s, ev)
}

func (e *Engine) cancel(ctx context.Context, s *model.Session) ([]adapter.Effect, error) {
	if err := e.sessions.Delete(ctx, s.UserID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	metrics.IncFlowFinished(string(s.Flow), metrics.OutcomeCancelled)
	logging.With(ctx, e.log).Info().Str("flow", string(s.Flow)).Msg("flow cancelled")
	return []adapter.Effect{adapter.ClosePrompt(e.tr.T("form_closed"))}, nil
}

// advance is the generic interpreter loop from the flow table: validate the
// event, merge the value, compute the next step and enter it.
func (e *Engine) advance(ctx context.Context, def *FlowDefinition, s *model.Session, ev adapter.Event) ([]adapter.Effect, error) {
	defer logging.TraceDuration(e.log, "Engine.advance")()

	spec, ok := def.Steps[s.Step]
	if !ok {
		_ = e.sessions.Delete(ctx, s.UserID)
		return nil, fmt.Errorf("session %s stuck on unknown step %q", s.ID, s.Step)
	}

	value, err := spec.Validate(ctx, e, s, ev)
	if err != nil {
		var rej *Rejection
		switch {
		case errors.As(err, &rej):
			metrics.IncValidationRejected(string(s.Step))
			s.LastError = rej.MsgKey
			s.Touch()
			if err := e.sessions.Save(ctx, s); err != nil {
				return nil, fmt.Errorf("save session: %w", err)
			}
			return []adapter.Effect{adapter.Prompt(e.tr.T(rej.MsgKey, rej.Args...))}, nil
		case errors.Is(err, domain.ErrGateway):
			// Auxiliary call failed mid-flow: the session survives and the
			// step repeats with a retry affordance.
			logging.With(ctx, e.log).Warn().Err(err).Str("step", string(s.Step)).Msg("gateway error, step repeated")
			return []adapter.Effect{adapter.Prompt(e.tr.T("err_api_retry"))}, nil
		default:
			return nil, err
		}
	}

	if spec.Apply != nil {
		spec.Apply(s, ev, value)
	}

	next := s.Step
	if spec.Next != nil {
		next = spec.Next(s, ev, value)
	}
	nextSpec, ok := def.Steps[next]
	if !ok {
		return nil, fmt.Errorf("flow %q has no step %q", def.Kind, next)
	}

	if nextSpec.Terminal {
		return e.finish(ctx, def, s, nextSpec)
	}

	effects, err := nextSpec.Enter(ctx, e, s)
	if err != nil {
		// Entering failed on a gateway call; stay on the current step with
		// the collected data intact.
		logging.With(ctx, e.log).Warn().Err(err).Str("step", string(next)).Msg("gateway error entering step")
		return []adapter.Effect{adapter.Prompt(e.tr.T("err_api_retry"))}, nil
	}

	s.Step = next
	s.LastError = ""
	s.Touch()
	if err := e.sessions.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.IncStepTransition(string(def.Kind))
	return effects, nil
}

// finish runs a terminal step. The session is destroyed no matter how the
// submission goes: a failed submission discards the collected data and the
// user restarts the flow from scratch.
func (e *Engine) finish(ctx context.Context, def *FlowDefinition, s *model.Session, spec StepSpec) ([]adapter.Effect, error) {
	effects, err := spec.Enter(ctx, e, s)
	if delErr := e.sessions.Delete(ctx, s.UserID); delErr != nil {
		logging.With(ctx, e.log).Error().Err(delErr).Msg("failed to delete finished session")
	}
	if err != nil {
		metrics.IncFlowFinished(string(def.Kind), metrics.OutcomeFailed)
		logging.With(ctx, e.log).Warn().Err(err).Str("flow", string(def.Kind)).Msg("terminal submission failed")
		return []adapter.Effect{adapter.ClosePrompt(e.tr.T(spec.FailKey))}, nil
	}
	metrics.IncFlowFinished(string(def.Kind), metrics.OutcomeCompleted)
	logging.With(ctx, e.log).Info().Str("flow", string(def.Kind)).Msg("flow completed")
	return effects, nil
}

// gatewayErr tags an adapter failure so advance can tell it apart from
// programming errors.
func gatewayErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrGateway, err)
}
