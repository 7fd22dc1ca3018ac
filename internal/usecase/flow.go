package usecase

import (
	"context"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
)

// A FlowDefinition is the static, declarative description of one guided-form
// conversation: an entry rule plus a table of steps. Definitions are built
// once at engine construction and shared read-only by all sessions, so they
// must never be mutated afterwards.
type FlowDefinition struct {
	Kind model.FlowKind

	// Entry runs the flow's precondition checks against the triggering
	// command and, when the flow may start, returns a fresh session
	// positioned at the first interactive step together with its opening
	// effects. A nil session means the flow ended at the door (blocked
	// user, missing contact handle, short-circuit branch); the returned
	// effects, possibly none, are still rendered.
	Entry func(ctx context.Context, e *Engine, ev adapter.Event) (*model.Session, []adapter.Effect, error)

	Steps map[model.Step]StepSpec
}

// StepSpec describes one step of a flow: how to judge the inbound event,
// where to merge the accepted value, and where to go next. The generic
// engine interprets these specs; concrete flows only fill the tables.
type StepSpec struct {
	// Validate judges the inbound event against the step's rule. On
	// acceptance it returns the step value (a selection id, "skip", or
	// empty when Validate merged structured data itself). On failure it
	// returns a *Rejection; a gateway failure surfaces as an error wrapping
	// domain.ErrGateway and keeps the session on the current step.
	Validate func(ctx context.Context, e *Engine, s *model.Session, ev adapter.Event) (string, error)

	// Apply merges the accepted value into the session accumulator.
	// Optional: validators that resolve structured data (geocoding) write
	// the fields themselves.
	Apply func(s *model.Session, ev adapter.Event, value string)

	// Next computes the destination step. Optional; nil repeats the
	// current step (bounded loops such as additional photos).
	Next func(s *model.Session, ev adapter.Event, value string) model.Step

	// Enter produces the effects shown when the flow arrives at this step.
	// It may perform a gateway call (category fetch); an error keeps the
	// user on the previous step with a retry prompt.
	Enter func(ctx context.Context, e *Engine, s *model.Session) ([]adapter.Effect, error)

	// Terminal marks submission steps: Enter performs the one-shot
	// submission and the session is destroyed regardless of its outcome.
	Terminal bool

	// FailKey is the message key acknowledging a failed terminal
	// submission. Only meaningful on terminal steps.
	FailKey string
}

// staticNext returns a transition rule that always goes to the given step.
func staticNext(next model.Step) func(*model.Session, adapter.Event, string) model.Step {
	return func(*model.Session, adapter.Event, string) model.Step { return next }
}

// storeField returns an apply rule recording the value under a fixed field.
func storeField(name string) func(*model.Session, adapter.Event, string) {
	return func(s *model.Session, _ adapter.Event, value string) { s.SetField(name, value) }
}

// promptEnter returns an enter rule that emits a single translated prompt.
func promptEnter(msgKey string) func(context.Context, *Engine, *model.Session) ([]adapter.Effect, error) {
	return func(_ context.Context, e *Engine, _ *model.Session) ([]adapter.Effect, error) {
		return []adapter.Effect{adapter.Prompt(e.tr.T(msgKey))}, nil
	}
}
