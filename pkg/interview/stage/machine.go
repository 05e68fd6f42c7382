package stage

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"ai-review-be/pkg/store"
)

// State names. Untyped so they convert to statekit.StateID. Their values are
// the store.Stage strings.
const (
	StateStart   = "START"
	StateQnA     = "QNA"
	StateCompose = "COMPOSE"
	StateConfirm = "CONFIRM"
	StateDone    = "DONE"
)

// Events. Staying in QNA or CONFIRM is not a transition and has no event.
const (
	EventBegin         = "begin"
	EventSufficient    = "sufficient"
	EventComposed      = "composed"
	EventComposeFailed = "compose_failed"
	EventSubmitted     = "submitted"
	EventExit          = "exit"
	EventReset         = "reset"
)

// Facts are what guards may look at.
type Facts struct {
	DraftReady bool
}

type Machine struct {
	interpreter *statekit.Interpreter[Facts]
}

// New builds the interview machine positioned at current.
func New(current store.Stage, facts Facts) (*Machine, error) {
	builder := statekit.NewMachine[Facts]("interview").
		WithInitial(statekit.StateID(current)).
		WithContext(facts).
		WithGuard("draftReady", func(f Facts, _ statekit.Event) bool {
			return f.DraftReady
		})

	builder.State(StateStart).
		On(EventBegin).Target(StateQnA).
		On(EventExit).Target(StateDone).
		On(EventReset).Target(StateStart).
		Done()

	builder.State(StateQnA).
		On(EventSufficient).Target(StateCompose).
		On(EventExit).Target(StateDone).
		On(EventReset).Target(StateStart).
		Done()

	builder.State(StateCompose).
		On(EventComposed).Target(StateConfirm).Guard("draftReady").
		On(EventComposeFailed).Target(StateQnA).
		On(EventExit).Target(StateDone).
		On(EventReset).Target(StateStart).
		Done()

	builder.State(StateConfirm).
		On(EventSubmitted).Target(StateDone).Guard("draftReady").
		On(EventExit).Target(StateDone).
		On(EventReset).Target(StateStart).
		Done()

	builder.State(StateDone).
		On(EventReset).Target(StateStart).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build interview machine: %w", err)
	}
	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Machine{interpreter: interpreter}, nil
}

// Fire sends event and reports an error when it does not move the machine.
// Reset from START is the one accepted transition onto the same state.
func (m *Machine) Fire(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()
	if before != after || (event == EventReset && before == store.StageStart) {
		return nil
	}
	return fmt.Errorf("event %q is not allowed in stage %s", event, before)
}

func (m *Machine) Current() store.Stage {
	return store.Stage(m.interpreter.State().Value)
}

// Next computes the stage reached from current by event.
func Next(current store.Stage, event string, facts Facts) (store.Stage, error) {
	m, err := New(current, facts)
	if err != nil {
		return current, err
	}
	if err := m.Fire(event); err != nil {
		return current, err
	}
	return m.Current(), nil
}
