package autofill

import (
	"fmt"
	"sync"

	"merchant-onboarding/internal/onboarding"
)

// Event names a step transition hook.
type Event string

const (
	EventLeave Event = "leave"
	EventEnter Event = "enter"
)

// Transition describes one navigation between steps.
type Transition struct {
	From      onboarding.OnboardingStep
	To        onboarding.OnboardingStep
	FromIndex int
	ToIndex   int
	Data      *onboarding.Data
}

// Forward reports whether the transition moves to a later step.
func (t Transition) Forward() bool {
	return t.ToIndex > t.FromIndex
}

// Handler reacts to a transition and returns notices for the user.
type Handler func(t Transition) []onboarding.Notice

// Emitter dispatches transition events to handlers in registration order.
// Each wizard session owns its own emitter.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

// NewEmitter returns an emitter without handlers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[Event][]Handler)}
}

// On adds a handler for event.
func (e *Emitter) On(event Event, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], h)
}

// Emit runs every handler of event and collects their notices.
func (e *Emitter) Emit(event Event, t Transition) []onboarding.Notice {
	e.mu.RLock()
	handlers := append([]Handler(nil), e.handlers[event]...)
	e.mu.RUnlock()

	var notices []onboarding.Notice
	for _, h := range handlers {
		notices = append(notices, h(t)...)
	}
	return notices
}

// Navigator moves between steps and fires the auto-fill triggers.
type Navigator struct {
	emitter *Emitter
}

// NewNavigator returns a navigator with the default auto-fill rules.
func NewNavigator() *Navigator {
	e := NewEmitter()
	RegisterDefaultRules(e)
	return &Navigator{emitter: e}
}

// NewNavigatorWithEmitter returns a navigator dispatching through e as is.
func NewNavigatorWithEmitter(e *Emitter) *Navigator {
	return &Navigator{emitter: e}
}

// Emitter exposes the navigator's emitter for extra handlers.
func (n *Navigator) Emitter() *Emitter {
	return n.emitter
}

// Navigate fires leave handlers for steps[from] and enter handlers for
// steps[to], in that order.
func (n *Navigator) Navigate(data *onboarding.Data, steps []onboarding.OnboardingStep, from, to int) ([]onboarding.Notice, error) {
	if from < 0 || from >= len(steps) {
		return nil, fmt.Errorf("navigate: source step %d out of range [0,%d)", from, len(steps))
	}
	if to < 0 || to >= len(steps) {
		return nil, fmt.Errorf("navigate: target step %d out of range [0,%d)", to, len(steps))
	}
	if from == to {
		return nil, nil
	}

	t := Transition{From: steps[from], To: steps[to], FromIndex: from, ToIndex: to, Data: data}
	notices := n.emitter.Emit(EventLeave, t)
	notices = append(notices, n.emitter.Emit(EventEnter, t)...)
	return notices, nil
}

// RegisterDefaultRules wires the stock auto-fill triggers:
// leaving the contact step forward with a complete contact, and entering a
// step that shows derived entities.
func RegisterDefaultRules(e *Emitter) {
	e.On(EventLeave, func(t Transition) []onboarding.Notice {
		if t.From.StepKey != onboarding.StepContactInfo || !t.Forward() {
			return nil
		}
		if !onboarding.ContactComplete(t.Data.ContactInfo) {
			return nil
		}
		return ApplyAuthorizedPersonFromContact(t.Data)
	})

	e.On(EventEnter, func(t Transition) []onboarding.Notice {
		switch t.To.StepKey {
		case onboarding.StepBusinessLocations:
			return ApplyLocationContacts(t.Data)
		case onboarding.StepPersons:
			notices := ApplyAuthorizedPersonFromContact(t.Data)
			return append(notices, ApplyAuthorizedPersonFromCompanyContact(t.Data)...)
		case onboarding.StepActualOwners:
			return ApplyActualOwnerFromContact(t.Data)
		case onboarding.StepConsents:
			notices := ApplyAuthorizedPersonFromContact(t.Data)
			return append(notices, ApplyDefaultSigningPerson(t.Data)...)
		}
		return nil
	})
}
