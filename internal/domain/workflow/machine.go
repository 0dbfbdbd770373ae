package workflow

import (
	"context"
	"fmt"
)

// Machine tracks the current state of one claim and validates decisions
// against the configured transition table.
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has at least one configured transition
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the new state if permitted
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers lists triggers with configured transitions from here
	PermittedTriggers() []Trigger
}

type machine struct {
	currentState   State
	configurations map[State]*stateConfig
}

func (m *machine) State() State {
	return m.currentState
}

func (m *machine) CanFire(trigger Trigger) bool {
	config, ok := m.configurations[m.currentState]
	if !ok {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	config, ok := m.configurations[m.currentState]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}

	// First transition whose guard passes wins; declaration order matters.
	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.currentState)
}

func (m *machine) PermittedTriggers() []Trigger {
	config, ok := m.configurations[m.currentState]
	if !ok {
		return []Trigger{}
	}
	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	return triggers
}
