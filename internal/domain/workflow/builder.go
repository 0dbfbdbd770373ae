package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides at fire time whether a configured transition applies.
type GuardFunc func(ctx context.Context) bool

// Builder assembles the transition table once; Build stamps out independent
// machine instances from it.
type Builder interface {
	// Configure returns the transition configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a machine instance positioned at the given state
	Build(initialState State) Machine
}

// StateConfiguration declares which triggers leave a state and where they go.
type StateConfiguration interface {
	// Permit allows a trigger to move unconditionally to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows the move only when the guard passes at fire time
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

type builder struct {
	configurations map[State]*stateConfig
}

// NewBuilder creates an empty state machine builder.
func NewBuilder() Builder {
	return &builder{configurations: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	config, ok := b.configurations[state]
	if !ok {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}
	return config
}

func (b *builder) Build(initialState State) Machine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Copy the table so later Configure calls cannot mutate live machines.
	configs := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition{}, ts...)
		}
		configs[state] = &stateConfig{fromState: state, transitions: transitions}
	}

	return &machine{currentState: initialState, configurations: configs}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{toState: toState, guard: guard})
	return c
}
