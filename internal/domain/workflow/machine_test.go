package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateSubmittedManager, false},
		{StateSubmittedFinance, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"manager stage", StateSubmittedManager, true},
		{"terminal stage", StateApproved, true},
		{"unknown state", State("WITHDRAWN"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMachine_Fire(t *testing.T) {
	newMachine := func(initial State) Machine {
		b := NewBuilder()
		b.Configure(StateSubmittedManager).
			Permit(TriggerApprove, StateSubmittedFinance).
			Permit(TriggerReject, StateRejected)
		b.Configure(StateSubmittedFinance).
			Permit(TriggerApprove, StateApproved).
			Permit(TriggerReject, StateRejected)
		return b.Build(initial)
	}

	t.Run("manager approve advances to finance", func(t *testing.T) {
		m := newMachine(StateSubmittedManager)
		if err := m.Fire(context.Background(), TriggerApprove); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		if m.State() != StateSubmittedFinance {
			t.Errorf("State() = %v, want %v", m.State(), StateSubmittedFinance)
		}
	})

	t.Run("finance approve reaches terminal", func(t *testing.T) {
		m := newMachine(StateSubmittedFinance)
		if err := m.Fire(context.Background(), TriggerApprove); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		if m.State() != StateApproved {
			t.Errorf("State() = %v, want %v", m.State(), StateApproved)
		}
	})

	t.Run("reject is allowed at either level", func(t *testing.T) {
		for _, initial := range []State{StateSubmittedManager, StateSubmittedFinance} {
			m := newMachine(initial)
			if err := m.Fire(context.Background(), TriggerReject); err != nil {
				t.Fatalf("Fire() from %v error = %v", initial, err)
			}
			if m.State() != StateRejected {
				t.Errorf("State() = %v, want %v", m.State(), StateRejected)
			}
		}
	})

	t.Run("terminal states refuse every trigger", func(t *testing.T) {
		for _, initial := range []State{StateApproved, StateRejected} {
			for _, trigger := range []Trigger{TriggerApprove, TriggerReject} {
				m := newMachine(initial)
				err := m.Fire(context.Background(), trigger)
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire(%v) from %v error = %v, want ErrInvalidTransition", trigger, initial, err)
				}
				if m.State() != initial {
					t.Errorf("State() = %v, want unchanged %v", m.State(), initial)
				}
			}
		}
	})
}

func TestMachine_PermitIf(t *testing.T) {
	build := func(financeExists bool) Machine {
		b := NewBuilder()
		b.Configure(StateSubmittedManager).
			PermitIf(TriggerApprove, StateSubmittedFinance, func(ctx context.Context) bool {
				return financeExists
			}).
			PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool {
				return !financeExists
			})
		return b.Build(StateSubmittedManager)
	}

	t.Run("guard routes to finance when reviewers exist", func(t *testing.T) {
		m := build(true)
		if err := m.Fire(context.Background(), TriggerApprove); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		if m.State() != StateSubmittedFinance {
			t.Errorf("State() = %v, want %v", m.State(), StateSubmittedFinance)
		}
	})

	t.Run("guard short-circuits to approved when none exist", func(t *testing.T) {
		m := build(false)
		if err := m.Fire(context.Background(), TriggerApprove); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		if m.State() != StateApproved {
			t.Errorf("State() = %v, want %v", m.State(), StateApproved)
		}
	})

	t.Run("all guards failing returns ErrGuardFailed", func(t *testing.T) {
		b := NewBuilder()
		b.Configure(StateSubmittedManager).
			PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool { return false })
		m := b.Build(StateSubmittedManager)
		err := m.Fire(context.Background(), TriggerApprove)
		if !errors.Is(err, ErrGuardFailed) {
			t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
		}
	})
}

func TestMachine_CanFire(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateSubmittedManager).Permit(TriggerApprove, StateSubmittedFinance)
	m := b.Build(StateSubmittedManager)

	if !m.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) = false, want true")
	}
	if m.CanFire(TriggerReject) {
		t.Error("CanFire(REJECT) = true, want false")
	}
}

func TestBuilder_BuildIsolation(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateSubmittedManager).Permit(TriggerReject, StateRejected)
	m := b.Build(StateSubmittedManager)

	// Configuring after Build must not leak into the built machine.
	b.Configure(StateSubmittedManager).Permit(TriggerApprove, StateApproved)
	if m.CanFire(TriggerApprove) {
		t.Error("machine observed configuration added after Build")
	}
}
