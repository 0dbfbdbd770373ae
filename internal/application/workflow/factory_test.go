package workflow

import (
	"context"
	"errors"
	"testing"

	domainwf "github.com/priyamtech/expense-approval/internal/domain/workflow"
)

func guard(v bool) domainwf.GuardFunc {
	return func(ctx context.Context) bool { return v }
}

func TestBuildClaimStateMachine_FullChain(t *testing.T) {
	m := BuildClaimStateMachine(domainwf.StateSubmittedManager, guard(true))

	if err := m.Fire(context.Background(), domainwf.TriggerApprove); err != nil {
		t.Fatalf("manager approve: %v", err)
	}
	if m.State() != domainwf.StateSubmittedFinance {
		t.Fatalf("State() = %v, want SUBMITTED_FINANCE", m.State())
	}

	if err := m.Fire(context.Background(), domainwf.TriggerApprove); err != nil {
		t.Fatalf("finance approve: %v", err)
	}
	if m.State() != domainwf.StateApproved {
		t.Fatalf("State() = %v, want APPROVED", m.State())
	}
}

func TestBuildClaimStateMachine_NoFinanceDegeneracy(t *testing.T) {
	m := BuildClaimStateMachine(domainwf.StateSubmittedManager, guard(false))

	if err := m.Fire(context.Background(), domainwf.TriggerApprove); err != nil {
		t.Fatalf("manager approve: %v", err)
	}
	if m.State() != domainwf.StateApproved {
		t.Fatalf("State() = %v, want APPROVED when no finance reviewer exists", m.State())
	}
}

func TestBuildClaimStateMachine_RejectAtEitherLevel(t *testing.T) {
	for _, initial := range []domainwf.State{domainwf.StateSubmittedManager, domainwf.StateSubmittedFinance} {
		m := BuildClaimStateMachine(initial, guard(true))
		if err := m.Fire(context.Background(), domainwf.TriggerReject); err != nil {
			t.Fatalf("reject from %v: %v", initial, err)
		}
		if m.State() != domainwf.StateRejected {
			t.Fatalf("State() = %v, want REJECTED", m.State())
		}
	}
}

func TestBuildClaimStateMachine_TerminalStatesAreFinal(t *testing.T) {
	for _, initial := range []domainwf.State{domainwf.StateApproved, domainwf.StateRejected} {
		for _, trigger := range []domainwf.Trigger{domainwf.TriggerApprove, domainwf.TriggerReject} {
			m := BuildClaimStateMachine(initial, guard(true))
			err := m.Fire(context.Background(), trigger)
			if !errors.Is(err, domainwf.ErrInvalidTransition) {
				t.Errorf("Fire(%v) from %v error = %v, want ErrInvalidTransition", trigger, initial, err)
			}
		}
	}
}
