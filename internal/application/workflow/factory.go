package workflow

import (
	"context"

	domainwf "github.com/priyamtech/expense-approval/internal/domain/workflow"
)

// BuildClaimStateMachine creates a state machine configured for the
// two-level claim approval chain. financeExists is evaluated at fire
// time: a manager approval advances to FINANCE when active finance
// reviewers exist, otherwise it finalizes the claim directly.
func BuildClaimStateMachine(initialState domainwf.State, financeExists domainwf.GuardFunc) domainwf.Machine {
	builder := domainwf.NewBuilder()

	// Guard order matters: the finance route is tried first.
	builder.Configure(domainwf.StateSubmittedManager).
		PermitIf(domainwf.TriggerApprove, domainwf.StateSubmittedFinance, financeExists).
		PermitIf(domainwf.TriggerApprove, domainwf.StateApproved, func(ctx context.Context) bool {
			return !financeExists(ctx)
		}).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSubmittedFinance).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// APPROVED and REJECTED are terminal - no outgoing transitions

	return builder.Build(initialState)
}
