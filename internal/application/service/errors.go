package service

import (
	"errors"
	"fmt"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

var (
	// ErrClaimantNotFound is returned when the claimant does not exist
	ErrClaimantNotFound = errors.New("claimant not found")

	// ErrClaimNotFound is returned when the claim does not exist
	ErrClaimNotFound = errors.New("claim not found")

	// ErrNotPermitted is returned when the actor may not perform the action
	ErrNotPermitted = errors.New("not permitted")

	// ErrNoPendingApproval is returned to the loser of a decision race:
	// no pending approval record exists at the claim's current level
	ErrNoPendingApproval = errors.New("no pending approval at this level")

	// ErrClaimFinalized is returned for any action against a terminal claim
	ErrClaimFinalized = errors.New("claim already finalized")

	// ErrClaimLocked is returned when the submitter tries to modify a
	// claim that has advanced past the editable stage
	ErrClaimLocked = errors.New("claim can no longer be modified")
)

// InputError is a synchronous field-level validation failure; no state
// was created.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DuplicateBlockedError is a hard admission refusal caused by an exact
// duplicate bill. It carries the matched prior claim for the user-facing
// explanation.
type DuplicateBlockedError struct {
	Matched *entity.Claim
	Message string
}

func (e *DuplicateBlockedError) Error() string {
	return e.Message
}
