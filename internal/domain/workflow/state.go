package workflow

// State is a position in the claim approval lifecycle.
type State string

const (
	StateSubmittedManager State = "SUBMITTED_MANAGER"
	StateSubmittedFinance State = "SUBMITTED_FINANCE"
	StateApproved         State = "APPROVED"
	StateRejected         State = "REJECTED"
)

var validStates = map[State]bool{
	StateSubmittedManager: true,
	StateSubmittedFinance: true,
	StateApproved:         true,
	StateRejected:         true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true when no further transitions are allowed.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known workflow state.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
