package entity

import "time"

// ApprovalRecord is one (claim, level) review slot. Exactly one record per
// level may be PENDING at a time; any eligible reviewer at that level may
// consume it.
type ApprovalRecord struct {
	ID        int64      `json:"id"`
	ClaimID   int64      `json:"claim_id"`
	Level     string     `json:"level"`
	Status    string     `json:"status"`
	DeciderID *int64     `json:"decider_id,omitempty"`
	Comments  string     `json:"comments,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsDecided reports whether the record carries a final decision.
func (r *ApprovalRecord) IsDecided() bool {
	return r.Status == DecisionApproved || r.Status == DecisionRejected
}
