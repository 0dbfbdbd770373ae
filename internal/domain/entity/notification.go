package entity

import "time"

// Notification event kinds
const (
	EventClaimSubmitted   = "CLAIM_SUBMITTED"
	EventClaimAdvanced    = "CLAIM_ADVANCED"
	EventClaimApproved    = "CLAIM_APPROVED"
	EventClaimRejected    = "CLAIM_REJECTED"
	EventIllegalEditAlert = "ILLEGAL_EDIT_ALERT"
)

// Notification is one message queued for a recipient about a claim event.
type Notification struct {
	ID          int64      `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	ClaimID     int64      `json:"claim_id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AuditLog records who did what to which claim.
type AuditLog struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	ClaimID   int64     `json:"claim_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
