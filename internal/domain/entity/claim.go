package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Claim is the central entity: a submitted expense reimbursement request
// backed by a single bill, a set of bills, or a self-declaration.
type Claim struct {
	ID          int64  `json:"id"`
	ClaimNumber string `json:"claim_number"`
	ClaimantID  int64  `json:"claimant_id"`

	Category    string `json:"category"`
	AmountPaise int64  `json:"amount_paise"`
	Description string `json:"description"`

	EvidenceKind string       `json:"evidence_kind"`
	Bills        []Bill       `json:"bills,omitempty"`
	Declaration  *Declaration `json:"declaration,omitempty"`
	Trip         *Trip        `json:"trip,omitempty"`

	// Travel details, optional; the classifier may backfill mode/route.
	TravelMode string `json:"travel_mode,omitempty"`
	TravelFrom string `json:"travel_from,omitempty"`
	TravelTo   string `json:"travel_to,omitempty"`

	// Automated findings computed at admission.
	Admissibility         string   `json:"admissibility"`
	DuplicateStatus       string   `json:"duplicate_status"`
	DuplicateOfClaimID    *int64   `json:"duplicate_of_claim_id,omitempty"`
	WithinLimit           bool     `json:"within_limit"`
	LimitReason           string   `json:"limit_reason,omitempty"`
	Recommendation        string   `json:"recommendation"`
	ConfidenceScore       int      `json:"confidence_score"`
	RedFlags              []string `json:"red_flags,omitempty"`
	FingerprintUnverified bool     `json:"fingerprint_unverified,omitempty"`

	Status       string `json:"status"`
	CurrentLevel string `json:"current_level,omitempty"`

	RejectionReason string     `json:"rejection_reason,omitempty"`
	RejectedBy      *int64     `json:"rejected_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`

	ExpenseDate time.Time `json:"expense_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Bill is one piece of physical evidence attached to a claim.
type Bill struct {
	ID          int64     `json:"id"`
	ClaimID     int64     `json:"claim_id"`
	Category    string    `json:"category"`
	AmountPaise int64     `json:"amount_paise"`
	Description string    `json:"description"`
	BillDate    time.Time `json:"bill_date"`

	Fingerprint string `json:"fingerprint"`
	FileName    string `json:"file_name,omitempty"`

	// Metadata extracted by the classifier.
	BillNumber string `json:"bill_number,omitempty"`
	Vendor     string `json:"vendor,omitempty"`

	Recommendation  string   `json:"recommendation"`
	ConfidenceScore int      `json:"confidence_score"`
	RedFlags        []string `json:"red_flags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Declaration holds the self-declaration evidence for claims without a bill.
type Declaration struct {
	ReasonCode    string `json:"reason_code"`
	Justification string `json:"justification"`
	// Synthetic marker; never collides with a real file fingerprint.
	SyntheticMark string `json:"synthetic_mark"`
}

// Trip groups multi-bill claims spanning a date range.
type Trip struct {
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	Purpose         string         `json:"purpose,omitempty"`
	PerDay          []DayBreakdown `json:"per_day,omitempty"`
	AvgPerDayPaise  int64          `json:"avg_per_day_paise,omitempty"`
	DurationDays    int            `json:"duration_days,omitempty"`
}

// DayBreakdown is the per-day sub-total of a trip, split by category.
type DayBreakdown struct {
	Date       string           `json:"date"`
	TotalPaise int64            `json:"total_paise"`
	ByCategory map[string]int64 `json:"by_category,omitempty"`
}

// IsTerminal reports whether the claim has reached a final outcome.
func (c *Claim) IsTerminal() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusRejected
}

// IsEditable reports whether the submitter may still modify the claim.
// Decisions already recorded at any level are checked by the caller.
func (c *Claim) IsEditable() bool {
	return c.Status == ClaimStatusSubmitted && c.CurrentLevel == LevelManager
}

// IsSelfDeclared reports whether the claim carries no physical bill.
func (c *Claim) IsSelfDeclared() bool {
	return c.EvidenceKind == EvidenceSelfDeclaration
}

// GenerateClaimNumber returns a human-readable claim number of the form
// EXP-YYYYMMDD-XXXXXX. The suffix is random; uniqueness is enforced by the
// database constraint, not here.
func GenerateClaimNumber(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to time
		return fmt.Sprintf("EXP-%s-%06d", now.Format("20060102"), now.UnixNano()%1000000)
	}
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("EXP-%s-%s", now.Format("20060102"), suffix)
}

// SyntheticFingerprint returns the marker stored for self-declared claims.
// It is timestamp-based so it can never collide with a content digest.
func SyntheticFingerprint(now time.Time) string {
	return "SELF-" + now.Format("20060102150405.000000000")
}
