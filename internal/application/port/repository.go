package port

import (
	"context"
	"time"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// ClaimRepository defines persistence operations for Claim and its bills
type ClaimRepository interface {
	// Create persists the claim together with its bill rows
	Create(ctx context.Context, claim *entity.Claim) error

	// GetByID retrieves a claim with its bills
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)

	// GetByClaimNumber retrieves a claim by its human-readable number
	GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error)

	// Update rewrites the claim's mutable columns and replaces its bills
	Update(ctx context.Context, claim *entity.Claim) error

	// Delete removes the claim and its bills
	Delete(ctx context.Context, id int64) error

	// ListByClaimant returns the claimant's claims, newest first
	ListByClaimant(ctx context.Context, claimantID int64, limit, offset int) ([]*entity.Claim, error)

	// ListPendingAtLevel returns claims awaiting a decision at the level
	ListPendingAtLevel(ctx context.Context, level string, limit, offset int) ([]*entity.Claim, error)

	// FindByFingerprint finds a submitted/approved claim of the claimant
	// carrying a bill with the given content fingerprint
	FindByFingerprint(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error)

	// FindByBillDetails finds a submitted/approved claim of the claimant
	// carrying a bill with the same number and vendor; billDate, when
	// non-nil, must also match on the calendar date
	FindByBillDetails(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error)

	// SelfDeclarationUsage aggregates the claimant's non-rejected
	// self-declared total and count inside [from, to)
	SelfDeclarationUsage(ctx context.Context, claimantID int64, from, to time.Time) (totalPaise int64, count int, err error)

	// AdvanceLevel moves a submitted claim to the next level; returns
	// false when the claim was not in the expected status/level
	AdvanceLevel(ctx context.Context, claimID int64, fromLevel, toLevel string) (bool, error)

	// Finalize sets a terminal status; the compare-and-set on the
	// current submitted status returns false for the racing loser
	Finalize(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error)
}

// ApprovalRepository defines persistence operations for ApprovalRecord
type ApprovalRepository interface {
	// Create inserts a new record, normally PENDING
	Create(ctx context.Context, record *entity.ApprovalRecord) error

	// GetByClaim returns all records for a claim ordered by creation
	GetByClaim(ctx context.Context, claimID int64) ([]*entity.ApprovalRecord, error)

	// DecidePending atomically decides the single pending record at the
	// level; returns false when no pending record exists (the caller
	// lost the race or the level was already decided)
	DecidePending(ctx context.Context, claimID int64, level, status string, deciderID int64, comments string, at time.Time) (bool, error)

	// HasDecision reports whether any level of the claim carries a
	// non-pending record
	HasDecision(ctx context.Context, claimID int64) (bool, error)
}

// ClaimantRepository defines persistence operations for Claimant
type ClaimantRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Claimant, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*entity.Claimant, error)
	ListActiveByRole(ctx context.Context, role string) ([]*entity.Claimant, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64) error
	ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error)
}

// AuditRepository defines persistence operations for AuditLog
type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	ListByClaim(ctx context.Context, claimID int64) ([]*entity.AuditLog, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
