// Package duplicate implements the bill duplicate detection engine: a
// content-fingerprint exact match that hard-blocks resubmission, and a
// bill-metadata similarity check that flags without blocking.
package duplicate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// Kind classifies a duplicate match.
type Kind string

const (
	KindNone      Kind = "none"
	KindExact     Kind = "exact"
	KindSuspected Kind = "suspected"
)

// Store is the prior-claim lookup the detector cross-references against.
// Both lookups consider only the claimant's own claims in submitted or
// approved status; rejected claims may legitimately be resubmitted.
type Store interface {
	FindByFingerprint(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error)
	FindByBillDetails(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Input describes one uploaded bill to check.
type Input struct {
	FileBytes      []byte
	BillNumber     string
	Vendor         string
	BillDate       *time.Time
	ClaimantID     int64
	ExcludeClaimID int64
}

// Verdict is the outcome of a duplicate check.
type Verdict struct {
	IsDuplicate bool
	Kind        Kind
	Matched     *entity.Claim
	Fingerprint string
	ShouldBlock bool
	// Unverified marks a bill whose fingerprint could not be computed;
	// the claim is admitted but the exact-match check never ran.
	Unverified bool
	Message    string
}

// Detector cross-references uploaded bills against prior claims.
type Detector struct {
	store  Store
	logger Logger
}

// NewDetector creates a duplicate detector over the given claim store.
func NewDetector(store Store, logger Logger) *Detector {
	return &Detector{store: store, logger: logger}
}

// Fingerprint returns the hex sha256 digest of the raw bill bytes.
func Fingerprint(fileBytes []byte) (string, error) {
	if len(fileBytes) == 0 {
		return "", fmt.Errorf("empty file content")
	}
	sum := sha256.Sum256(fileBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Check runs the exact-match check first and, only when it finds nothing,
// the metadata-similarity check. An exact match blocks; a metadata match
// only flags. An unreadable file degrades to non-duplicate with the
// Unverified marker set.
func (d *Detector) Check(ctx context.Context, in Input) (*Verdict, error) {
	fingerprint, err := Fingerprint(in.FileBytes)
	if err != nil {
		d.logger.Error("bill fingerprint could not be computed, admitting unverified",
			"claimant_id", in.ClaimantID, "error", err)
		return &Verdict{Kind: KindNone, Unverified: true}, nil
	}

	matched, err := d.store.FindByFingerprint(ctx, in.ClaimantID, fingerprint, in.ExcludeClaimID)
	if err != nil {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if matched != nil {
		return &Verdict{
			IsDuplicate: true,
			Kind:        KindExact,
			Matched:     matched,
			Fingerprint: fingerprint,
			ShouldBlock: true,
			Message: fmt.Sprintf("identical bill already submitted as claim %s (status %s)",
				matched.ClaimNumber, matched.Status),
		}, nil
	}

	if in.BillNumber != "" && in.Vendor != "" {
		matched, err = d.store.FindByBillDetails(ctx, in.ClaimantID, in.BillNumber, in.Vendor, in.BillDate, in.ExcludeClaimID)
		if err != nil {
			return nil, fmt.Errorf("bill detail lookup: %w", err)
		}
		if matched != nil {
			return &Verdict{
				IsDuplicate: true,
				Kind:        KindSuspected,
				Matched:     matched,
				Fingerprint: fingerprint,
				ShouldBlock: false,
				Message: fmt.Sprintf("bill number %s from %s matches claim %s, flagged for review",
					in.BillNumber, in.Vendor, matched.ClaimNumber),
			}, nil
		}
	}

	return &Verdict{Kind: KindNone, Fingerprint: fingerprint}, nil
}
