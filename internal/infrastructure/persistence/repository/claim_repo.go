package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{db: db, logger: logger}
}

const claimColumns = `
	c.id, c.claim_number, c.claimant_id, c.category, c.amount_paise,
	c.description, c.evidence_kind, c.reason_code, c.synthetic_mark,
	c.trip_start, c.trip_end, c.trip_purpose, c.per_day,
	c.avg_per_day_paise, c.duration_days,
	c.travel_mode, c.travel_from, c.travel_to,
	c.admissibility, c.duplicate_status, c.duplicate_of_claim_id,
	c.within_limit, c.limit_reason, c.recommendation, c.confidence_score,
	c.red_flags, c.fingerprint_unverified,
	c.status, c.current_level, c.rejection_reason, c.rejected_by,
	c.approved_at, c.rejected_at, c.expense_date, c.created_at, c.updated_at`

// Create persists the claim and its bill rows.
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	query := `
		INSERT INTO claims (
			claim_number, claimant_id, category, amount_paise, description,
			evidence_kind, reason_code, synthetic_mark,
			trip_start, trip_end, trip_purpose, per_day, avg_per_day_paise, duration_days,
			travel_mode, travel_from, travel_to,
			admissibility, duplicate_status, duplicate_of_claim_id,
			within_limit, limit_reason, recommendation, confidence_score,
			red_flags, fingerprint_unverified,
			status, current_level, expense_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	reasonCode, syntheticMark := "", ""
	if claim.Declaration != nil {
		reasonCode = claim.Declaration.ReasonCode
		syntheticMark = claim.Declaration.SyntheticMark
	}
	tripStart, tripEnd, tripPurpose, perDay, avgPerDay, durationDays := tripFields(claim.Trip)

	redFlags, err := marshalStrings(claim.RedFlags)
	if err != nil {
		return fmt.Errorf("marshal red flags: %w", err)
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		claim.ClaimNumber,
		claim.ClaimantID,
		claim.Category,
		claim.AmountPaise,
		claim.Description,
		claim.EvidenceKind,
		reasonCode,
		syntheticMark,
		tripStart,
		tripEnd,
		tripPurpose,
		perDay,
		avgPerDay,
		durationDays,
		claim.TravelMode,
		claim.TravelFrom,
		claim.TravelTo,
		claim.Admissibility,
		claim.DuplicateStatus,
		claim.DuplicateOfClaimID,
		claim.WithinLimit,
		claim.LimitReason,
		claim.Recommendation,
		claim.ConfidenceScore,
		redFlags,
		claim.FingerprintUnverified,
		claim.Status,
		nullString(claim.CurrentLevel),
		claim.ExpenseDate,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.String("claim_number", claim.ClaimNumber), zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	claim.ID = id

	return r.insertBills(ctx, claim)
}

// Update rewrites mutable claim columns and replaces the bill rows.
func (r *ClaimRepository) Update(ctx context.Context, claim *entity.Claim) error {
	query := `
		UPDATE claims SET
			category = ?, amount_paise = ?, description = ?,
			travel_mode = ?, travel_from = ?, travel_to = ?,
			admissibility = ?, within_limit = ?, limit_reason = ?,
			expense_date = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		claim.Category,
		claim.AmountPaise,
		claim.Description,
		claim.TravelMode,
		claim.TravelFrom,
		claim.TravelTo,
		claim.Admissibility,
		claim.WithinLimit,
		claim.LimitReason,
		claim.ExpenseDate,
		claim.UpdatedAt,
		claim.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update claim", zap.Int64("id", claim.ID), zap.Error(err))
		return fmt.Errorf("failed to update claim: %w", err)
	}

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM claim_bills WHERE claim_id = ?`, claim.ID); err != nil {
		return fmt.Errorf("failed to replace claim bills: %w", err)
	}
	return r.insertBills(ctx, claim)
}

// Delete removes the claim; bills and approval records cascade.
func (r *ClaimRepository) Delete(ctx context.Context, id int64) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete claim", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	return nil
}

// GetByID retrieves a claim with its bills.
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims c WHERE c.id = ?`
	return r.queryOne(ctx, query, id)
}

// GetByClaimNumber retrieves a claim by its human-readable number.
func (r *ClaimRepository) GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims c WHERE c.claim_number = ?`
	return r.queryOne(ctx, query, number)
}

// ListByClaimant returns the claimant's claims, newest first.
func (r *ClaimRepository) ListByClaimant(ctx context.Context, claimantID int64, limit, offset int) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + `
		FROM claims c
		WHERE c.claimant_id = ?
		ORDER BY c.created_at DESC
		LIMIT ? OFFSET ?`
	return r.queryMany(ctx, query, claimantID, limit, offset)
}

// ListPendingAtLevel returns claims awaiting a decision at the level,
// oldest first.
func (r *ClaimRepository) ListPendingAtLevel(ctx context.Context, level string, limit, offset int) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + `
		FROM claims c
		WHERE c.status = 'submitted' AND c.current_level = ?
		ORDER BY c.created_at ASC
		LIMIT ? OFFSET ?`
	return r.queryMany(ctx, query, level, limit, offset)
}

// FindByFingerprint finds a submitted/approved claim of the claimant
// carrying a bill with the given content fingerprint. Self-declared
// claims have no bill rows and are never matched.
func (r *ClaimRepository) FindByFingerprint(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + `
		FROM claims c
		JOIN claim_bills b ON b.claim_id = c.id
		WHERE c.claimant_id = ?
			AND b.fingerprint = ?
			AND c.status IN ('submitted', 'approved')
			AND c.id != ?
		LIMIT 1`
	return r.queryOne(ctx, query, claimantID, fingerprint, excludeClaimID)
}

// FindByBillDetails finds a submitted/approved claim of the claimant
// carrying a bill with the same number and vendor, optionally matching
// the calendar date.
func (r *ClaimRepository) FindByBillDetails(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + `
		FROM claims c
		JOIN claim_bills b ON b.claim_id = c.id
		WHERE c.claimant_id = ?
			AND b.bill_number = ?
			AND b.vendor = ?
			AND c.status IN ('submitted', 'approved')
			AND c.id != ?`
	args := []interface{}{claimantID, billNumber, vendor, excludeClaimID}
	if billDate != nil {
		query += ` AND date(b.bill_date) = date(?)`
		args = append(args, billDate.Format("2006-01-02"))
	}
	query += ` LIMIT 1`
	return r.queryOne(ctx, query, args...)
}

// SelfDeclarationUsage aggregates the claimant's non-rejected
// self-declared total and count inside [from, to).
func (r *ClaimRepository) SelfDeclarationUsage(ctx context.Context, claimantID int64, from, to time.Time) (int64, int, error) {
	query := `
		SELECT COALESCE(SUM(amount_paise), 0), COUNT(*)
		FROM claims
		WHERE claimant_id = ?
			AND evidence_kind = ?
			AND status != 'rejected'
			AND created_at >= ? AND created_at < ?
	`

	var total int64
	var count int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		claimantID, entity.EvidenceSelfDeclaration, from, to).Scan(&total, &count)
	if err != nil {
		r.logger.Error("Failed to aggregate self-declarations", zap.Int64("claimant_id", claimantID), zap.Error(err))
		return 0, 0, fmt.Errorf("failed to aggregate self-declarations: %w", err)
	}
	return total, count, nil
}

// AdvanceLevel moves a submitted claim to the next level with a
// compare-and-set on its current status and level.
func (r *ClaimRepository) AdvanceLevel(ctx context.Context, claimID int64, fromLevel, toLevel string) (bool, error) {
	query := `
		UPDATE claims
		SET current_level = ?, updated_at = ?
		WHERE id = ? AND status = 'submitted' AND current_level = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, toLevel, time.Now(), claimID, fromLevel)
	if err != nil {
		r.logger.Error("Failed to advance claim level", zap.Int64("id", claimID), zap.Error(err))
		return false, fmt.Errorf("failed to advance claim level: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// Finalize sets a terminal status. The compare-and-set on the current
// submitted status makes the racing loser observe no effect.
func (r *ClaimRepository) Finalize(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error) {
	var query string
	var args []interface{}
	switch status {
	case entity.ClaimStatusApproved:
		query = `
			UPDATE claims
			SET status = ?, current_level = NULL, approved_at = ?, updated_at = ?
			WHERE id = ? AND status = 'submitted'
		`
		args = []interface{}{status, at, at, claimID}
	case entity.ClaimStatusRejected:
		query = `
			UPDATE claims
			SET status = ?, current_level = NULL, rejected_by = ?, rejection_reason = ?, rejected_at = ?, updated_at = ?
			WHERE id = ? AND status = 'submitted'
		`
		args = []interface{}{status, rejectedBy, rejectionReason, at, at, claimID}
	default:
		return false, fmt.Errorf("not a terminal status: %s", status)
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to finalize claim", zap.Int64("id", claimID), zap.Error(err))
		return false, fmt.Errorf("failed to finalize claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *ClaimRepository) insertBills(ctx context.Context, claim *entity.Claim) error {
	if len(claim.Bills) == 0 {
		return nil
	}

	query := `
		INSERT INTO claim_bills (
			claim_id, category, amount_paise, description, bill_date,
			fingerprint, file_name, bill_number, vendor,
			recommendation, confidence_score, red_flags, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range claim.Bills {
		b := &claim.Bills[i]
		redFlags, err := marshalStrings(b.RedFlags)
		if err != nil {
			return fmt.Errorf("marshal bill red flags: %w", err)
		}
		result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
			claim.ID,
			b.Category,
			b.AmountPaise,
			b.Description,
			b.BillDate,
			b.Fingerprint,
			b.FileName,
			b.BillNumber,
			b.Vendor,
			b.Recommendation,
			b.ConfidenceScore,
			redFlags,
			b.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create claim bill", zap.Int64("claim_id", claim.ID), zap.Error(err))
			return fmt.Errorf("failed to create claim bill: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		b.ID = id
		b.ClaimID = claim.ID
	}
	return nil
}

func (r *ClaimRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*entity.Claim, error) {
	claim, err := scanClaim(getExecutor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to query claim", zap.Error(err))
		return nil, fmt.Errorf("failed to query claim: %w", err)
	}
	if err := r.loadBills(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *ClaimRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Claim, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query claims", zap.Error(err))
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	for _, claim := range claims {
		if err := r.loadBills(ctx, claim); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

func (r *ClaimRepository) loadBills(ctx context.Context, claim *entity.Claim) error {
	query := `
		SELECT id, claim_id, category, amount_paise, description, bill_date,
			fingerprint, file_name, bill_number, vendor,
			recommendation, confidence_score, red_flags, created_at
		FROM claim_bills
		WHERE claim_id = ?
		ORDER BY id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, claim.ID)
	if err != nil {
		return fmt.Errorf("failed to query claim bills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b entity.Bill
		var redFlags sql.NullString
		if err := rows.Scan(
			&b.ID, &b.ClaimID, &b.Category, &b.AmountPaise, &b.Description, &b.BillDate,
			&b.Fingerprint, &b.FileName, &b.BillNumber, &b.Vendor,
			&b.Recommendation, &b.ConfidenceScore, &redFlags, &b.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan claim bill: %w", err)
		}
		b.RedFlags = unmarshalStrings(redFlags)
		claim.Bills = append(claim.Bills, b)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var claim entity.Claim
	var reasonCode, syntheticMark, tripPurpose string
	var tripStart, tripEnd, approvedAt, rejectedAt sql.NullTime
	var perDay, redFlags, currentLevel, rejectionReason sql.NullString
	var avgPerDay sql.NullInt64
	var durationDays sql.NullInt64
	var duplicateOf, rejectedBy sql.NullInt64

	err := row.Scan(
		&claim.ID, &claim.ClaimNumber, &claim.ClaimantID, &claim.Category, &claim.AmountPaise,
		&claim.Description, &claim.EvidenceKind, &reasonCode, &syntheticMark,
		&tripStart, &tripEnd, &tripPurpose, &perDay,
		&avgPerDay, &durationDays,
		&claim.TravelMode, &claim.TravelFrom, &claim.TravelTo,
		&claim.Admissibility, &claim.DuplicateStatus, &duplicateOf,
		&claim.WithinLimit, &claim.LimitReason, &claim.Recommendation, &claim.ConfidenceScore,
		&redFlags, &claim.FingerprintUnverified,
		&claim.Status, &currentLevel, &rejectionReason, &rejectedBy,
		&approvedAt, &rejectedAt, &claim.ExpenseDate, &claim.CreatedAt, &claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if claim.EvidenceKind == entity.EvidenceSelfDeclaration {
		claim.Declaration = &entity.Declaration{
			ReasonCode:    reasonCode,
			Justification: claim.Description,
			SyntheticMark: syntheticMark,
		}
	}
	if perDay.Valid && perDay.String != "" {
		trip := &entity.Trip{Purpose: tripPurpose}
		if tripStart.Valid {
			trip.StartDate = tripStart.Time
		}
		if tripEnd.Valid {
			trip.EndDate = tripEnd.Time
		}
		if avgPerDay.Valid {
			trip.AvgPerDayPaise = avgPerDay.Int64
		}
		if durationDays.Valid {
			trip.DurationDays = int(durationDays.Int64)
		}
		if err := json.Unmarshal([]byte(perDay.String), &trip.PerDay); err != nil {
			return nil, fmt.Errorf("unmarshal per-day breakdown: %w", err)
		}
		claim.Trip = trip
	}
	if duplicateOf.Valid {
		claim.DuplicateOfClaimID = &duplicateOf.Int64
	}
	if currentLevel.Valid {
		claim.CurrentLevel = currentLevel.String
	}
	if rejectionReason.Valid {
		claim.RejectionReason = rejectionReason.String
	}
	if rejectedBy.Valid {
		claim.RejectedBy = &rejectedBy.Int64
	}
	if approvedAt.Valid {
		claim.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		claim.RejectedAt = &rejectedAt.Time
	}
	claim.RedFlags = unmarshalStrings(redFlags)
	return &claim, nil
}

func tripFields(trip *entity.Trip) (start, end interface{}, purpose string, perDay interface{}, avg, duration interface{}) {
	if trip == nil {
		return nil, nil, "", nil, nil, nil
	}
	data, err := json.Marshal(trip.PerDay)
	if err != nil {
		data = []byte("[]")
	}
	var s, e interface{}
	if !trip.StartDate.IsZero() {
		s = trip.StartDate
	}
	if !trip.EndDate.IsZero() {
		e = trip.EndDate
	}
	return s, e, trip.Purpose, string(data), trip.AvgPerDayPaise, trip.DurationDays
}

func marshalStrings(values []string) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalStrings(value sql.NullString) []string {
	if !value.Valid || value.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(value.String), &out); err != nil {
		return nil
	}
	return out
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
