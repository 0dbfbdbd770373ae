package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval record repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{db: db, logger: logger}
}

func (r *ApprovalRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (claim_id, level, status, decider_id, comments, decided_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.ClaimID,
		record.Level,
		record.Status,
		record.DeciderID,
		record.Comments,
		record.DecidedAt,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval record",
			zap.Int64("claim_id", record.ClaimID),
			zap.String("level", record.Level),
			zap.Error(err))
		return fmt.Errorf("failed to create approval record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// GetByClaim returns the claim's approval trail in creation order.
func (r *ApprovalRepository) GetByClaim(ctx context.Context, claimID int64) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, claim_id, level, status, decider_id, comments, decided_at, created_at
		FROM approval_records
		WHERE claim_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to query approval records", zap.Int64("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to query approval records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		var rec entity.ApprovalRecord
		var deciderID sql.NullInt64
		var comments sql.NullString
		var decidedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.ClaimID, &rec.Level, &rec.Status,
			&deciderID, &comments, &decidedAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		if deciderID.Valid {
			rec.DeciderID = &deciderID.Int64
		}
		if comments.Valid {
			rec.Comments = comments.String
		}
		if decidedAt.Valid {
			rec.DecidedAt = &decidedAt.Time
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// DecidePending consumes the PENDING slot at the level. The conditional
// UPDATE lets exactly one of two concurrent reviewers win; the loser
// sees zero rows affected.
func (r *ApprovalRepository) DecidePending(ctx context.Context, claimID int64, level, status string, deciderID int64, comments string, at time.Time) (bool, error) {
	query := `
		UPDATE approval_records
		SET status = ?, decider_id = ?, comments = ?, decided_at = ?
		WHERE claim_id = ? AND level = ? AND status = 'PENDING'
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		status, deciderID, comments, at, claimID, level)
	if err != nil {
		r.logger.Error("Failed to decide pending approval",
			zap.Int64("claim_id", claimID),
			zap.String("level", level),
			zap.Error(err))
		return false, fmt.Errorf("failed to decide pending approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// HasDecision reports whether any level of the claim has already been
// decided.
func (r *ApprovalRepository) HasDecision(ctx context.Context, claimID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM approval_records
			WHERE claim_id = ? AND status != 'PENDING'
		)
	`

	var exists bool
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, claimID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check decisions", zap.Int64("claim_id", claimID), zap.Error(err))
		return false, fmt.Errorf("failed to check decisions: %w", err)
	}
	return exists, nil
}

var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
