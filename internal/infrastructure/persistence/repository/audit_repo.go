package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

func (r *AuditRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (actor_id, claim_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		log.ActorID, log.ClaimID, log.Action, log.Detail, log.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create audit log",
			zap.String("action", log.Action),
			zap.Int64("claim_id", log.ClaimID),
			zap.Error(err))
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.ID = id
	return nil
}

func (r *AuditRepository) ListByClaim(ctx context.Context, claimID int64) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, actor_id, claim_id, action, detail, created_at
		FROM audit_logs
		WHERE claim_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to query audit logs", zap.Int64("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		var detail sql.NullString
		if err := rows.Scan(&l.ID, &l.ActorID, &l.ClaimID, &l.Action, &detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if detail.Valid {
			l.Detail = detail.String
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
