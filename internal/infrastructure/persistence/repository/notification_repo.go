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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, claim_id, kind, title, body, status, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		n.RecipientID, n.ClaimID, n.Kind, n.Title, n.Body, n.Status, n.SentAt, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("recipient_id", n.RecipientID),
			zap.String("kind", n.Kind),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return r.setStatus(ctx, id, entity.NotificationStatusSent, &at)
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, entity.NotificationStatusFailed, nil)
}

func (r *NotificationRepository) setStatus(ctx context.Context, id int64, status string, sentAt *time.Time) error {
	query := `UPDATE notifications SET status = ?, sent_at = ? WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, sentAt, id); err != nil {
		r.logger.Error("Failed to update notification status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, claim_id, kind, title, body, status, sent_at, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var sentAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ClaimID, &n.Kind,
			&n.Title, &n.Body, &n.Status, &sentAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}
