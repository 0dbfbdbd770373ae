package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// ClaimantRepository implements port.ClaimantRepository
type ClaimantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimantRepository creates a new claimant repository
func NewClaimantRepository(db *sql.DB, logger *zap.Logger) port.ClaimantRepository {
	return &ClaimantRepository{db: db, logger: logger}
}

const claimantColumns = `id, employee_id, name, email, grade, department, role, lark_open_id, is_active, created_at`

func (r *ClaimantRepository) GetByID(ctx context.Context, id int64) (*entity.Claimant, error) {
	query := `SELECT ` + claimantColumns + ` FROM claimants WHERE id = ?`
	return r.queryOne(ctx, query, id)
}

func (r *ClaimantRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*entity.Claimant, error) {
	query := `SELECT ` + claimantColumns + ` FROM claimants WHERE employee_id = ?`
	return r.queryOne(ctx, query, employeeID)
}

// ListActiveByRole returns active claimants holding the role,
// deterministic by id for stable notification fan-out.
func (r *ClaimantRepository) ListActiveByRole(ctx context.Context, role string) ([]*entity.Claimant, error) {
	query := `SELECT ` + claimantColumns + ` FROM claimants WHERE role = ? AND is_active = 1 ORDER BY id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, role)
	if err != nil {
		r.logger.Error("Failed to query claimants by role", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to query claimants by role: %w", err)
	}
	defer rows.Close()

	var claimants []*entity.Claimant
	for rows.Next() {
		c, err := scanClaimant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claimant: %w", err)
		}
		claimants = append(claimants, c)
	}
	return claimants, rows.Err()
}

func (r *ClaimantRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*entity.Claimant, error) {
	c, err := scanClaimant(getExecutor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to query claimant", zap.Error(err))
		return nil, fmt.Errorf("failed to query claimant: %w", err)
	}
	return c, nil
}

func scanClaimant(row rowScanner) (*entity.Claimant, error) {
	var c entity.Claimant
	var larkOpenID sql.NullString
	if err := row.Scan(&c.ID, &c.EmployeeID, &c.Name, &c.Email, &c.Grade,
		&c.Department, &c.Role, &larkOpenID, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	if larkOpenID.Valid {
		c.LarkOpenID = larkOpenID.String
	}
	return &c, nil
}
