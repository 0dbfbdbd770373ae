package entity

import "time"

// Claimant is an employee who can submit expense claims. Grade determines
// which limit table applies; grade changes never revalidate existing claims.
type Claimant struct {
	ID         int64     `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Grade      string    `json:"grade"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	LarkOpenID string    `json:"lark_open_id,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanSubmit reports whether the claimant is allowed to create claims.
func (c *Claimant) CanSubmit() bool {
	return c.IsActive && c.Role != ""
}

// CanDecideAt reports whether the claimant may decide claims at the given
// approval level.
func (c *Claimant) CanDecideAt(level string) bool {
	if !c.IsActive {
		return false
	}
	switch level {
	case LevelManager:
		return c.Role == RoleManager || c.Role == RoleAdmin
	case LevelFinance:
		return c.Role == RoleFinance || c.Role == RoleAdmin
	}
	return false
}
