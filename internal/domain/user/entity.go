package user

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"      // Platform operator - can trigger reconciliation runs
	RoleSupervisor Role = "supervisor" // Site supervisor - reads summaries for their tenant
	RoleWorker     Role = "worker"     // Field worker - submits photo confirmations
)

// IsAdmin checks if the role can run administrative operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// CanViewSummaries checks if the role can read attendance summaries.
func (r Role) CanViewSummaries() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
