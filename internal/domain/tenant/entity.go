package tenant

import "time"

// Tenant is one construction company on the platform. Every record in the
// system is scoped by tenant ID.
type Tenant struct {
	ID        string
	Name      string
	Username  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
