package tenant

import "context"

type TenantRepository interface {
	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id string) (Tenant, error)

	// ListActive retrieves all active tenants, ordered by name
	ListActive(ctx context.Context) ([]Tenant, error)
}
