package domain

import "context"

// TenantRepository is the persistence port for tenants.
type TenantRepository interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	ListByOrg(ctx context.Context, orgID string) ([]Tenant, error)
	Save(ctx context.Context, t *Tenant) error
}

// LeaseRepository is the persistence port for leases.
type LeaseRepository interface {
	Get(ctx context.Context, id string) (*Lease, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Lease, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Lease, error)
	ActiveByUnit(ctx context.Context, unitID string) (*Lease, error)
	Save(ctx context.Context, l *Lease) error
}

// OffboardResult summarizes what an offboard cascade touched.
type OffboardResult struct {
	LeasesEnded    int
	InvoicesVoided int
	UnitsReleased  int
}

// OffboardStore runs the tenant offboard cascade atomically.
type OffboardStore interface {
	Offboard(ctx context.Context, orgID, tenantID string) (OffboardResult, error)
}
