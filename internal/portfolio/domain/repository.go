package domain

import "context"

// PropertyRepository is the persistence port for properties.
type PropertyRepository interface {
	Get(ctx context.Context, id string) (*Property, error)
	ListByOrg(ctx context.Context, orgID string) ([]Property, error)
	Save(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id string) error
}

// UnitRepository is the persistence port for units.
type UnitRepository interface {
	Get(ctx context.Context, id string) (*Unit, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Unit, error)
	Save(ctx context.Context, u *Unit) error
	SetStatus(ctx context.Context, id, status string) error
}
