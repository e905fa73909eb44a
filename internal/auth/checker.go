package auth

import (
	"context"
	"database/sql"

	portfoliorepo "rentledger/internal/portfolio/infrastructure/postgres"
)

// PropertyOrgChecker validates property ownership.
type PropertyOrgChecker interface {
	EnsurePropertyOrg(ctx context.Context, orgID, propertyID string) error
}

// PropertyChecker checks property ownership using the portfolio store.
type PropertyChecker struct {
	repo *portfoliorepo.PropertyRepository
}

// NewPropertyChecker constructs a PropertyChecker.
func NewPropertyChecker(db *sql.DB) *PropertyChecker {
	if db == nil {
		return nil
	}
	return &PropertyChecker{repo: portfoliorepo.NewPropertyRepository(db)}
}

// EnsurePropertyOrg verifies the property belongs to the organisation.
func (c *PropertyChecker) EnsurePropertyOrg(ctx context.Context, orgID, propertyID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if orgID == "" || propertyID == "" {
		return nil
	}
	property, err := c.repo.Get(ctx, propertyID)
	if err != nil {
		return err
	}
	if property == nil {
		return ErrNotFound
	}
	if property.OrgID != orgID {
		return ErrOrgMismatch
	}
	return nil
}
