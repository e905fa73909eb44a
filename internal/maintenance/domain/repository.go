package domain

import "context"

// RequestRepository is the persistence port for maintenance requests.
type RequestRepository interface {
	Get(ctx context.Context, id string) (*Request, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Request, error)
	ListOpenByOrg(ctx context.Context, orgID string) ([]Request, error)
	Save(ctx context.Context, r *Request) error
}
