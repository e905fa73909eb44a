package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lease and tenant lifecycle states.
const (
	LeaseStatusActive  = "active"
	LeaseStatusPending = "pending"
	LeaseStatusEnded   = "ended"

	TenantStatusActive = "active"
	TenantStatusEnded  = "ended"
)

var (
	ErrInvalidTenant = errors.New("leasing: invalid tenant")
	ErrInvalidLease  = errors.New("leasing: invalid lease")
)

// Tenant is a renter registered under an organization.
type Tenant struct {
	ID        string
	OrgID     string
	FullName  string
	Phone     string
	Email     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidTenant
	}
	if strings.TrimSpace(t.OrgID) == "" {
		return ErrInvalidTenant
	}
	if strings.TrimSpace(t.FullName) == "" {
		return ErrInvalidTenant
	}
	switch t.Status {
	case TenantStatusActive, TenantStatusEnded:
	default:
		return ErrInvalidTenant
	}
	return nil
}

// Lease ties a tenant to a unit. RentPaidUntil tracks how far ahead
// rent has been settled; NextRentDue is the next billing anchor.
type Lease struct {
	ID            string
	OrgID         string
	PropertyID    string
	UnitID        string
	TenantID      string
	MonthlyRent   decimal.Decimal
	Status        string
	StartDate     time.Time
	EndDate       *time.Time
	RentPaidUntil *time.Time
	NextRentDue   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (l *Lease) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return ErrInvalidLease
	}
	if strings.TrimSpace(l.OrgID) == "" {
		return ErrInvalidLease
	}
	if strings.TrimSpace(l.PropertyID) == "" || strings.TrimSpace(l.UnitID) == "" {
		return ErrInvalidLease
	}
	if strings.TrimSpace(l.TenantID) == "" {
		return ErrInvalidLease
	}
	switch l.Status {
	case LeaseStatusActive, LeaseStatusPending, LeaseStatusEnded:
	default:
		return ErrInvalidLease
	}
	if l.MonthlyRent.IsNegative() {
		return ErrInvalidLease
	}
	if l.StartDate.IsZero() {
		return ErrInvalidLease
	}
	return nil
}

// Active reports whether the lease currently occupies its unit.
func (l *Lease) Active() bool {
	return l.Status == LeaseStatusActive
}
