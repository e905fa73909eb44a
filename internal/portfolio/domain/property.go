package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit occupancy states.
const (
	UnitStatusVacant      = "vacant"
	UnitStatusOccupied    = "occupied"
	UnitStatusMaintenance = "maintenance"
)

var (
	ErrInvalidProperty = errors.New("portfolio: invalid property")
	ErrInvalidUnit     = errors.New("portfolio: invalid unit")
)

// Property is a building or estate managed on behalf of an organization.
type Property struct {
	ID        string
	OrgID     string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Property) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidProperty
	}
	if strings.TrimSpace(p.OrgID) == "" {
		return ErrInvalidProperty
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProperty
	}
	return nil
}

// Unit is a rentable space within a property. MonthlyRent is the listed
// rent used for potential revenue; PriceCategory is the display band
// shown on listings (for example "KSh 12,000").
type Unit struct {
	ID            string
	PropertyID    string
	UnitNumber    string
	MonthlyRent   decimal.Decimal
	PriceCategory string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *Unit) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrInvalidUnit
	}
	if strings.TrimSpace(u.PropertyID) == "" {
		return ErrInvalidUnit
	}
	if strings.TrimSpace(u.UnitNumber) == "" {
		return ErrInvalidUnit
	}
	switch u.Status {
	case UnitStatusVacant, UnitStatusOccupied, UnitStatusMaintenance:
	default:
		return ErrInvalidUnit
	}
	if u.MonthlyRent.IsNegative() {
		return ErrInvalidUnit
	}
	return nil
}
