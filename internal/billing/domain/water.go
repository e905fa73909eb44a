package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidReading = errors.New("billing: invalid meter reading")

// MeterReading is a monthly water meter snapshot for a unit.
type MeterReading struct {
	ID         string
	OrgID      string
	PropertyID string
	UnitID     string
	Month      string
	Reading    decimal.Decimal
	ReadAt     time.Time
	CreatedAt  time.Time
}

func (m *MeterReading) Validate() error {
	if m.ID == "" || m.OrgID == "" || m.UnitID == "" || m.Month == "" {
		return ErrInvalidReading
	}
	if m.Reading.IsNegative() {
		return ErrInvalidReading
	}
	return nil
}

// Consumption returns the volume consumed since the previous reading.
// A missing or higher previous reading (meter rollover or replacement)
// yields zero rather than a negative volume.
func Consumption(previous, current decimal.Decimal) decimal.Decimal {
	diff := current.Sub(previous)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}
