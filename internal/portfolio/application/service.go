package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/portfolio/domain"
)

var ErrNotFound = errors.New("portfolio: not found")

// PortfolioService provides property and unit commands and queries.
type PortfolioService struct {
	properties domain.PropertyRepository
	units      domain.UnitRepository
	now        func() time.Time
}

func NewPortfolioService(properties domain.PropertyRepository, units domain.UnitRepository) (*PortfolioService, error) {
	if properties == nil || units == nil {
		return nil, errors.New("portfolio service: nil repository")
	}
	return &PortfolioService{
		properties: properties,
		units:      units,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreatePropertyInput carries the caller-supplied property fields.
type CreatePropertyInput struct {
	Name    string
	Address string
}

func (s *PortfolioService) CreateProperty(ctx context.Context, orgID string, in CreatePropertyInput) (*domain.Property, error) {
	now := s.now()
	p := &domain.Property{
		ID:        newID("prop"),
		OrgID:     orgID,
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.properties.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PortfolioService) UpdateProperty(ctx context.Context, id string, in CreatePropertyInput) (*domain.Property, error) {
	p, err := s.properties.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if addr := strings.TrimSpace(in.Address); addr != "" {
		p.Address = addr
	}
	p.UpdatedAt = s.now()
	if err := s.properties.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PortfolioService) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	p, err := s.properties.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *PortfolioService) ListProperties(ctx context.Context, orgID string) ([]domain.Property, error) {
	return s.properties.ListByOrg(ctx, orgID)
}

// CreateUnitInput carries the caller-supplied unit fields.
type CreateUnitInput struct {
	UnitNumber    string
	MonthlyRent   decimal.Decimal
	PriceCategory string
}

func (s *PortfolioService) CreateUnit(ctx context.Context, propertyID string, in CreateUnitInput) (*domain.Unit, error) {
	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	now := s.now()
	u := &domain.Unit{
		ID:            newID("unit"),
		PropertyID:    propertyID,
		UnitNumber:    strings.TrimSpace(in.UnitNumber),
		MonthlyRent:   in.MonthlyRent,
		PriceCategory: strings.TrimSpace(in.PriceCategory),
		Status:        domain.UnitStatusVacant,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.units.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PortfolioService) ListUnits(ctx context.Context, propertyID string) ([]domain.Unit, error) {
	return s.units.ListByProperty(ctx, propertyID)
}

func (s *PortfolioService) SetUnitStatus(ctx context.Context, unitID, status string) error {
	u, err := s.units.Get(ctx, unitID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	switch status {
	case domain.UnitStatusVacant, domain.UnitStatusOccupied, domain.UnitStatusMaintenance:
	default:
		return domain.ErrInvalidUnit
	}
	return s.units.SetStatus(ctx, unitID, status)
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-" + hex.EncodeToString([]byte(time.Now().UTC().Format("20060102150405")))
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
