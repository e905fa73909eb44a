package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/leasing/domain"
	portfolio "rentledger/internal/portfolio/domain"
)

var (
	ErrNotFound     = errors.New("leasing: not found")
	ErrUnitOccupied = errors.New("leasing: unit already occupied")
)

// EventPublisher publishes leasing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// TenantOffboarded is emitted after the offboard cascade commits.
type TenantOffboarded struct {
	TenantID       string    `json:"tenant_id"`
	PropertyID     string    `json:"property_id"`
	LeasesEnded    int       `json:"leases_ended"`
	InvoicesVoided int       `json:"invoices_voided"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// LeaseStarted is emitted when a lease becomes active.
type LeaseStarted struct {
	LeaseID    string    `json:"lease_id"`
	TenantID   string    `json:"tenant_id"`
	PropertyID string    `json:"property_id"`
	UnitID     string    `json:"unit_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LeasingService provides tenant and lease commands.
type LeasingService struct {
	tenants  domain.TenantRepository
	leases   domain.LeaseRepository
	units    portfolio.UnitRepository
	offboard domain.OffboardStore
	events   EventPublisher
	logger   *log.Logger
	now      func() time.Time
}

func NewLeasingService(
	tenants domain.TenantRepository,
	leases domain.LeaseRepository,
	units portfolio.UnitRepository,
	offboard domain.OffboardStore,
	events EventPublisher,
	logger *log.Logger,
) (*LeasingService, error) {
	if tenants == nil || leases == nil || units == nil {
		return nil, errors.New("leasing service: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LeasingService{
		tenants:  tenants,
		leases:   leases,
		units:    units,
		offboard: offboard,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateTenantInput carries caller-supplied tenant fields.
type CreateTenantInput struct {
	FullName string
	Phone    string
	Email    string
}

func (s *LeasingService) CreateTenant(ctx context.Context, orgID string, in CreateTenantInput) (*domain.Tenant, error) {
	now := s.now()
	t := &domain.Tenant{
		ID:        newID("tenant"),
		OrgID:     orgID,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Status:    domain.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tenants.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *LeasingService) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	t, err := s.tenants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *LeasingService) ListTenants(ctx context.Context, orgID string) ([]domain.Tenant, error) {
	return s.tenants.ListByOrg(ctx, orgID)
}

// StartLeaseInput carries caller-supplied lease fields.
type StartLeaseInput struct {
	TenantID    string
	PropertyID  string
	UnitID      string
	MonthlyRent decimal.Decimal
	StartDate   time.Time
}

// StartLease activates a lease and marks the unit occupied. The first
// rent due date is the start date itself.
func (s *LeasingService) StartLease(ctx context.Context, orgID string, in StartLeaseInput) (*domain.Lease, error) {
	tenant, err := s.tenants.Get(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrNotFound
	}
	unit, err := s.units.Get(ctx, in.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrNotFound
	}
	if unit.Status == portfolio.UnitStatusOccupied {
		return nil, ErrUnitOccupied
	}

	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	start = start.UTC()
	rent := in.MonthlyRent
	if rent.IsZero() {
		rent = unit.MonthlyRent
	}
	nextDue := start
	l := &domain.Lease{
		ID:          newID("lease"),
		OrgID:       orgID,
		PropertyID:  in.PropertyID,
		UnitID:      in.UnitID,
		TenantID:    in.TenantID,
		MonthlyRent: rent,
		Status:      domain.LeaseStatusActive,
		StartDate:   start,
		NextRentDue: &nextDue,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if l.PropertyID == "" {
		l.PropertyID = unit.PropertyID
	}
	if err := s.leases.Save(ctx, l); err != nil {
		return nil, err
	}
	if err := s.units.SetStatus(ctx, in.UnitID, portfolio.UnitStatusOccupied); err != nil {
		s.logger.Printf("leasing: unit %s status update failed: %v", in.UnitID, err)
	}
	s.publish(ctx, LeaseStarted{
		LeaseID:    l.ID,
		TenantID:   l.TenantID,
		PropertyID: l.PropertyID,
		UnitID:     l.UnitID,
		OccurredAt: now,
	})
	return l, nil
}

// EndLease marks a lease ended and releases its unit.
func (s *LeasingService) EndLease(ctx context.Context, leaseID string) (*domain.Lease, error) {
	l, err := s.leases.Get(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if l.Status == domain.LeaseStatusEnded {
		return l, nil
	}
	now := s.now()
	l.Status = domain.LeaseStatusEnded
	l.EndDate = &now
	l.UpdatedAt = now
	if err := s.leases.Save(ctx, l); err != nil {
		return nil, err
	}
	if err := s.units.SetStatus(ctx, l.UnitID, portfolio.UnitStatusVacant); err != nil {
		s.logger.Printf("leasing: unit %s release failed: %v", l.UnitID, err)
	}
	return l, nil
}

func (s *LeasingService) ListLeasesByTenant(ctx context.Context, tenantID string) ([]domain.Lease, error) {
	return s.leases.ListByTenant(ctx, tenantID)
}

// ActiveLeaseForUnit resolves the tenant and lease currently occupying
// a unit. Both are empty when the unit is vacant.
func (s *LeasingService) ActiveLeaseForUnit(ctx context.Context, unitID string) (string, string, error) {
	l, err := s.leases.ActiveByUnit(ctx, unitID)
	if err != nil {
		return "", "", err
	}
	if l == nil {
		return "", "", nil
	}
	return l.TenantID, l.ID, nil
}

// Offboard ends every lease the tenant holds, voids open invoices and
// releases the units, all in one transaction.
func (s *LeasingService) Offboard(ctx context.Context, orgID, tenantID string) (domain.OffboardResult, error) {
	var result domain.OffboardResult
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return result, err
	}
	if tenant == nil || tenant.OrgID != orgID {
		return result, ErrNotFound
	}
	if s.offboard == nil {
		return result, errors.New("leasing service: offboard store not configured")
	}

	leases, err := s.leases.ListByTenant(ctx, tenantID)
	if err != nil {
		return result, err
	}
	propertyID := ""
	for i := range leases {
		if leases[i].Active() {
			propertyID = leases[i].PropertyID
			break
		}
	}

	result, err = s.offboard.Offboard(ctx, orgID, tenantID)
	if err != nil {
		return result, err
	}
	s.publish(ctx, TenantOffboarded{
		TenantID:       tenantID,
		PropertyID:     propertyID,
		LeasesEnded:    result.LeasesEnded,
		InvoicesVoided: result.InvoicesVoided,
		OccurredAt:     s.now(),
	})
	return result, nil
}

func (s *LeasingService) publish(ctx context.Context, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Printf("leasing: publish event failed: %v", err)
	}
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-" + hex.EncodeToString([]byte(time.Now().UTC().Format("20060102150405")))
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
