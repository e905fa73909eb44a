package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/leasing/domain"
	portfolio "rentledger/internal/portfolio/domain"
)

type stubTenantRepo struct {
	byID map[string]*domain.Tenant
}

func (s *stubTenantRepo) Get(_ context.Context, id string) (*domain.Tenant, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *stubTenantRepo) ListByOrg(_ context.Context, orgID string) ([]domain.Tenant, error) {
	var out []domain.Tenant
	for _, t := range s.byID {
		if t.OrgID == orgID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *stubTenantRepo) Save(_ context.Context, t *domain.Tenant) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cp := *t
	s.byID[t.ID] = &cp
	return nil
}

type stubLeaseRepo struct {
	byID map[string]*domain.Lease
}

func (s *stubLeaseRepo) Get(_ context.Context, id string) (*domain.Lease, error) {
	l, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *stubLeaseRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Lease, error) {
	var out []domain.Lease
	for _, l := range s.byID {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *stubLeaseRepo) ListByProperty(_ context.Context, propertyID string) ([]domain.Lease, error) {
	var out []domain.Lease
	for _, l := range s.byID {
		if l.PropertyID == propertyID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *stubLeaseRepo) ActiveByUnit(_ context.Context, unitID string) (*domain.Lease, error) {
	for _, l := range s.byID {
		if l.UnitID == unitID && l.Status == domain.LeaseStatusActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubLeaseRepo) Save(_ context.Context, l *domain.Lease) error {
	if err := l.Validate(); err != nil {
		return err
	}
	cp := *l
	s.byID[l.ID] = &cp
	return nil
}

type stubUnitRepo struct {
	byID map[string]*portfolio.Unit
}

func (s *stubUnitRepo) Get(_ context.Context, id string) (*portfolio.Unit, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *stubUnitRepo) ListByProperty(_ context.Context, propertyID string) ([]portfolio.Unit, error) {
	var out []portfolio.Unit
	for _, u := range s.byID {
		if u.PropertyID == propertyID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubUnitRepo) Save(_ context.Context, u *portfolio.Unit) error {
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *stubUnitRepo) SetStatus(_ context.Context, id, status string) error {
	if u, ok := s.byID[id]; ok {
		u.Status = status
	}
	return nil
}

type stubOffboardStore struct {
	result domain.OffboardResult
	calls  int
}

func (s *stubOffboardStore) Offboard(_ context.Context, _, _ string) (domain.OffboardResult, error) {
	s.calls++
	return s.result, nil
}

type capturingPublisher struct {
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	svc     *LeasingService
	tenants *stubTenantRepo
	leases  *stubLeaseRepo
	units   *stubUnitRepo
	off     *stubOffboardStore
	pub     *capturingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		tenants: &stubTenantRepo{byID: map[string]*domain.Tenant{}},
		leases:  &stubLeaseRepo{byID: map[string]*domain.Lease{}},
		units:   &stubUnitRepo{byID: map[string]*portfolio.Unit{}},
		off:     &stubOffboardStore{},
		pub:     &capturingPublisher{},
	}
	svc, err := NewLeasingService(f.tenants, f.leases, f.units, f.off, f.pub, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func TestStartLeaseOccupiesUnit(t *testing.T) {
	f := newFixture(t)
	f.tenants.byID["tenant-1"] = &domain.Tenant{ID: "tenant-1", OrgID: "org-1", FullName: "Jane", Status: domain.TenantStatusActive}
	f.units.byID["unit-1"] = &portfolio.Unit{
		ID: "unit-1", PropertyID: "prop-1", UnitNumber: "A1",
		MonthlyRent: decimal.NewFromInt(10000), Status: portfolio.UnitStatusVacant,
	}

	l, err := f.svc.StartLease(context.Background(), "org-1", StartLeaseInput{
		TenantID:  "tenant-1",
		UnitID:    "unit-1",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("start lease: %v", err)
	}
	if l.PropertyID != "prop-1" {
		t.Fatalf("property id = %q, want prop-1 from unit", l.PropertyID)
	}
	if !l.MonthlyRent.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("rent = %s, want unit rent 10000", l.MonthlyRent)
	}
	if f.units.byID["unit-1"].Status != portfolio.UnitStatusOccupied {
		t.Fatalf("unit not marked occupied")
	}
	if l.NextRentDue == nil || !l.NextRentDue.Equal(l.StartDate) {
		t.Fatalf("next rent due should anchor on the start date")
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("events published = %d, want 1", len(f.pub.events))
	}
	if _, ok := f.pub.events[0].(LeaseStarted); !ok {
		t.Fatalf("event type = %T, want LeaseStarted", f.pub.events[0])
	}
}

func TestStartLeaseRejectsOccupiedUnit(t *testing.T) {
	f := newFixture(t)
	f.tenants.byID["tenant-1"] = &domain.Tenant{ID: "tenant-1", OrgID: "org-1", FullName: "Jane", Status: domain.TenantStatusActive}
	f.units.byID["unit-1"] = &portfolio.Unit{ID: "unit-1", PropertyID: "prop-1", UnitNumber: "A1", Status: portfolio.UnitStatusOccupied}

	_, err := f.svc.StartLease(context.Background(), "org-1", StartLeaseInput{TenantID: "tenant-1", UnitID: "unit-1"})
	if err != ErrUnitOccupied {
		t.Fatalf("err = %v, want ErrUnitOccupied", err)
	}
}

func TestEndLeaseReleasesUnit(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.leases.byID["lease-1"] = &domain.Lease{
		ID: "lease-1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", TenantID: "tenant-1",
		Status: domain.LeaseStatusActive, StartDate: start,
	}
	f.units.byID["unit-1"] = &portfolio.Unit{ID: "unit-1", PropertyID: "prop-1", UnitNumber: "A1", Status: portfolio.UnitStatusOccupied}

	l, err := f.svc.EndLease(context.Background(), "lease-1")
	if err != nil {
		t.Fatalf("end lease: %v", err)
	}
	if l.Status != domain.LeaseStatusEnded || l.EndDate == nil {
		t.Fatalf("lease not ended: %+v", l)
	}
	if f.units.byID["unit-1"].Status != portfolio.UnitStatusVacant {
		t.Fatalf("unit not released")
	}
}

func TestOffboardPublishesEvent(t *testing.T) {
	f := newFixture(t)
	f.tenants.byID["tenant-1"] = &domain.Tenant{ID: "tenant-1", OrgID: "org-1", FullName: "Jane", Status: domain.TenantStatusActive}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.leases.byID["lease-1"] = &domain.Lease{
		ID: "lease-1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", TenantID: "tenant-1",
		Status: domain.LeaseStatusActive, StartDate: start,
	}
	f.off.result = domain.OffboardResult{LeasesEnded: 1, InvoicesVoided: 2, UnitsReleased: 1}

	result, err := f.svc.Offboard(context.Background(), "org-1", "tenant-1")
	if err != nil {
		t.Fatalf("offboard: %v", err)
	}
	if f.off.calls != 1 {
		t.Fatalf("offboard store calls = %d, want 1", f.off.calls)
	}
	if result.InvoicesVoided != 2 {
		t.Fatalf("invoices voided = %d, want 2", result.InvoicesVoided)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("events published = %d, want 1", len(f.pub.events))
	}
	ev, ok := f.pub.events[0].(TenantOffboarded)
	if !ok {
		t.Fatalf("event type = %T, want TenantOffboarded", f.pub.events[0])
	}
	if ev.PropertyID != "prop-1" {
		t.Fatalf("event property = %q, want prop-1", ev.PropertyID)
	}
}

func TestOffboardRejectsForeignOrg(t *testing.T) {
	f := newFixture(t)
	f.tenants.byID["tenant-1"] = &domain.Tenant{ID: "tenant-1", OrgID: "org-2", FullName: "Jane", Status: domain.TenantStatusActive}

	if _, err := f.svc.Offboard(context.Background(), "org-1", "tenant-1"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if f.off.calls != 0 {
		t.Fatalf("offboard store should not run for a foreign org")
	}
}
