package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/billing/domain"
	leasing "rentledger/internal/leasing/domain"
)

type stubInvoiceRepo struct {
	byID map[string]*domain.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{byID: map[string]*domain.Invoice{}}
}

func (s *stubInvoiceRepo) Get(_ context.Context, id string) (*domain.Invoice, error) {
	inv, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (s *stubInvoiceRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range s.byID {
		if inv.TenantID == tenantID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *stubInvoiceRepo) ListByProperty(_ context.Context, propertyID, _ string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range s.byID {
		if inv.PropertyID == propertyID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *stubInvoiceRepo) Save(_ context.Context, i *domain.Invoice) error {
	if err := i.Validate(); err != nil {
		return err
	}
	cp := *i
	s.byID[i.ID] = &cp
	return nil
}

type stubPaymentRepo struct {
	byID map[string]*domain.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{byID: map[string]*domain.Payment{}}
}

func (s *stubPaymentRepo) Get(_ context.Context, id string) (*domain.Payment, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *stubPaymentRepo) ListByInvoice(_ context.Context, invoiceID string) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range s.byID {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPaymentRepo) ListPending(_ context.Context, orgID string) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range s.byID {
		if p.OrgID == orgID && p.Status == domain.PaymentStatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPaymentRepo) Save(_ context.Context, p *domain.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

type stubLeaseRepo struct {
	byID map[string]*leasing.Lease
}

func (s *stubLeaseRepo) Get(_ context.Context, id string) (*leasing.Lease, error) {
	l, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *stubLeaseRepo) ListByTenant(_ context.Context, _ string) ([]leasing.Lease, error) {
	return nil, nil
}

func (s *stubLeaseRepo) ListByProperty(_ context.Context, _ string) ([]leasing.Lease, error) {
	return nil, nil
}

func (s *stubLeaseRepo) ActiveByUnit(_ context.Context, _ string) (*leasing.Lease, error) {
	return nil, nil
}

func (s *stubLeaseRepo) Save(_ context.Context, l *leasing.Lease) error {
	cp := *l
	s.byID[l.ID] = &cp
	return nil
}

type capturingPublisher struct {
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

func march(day int) time.Time {
	return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestVerifyAppliesPaymentAndPublishes(t *testing.T) {
	invoices := newStubInvoiceRepo()
	payments := newStubPaymentRepo()
	leases := &stubLeaseRepo{byID: map[string]*leasing.Lease{}}
	pub := &capturingPublisher{}
	svc, err := NewPaymentService(payments, invoices, leases, pub, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	invoices.byID["inv-1"] = &domain.Invoice{
		ID: "inv-1", OrgID: "org-1", PropertyID: "prop-1", TenantID: "tenant-1",
		Type: domain.InvoiceTypeRent, Status: domain.InvoiceStatusOpen,
		Amount: decimal.NewFromInt(1000), AmountPaid: decimal.Zero,
		PeriodStart: march(1), DueDate: march(5),
	}
	payments.byID["pay-1"] = &domain.Payment{
		ID: "pay-1", OrgID: "org-1", InvoiceID: "inv-1", TenantID: "tenant-1",
		Amount: decimal.NewFromInt(600), Status: domain.PaymentStatusPending, PaidAt: march(3),
	}

	p, err := svc.Verify(context.Background(), "pay-1", "manager@org")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Status != domain.PaymentStatusVerified {
		t.Fatalf("payment status = %q, want verified", p.Status)
	}
	inv := invoices.byID["inv-1"]
	if inv.Status != domain.InvoiceStatusPartial {
		t.Fatalf("invoice status = %q, want partial", inv.Status)
	}
	if !inv.AmountPaid.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("amount paid = %s, want 600", inv.AmountPaid)
	}
	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}
	ev, ok := pub.events[0].(PaymentVerified)
	if !ok {
		t.Fatalf("event type = %T, want PaymentVerified", pub.events[0])
	}
	if ev.PropertyID != "prop-1" {
		t.Fatalf("event property = %q, want prop-1", ev.PropertyID)
	}
}

func TestVerifyOverpaymentCapsEffectivePaid(t *testing.T) {
	invoices := newStubInvoiceRepo()
	payments := newStubPaymentRepo()
	pub := &capturingPublisher{}
	svc, err := NewPaymentService(payments, invoices, nil, pub, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	invoices.byID["inv-1"] = &domain.Invoice{
		ID: "inv-1", OrgID: "org-1", TenantID: "tenant-1",
		Type: domain.InvoiceTypeRent, Status: domain.InvoiceStatusOpen,
		Amount: decimal.NewFromInt(1000), AmountPaid: decimal.Zero,
		PeriodStart: march(1), DueDate: march(5),
	}
	payments.byID["pay-1"] = &domain.Payment{
		ID: "pay-1", OrgID: "org-1", InvoiceID: "inv-1", TenantID: "tenant-1",
		Amount: decimal.NewFromInt(1200), Status: domain.PaymentStatusPending, PaidAt: march(3),
	}

	if _, err := svc.Verify(context.Background(), "pay-1", "manager@org"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	inv := invoices.byID["inv-1"]
	if inv.Status != domain.InvoiceStatusPaid {
		t.Fatalf("invoice status = %q, want paid", inv.Status)
	}
	if !inv.AmountPaid.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("recorded paid = %s, want the full 1200", inv.AmountPaid)
	}
	if !inv.EffectivePaid().Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("effective paid = %s, want capped 1000", inv.EffectivePaid())
	}
}

func TestVerifyAdvancesLeasePaidUntil(t *testing.T) {
	invoices := newStubInvoiceRepo()
	payments := newStubPaymentRepo()
	leases := &stubLeaseRepo{byID: map[string]*leasing.Lease{}}
	svc, err := NewPaymentService(payments, invoices, leases, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	leases.byID["lease-1"] = &leasing.Lease{
		ID: "lease-1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", TenantID: "tenant-1",
		MonthlyRent: decimal.NewFromInt(1000), Status: leasing.LeaseStatusActive,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	invoices.byID["inv-1"] = &domain.Invoice{
		ID: "inv-1", OrgID: "org-1", TenantID: "tenant-1", LeaseID: "lease-1",
		Type: domain.InvoiceTypeRent, Status: domain.InvoiceStatusOpen,
		Amount: decimal.NewFromInt(1000), AmountPaid: decimal.Zero,
		PeriodStart: march(1), DueDate: march(5),
	}
	// Pays three months of rent in one go.
	payments.byID["pay-1"] = &domain.Payment{
		ID: "pay-1", OrgID: "org-1", InvoiceID: "inv-1", TenantID: "tenant-1",
		Amount: decimal.NewFromInt(3000), Status: domain.PaymentStatusPending, PaidAt: march(3),
	}

	if _, err := svc.Verify(context.Background(), "pay-1", "manager@org"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	lease := leases.byID["lease-1"]
	if lease.RentPaidUntil == nil {
		t.Fatal("rent paid until not set")
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !lease.RentPaidUntil.Equal(want) {
		t.Fatalf("rent paid until = %s, want %s", lease.RentPaidUntil, want)
	}
}

func TestVerifyTwiceFails(t *testing.T) {
	invoices := newStubInvoiceRepo()
	payments := newStubPaymentRepo()
	svc, err := NewPaymentService(payments, invoices, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	payments.byID["pay-1"] = &domain.Payment{
		ID: "pay-1", OrgID: "org-1", TenantID: "tenant-1",
		Amount: decimal.NewFromInt(500), Status: domain.PaymentStatusPending, PaidAt: march(3),
	}

	if _, err := svc.Verify(context.Background(), "pay-1", "manager@org"); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := svc.Verify(context.Background(), "pay-1", "manager@org"); err != domain.ErrPaymentFinal {
		t.Fatalf("second verify err = %v, want ErrPaymentFinal", err)
	}
}
