package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"rentledger/internal/billing/domain"
	"rentledger/internal/billing/infrastructure/tariff"
)

type stubMeterRepo struct {
	readings []domain.MeterReading
}

func (s *stubMeterRepo) Latest(_ context.Context, unitID, beforeMonth string) (*domain.MeterReading, error) {
	var best *domain.MeterReading
	for i := range s.readings {
		m := s.readings[i]
		if m.UnitID != unitID || m.Month >= beforeMonth {
			continue
		}
		if best == nil || m.Month > best.Month {
			cp := m
			best = &cp
		}
	}
	return best, nil
}

func (s *stubMeterRepo) ListByMonth(_ context.Context, orgID, month string) ([]domain.MeterReading, error) {
	var out []domain.MeterReading
	for _, m := range s.readings {
		if m.OrgID == orgID && m.Month == month {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMeterRepo) Save(_ context.Context, m *domain.MeterReading) error {
	s.readings = append(s.readings, *m)
	return nil
}

type stubUnitBilling struct {
	leases map[string][2]string
}

func (s *stubUnitBilling) ActiveLeaseForUnit(_ context.Context, unitID string) (string, string, error) {
	pair, ok := s.leases[unitID]
	if !ok {
		return "", "", nil
	}
	return pair[0], pair[1], nil
}

func TestWaterRunRaisesInvoicesFromConsumption(t *testing.T) {
	meters := &stubMeterRepo{readings: []domain.MeterReading{
		{ID: "r1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", Month: "202402", Reading: decimal.NewFromInt(100)},
		{ID: "r2", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", Month: "202403", Reading: decimal.NewFromInt(110)},
	}}
	invoices := newStubInvoiceRepo()
	svc, err := NewWaterService(meters, invoices, tariff.Default(), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	billing := &stubUnitBilling{leases: map[string][2]string{"unit-1": {"tenant-1", "lease-1"}}}

	result, err := svc.Run(context.Background(), "org-1", "202403", billing)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.InvoicesRaised != 1 {
		t.Fatalf("invoices raised = %d, want 1", result.InvoicesRaised)
	}
	var inv *domain.Invoice
	for _, i := range invoices.byID {
		inv = i
	}
	if inv == nil {
		t.Fatal("no invoice created")
	}
	if inv.Type != domain.InvoiceTypeWater {
		t.Fatalf("invoice type = %q, want water", inv.Type)
	}
	// 10 m3 at the default flat 150 rate.
	if !inv.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("amount = %s, want 1500", inv.Amount)
	}
	if inv.TenantID != "tenant-1" || inv.LeaseID != "lease-1" {
		t.Fatalf("invoice not tied to the active lease: %+v", inv)
	}
}

func TestWaterRunSkipsVacantUnits(t *testing.T) {
	meters := &stubMeterRepo{readings: []domain.MeterReading{
		{ID: "r1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-9", Month: "202403", Reading: decimal.NewFromInt(50)},
	}}
	invoices := newStubInvoiceRepo()
	svc, err := NewWaterService(meters, invoices, tariff.Default(), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Run(context.Background(), "org-1", "202403", &stubUnitBilling{leases: map[string][2]string{}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.InvoicesRaised != 0 || result.UnitsSkipped != 1 {
		t.Fatalf("result = %+v, want 0 raised and 1 skipped", result)
	}
}

func TestWaterRunRolloverYieldsStandingChargeOnly(t *testing.T) {
	// Meter replaced: current reading below the previous one.
	meters := &stubMeterRepo{readings: []domain.MeterReading{
		{ID: "r1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", Month: "202402", Reading: decimal.NewFromInt(900)},
		{ID: "r2", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-1", Month: "202403", Reading: decimal.NewFromInt(5)},
	}}
	invoices := newStubInvoiceRepo()
	tr := tariff.Tariff{Currency: "KES", StandingCharge: 100, Tiers: []tariff.Tier{{UpTo: 0, Rate: 150}}}
	svc, err := NewWaterService(meters, invoices, tr, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	billing := &stubUnitBilling{leases: map[string][2]string{"unit-1": {"tenant-1", "lease-1"}}}

	result, err := svc.Run(context.Background(), "org-1", "202403", billing)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.InvoicesRaised != 1 {
		t.Fatalf("invoices raised = %d, want 1", result.InvoicesRaised)
	}
	for _, inv := range invoices.byID {
		if !inv.Amount.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("amount = %s, want standing charge 100", inv.Amount)
		}
	}
}

func TestWaterRunRejectsBadMonth(t *testing.T) {
	svc, err := NewWaterService(&stubMeterRepo{}, newStubInvoiceRepo(), tariff.Default(), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Run(context.Background(), "org-1", "", nil); err == nil {
		t.Fatal("expected error for empty month")
	}
}
