package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"rentledger/internal/billing/domain"
	"rentledger/internal/billing/infrastructure/tariff"
	"rentledger/internal/observability/metrics"
)

// WaterService records meter readings and runs monthly water billing.
type WaterService struct {
	meters   domain.MeterRepository
	invoices domain.InvoiceRepository
	tariff   tariff.Tariff
	events   EventPublisher
	logger   *log.Logger
	now      func() time.Time
}

func NewWaterService(
	meters domain.MeterRepository,
	invoices domain.InvoiceRepository,
	t tariff.Tariff,
	events EventPublisher,
	logger *log.Logger,
) (*WaterService, error) {
	if meters == nil || invoices == nil {
		return nil, errors.New("water service: nil repository")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WaterService{
		meters:   meters,
		invoices: invoices,
		tariff:   t,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordReadingInput carries caller-supplied meter reading fields.
type RecordReadingInput struct {
	PropertyID string
	UnitID     string
	Month      string
	Reading    decimal.Decimal
}

func (s *WaterService) RecordReading(ctx context.Context, orgID string, in RecordReadingInput) (*domain.MeterReading, error) {
	now := s.now()
	m := &domain.MeterReading{
		ID:         newID("read"),
		OrgID:      orgID,
		PropertyID: in.PropertyID,
		UnitID:     in.UnitID,
		Month:      in.Month,
		Reading:    in.Reading,
		ReadAt:     now,
		CreatedAt:  now,
	}
	if err := s.meters.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RunResult summarizes a water billing run.
type RunResult struct {
	Month          string
	InvoicesRaised int
	UnitsSkipped   int
}

// UnitBilling resolves the tenant and lease to bill for a unit. Units
// without an active lease are skipped.
type UnitBilling interface {
	ActiveLeaseForUnit(ctx context.Context, unitID string) (tenantID, leaseID string, err error)
}

// Run bills every unit with a reading in the given month (YYYYMM).
// Consumption is the delta against the latest earlier reading, priced
// by the configured tariff.
func (s *WaterService) Run(ctx context.Context, orgID, month string, billing UnitBilling) (RunResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveWaterRun(result, time.Since(start))
	}()

	out := RunResult{Month: month}
	if month == "" {
		result = metrics.ResultError
		return out, errors.New("water service: month required")
	}
	readings, err := s.meters.ListByMonth(ctx, orgID, month)
	if err != nil {
		result = metrics.ResultError
		return out, err
	}

	periodStart, err := time.Parse("200601", month)
	if err != nil {
		result = metrics.ResultError
		return out, errors.New("water service: month must be YYYYMM")
	}

	for i := range readings {
		reading := readings[i]
		previous := decimal.Zero
		prev, err := s.meters.Latest(ctx, reading.UnitID, month)
		if err != nil {
			s.logger.Printf("water: previous reading for unit %s: %v", reading.UnitID, err)
			out.UnitsSkipped++
			result = metrics.ResultPartial
			continue
		}
		if prev != nil {
			previous = prev.Reading
		}
		volume := domain.Consumption(previous, reading.Reading)
		amount := s.tariff.Price(volume)
		if !amount.IsPositive() {
			out.UnitsSkipped++
			continue
		}

		tenantID, leaseID := "", ""
		if billing != nil {
			tenantID, leaseID, err = billing.ActiveLeaseForUnit(ctx, reading.UnitID)
			if err != nil {
				s.logger.Printf("water: lease lookup for unit %s: %v", reading.UnitID, err)
				out.UnitsSkipped++
				result = metrics.ResultPartial
				continue
			}
		}
		if tenantID == "" {
			out.UnitsSkipped++
			continue
		}

		now := s.now()
		inv := &domain.Invoice{
			ID:          newID("inv"),
			OrgID:       orgID,
			PropertyID:  reading.PropertyID,
			UnitID:      reading.UnitID,
			TenantID:    tenantID,
			LeaseID:     leaseID,
			Type:        domain.InvoiceTypeWater,
			Status:      domain.InvoiceStatusOpen,
			Amount:      amount,
			AmountPaid:  decimal.Zero,
			PeriodStart: periodStart,
			DueDate:     periodStart.AddDate(0, 1, 4),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.invoices.Save(ctx, inv); err != nil {
			s.logger.Printf("water: invoice for unit %s: %v", reading.UnitID, err)
			out.UnitsSkipped++
			result = metrics.ResultPartial
			continue
		}
		out.InvoicesRaised++
	}

	s.publish(ctx, WaterRunCompleted{
		Month:          month,
		InvoicesRaised: out.InvoicesRaised,
		UnitsSkipped:   out.UnitsSkipped,
		OccurredAt:     s.now(),
	})
	return out, nil
}

func (s *WaterService) publish(ctx context.Context, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Printf("billing: publish event failed: %v", err)
	}
}
