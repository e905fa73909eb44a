package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentledger/internal/leasing/domain"
)

// OffboardStore runs the tenant offboard cascade in one transaction:
// active leases end, their open invoices are voided, their units go
// back to vacant, and the tenant record is marked ended.
type OffboardStore struct {
	db           *sql.DB
	leaseTable   string
	invoiceTable string
	unitTable    string
	tenantTable  string
}

type OffboardStoreOption func(*OffboardStore)

func WithOffboardTables(leases, invoices, units, tenants string) OffboardStoreOption {
	return func(s *OffboardStore) {
		if leases != "" {
			s.leaseTable = leases
		}
		if invoices != "" {
			s.invoiceTable = invoices
		}
		if units != "" {
			s.unitTable = units
		}
		if tenants != "" {
			s.tenantTable = tenants
		}
	}
}

func NewOffboardStore(db *sql.DB, opts ...OffboardStoreOption) *OffboardStore {
	s := &OffboardStore{
		db:           db,
		leaseTable:   "leases",
		invoiceTable: "invoices",
		unitTable:    "units",
		tenantTable:  "tenants",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OffboardStore) Offboard(ctx context.Context, orgID, tenantID string) (domain.OffboardResult, error) {
	var result domain.OffboardResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("offboard begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	releaseUnits := fmt.Sprintf(`
		UPDATE %s SET status = 'vacant', updated_at = now()
		WHERE id IN (
			SELECT unit_id FROM %s
			WHERE tenant_id = $1 AND org_id = $2 AND status IN ('active', 'pending')
		)
	`, s.unitTable, s.leaseTable)
	res, err := tx.ExecContext(ctx, releaseUnits, tenantID, orgID)
	if err != nil {
		return result, fmt.Errorf("offboard release units: %w", err)
	}
	result.UnitsReleased = affected(res)

	voidInvoices := fmt.Sprintf(`
		UPDATE %s SET status = 'void', updated_at = now()
		WHERE tenant_id = $1 AND org_id = $2 AND status = 'open'
	`, s.invoiceTable)
	res, err = tx.ExecContext(ctx, voidInvoices, tenantID, orgID)
	if err != nil {
		return result, fmt.Errorf("offboard void invoices: %w", err)
	}
	result.InvoicesVoided = affected(res)

	endLeases := fmt.Sprintf(`
		UPDATE %s SET status = 'ended', end_date = now(), updated_at = now()
		WHERE tenant_id = $1 AND org_id = $2 AND status IN ('active', 'pending')
	`, s.leaseTable)
	res, err = tx.ExecContext(ctx, endLeases, tenantID, orgID)
	if err != nil {
		return result, fmt.Errorf("offboard end leases: %w", err)
	}
	result.LeasesEnded = affected(res)

	endTenant := fmt.Sprintf(`
		UPDATE %s SET status = 'ended', updated_at = now()
		WHERE id = $1 AND org_id = $2
	`, s.tenantTable)
	if _, err := tx.ExecContext(ctx, endTenant, tenantID, orgID); err != nil {
		return result, fmt.Errorf("offboard end tenant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("offboard commit: %w", err)
	}
	return result, nil
}

func affected(res sql.Result) int {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
