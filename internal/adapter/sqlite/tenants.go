package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

type tenantRepo struct {
	q querier
}

func (r *tenantRepo) Create(ctx context.Context, t domain.Tenant) error {
	active := 0
	if t.Active {
		active = 1
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tenants (id, name, code, active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Code, active, t.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant code %q already exists: %w", t.Code, err)
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	var t domain.Tenant
	var active int
	var createdAt string

	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, code, active, created_at FROM tenants WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Code, &active, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}

	t.Active = active != 0
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return t, nil
}

func (r *tenantRepo) CreateSubUnit(ctx context.Context, u domain.SubUnit) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO sub_units (id, tenant_id, name, code) VALUES (?, ?, ?, ?)`,
		u.ID, u.TenantID, u.Name, u.Code,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sub-unit code %q already exists for tenant: %w", u.Code, err)
		}
		return fmt.Errorf("inserting sub-unit: %w", err)
	}
	return nil
}

func (r *tenantRepo) GetSubUnit(ctx context.Context, id string) (domain.SubUnit, error) {
	var u domain.SubUnit

	err := r.q.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, code FROM sub_units WHERE id = ?`, id,
	).Scan(&u.ID, &u.TenantID, &u.Name, &u.Code)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.SubUnit{}, domain.ErrSubUnitNotFound
		}
		return domain.SubUnit{}, fmt.Errorf("scanning sub-unit: %w", err)
	}
	return u, nil
}
