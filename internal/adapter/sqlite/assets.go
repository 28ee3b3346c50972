package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

type assetRepo struct {
	q querier
}

const assetColumns = `id, sku, name, type, state, tenant_id, sub_unit_id,
	available, reserved, created_at, updated_at`

func (r *assetRepo) Create(ctx context.Context, a domain.Asset) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SKU, a.Name, string(a.Type), string(a.State),
		a.TenantID, a.SubUnitID, a.Available, a.Reserved,
		a.CreatedAt.Format(timeFormat), a.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %q already stocked at this location: %w", a.SKU, err)
		}
		return fmt.Errorf("inserting asset: %w", err)
	}
	return nil
}

func (r *assetRepo) GetByID(ctx context.Context, id string) (domain.Asset, error) {
	return scanAsset(r.q.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id,
	))
}

func (r *assetRepo) FindBySKU(ctx context.Context, tenantID, subUnitID, sku string) (domain.Asset, error) {
	return scanAsset(r.q.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets
		 WHERE tenant_id = ? AND sub_unit_id = ? AND sku = ?`,
		tenantID, subUnitID, sku,
	))
}

func (r *assetRepo) SetState(ctx context.Context, id string, state domain.AssetState) error {
	return r.update(ctx, id, `UPDATE assets SET state = ?, updated_at = ? WHERE id = ?`, string(state))
}

func (r *assetRepo) SetLocation(ctx context.Context, id string, subUnitID string) error {
	return r.update(ctx, id, `UPDATE assets SET sub_unit_id = ?, updated_at = ? WHERE id = ?`, subUnitID)
}

func (r *assetRepo) update(ctx context.Context, id, query string, value string) error {
	result, err := r.q.ExecContext(ctx, query, value, time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func scanAsset(row *sql.Row) (domain.Asset, error) {
	var a domain.Asset
	var typ, state, createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.SKU, &a.Name, &typ, &state, &a.TenantID,
		&a.SubUnitID, &a.Available, &a.Reserved, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Asset{}, domain.ErrAssetNotFound
		}
		return domain.Asset{}, fmt.Errorf("scanning asset: %w", err)
	}

	a.Type = domain.AssetType(typ)
	a.State = domain.AssetState(state)
	a.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	a.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return a, nil
}
