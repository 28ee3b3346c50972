package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// stockGuard implements domain.StockGuard with balance-checked single-row
// updates. The availability predicate lives inside the UPDATE itself, so a
// hold that would overdraw the asset matches zero rows and nothing changes.
type stockGuard struct {
	q querier
}

func (g *stockGuard) Hold(ctx context.Context, assetID string, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("hold quantity must be positive, got %d", quantity)
	}

	result, err := g.q.ExecContext(ctx,
		`UPDATE assets
		 SET available = available - ?, reserved = reserved + ?, updated_at = ?
		 WHERE id = ? AND available >= ?`,
		quantity, quantity, time.Now().UTC().Format(timeFormat), assetID, quantity,
	)
	if err != nil {
		return fmt.Errorf("holding stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return g.shortfall(ctx, assetID, quantity)
	}
	return nil
}

func (g *stockGuard) Release(ctx context.Context, assetID string, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	result, err := g.q.ExecContext(ctx,
		`UPDATE assets
		 SET available = available + ?, reserved = reserved - ?, updated_at = ?
		 WHERE id = ? AND reserved >= ?`,
		quantity, quantity, time.Now().UTC().Format(timeFormat), assetID, quantity,
	)
	if err != nil {
		return fmt.Errorf("releasing stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ReservationConflictError{AssetID: assetID}
	}
	return nil
}

func (g *stockGuard) Finalize(ctx context.Context, assetID string, quantity int64, destAssetID string) error {
	if quantity <= 0 {
		return fmt.Errorf("finalize quantity must be positive, got %d", quantity)
	}

	now := time.Now().UTC().Format(timeFormat)

	result, err := g.q.ExecContext(ctx,
		`UPDATE assets
		 SET reserved = reserved - ?, updated_at = ?
		 WHERE id = ? AND reserved >= ?`,
		quantity, now, assetID, quantity,
	)
	if err != nil {
		return fmt.Errorf("consuming hold: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ReservationConflictError{AssetID: assetID}
	}

	result, err = g.q.ExecContext(ctx,
		`UPDATE assets SET available = available + ?, updated_at = ? WHERE id = ?`,
		quantity, now, destAssetID,
	)
	if err != nil {
		return fmt.Errorf("crediting destination: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

// shortfall builds the stock error from the asset's current balance.
func (g *stockGuard) shortfall(ctx context.Context, assetID string, quantity int64) error {
	var available int64
	err := g.q.QueryRowContext(ctx,
		`SELECT available FROM assets WHERE id = ?`, assetID,
	).Scan(&available)
	if err != nil {
		return domain.ErrAssetNotFound
	}
	return &domain.InsufficientStockError{AssetID: assetID, Requested: quantity, Available: available}
}
