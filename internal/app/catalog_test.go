package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/neomorfeo/trasvase/internal/app"
	"github.com/neomorfeo/trasvase/internal/domain"
)

func TestCatalog_CreateAsset(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	catalog := app.NewCatalogService(e.store)

	asset, err := catalog.CreateAsset(ctx, "VALVE-01", "Gate valve", domain.TypeValve, "tenant-a", "unit-a", 5, originOperator)
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	if asset.Available != 5 || asset.Reserved != 0 {
		t.Errorf("quantities = %d/%d, want 5/0", asset.Available, asset.Reserved)
	}

	// Creation lands in the history.
	events, err := catalog.AssetHistory(ctx, asset.ID)
	if err != nil {
		t.Fatalf("AssetHistory failed: %v", err)
	}
	if len(events) != 1 || events[0].Kind != domain.KindCreation {
		t.Errorf("history = %+v, want a single creation event", events)
	}
}

func TestCatalog_CreateAsset_ForeignTenant(t *testing.T) {
	e := newTestEngine(t)
	catalog := app.NewCatalogService(e.store)

	_, err := catalog.CreateAsset(context.Background(), "VALVE-01", "Gate valve", domain.TypeValve, "tenant-a", "unit-a", 5, destOperator)
	var forbiddenErr *domain.ForbiddenError
	if !errors.As(err, &forbiddenErr) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestCatalog_CreateSubUnit_UnknownTenant(t *testing.T) {
	e := newTestEngine(t)
	catalog := app.NewCatalogService(e.store)

	_, err := catalog.CreateSubUnit(context.Background(), "missing", "Annex", "annex")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("err = %v, want ErrTenantNotFound", err)
	}
}

func TestCatalog_AssetHistory_UnknownAsset(t *testing.T) {
	e := newTestEngine(t)
	catalog := app.NewCatalogService(e.store)

	_, err := catalog.AssetHistory(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}
