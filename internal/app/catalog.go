package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// CatalogService manages tenants, sub-units and assets. It has no
// workflow logic; quantity and state changes beyond asset creation belong
// to the TransferService.
type CatalogService struct {
	store domain.Store
}

// NewCatalogService creates a catalog service on the given store.
func NewCatalogService(store domain.Store) *CatalogService {
	return &CatalogService{store: store}
}

// CreateTenant registers a new active tenant.
func (s *CatalogService) CreateTenant(ctx context.Context, name, code string) (domain.Tenant, error) {
	t := domain.NewTenant(newID(), name, code)
	if err := s.store.Tenants().Create(ctx, t); err != nil {
		return domain.Tenant{}, err
	}
	return t, nil
}

// GetTenant returns a tenant by id.
func (s *CatalogService) GetTenant(ctx context.Context, id string) (domain.Tenant, error) {
	return s.store.Tenants().GetByID(ctx, id)
}

// CreateSubUnit registers a location under an existing tenant.
func (s *CatalogService) CreateSubUnit(ctx context.Context, tenantID, name, code string) (domain.SubUnit, error) {
	if _, err := s.store.Tenants().GetByID(ctx, tenantID); err != nil {
		return domain.SubUnit{}, err
	}
	u := domain.SubUnit{ID: newID(), TenantID: tenantID, Name: name, Code: code}
	if err := s.store.Tenants().CreateSubUnit(ctx, u); err != nil {
		return domain.SubUnit{}, err
	}
	return u, nil
}

// CreateAsset registers an asset with an opening quantity and appends its
// creation event, both in one transaction.
func (s *CatalogService) CreateAsset(ctx context.Context, sku, name string, typ domain.AssetType, tenantID, subUnitID string, quantity int64, actor domain.Actor) (domain.Asset, error) {
	if quantity < 0 {
		return domain.Asset{}, fmt.Errorf("opening quantity must not be negative, got %d", quantity)
	}
	if actor.Role != domain.RoleCoordinator && actor.TenantID != tenantID {
		return domain.Asset{}, &domain.ForbiddenError{Actor: actor.ID, Action: "create an asset for another tenant"}
	}

	var out domain.Asset
	err := s.store.InTx(ctx, func(st domain.Store) error {
		if err := checkLocation(ctx, st, tenantID, subUnitID); err != nil {
			return err
		}

		out = domain.NewAsset(newID(), sku, name, typ, tenantID, subUnitID, quantity)
		if err := st.Assets().Create(ctx, out); err != nil {
			return err
		}

		ev := domain.NewHistoryEvent(out.ID, actor.ID, domain.KindCreation,
			fmt.Sprintf("registered with %d units", quantity))
		return st.History().Append(ctx, ev)
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return out, nil
}

// GetAsset returns an asset by id.
func (s *CatalogService) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	return s.store.Assets().GetByID(ctx, id)
}

// AssetHistory returns the ordered event history of an asset.
func (s *CatalogService) AssetHistory(ctx context.Context, assetID string) ([]domain.HistoryEvent, error) {
	if _, err := s.store.Assets().GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.store.History().History(ctx, assetID)
}
