package domain

import "time"

// Tenant is an isolated organizational unit owning assets and sub-units.
type Tenant struct {
	ID        string
	Name      string
	Code      string
	Active    bool
	CreatedAt time.Time
}

// NewTenant creates an active tenant.
func NewTenant(id, name, code string) Tenant {
	return Tenant{
		ID:        id,
		Name:      name,
		Code:      code,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// SubUnit is a physical location grouping belonging to exactly one tenant.
type SubUnit struct {
	ID       string
	TenantID string
	Name     string
	Code     string
}

// AssetType classifies inventory items.
type AssetType string

const (
	TypePipe     AssetType = "pipe"
	TypeMotor    AssetType = "motor"
	TypeValve    AssetType = "valve"
	TypeChemical AssetType = "chemical"
)

// AssetState is the lifecycle state of an asset. It changes only through
// the workflow engine or the internal movement operation.
type AssetState string

const (
	AssetAvailable   AssetState = "available"
	AssetInTransit   AssetState = "in_transit"
	AssetReserved    AssetState = "reserved"
	AssetMaintenance AssetState = "maintenance"
)

// Asset is a trackable inventory item. Available and Reserved are the only
// quantities the stock guard mutates; their sum is conserved across a
// hold/release round trip.
type Asset struct {
	ID        string
	SKU       string
	Name      string
	Type      AssetType
	State     AssetState
	TenantID  string
	SubUnitID string
	Available int64
	Reserved  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAsset creates an available asset with the given opening quantity.
func NewAsset(id, sku, name string, typ AssetType, tenantID, subUnitID string, quantity int64) Asset {
	now := time.Now().UTC()
	return Asset{
		ID:        id,
		SKU:       sku,
		Name:      name,
		Type:      typ,
		State:     AssetAvailable,
		TenantID:  tenantID,
		SubUnitID: subUnitID,
		Available: quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EventKind classifies history entries.
type EventKind string

const (
	KindCreation     EventKind = "creation"
	KindInternalMove EventKind = "internal_move"
	KindReservation  EventKind = "reservation"
	KindRelease      EventKind = "release"
	KindDeparture    EventKind = "transfer_departure"
	KindReceipt      EventKind = "transfer_receipt"
)

// HistoryEvent is one immutable entry in an asset's history. Entries are
// ordered by Seq within an asset and are never rewritten or removed.
type HistoryEvent struct {
	Seq       int64
	AssetID   string
	Timestamp time.Time
	Actor     string
	Kind      EventKind
	Detail    string
}

// NewHistoryEvent creates a history entry stamped with the current time.
// Seq is assigned by the recorder on append.
func NewHistoryEvent(assetID, actor string, kind EventKind, detail string) HistoryEvent {
	return HistoryEvent{
		AssetID:   assetID,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Kind:      kind,
		Detail:    detail,
	}
}
