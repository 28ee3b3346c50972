package domain

import (
	"context"
	"time"
)

// TenantRepository defines the persistence contract for tenants and their
// sub-units.
type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	CreateSubUnit(ctx context.Context, unit SubUnit) error
	GetSubUnit(ctx context.Context, id string) (SubUnit, error)
}

// AssetRepository defines the persistence contract for assets. Quantity
// mutations go through the StockGuard, never through this interface.
type AssetRepository interface {
	Create(ctx context.Context, asset Asset) error
	GetByID(ctx context.Context, id string) (Asset, error)
	// FindBySKU locates an asset by SKU at a specific location, used to
	// resolve the destination record when finalizing a transfer.
	FindBySKU(ctx context.Context, tenantID, subUnitID, sku string) (Asset, error)
	SetState(ctx context.Context, id string, state AssetState) error
	SetLocation(ctx context.Context, id string, subUnitID string) error
}

// TransferFilter holds optional criteria for listing transfers.
type TransferFilter struct {
	TenantID string
	State    *State
	Limit    int
	Offset   int
}

// TransferPatch carries the optional fields a transition writes alongside
// the state change. Nil fields are left untouched.
type TransferPatch struct {
	ApprovedBy         *string
	ApprovedLines      []Line
	Reason             *string
	TokenID            *string
	TokenIssuedAt      *time.Time
	TokenExpiresAt     *time.Time
	DepartureSignature *Signature
	ReceiptSignature   *Signature
}

// TransferRepository defines the persistence contract for transfer requests.
type TransferRepository interface {
	Create(ctx context.Context, transfer TransferRequest) error
	GetByID(ctx context.Context, id string) (TransferRequest, error)
	// GetByToken resolves the transfer bound to a confirmation token.
	GetByToken(ctx context.Context, tokenID string) (TransferRequest, error)
	List(ctx context.Context, filter TransferFilter) ([]TransferRequest, error)
	// Transition performs an atomic compare-and-set on the stored state.
	// A lost race returns WrongStateError with the state that won.
	Transition(ctx context.Context, id string, event Event, from, to State, patch TransferPatch) error
	// NextOrderSeq returns the next order number suffix for a month prefix.
	NextOrderSeq(ctx context.Context, prefix string) (int, error)
	// ListExpired returns order_issued transfers whose token expired
	// before now, for the periodic sweep.
	ListExpired(ctx context.Context, now time.Time) ([]TransferRequest, error)
	SetOrderDocument(ctx context.Context, id, handle string) error
}

// StockGuard enforces at-most-one-holder semantics on reserved quantities.
// Each call is a single atomic step against one asset; callers group
// multi-asset operations inside a Store transaction for all-or-nothing
// behavior.
type StockGuard interface {
	// Hold moves quantity from available to reserved, failing with
	// InsufficientStockError when available is short.
	Hold(ctx context.Context, assetID string, quantity int64) error
	// Release reverses a hold.
	Release(ctx context.Context, assetID string, quantity int64) error
	// Finalize consumes a hold permanently: the origin's reserved count
	// drops and the destination's available count grows.
	Finalize(ctx context.Context, assetID string, quantity int64, destAssetID string) error
}

// HistoryRecorder appends immutable events to an asset's ordered history.
type HistoryRecorder interface {
	Append(ctx context.Context, event HistoryEvent) error
	History(ctx context.Context, assetID string) ([]HistoryEvent, error)
}

// Store groups the repositories behind a shared transactional boundary.
// InTx runs fn against a transaction-backed Store; every mutation inside
// commits or rolls back together, which is what keeps holds, state
// transitions and history appends from diverging.
type Store interface {
	Tenants() TenantRepository
	Assets() AssetRepository
	Transfers() TransferRepository
	Guard() StockGuard
	History() HistoryRecorder
	InTx(ctx context.Context, fn func(Store) error) error
}

// TransitionValidator checks whether an event is legal from a state.
type TransitionValidator interface {
	Apply(ctx context.Context, current State, event Event) (State, error)
}

// TokenSigner issues and verifies signed confirmation tokens.
type TokenSigner interface {
	Issue(transferID string, ttl time.Duration) (ConfirmationToken, error)
	// Signature recomputes the signature for a previously issued token,
	// used when rebuilding the confirmation URL.
	Signature(tokenID, transferID string, issuedAt, expiresAt time.Time) string
	Verify(tokenID, transferID, signature string, issuedAt, expiresAt time.Time) TokenStatus
}

// Notification is an outbound delivery intent; the actual channel (email,
// push) belongs to an external collaborator.
type Notification struct {
	Kind       string
	TransferID string
	TenantID   string
	Payload    map[string]string
}

// Notifier defines the contract for emitting notification intents.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// OrderRenderer produces an opaque handle for the printable order document
// of an issued transfer. PDF and QR rasterization are delegated.
type OrderRenderer interface {
	Render(ctx context.Context, transfer TransferRequest, signature string) (string, error)
}

// RenderQueue schedules asynchronous rendering of an issued transfer's
// order document.
type RenderQueue interface {
	EnqueueRender(ctx context.Context, transferID string) error
}
