package domain

import "time"

// State represents the lifecycle state of an external transfer.
type State string

const (
	StateRequested   State = "requested"
	StateApproved    State = "approved"
	StateOrderIssued State = "order_issued"
	StateInTransit   State = "in_transit"
	StateCompleted   State = "completed"
	StateRejected    State = "rejected"
	StateCancelled   State = "cancelled"
)

// Terminal reports whether no further transitions are permitted from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateRejected || s == StateCancelled
}

// Event represents an action that triggers a workflow transition.
type Event string

const (
	EventApprove Event = "approve"
	EventIssue   Event = "issue_order"
	EventDepart  Event = "confirm_departure"
	EventReceive Event = "confirm_receipt"
	EventReject  Event = "reject"
	EventCancel  Event = "cancel"
)

// Transition defines a valid state change: an event moves a transfer from Src to Dst.
type Transition struct {
	Event Event
	Src   State
	Dst   State
}

// Transitions defines all valid state changes in the transfer workflow.
// This is domain knowledge consumed by the FSM adapter. Cancellation is
// only reachable before the shipment leaves the origin tenant; rejection
// only before an order document exists.
var Transitions = []Transition{
	{Event: EventApprove, Src: StateRequested, Dst: StateApproved},
	{Event: EventIssue, Src: StateApproved, Dst: StateOrderIssued},
	{Event: EventDepart, Src: StateOrderIssued, Dst: StateInTransit},
	{Event: EventReceive, Src: StateInTransit, Dst: StateCompleted},
	{Event: EventReject, Src: StateRequested, Dst: StateRejected},
	{Event: EventReject, Src: StateApproved, Dst: StateRejected},
	{Event: EventCancel, Src: StateRequested, Dst: StateCancelled},
	{Event: EventCancel, Src: StateApproved, Dst: StateCancelled},
	{Event: EventCancel, Src: StateOrderIssued, Dst: StateCancelled},
}

// Priority of a transfer request, informational only.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Role grants workflow permissions to an actor.
type Role string

const (
	// RoleOperator acts on behalf of a single tenant.
	RoleOperator Role = "operator"
	// RoleCoordinator is the cross-tenant authority that approves transfers.
	RoleCoordinator Role = "coordinator"
)

// Actor identifies who performs a workflow operation.
type Actor struct {
	ID       string
	Name     string
	TenantID string
	Role     Role
}

// Line is one asset position on a transfer request. Approved stays zero
// until the coordinating authority rules on the request.
type Line struct {
	AssetID   string
	SKU       string
	Requested int64
	Approved  int64
}

// Signature records who confirmed a departure or receipt scan and when.
type Signature struct {
	Actor string
	At    time.Time
}

// TransferRequest is a cross-tenant asset transfer under workflow control.
// Origin and destination tenants always differ; same-tenant relocations go
// through the internal movement path instead.
type TransferRequest struct {
	ID          string
	OrderNumber string

	OriginTenantID  string
	OriginSubUnitID string
	DestTenantID    string
	DestSubUnitID   string

	Lines []Line

	RequestedBy string
	ApprovedBy  string
	Reason      string
	Priority    Priority
	Notes       string

	State State

	// Confirmation token bound to this transfer. The signature itself is
	// never persisted; verification recomputes it from the signing secret.
	TokenID        string
	TokenIssuedAt  time.Time
	TokenExpiresAt time.Time

	DepartureSignature *Signature
	ReceiptSignature   *Signature

	RequestedAt time.Time
	ApprovedAt  time.Time
	IssuedAt    time.Time
	DepartedAt  time.Time
	CompletedAt time.Time
	UpdatedAt   time.Time

	// Opaque handle to the rendered order document, set asynchronously.
	OrderDocument string
}

// NewTransferRequest creates a transfer in the initial "requested" state.
func NewTransferRequest(id, orderNumber string, originTenant, originSubUnit, destTenant, destSubUnit string, lines []Line, requestedBy, reason string, priority Priority) TransferRequest {
	now := time.Now().UTC()
	if priority == "" {
		priority = PriorityMedium
	}
	return TransferRequest{
		ID:              id,
		OrderNumber:     orderNumber,
		OriginTenantID:  originTenant,
		OriginSubUnitID: originSubUnit,
		DestTenantID:    destTenant,
		DestSubUnitID:   destSubUnit,
		Lines:           lines,
		RequestedBy:     requestedBy,
		Reason:          reason,
		Priority:        priority,
		State:           StateRequested,
		RequestedAt:     now,
		UpdatedAt:       now,
	}
}
