// Package http exposes the transfer workflow as a REST API built on Huma.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/trasvase/internal/app"
	"github.com/neomorfeo/trasvase/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeFormat)
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Name      string `json:"name" doc:"Display name"`
	Code      string `json:"code" doc:"Short unique code"`
	Active    bool   `json:"active" doc:"Whether the tenant may participate in transfers"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toTenantResponse(t domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Code:      t.Code,
		Active:    t.Active,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

// SubUnitResponse is the API representation of a tenant location.
type SubUnitResponse struct {
	ID       string `json:"id" doc:"Unique identifier"`
	TenantID string `json:"tenant_id" doc:"Owning tenant"`
	Name     string `json:"name" doc:"Display name"`
	Code     string `json:"code" doc:"Code unique within the tenant"`
}

// AssetResponse is the API representation of an inventory asset.
type AssetResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	SKU       string `json:"sku" doc:"Stock keeping unit"`
	Name      string `json:"name" doc:"Display name"`
	Type      string `json:"type" doc:"Asset classification"`
	State     string `json:"state" doc:"Lifecycle state"`
	TenantID  string `json:"tenant_id" doc:"Owning tenant"`
	SubUnitID string `json:"sub_unit_id" doc:"Current location"`
	Available int64  `json:"available" doc:"Freely usable quantity"`
	Reserved  int64  `json:"reserved" doc:"Quantity held for transfers"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toAssetResponse(a domain.Asset) AssetResponse {
	return AssetResponse{
		ID:        a.ID,
		SKU:       a.SKU,
		Name:      a.Name,
		Type:      string(a.Type),
		State:     string(a.State),
		TenantID:  a.TenantID,
		SubUnitID: a.SubUnitID,
		Available: a.Available,
		Reserved:  a.Reserved,
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}

// HistoryEventResponse is one entry in an asset's event history.
type HistoryEventResponse struct {
	Seq       int64  `json:"seq" doc:"Position within the asset's history"`
	Timestamp string `json:"timestamp" doc:"Event timestamp (ISO 8601)"`
	Actor     string `json:"actor" doc:"Who performed the action"`
	Kind      string `json:"kind" doc:"Event classification"`
	Detail    string `json:"detail" doc:"Human-readable description"`
}

// LineResponse is one asset position on a transfer.
type LineResponse struct {
	AssetID   string `json:"asset_id" doc:"Origin asset"`
	SKU       string `json:"sku" doc:"Stock keeping unit"`
	Requested int64  `json:"requested" doc:"Quantity requested"`
	Approved  int64  `json:"approved" doc:"Quantity granted on approval"`
}

// SignatureResponse records a confirmation scan.
type SignatureResponse struct {
	Actor string `json:"actor" doc:"Who confirmed"`
	At    string `json:"at" doc:"Confirmation timestamp (ISO 8601)"`
}

// TransferResponse is the API representation of a transfer request.
type TransferResponse struct {
	ID              string             `json:"id" doc:"Unique identifier"`
	OrderNumber     string             `json:"order_number" doc:"Human-readable order number"`
	OriginTenantID  string             `json:"origin_tenant_id" doc:"Sending tenant"`
	OriginSubUnitID string             `json:"origin_sub_unit_id" doc:"Sending location"`
	DestTenantID    string             `json:"dest_tenant_id" doc:"Receiving tenant"`
	DestSubUnitID   string             `json:"dest_sub_unit_id" doc:"Receiving location"`
	Lines           []LineResponse     `json:"lines" doc:"Asset positions"`
	RequestedBy     string             `json:"requested_by" doc:"Requesting actor"`
	ApprovedBy      string             `json:"approved_by,omitempty" doc:"Approving actor"`
	Reason          string             `json:"reason" doc:"Justification for the transfer"`
	Priority        string             `json:"priority" doc:"Handling priority"`
	State           string             `json:"state" doc:"Workflow state"`
	Departure       *SignatureResponse `json:"departure,omitempty" doc:"Departure confirmation"`
	Receipt         *SignatureResponse `json:"receipt,omitempty" doc:"Receipt confirmation"`
	RequestedAt     string             `json:"requested_at" doc:"Request timestamp (ISO 8601)"`
	ApprovedAt      string             `json:"approved_at,omitempty" doc:"Approval timestamp (ISO 8601)"`
	IssuedAt        string             `json:"issued_at,omitempty" doc:"Order issue timestamp (ISO 8601)"`
	DepartedAt      string             `json:"departed_at,omitempty" doc:"Departure timestamp (ISO 8601)"`
	CompletedAt     string             `json:"completed_at,omitempty" doc:"Completion timestamp (ISO 8601)"`
	OrderDocument   string             `json:"order_document,omitempty" doc:"Handle of the rendered order document"`
}

func toTransferResponse(t domain.TransferRequest) TransferResponse {
	lines := make([]LineResponse, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = LineResponse{AssetID: l.AssetID, SKU: l.SKU, Requested: l.Requested, Approved: l.Approved}
	}

	resp := TransferResponse{
		ID:              t.ID,
		OrderNumber:     t.OrderNumber,
		OriginTenantID:  t.OriginTenantID,
		OriginSubUnitID: t.OriginSubUnitID,
		DestTenantID:    t.DestTenantID,
		DestSubUnitID:   t.DestSubUnitID,
		Lines:           lines,
		RequestedBy:     t.RequestedBy,
		ApprovedBy:      t.ApprovedBy,
		Reason:          t.Reason,
		Priority:        string(t.Priority),
		State:           string(t.State),
		RequestedAt:     formatTime(t.RequestedAt),
		ApprovedAt:      formatTime(t.ApprovedAt),
		IssuedAt:        formatTime(t.IssuedAt),
		DepartedAt:      formatTime(t.DepartedAt),
		CompletedAt:     formatTime(t.CompletedAt),
		OrderDocument:   t.OrderDocument,
	}
	if t.DepartureSignature != nil {
		resp.Departure = &SignatureResponse{Actor: t.DepartureSignature.Actor, At: formatTime(t.DepartureSignature.At)}
	}
	if t.ReceiptSignature != nil {
		resp.Receipt = &SignatureResponse{Actor: t.ReceiptSignature.Actor, At: formatTime(t.ReceiptSignature.At)}
	}
	return resp
}

// --- Tenants ---

type CreateTenantInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Code string `json:"code" minLength:"1" maxLength:"32" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"Short unique code (lowercase, hyphens)"`
	}
}

type CreateTenantOutput struct {
	Body TenantResponse
}

type GetTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type GetTenantOutput struct {
	Body TenantResponse
}

type CreateSubUnitInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Code string `json:"code" minLength:"1" maxLength:"32" doc:"Code unique within the tenant"`
	}
}

type CreateSubUnitOutput struct {
	Body SubUnitResponse
}

// --- Assets ---

type CreateAssetInput struct {
	Body struct {
		SKU       string `json:"sku" minLength:"1" maxLength:"64" doc:"Stock keeping unit"`
		Name      string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Type      string `json:"type" enum:"pipe,motor,valve,chemical" doc:"Asset classification"`
		TenantID  string `json:"tenant_id" doc:"Owning tenant"`
		SubUnitID string `json:"sub_unit_id" doc:"Initial location"`
		Quantity  int64  `json:"quantity" minimum:"0" doc:"Opening quantity"`
	}
}

type CreateAssetOutput struct {
	Body AssetResponse
}

type GetAssetInput struct {
	ID string `path:"id" doc:"Asset ID"`
}

type GetAssetOutput struct {
	Body AssetResponse
}

type AssetHistoryInput struct {
	ID string `path:"id" doc:"Asset ID"`
}

type AssetHistoryOutput struct {
	Body []HistoryEventResponse
}

type MoveAssetInput struct {
	ID   string `path:"id" doc:"Asset ID"`
	Body struct {
		SubUnitID string `json:"sub_unit_id" doc:"Destination sub-unit within the same tenant"`
		Reason    string `json:"reason" minLength:"1" doc:"Justification for the move"`
	}
}

type MoveAssetOutput struct {
	Body AssetResponse
}

// --- Transfers ---

type RequestTransferLine struct {
	AssetID  string `json:"asset_id" doc:"Origin asset"`
	Quantity int64  `json:"quantity" minimum:"1" doc:"Quantity requested"`
}

type RequestTransferInput struct {
	Body struct {
		OriginTenantID  string                `json:"origin_tenant_id" doc:"Sending tenant"`
		OriginSubUnitID string                `json:"origin_sub_unit_id" doc:"Sending location"`
		DestTenantID    string                `json:"dest_tenant_id" doc:"Receiving tenant"`
		DestSubUnitID   string                `json:"dest_sub_unit_id" doc:"Receiving location"`
		Lines           []RequestTransferLine `json:"lines" minItems:"1" doc:"Asset positions"`
		Reason   string `json:"reason" minLength:"1" doc:"Justification for the transfer"`
		Priority string `json:"priority,omitempty" enum:",low,medium,high,urgent" doc:"Handling priority"`
	}
}

type RequestTransferOutput struct {
	Body TransferResponse
}

type GetTransferInput struct {
	ID string `path:"id" doc:"Transfer ID"`
}

type GetTransferOutput struct {
	Body TransferResponse
}

type ListTransfersInput struct {
	TenantID string `query:"tenant_id" required:"false" doc:"Filter by participating tenant"`
	State    string `query:"state" required:"false" doc:"Filter by workflow state"`
	Limit    int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTransfersOutput struct {
	Body []TransferResponse
}

type ApproveTransferLine struct {
	AssetID  string `json:"asset_id" doc:"Origin asset"`
	Quantity int64  `json:"quantity" minimum:"0" doc:"Quantity granted"`
}

type ApproveTransferInput struct {
	ID   string `path:"id" doc:"Transfer ID"`
	Body struct {
		Lines []ApproveTransferLine `json:"lines,omitempty" doc:"Granted quantities; omit to approve in full"`
	}
}

type ApproveTransferOutput struct {
	Body TransferResponse
}

type RejectTransferInput struct {
	ID   string `path:"id" doc:"Transfer ID"`
	Body struct {
		Reason string `json:"reason" minLength:"1" doc:"Why the transfer is declined"`
	}
}

type RejectTransferOutput struct {
	Body TransferResponse
}

type CancelTransferInput struct {
	ID string `path:"id" doc:"Transfer ID"`
}

type CancelTransferOutput struct {
	Body TransferResponse
}

type IssueOrderInput struct {
	ID string `path:"id" doc:"Transfer ID"`
}

// IssueOrderOutput carries the confirmation token exactly once; it is not
// recoverable from any later read.
type IssueOrderOutput struct {
	Body struct {
		Transfer  TransferResponse `json:"transfer"`
		Token     string           `json:"token" doc:"Confirmation token ID"`
		Signature string           `json:"signature" doc:"Token signature"`
		ExpiresAt string           `json:"expires_at" doc:"Token expiry (ISO 8601)"`
	}
}

// --- Confirmation gateway ---

type ConfirmInput struct {
	Body struct {
		Token     string `json:"token" minLength:"1" doc:"Confirmation token ID"`
		Signature string `json:"signature" minLength:"1" doc:"Token signature"`
		Action    string `json:"action" enum:"departure,receipt" doc:"Which confirmation is being made"`
		Actor     string `json:"actor,omitempty" maxLength:"255" doc:"Free-form label of who is confirming"`
	}
}

type ConfirmOutput struct {
	Body struct {
		Transfer         TransferResponse  `json:"transfer"`
		Signature        SignatureResponse `json:"signature"`
		AlreadyConfirmed bool              `json:"already_confirmed" doc:"True when this scan repeated an earlier one"`
	}
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, transfers *app.TransferService, catalog *app.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants",
		Summary:     "Register a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		tenant, err := catalog.CreateTenant(ctx, input.Body.Name, input.Body.Code)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*GetTenantOutput, error) {
		tenant, err := catalog.GetTenant(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-sub-unit",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/sub-units",
		Summary:     "Register a location under a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateSubUnitInput) (*CreateSubUnitOutput, error) {
		unit, err := catalog.CreateSubUnit(ctx, input.ID, input.Body.Name, input.Body.Code)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateSubUnitOutput{Body: SubUnitResponse{
			ID: unit.ID, TenantID: unit.TenantID, Name: unit.Name, Code: unit.Code,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-asset",
		Method:      http.MethodPost,
		Path:        "/api/v1/assets",
		Summary:     "Register an asset",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *CreateAssetInput) (*CreateAssetOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		asset, err := catalog.CreateAsset(ctx, input.Body.SKU, input.Body.Name,
			domain.AssetType(input.Body.Type), input.Body.TenantID, input.Body.SubUnitID,
			input.Body.Quantity, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateAssetOutput{Body: toAssetResponse(asset)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/{id}",
		Summary:     "Get an asset by ID",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *GetAssetInput) (*GetAssetOutput, error) {
		asset, err := catalog.GetAsset(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetAssetOutput{Body: toAssetResponse(asset)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/{id}/history",
		Summary:     "Get the event history of an asset",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *AssetHistoryInput) (*AssetHistoryOutput, error) {
		events, err := catalog.AssetHistory(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]HistoryEventResponse, len(events))
		for i, e := range events {
			resp[i] = HistoryEventResponse{
				Seq:       e.Seq,
				Timestamp: formatTime(e.Timestamp),
				Actor:     e.Actor,
				Kind:      string(e.Kind),
				Detail:    e.Detail,
			}
		}
		return &AssetHistoryOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-asset",
		Method:      http.MethodPost,
		Path:        "/api/v1/assets/{id}/move",
		Summary:     "Move an asset to another sub-unit of its tenant",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *MoveAssetInput) (*MoveAssetOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		asset, err := transfers.MoveAsset(ctx, input.ID, input.Body.SubUnitID, actor, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MoveAssetOutput{Body: toAssetResponse(asset)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-transfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers",
		Summary:     "Request a cross-tenant transfer",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *RequestTransferInput) (*RequestTransferOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		in := app.RequestInput{
			OriginTenantID:  input.Body.OriginTenantID,
			OriginSubUnitID: input.Body.OriginSubUnitID,
			DestTenantID:    input.Body.DestTenantID,
			DestSubUnitID:   input.Body.DestSubUnitID,
			Reason:          input.Body.Reason,
			Priority:        domain.Priority(input.Body.Priority),
		}
		for _, l := range input.Body.Lines {
			in.Lines = append(in.Lines, app.RequestedLine{AssetID: l.AssetID, Quantity: l.Quantity})
		}

		transfer, err := transfers.Request(ctx, in, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RequestTransferOutput{Body: toTransferResponse(transfer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-transfer",
		Method:      http.MethodGet,
		Path:        "/api/v1/transfers/{id}",
		Summary:     "Get a transfer by ID",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *GetTransferInput) (*GetTransferOutput, error) {
		transfer, err := transfers.GetTransfer(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTransferOutput{Body: toTransferResponse(transfer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-transfers",
		Method:      http.MethodGet,
		Path:        "/api/v1/transfers",
		Summary:     "List transfers",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *ListTransfersInput) (*ListTransfersOutput, error) {
		filter := domain.TransferFilter{
			TenantID: input.TenantID,
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if input.State != "" {
			s := domain.State(input.State)
			filter.State = &s
		}

		list, err := transfers.ListTransfers(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]TransferResponse, len(list))
		for i, t := range list {
			resp[i] = toTransferResponse(t)
		}
		return &ListTransfersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-transfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{id}/approve",
		Summary:     "Approve a transfer, holding the granted stock",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *ApproveTransferInput) (*ApproveTransferOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		var lines []app.ApprovedLine
		for _, l := range input.Body.Lines {
			lines = append(lines, app.ApprovedLine{AssetID: l.AssetID, Quantity: l.Quantity})
		}

		transfer, err := transfers.Approve(ctx, input.ID, actor, lines)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApproveTransferOutput{Body: toTransferResponse(transfer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-transfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{id}/reject",
		Summary:     "Reject a transfer",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *RejectTransferInput) (*RejectTransferOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		transfer, err := transfers.Reject(ctx, input.ID, actor, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RejectTransferOutput{Body: toTransferResponse(transfer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-transfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{id}/cancel",
		Summary:     "Cancel a transfer before it leaves the origin",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *CancelTransferInput) (*CancelTransferOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		transfer, err := transfers.Cancel(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CancelTransferOutput{Body: toTransferResponse(transfer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "issue-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{id}/issue",
		Summary:     "Issue the transfer order with its confirmation token",
		Tags:        []string{"Transfers"},
	}, func(ctx context.Context, input *IssueOrderInput) (*IssueOrderOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		transfer, token, err := transfers.IssueOrder(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &IssueOrderOutput{}
		out.Body.Transfer = toTransferResponse(transfer)
		out.Body.Token = token.ID
		out.Body.Signature = token.Signature
		out.Body.ExpiresAt = formatTime(token.ExpiresAt)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-transfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/confirm",
		Summary:     "Confirm a departure or receipt scan",
		Description: "Public endpoint for QR code scans; authenticated by the signed token, not a bearer token.",
		Tags:        []string{"Confirmation"},
	}, func(ctx context.Context, input *ConfirmInput) (*ConfirmOutput, error) {
		result, err := transfers.Confirm(ctx, input.Body.Token, input.Body.Signature,
			domain.ConfirmationAction(input.Body.Action), input.Body.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ConfirmOutput{}
		out.Body.Transfer = toTransferResponse(result.Transfer)
		out.Body.Signature = SignatureResponse{Actor: result.Signature.Actor, At: formatTime(result.Signature.At)}
		out.Body.AlreadyConfirmed = result.AlreadyConfirmed
		return out, nil
	})
}

// requireActor extracts the authenticated actor placed by the auth
// middleware.
func requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, huma.Error401Unauthorized("authentication required")
	}
	return actor, nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenantNotFound),
		errors.Is(err, domain.ErrSubUnitNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrTransferNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		return huma.Error401Unauthorized("invalid confirmation token")
	case errors.Is(err, domain.ErrTokenExpired):
		return huma.Error410Gone("confirmation token expired")
	case errors.Is(err, domain.ErrUnavailable):
		return huma.Error503ServiceUnavailable("temporarily unavailable, retry later")
	case errors.Is(err, domain.ErrNoLines),
		errors.Is(err, domain.ErrReasonRequired),
		errors.Is(err, domain.ErrQuantityExceedsRequest):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var pairErr *domain.InvalidTenantPairError
	if errors.As(err, &pairErr) {
		return huma.Error422UnprocessableEntity(pairErr.Error())
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return huma.Error409Conflict(stockErr.Error())
	}

	var resErr *domain.ReservationConflictError
	if errors.As(err, &resErr) {
		return huma.Error409Conflict(resErr.Error())
	}

	var stateErr *domain.WrongStateError
	if errors.As(err, &stateErr) {
		return huma.Error422UnprocessableEntity(stateErr.Error())
	}

	var forbiddenErr *domain.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return huma.Error403Forbidden(forbiddenErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
