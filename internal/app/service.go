package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// retryBackoff is the pause before the single retry of a failed store
// transaction.
const retryBackoff = 100 * time.Millisecond

// TransferService orchestrates the external transfer workflow: it owns the
// state machine and invokes the stock guard, token signer and history
// recorder at transitions.
type TransferService struct {
	store     domain.Store
	validator domain.TransitionValidator
	signer    domain.TokenSigner
	notifier  domain.Notifier
	renders   domain.RenderQueue
	tokenTTL  time.Duration
}

// NewTransferService creates a service with the given adapters.
func NewTransferService(store domain.Store, validator domain.TransitionValidator, signer domain.TokenSigner, notifier domain.Notifier, renders domain.RenderQueue, tokenTTL time.Duration) *TransferService {
	return &TransferService{
		store:     store,
		validator: validator,
		signer:    signer,
		notifier:  notifier,
		renders:   renders,
		tokenTTL:  tokenTTL,
	}
}

// RequestedLine is one asset position on a new transfer request.
type RequestedLine struct {
	AssetID  string
	Quantity int64
}

// RequestInput carries everything needed to open a transfer request.
type RequestInput struct {
	OriginTenantID  string
	OriginSubUnitID string
	DestTenantID    string
	DestSubUnitID   string
	Lines           []RequestedLine
	Reason          string
	Priority        domain.Priority
}

// Request opens a cross-tenant transfer in state "requested". Stock is
// soft-checked against current availability; nothing is reserved until
// approval.
func (s *TransferService) Request(ctx context.Context, in RequestInput, actor domain.Actor) (domain.TransferRequest, error) {
	if in.OriginTenantID == in.DestTenantID {
		return domain.TransferRequest{}, &domain.InvalidTenantPairError{TenantID: in.OriginTenantID}
	}
	if len(in.Lines) == 0 {
		return domain.TransferRequest{}, domain.ErrNoLines
	}
	if in.Reason == "" {
		return domain.TransferRequest{}, domain.ErrReasonRequired
	}
	if actor.Role != domain.RoleCoordinator && actor.TenantID != in.OriginTenantID {
		return domain.TransferRequest{}, &domain.ForbiddenError{Actor: actor.ID, Action: "request a transfer for another tenant"}
	}

	var out domain.TransferRequest
	err := s.atomically(ctx, func(st domain.Store) error {
		if err := checkLocation(ctx, st, in.OriginTenantID, in.OriginSubUnitID); err != nil {
			return err
		}
		if err := checkLocation(ctx, st, in.DestTenantID, in.DestSubUnitID); err != nil {
			return err
		}

		lines := make([]domain.Line, 0, len(in.Lines))
		for _, l := range in.Lines {
			asset, err := st.Assets().GetByID(ctx, l.AssetID)
			if err != nil {
				return err
			}
			if asset.TenantID != in.OriginTenantID {
				return fmt.Errorf("asset %q is not held by the origin tenant: %w", l.AssetID, domain.ErrAssetNotFound)
			}
			if l.Quantity <= 0 || l.Quantity > asset.Available {
				return &domain.InsufficientStockError{AssetID: l.AssetID, Requested: l.Quantity, Available: asset.Available}
			}
			lines = append(lines, domain.Line{AssetID: asset.ID, SKU: asset.SKU, Requested: l.Quantity})
		}

		prefix := "ORD" + time.Now().UTC().Format("200601")
		seq, err := st.Transfers().NextOrderSeq(ctx, prefix)
		if err != nil {
			return fmt.Errorf("allocating order number: %w", err)
		}

		out = domain.NewTransferRequest(
			newID(), fmt.Sprintf("%s%04d", prefix, seq),
			in.OriginTenantID, in.OriginSubUnitID,
			in.DestTenantID, in.DestSubUnitID,
			lines, actor.ID, in.Reason, in.Priority,
		)
		return st.Transfers().Create(ctx, out)
	})
	if err != nil {
		return domain.TransferRequest{}, err
	}

	s.notify(ctx, "transfer.requested", out, out.DestTenantID)
	return out, nil
}

// ApprovedLine grants a quantity for one asset on a transfer.
type ApprovedLine struct {
	AssetID  string
	Quantity int64
}

// Approve moves a requested transfer to "approved", holding the granted
// quantities against the origin assets. Holds are all-or-nothing: if any
// asset cannot cover its line, the whole approval fails and no hold
// remains.
func (s *TransferService) Approve(ctx context.Context, transferID string, actor domain.Actor, approved []ApprovedLine) (domain.TransferRequest, error) {
	var out domain.TransferRequest
	err := s.atomically(ctx, func(st domain.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleCoordinator && actor.TenantID != tr.DestTenantID {
			return &domain.ForbiddenError{Actor: actor.ID, Action: "approve this transfer"}
		}
		next, err := s.validator.Apply(ctx, tr.State, domain.EventApprove)
		if err != nil {
			return err
		}

		lines, err := grantLines(tr.Lines, approved)
		if err != nil {
			return err
		}

		if err := st.Transfers().Transition(ctx, tr.ID, domain.EventApprove, tr.State, next, domain.TransferPatch{
			ApprovedBy:    &actor.ID,
			ApprovedLines: lines,
		}); err != nil {
			return err
		}

		for _, l := range lines {
			if l.Approved == 0 {
				continue
			}
			if err := st.Guard().Hold(ctx, l.AssetID, l.Approved); err != nil {
				var short *domain.InsufficientStockError
				if errors.As(err, &short) {
					return &domain.ReservationConflictError{AssetID: l.AssetID}
				}
				return err
			}
			if err := st.Assets().SetState(ctx, l.AssetID, domain.AssetReserved); err != nil {
				return err
			}
			ev := domain.NewHistoryEvent(l.AssetID, actor.ID, domain.KindReservation,
				fmt.Sprintf("%d units held for order %s", l.Approved, tr.OrderNumber))
			if err := st.History().Append(ctx, ev); err != nil {
				return err
			}
		}

		out, err = st.Transfers().GetByID(ctx, tr.ID)
		return err
	})
	if err != nil {
		return domain.TransferRequest{}, err
	}

	s.notify(ctx, "transfer.approved", out, out.OriginTenantID)
	return out, nil
}

// grantLines merges the approved quantities into the requested lines. A
// nil grant approves every line in full; an explicit grant caps each line
// and leaves unmentioned lines at zero.
func grantLines(requested []domain.Line, approved []ApprovedLine) ([]domain.Line, error) {
	granted := make(map[string]int64, len(approved))
	for _, a := range approved {
		granted[a.AssetID] = a.Quantity
	}
	for id := range granted {
		found := false
		for _, l := range requested {
			if l.AssetID == id {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("asset %q is not on this transfer: %w", id, domain.ErrAssetNotFound)
		}
	}

	out := make([]domain.Line, len(requested))
	for i, l := range requested {
		qty := l.Requested
		if approved != nil {
			qty = granted[l.AssetID]
		}
		if qty < 0 || qty > l.Requested {
			return nil, fmt.Errorf("asset %q: %w", l.AssetID, domain.ErrQuantityExceedsRequest)
		}
		l.Approved = qty
		out[i] = l
	}
	return out, nil
}

// IssueOrder mints the confirmation token and moves an approved transfer
// to "order_issued". The token is returned exactly once; only its id and
// validity window are persisted, so a second call cannot mint a duplicate
// (it fails with WrongState).
func (s *TransferService) IssueOrder(ctx context.Context, transferID string, actor domain.Actor) (domain.TransferRequest, domain.ConfirmationToken, error) {
	var (
		out   domain.TransferRequest
		token domain.ConfirmationToken
	)
	err := s.atomically(ctx, func(st domain.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleCoordinator && actor.TenantID != tr.OriginTenantID {
			return &domain.ForbiddenError{Actor: actor.ID, Action: "issue the order for this transfer"}
		}
		next, err := s.validator.Apply(ctx, tr.State, domain.EventIssue)
		if err != nil {
			return err
		}

		token, err = s.signer.Issue(tr.ID, s.tokenTTL)
		if err != nil {
			return fmt.Errorf("minting confirmation token: %w", err)
		}

		if err := st.Transfers().Transition(ctx, tr.ID, domain.EventIssue, tr.State, next, domain.TransferPatch{
			TokenID:        &token.ID,
			TokenIssuedAt:  &token.IssuedAt,
			TokenExpiresAt: &token.ExpiresAt,
		}); err != nil {
			return err
		}

		out, err = st.Transfers().GetByID(ctx, tr.ID)
		return err
	})
	if err != nil {
		return domain.TransferRequest{}, domain.ConfirmationToken{}, err
	}

	if err := s.renders.EnqueueRender(ctx, out.ID); err != nil {
		slog.WarnContext(ctx, "enqueuing order render", "transfer_id", out.ID, "error", err)
	}
	s.notify(ctx, "transfer.order_issued", out, out.OriginTenantID)
	return out, token, nil
}

// Reject declines a transfer from "requested" or "approved", releasing any
// held stock. The reason is mandatory.
func (s *TransferService) Reject(ctx context.Context, transferID string, actor domain.Actor, reason string) (domain.TransferRequest, error) {
	if reason == "" {
		return domain.TransferRequest{}, domain.ErrReasonRequired
	}

	var out domain.TransferRequest
	err := s.atomically(ctx, func(st domain.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleCoordinator && actor.TenantID != tr.DestTenantID {
			return &domain.ForbiddenError{Actor: actor.ID, Action: "reject this transfer"}
		}
		out, err = s.terminate(ctx, st, tr, domain.EventReject, actor, reason)
		return err
	})
	if err != nil {
		return domain.TransferRequest{}, err
	}

	s.notify(ctx, "transfer.rejected", out, out.OriginTenantID)
	return out, nil
}

// Cancel withdraws a transfer before it is in transit. Only the
// requesting tenant may cancel.
func (s *TransferService) Cancel(ctx context.Context, transferID string, actor domain.Actor) (domain.TransferRequest, error) {
	var out domain.TransferRequest
	err := s.atomically(ctx, func(st domain.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if actor.TenantID != tr.OriginTenantID {
			return &domain.ForbiddenError{Actor: actor.ID, Action: "cancel this transfer"}
		}
		out, err = s.terminate(ctx, st, tr, domain.EventCancel, actor, "")
		return err
	})
	if err != nil {
		return domain.TransferRequest{}, err
	}

	s.notify(ctx, "transfer.cancelled", out, out.DestTenantID)
	return out, nil
}

// terminate applies a reject or cancel event and releases every hold the
// transfer still owns, all within the caller's transaction.
func (s *TransferService) terminate(ctx context.Context, st domain.Store, tr domain.TransferRequest, event domain.Event, actor domain.Actor, reason string) (domain.TransferRequest, error) {
	next, err := s.validator.Apply(ctx, tr.State, event)
	if err != nil {
		return domain.TransferRequest{}, err
	}

	patch := domain.TransferPatch{}
	if reason != "" {
		patch.Reason = &reason
	}
	if err := st.Transfers().Transition(ctx, tr.ID, event, tr.State, next, patch); err != nil {
		return domain.TransferRequest{}, err
	}

	// Holds exist only once the transfer passed approval.
	if tr.State == domain.StateApproved || tr.State == domain.StateOrderIssued {
		if err := s.releaseHolds(ctx, st, tr, actor.ID, string(event)); err != nil {
			return domain.TransferRequest{}, err
		}
	}

	return st.Transfers().GetByID(ctx, tr.ID)
}

func (s *TransferService) releaseHolds(ctx context.Context, st domain.Store, tr domain.TransferRequest, actor, cause string) error {
	for _, l := range tr.Lines {
		if l.Approved == 0 {
			continue
		}
		if err := st.Guard().Release(ctx, l.AssetID, l.Approved); err != nil {
			return err
		}
		if err := st.Assets().SetState(ctx, l.AssetID, domain.AssetAvailable); err != nil {
			return err
		}
		ev := domain.NewHistoryEvent(l.AssetID, actor, domain.KindRelease,
			fmt.Sprintf("%d units released (%s, order %s)", l.Approved, cause, tr.OrderNumber))
		if err := st.History().Append(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// SweepExpired rejects order_issued transfers whose confirmation token
// expired before now, releasing their holds. Invoked periodically; a
// transfer confirmed concurrently simply loses the compare-and-set and is
// skipped. Returns the number of transfers swept.
func (s *TransferService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.Transfers().ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing expired transfers: %w", err)
	}

	swept := 0
	for _, tr := range expired {
		actor := domain.Actor{ID: "system", Role: domain.RoleCoordinator}
		err := s.atomically(ctx, func(st domain.Store) error {
			cur, err := st.Transfers().GetByID(ctx, tr.ID)
			if err != nil {
				return err
			}
			if cur.State != domain.StateOrderIssued {
				return &domain.WrongStateError{Event: domain.EventReject, Current: cur.State}
			}
			reason := "confirmation token expired"
			if err := st.Transfers().Transition(ctx, cur.ID, domain.EventReject, cur.State, domain.StateRejected, domain.TransferPatch{Reason: &reason}); err != nil {
				return err
			}
			return s.releaseHolds(ctx, st, cur, actor.ID, "token expired")
		})
		if err != nil {
			var wrong *domain.WrongStateError
			if errors.As(err, &wrong) {
				continue
			}
			return swept, err
		}
		swept++
		s.notify(ctx, "transfer.expired", tr, tr.OriginTenantID)
	}
	return swept, nil
}

// MoveAsset relocates an available asset to another sub-unit of the same
// tenant, appending an internal_move event in the same transaction. This
// is the tenant-local path; it never crosses tenant boundaries.
func (s *TransferService) MoveAsset(ctx context.Context, assetID, destSubUnitID string, actor domain.Actor, reason string) (domain.Asset, error) {
	if reason == "" {
		return domain.Asset{}, domain.ErrReasonRequired
	}

	var out domain.Asset
	err := s.atomically(ctx, func(st domain.Store) error {
		asset, err := st.Assets().GetByID(ctx, assetID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleCoordinator && actor.TenantID != asset.TenantID {
			return &domain.ForbiddenError{Actor: actor.ID, Action: "move this asset"}
		}
		if asset.State != domain.AssetAvailable {
			return fmt.Errorf("asset %q is %s: %w", assetID, asset.State, domain.ErrAssetNotFound)
		}

		dest, err := st.Tenants().GetSubUnit(ctx, destSubUnitID)
		if err != nil {
			return err
		}
		if dest.TenantID != asset.TenantID {
			return fmt.Errorf("sub-unit %q belongs to another tenant: %w", destSubUnitID, domain.ErrSubUnitNotFound)
		}
		if dest.ID == asset.SubUnitID {
			return fmt.Errorf("asset %q is already at sub-unit %q: %w", assetID, destSubUnitID, domain.ErrSubUnitNotFound)
		}

		if err := st.Assets().SetLocation(ctx, assetID, dest.ID); err != nil {
			return err
		}
		ev := domain.NewHistoryEvent(assetID, actor.ID, domain.KindInternalMove,
			fmt.Sprintf("moved from %s to %s: %s", asset.SubUnitID, dest.ID, reason))
		if err := st.History().Append(ctx, ev); err != nil {
			return err
		}

		out, err = st.Assets().GetByID(ctx, assetID)
		return err
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return out, nil
}

// GetTransfer returns a transfer by id.
func (s *TransferService) GetTransfer(ctx context.Context, id string) (domain.TransferRequest, error) {
	return s.store.Transfers().GetByID(ctx, id)
}

// ListTransfers returns transfers matching the given filter.
func (s *TransferService) ListTransfers(ctx context.Context, filter domain.TransferFilter) ([]domain.TransferRequest, error) {
	return s.store.Transfers().List(ctx, filter)
}

// atomically runs fn in a store transaction, retrying once with backoff
// on a transient store failure. Domain errors pass through untouched;
// anything still failing after the retry surfaces as ErrUnavailable.
func (s *TransferService) atomically(ctx context.Context, fn func(domain.Store) error) error {
	err := s.store.InTx(ctx, fn)
	if err == nil || isDomainError(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryBackoff):
	}

	if err = s.store.InTx(ctx, fn); err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

// isDomainError reports whether err belongs to the workflow's error
// taxonomy, i.e. retrying cannot change the outcome.
func isDomainError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrTenantNotFound, domain.ErrSubUnitNotFound,
		domain.ErrAssetNotFound, domain.ErrTransferNotFound,
		domain.ErrInvalidToken, domain.ErrTokenExpired,
		domain.ErrNoLines, domain.ErrReasonRequired, domain.ErrQuantityExceedsRequest,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	var (
		pair      *domain.InvalidTenantPairError
		stock     *domain.InsufficientStockError
		conflict  *domain.ReservationConflictError
		state     *domain.WrongStateError
		forbidden *domain.ForbiddenError
	)
	return errors.As(err, &pair) || errors.As(err, &stock) ||
		errors.As(err, &conflict) || errors.As(err, &state) ||
		errors.As(err, &forbidden)
}

// notify emits a notification intent. Delivery is best-effort and happens
// outside any store transaction; a failed enqueue is logged, not surfaced.
func (s *TransferService) notify(ctx context.Context, kind string, tr domain.TransferRequest, tenantID string) {
	n := domain.Notification{
		Kind:       kind,
		TransferID: tr.ID,
		TenantID:   tenantID,
		Payload: map[string]string{
			"order_number": tr.OrderNumber,
			"state":        string(tr.State),
		},
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "emitting notification", "kind", kind, "transfer_id", tr.ID, "error", err)
	}
}

func checkLocation(ctx context.Context, st domain.Store, tenantID, subUnitID string) error {
	tenant, err := st.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !tenant.Active {
		return fmt.Errorf("tenant %q is inactive: %w", tenantID, domain.ErrTenantNotFound)
	}
	unit, err := st.Tenants().GetSubUnit(ctx, subUnitID)
	if err != nil {
		return err
	}
	if unit.TenantID != tenantID {
		return fmt.Errorf("sub-unit %q does not belong to tenant %q: %w", subUnitID, tenantID, domain.ErrSubUnitNotFound)
	}
	return nil
}
