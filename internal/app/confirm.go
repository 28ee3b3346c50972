package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// ConfirmResult is the outcome of a confirmation scan. AlreadyConfirmed
// reports that the scan was a replay: the stored signature is returned and
// nothing changed.
type ConfirmResult struct {
	Transfer         domain.TransferRequest
	Signature        domain.Signature
	AlreadyConfirmed bool
}

// Confirm processes a QR scan against the public gateway. The token is
// resolved to its transfer, verified, and the matching transition applied:
// departure moves order_issued to in_transit, receipt moves in_transit to
// completed and settles the held stock at the destination. Repeating a
// scan for an action already confirmed is idempotent.
func (s *TransferService) Confirm(ctx context.Context, tokenID, signature string, action domain.ConfirmationAction, actorLabel string) (ConfirmResult, error) {
	tr, err := s.store.Transfers().GetByToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			// An unknown token id and a forged one are indistinguishable
			// to the caller.
			return ConfirmResult{}, domain.ErrInvalidToken
		}
		return ConfirmResult{}, err
	}

	switch s.signer.Verify(tr.TokenID, tr.ID, signature, tr.TokenIssuedAt, tr.TokenExpiresAt) {
	case domain.TokenValid:
	case domain.TokenExpired:
		return ConfirmResult{}, domain.ErrTokenExpired
	default:
		return ConfirmResult{}, domain.ErrInvalidToken
	}

	if actorLabel == "" {
		actorLabel = "qr-scan"
	}

	switch action {
	case domain.ActionDeparture:
		return s.confirmDeparture(ctx, tr.ID, actorLabel)
	case domain.ActionReceipt:
		return s.confirmReceipt(ctx, tr.ID, actorLabel)
	default:
		return ConfirmResult{}, fmt.Errorf("unknown confirmation action %q: %w", action, domain.ErrInvalidToken)
	}
}

func (s *TransferService) confirmDeparture(ctx context.Context, transferID, actorLabel string) (ConfirmResult, error) {
	var out ConfirmResult
	err := s.atomically(ctx, func(st domain.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if tr.DepartureSignature != nil {
			out = ConfirmResult{Transfer: tr, Signature: *tr.DepartureSignature, AlreadyConfirmed: true}
			return nil
		}

		next, err := s.validator.Apply(ctx, tr.State, domain.EventDepart)
		if err != nil {
			return err
		}

		// Second precision matches what the store round-trips.
		sig := domain.Signature{Actor: actorLabel, At: time.Now().UTC().Truncate(time.Second)}
		if err := st.Transfers().Transition(ctx, tr.ID, domain.EventDepart, tr.State, next, domain.TransferPatch{
			DepartureSignature: &sig,
		}); err != nil {
			return err
		}

		for _, l := range tr.Lines {
			if l.Approved == 0 {
				continue
			}
			if err := st.Assets().SetState(ctx, l.AssetID, domain.AssetInTransit); err != nil {
				return err
			}
			ev := domain.NewHistoryEvent(l.AssetID, actorLabel, domain.KindDeparture,
				fmt.Sprintf("%d units departed under order %s", l.Approved, tr.OrderNumber))
			if err := st.History().Append(ctx, ev); err != nil {
				return err
			}
		}

		tr, err = st.Transfers().GetByID(ctx, tr.ID)
		if err != nil {
			return err
		}
		out = ConfirmResult{Transfer: tr, Signature: sig}
		return nil
	})
	if err != nil {
		// A concurrent scan may have won the compare-and-set with the same
		// action; re-read and answer idempotently.
		if replay, ok := s.replayResult(ctx, transferID, domain.ActionDeparture, err); ok {
			return replay, nil
		}
		return ConfirmResult{}, err
	}

	if !out.AlreadyConfirmed {
		s.notify(ctx, "transfer.departed", out.Transfer, out.Transfer.DestTenantID)
	}
	return out, nil
}

func (s *TransferService) confirmReceipt(ctx context.Context, transferID, actorLabel string) (ConfirmResult, error) {
	var out ConfirmResult
	err := s.atomically(ctx, func(st domain.Store) error {
		tr, err := st.Transfers().GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if tr.ReceiptSignature != nil {
			out = ConfirmResult{Transfer: tr, Signature: *tr.ReceiptSignature, AlreadyConfirmed: true}
			return nil
		}

		next, err := s.validator.Apply(ctx, tr.State, domain.EventReceive)
		if err != nil {
			return err
		}

		// Second precision matches what the store round-trips.
		sig := domain.Signature{Actor: actorLabel, At: time.Now().UTC().Truncate(time.Second)}
		if err := st.Transfers().Transition(ctx, tr.ID, domain.EventReceive, tr.State, next, domain.TransferPatch{
			ReceiptSignature: &sig,
		}); err != nil {
			return err
		}

		for _, l := range tr.Lines {
			if l.Approved == 0 {
				continue
			}
			dest, err := s.destinationAsset(ctx, st, tr, l, actorLabel)
			if err != nil {
				return err
			}
			if err := st.Guard().Finalize(ctx, l.AssetID, l.Approved, dest.ID); err != nil {
				return err
			}
			if err := st.Assets().SetState(ctx, l.AssetID, domain.AssetAvailable); err != nil {
				return err
			}
			if err := st.Assets().SetState(ctx, dest.ID, domain.AssetAvailable); err != nil {
				return err
			}

			detail := fmt.Sprintf("%d units received under order %s", l.Approved, tr.OrderNumber)
			if err := st.History().Append(ctx, domain.NewHistoryEvent(l.AssetID, actorLabel, domain.KindReceipt, detail)); err != nil {
				return err
			}
			if err := st.History().Append(ctx, domain.NewHistoryEvent(dest.ID, actorLabel, domain.KindReceipt, detail)); err != nil {
				return err
			}
		}

		tr, err = st.Transfers().GetByID(ctx, tr.ID)
		if err != nil {
			return err
		}
		out = ConfirmResult{Transfer: tr, Signature: sig}
		return nil
	})
	if err != nil {
		if replay, ok := s.replayResult(ctx, transferID, domain.ActionReceipt, err); ok {
			return replay, nil
		}
		return ConfirmResult{}, err
	}

	if !out.AlreadyConfirmed {
		s.notify(ctx, "transfer.completed", out.Transfer, out.Transfer.OriginTenantID)
	}
	return out, nil
}

// destinationAsset resolves the receiving record for a line, creating an
// empty one at the destination location when the SKU is not stocked there
// yet. The origin asset's catalog data is carried over.
func (s *TransferService) destinationAsset(ctx context.Context, st domain.Store, tr domain.TransferRequest, l domain.Line, actorLabel string) (domain.Asset, error) {
	dest, err := st.Assets().FindBySKU(ctx, tr.DestTenantID, tr.DestSubUnitID, l.SKU)
	if err == nil {
		return dest, nil
	}
	if !errors.Is(err, domain.ErrAssetNotFound) {
		return domain.Asset{}, err
	}

	origin, err := st.Assets().GetByID(ctx, l.AssetID)
	if err != nil {
		return domain.Asset{}, err
	}

	dest = domain.NewAsset(newID(), origin.SKU, origin.Name, origin.Type, tr.DestTenantID, tr.DestSubUnitID, 0)
	if err := st.Assets().Create(ctx, dest); err != nil {
		return domain.Asset{}, err
	}
	ev := domain.NewHistoryEvent(dest.ID, actorLabel, domain.KindCreation,
		fmt.Sprintf("created for incoming order %s", tr.OrderNumber))
	if err := st.History().Append(ctx, ev); err != nil {
		return domain.Asset{}, err
	}
	return dest, nil
}

// replayResult checks whether a failed confirmation was in fact a lost
// race against an identical scan, in which case the stored outcome is
// returned as an idempotent replay.
func (s *TransferService) replayResult(ctx context.Context, transferID string, action domain.ConfirmationAction, cause error) (ConfirmResult, bool) {
	var wrong *domain.WrongStateError
	if !errors.As(cause, &wrong) {
		return ConfirmResult{}, false
	}

	tr, err := s.store.Transfers().GetByID(ctx, transferID)
	if err != nil {
		return ConfirmResult{}, false
	}

	var sig *domain.Signature
	switch action {
	case domain.ActionDeparture:
		sig = tr.DepartureSignature
	case domain.ActionReceipt:
		sig = tr.ReceiptSignature
	}
	if sig == nil {
		return ConfirmResult{}, false
	}
	return ConfirmResult{Transfer: tr, Signature: *sig, AlreadyConfirmed: true}, true
}
