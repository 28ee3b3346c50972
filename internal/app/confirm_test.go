package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// issueTransfer walks a 6-unit transfer through request, approval and
// order issue, returning the transfer and its confirmation token.
func issueTransfer(t *testing.T, e *testEngine) (domain.TransferRequest, domain.ConfirmationToken) {
	t.Helper()
	ctx := context.Background()

	tr := mustRequest(t, e, 6)
	mustApprove(t, e, tr.ID)
	issued, token, err := e.svc.IssueOrder(ctx, tr.ID, originOperator)
	if err != nil {
		t.Fatalf("IssueOrder failed: %v", err)
	}
	return issued, token
}

func TestConfirm_FullFlow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tr, token := issueTransfer(t, e)

	// Departure scan at the origin.
	dep, err := e.svc.Confirm(ctx, token.ID, token.Signature, domain.ActionDeparture, "warehouse gate a")
	if err != nil {
		t.Fatalf("Confirm(departure) failed: %v", err)
	}
	if dep.Transfer.State != domain.StateInTransit {
		t.Errorf("State = %q, want %q", dep.Transfer.State, domain.StateInTransit)
	}
	if dep.AlreadyConfirmed {
		t.Error("first departure scan reported as replay")
	}
	if dep.Signature.Actor != "warehouse gate a" {
		t.Errorf("Signature.Actor = %q, want %q", dep.Signature.Actor, "warehouse gate a")
	}

	origin, _ := e.store.Assets().GetByID(ctx, "asset-1")
	if origin.State != domain.AssetInTransit {
		t.Errorf("origin asset state = %q, want %q", origin.State, domain.AssetInTransit)
	}

	// Receipt scan at the destination.
	rec, err := e.svc.Confirm(ctx, token.ID, token.Signature, domain.ActionReceipt, "dock b")
	if err != nil {
		t.Fatalf("Confirm(receipt) failed: %v", err)
	}
	if rec.Transfer.State != domain.StateCompleted {
		t.Errorf("State = %q, want %q", rec.Transfer.State, domain.StateCompleted)
	}
	if rec.Transfer.DepartureSignature == nil || rec.Transfer.ReceiptSignature == nil {
		t.Error("completed transfer missing confirmation signatures")
	}

	// The hold settled: 6 units left the origin and landed at a
	// destination record created for the SKU.
	origin, _ = e.store.Assets().GetByID(ctx, "asset-1")
	if origin.Available != 4 || origin.Reserved != 0 {
		t.Errorf("origin = %d/%d, want 4/0", origin.Available, origin.Reserved)
	}
	if origin.State != domain.AssetAvailable {
		t.Errorf("origin state = %q, want %q", origin.State, domain.AssetAvailable)
	}

	dest, err := e.store.Assets().FindBySKU(ctx, "tenant-b", "unit-b", "PIPE-01")
	if err != nil {
		t.Fatalf("destination asset not created: %v", err)
	}
	if dest.Available != 6 || dest.Reserved != 0 {
		t.Errorf("dest = %d/%d, want 6/0", dest.Available, dest.Reserved)
	}

	// The origin asset's history reads in workflow order.
	events, _ := e.store.History().History(ctx, "asset-1")
	var kinds []domain.EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := []domain.EventKind{domain.KindCreation, domain.KindReservation, domain.KindDeparture, domain.KindReceipt}
	if len(kinds) != len(want) {
		t.Fatalf("history kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("history[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}

	// The destination record carries its own creation and receipt trail.
	destEvents, _ := e.store.History().History(ctx, dest.ID)
	if len(destEvents) != 2 || destEvents[0].Kind != domain.KindCreation || destEvents[1].Kind != domain.KindReceipt {
		t.Errorf("dest history = %+v, want creation then receipt", destEvents)
	}

	_ = tr
}

func TestConfirm_ReceiptIntoExistingAsset(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// The destination already stocks the SKU; no new record is created.
	existing := domain.NewAsset("asset-b", "PIPE-01", "Steel pipe", domain.TypePipe, "tenant-b", "unit-b", 2)
	if err := e.store.Assets().Create(ctx, existing); err != nil {
		t.Fatalf("seeding asset: %v", err)
	}

	_, token := issueTransfer(t, e)
	if _, err := e.svc.Confirm(ctx, token.ID, token.Signature, domain.ActionDeparture, "gate"); err != nil {
		t.Fatalf("Confirm(departure) failed: %v", err)
	}
	if _, err := e.svc.Confirm(ctx, token.ID, token.Signature, domain.ActionReceipt, "dock"); err != nil {
		t.Fatalf("Confirm(receipt) failed: %v", err)
	}

	dest, _ := e.store.Assets().GetByID(ctx, "asset-b")
	if dest.Available != 8 {
		t.Errorf("dest available = %d, want 8", dest.Available)
	}
}

func TestConfirm_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, token := issueTransfer(t, e)

	first, err := e.svc.Confirm(ctx, token.ID, token.Signature, domain.ActionDeparture, "gate")
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	events, _ := e.store.History().History(ctx, "asset-1")
	countAfterFirst := len(events)

	// The same scan again returns the stored outcome and changes nothing.
	second, err := e.svc.Confirm(ctx, token.ID, token.Signature, domain.ActionDeparture, "someone else")
	if err != nil {
		t.Fatalf("repeated Confirm failed: %v", err)
	}
	if !second.AlreadyConfirmed {
		t.Error("repeat scan not reported as replay")
	}
	if second.Signature.Actor != first.Signature.Actor {
		t.Errorf("replay actor = %q, want original %q", second.Signature.Actor, first.Signature.Actor)
	}
	if !second.Signature.At.Equal(first.Signature.At) {
		t.Errorf("replay timestamp = %v, want original %v", second.Signature.At, first.Signature.At)
	}

	events, _ = e.store.History().History(ctx, "asset-1")
	if len(events) != countAfterFirst {
		t.Errorf("replay appended history: %d events, want %d", len(events), countAfterFirst)
	}
}

func TestConfirm_ReceiptBeforeDeparture(t *testing.T) {
	e := newTestEngine(t)

	_, token := issueTransfer(t, e)

	_, err := e.svc.Confirm(context.Background(), token.ID, token.Signature, domain.ActionReceipt, "dock")
	var stateErr *domain.WrongStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected WrongStateError, got %v", err)
	}
}

func TestConfirm_UnknownToken(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.svc.Confirm(context.Background(), "no-such-token", "sig", domain.ActionDeparture, "gate")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestConfirm_TamperedSignature(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, token := issueTransfer(t, e)

	_, err := e.svc.Confirm(ctx, token.ID, "forged", domain.ActionDeparture, "gate")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}

	// The failed scan changed nothing.
	tr, _ := e.store.Transfers().GetByToken(ctx, token.ID)
	if tr.State != domain.StateOrderIssued {
		t.Errorf("State = %q, want %q", tr.State, domain.StateOrderIssued)
	}
}

func TestConfirm_ExpiredToken(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Plant a token whose validity window closed a day ago. The signature
	// is correct for the window; only the expiry rejects it.
	tr := mustRequest(t, e, 6)
	mustApprove(t, e, tr.ID)

	tokenID := "expiredtoken"
	issuedAt := time.Now().UTC().Add(-8 * 24 * time.Hour).Truncate(time.Second)
	expiresAt := issuedAt.Add(7 * 24 * time.Hour)
	err := e.store.Transfers().Transition(ctx, tr.ID, domain.EventIssue,
		domain.StateApproved, domain.StateOrderIssued,
		domain.TransferPatch{TokenID: &tokenID, TokenIssuedAt: &issuedAt, TokenExpiresAt: &expiresAt})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	signature := e.signer.Signature(tokenID, tr.ID, issuedAt, expiresAt)
	_, err = e.svc.Confirm(ctx, tokenID, signature, domain.ActionDeparture, "gate")
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}

	// The stale token still cannot move the transfer.
	got, _ := e.store.Transfers().GetByID(ctx, tr.ID)
	if got.State != domain.StateOrderIssued {
		t.Errorf("State = %q, want %q", got.State, domain.StateOrderIssued)
	}
}
