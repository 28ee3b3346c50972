package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

func TestNewTransferRequest(t *testing.T) {
	before := time.Now().UTC()
	lines := []domain.Line{{AssetID: "asset-1", SKU: "PIPE-01", Requested: 5}}
	tr := domain.NewTransferRequest("id-1", "ORD2026080001",
		"tenant-a", "unit-a", "tenant-b", "unit-b",
		lines, "user-1", "site restock", domain.PriorityHigh)
	after := time.Now().UTC()

	if tr.ID != "id-1" {
		t.Errorf("ID = %q, want %q", tr.ID, "id-1")
	}
	if tr.OrderNumber != "ORD2026080001" {
		t.Errorf("OrderNumber = %q, want %q", tr.OrderNumber, "ORD2026080001")
	}
	if tr.State != domain.StateRequested {
		t.Errorf("State = %q, want %q", tr.State, domain.StateRequested)
	}
	if tr.Priority != domain.PriorityHigh {
		t.Errorf("Priority = %q, want %q", tr.Priority, domain.PriorityHigh)
	}
	if len(tr.Lines) != 1 || tr.Lines[0].Approved != 0 {
		t.Errorf("Lines = %+v, want one line with Approved 0", tr.Lines)
	}
	if tr.RequestedAt.Before(before) || tr.RequestedAt.After(after) {
		t.Errorf("RequestedAt = %v, want between %v and %v", tr.RequestedAt, before, after)
	}
	if tr.UpdatedAt != tr.RequestedAt {
		t.Errorf("UpdatedAt should equal RequestedAt on new transfer")
	}
}

func TestNewTransferRequest_DefaultPriority(t *testing.T) {
	tr := domain.NewTransferRequest("id-1", "ORD2026080001",
		"tenant-a", "unit-a", "tenant-b", "unit-b",
		nil, "user-1", "restock", "")

	if tr.Priority != domain.PriorityMedium {
		t.Errorf("Priority = %q, want %q", tr.Priority, domain.PriorityMedium)
	}
}

func TestState_Terminal(t *testing.T) {
	terminal := []domain.State{domain.StateCompleted, domain.StateRejected, domain.StateCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%q.Terminal() = false, want true", s)
		}
	}

	active := []domain.State{domain.StateRequested, domain.StateApproved, domain.StateOrderIssued, domain.StateInTransit}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%q.Terminal() = true, want false", s)
		}
	}
}

func TestTransitions_ValidPaths(t *testing.T) {
	// Happy path plus every allowed decline and withdrawal.
	cases := []struct {
		event domain.Event
		src   domain.State
		dst   domain.State
	}{
		{domain.EventApprove, domain.StateRequested, domain.StateApproved},
		{domain.EventIssue, domain.StateApproved, domain.StateOrderIssued},
		{domain.EventDepart, domain.StateOrderIssued, domain.StateInTransit},
		{domain.EventReceive, domain.StateInTransit, domain.StateCompleted},
		{domain.EventReject, domain.StateRequested, domain.StateRejected},
		{domain.EventReject, domain.StateApproved, domain.StateRejected},
		{domain.EventCancel, domain.StateRequested, domain.StateCancelled},
		{domain.EventCancel, domain.StateApproved, domain.StateCancelled},
		{domain.EventCancel, domain.StateOrderIssued, domain.StateCancelled},
	}

	for _, tc := range cases {
		found := false
		for _, tr := range domain.Transitions {
			if tr.Event == tc.event && tr.Src == tc.src && tr.Dst == tc.dst {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing transition: %q from %q to %q", tc.event, tc.src, tc.dst)
		}
	}
}

func TestTransitions_InvalidPaths(t *testing.T) {
	// These transitions must NOT exist.
	invalid := []struct {
		event domain.Event
		src   domain.State
	}{
		{domain.EventApprove, domain.StateApproved},
		{domain.EventIssue, domain.StateRequested},
		{domain.EventDepart, domain.StateApproved},
		{domain.EventReceive, domain.StateOrderIssued},
		{domain.EventReject, domain.StateOrderIssued},
		{domain.EventReject, domain.StateInTransit},
		{domain.EventCancel, domain.StateInTransit},
		{domain.EventCancel, domain.StateCompleted},
	}

	for _, tc := range invalid {
		for _, tr := range domain.Transitions {
			if tr.Event == tc.event && tr.Src == tc.src {
				t.Errorf("unexpected transition: %q from %q should not exist", tc.event, tc.src)
			}
		}
	}
}

func TestTransitions_NoEscapeFromTerminal(t *testing.T) {
	for _, tr := range domain.Transitions {
		if tr.Src.Terminal() {
			t.Errorf("transition %q leaves terminal state %q", tr.Event, tr.Src)
		}
	}
}
