package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/trasvase/internal/adapter/fsm"
	"github.com/neomorfeo/trasvase/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Can't confirm a departure before the order document exists.
	_, err := v.Apply(ctx, domain.StateApproved, domain.EventDepart)
	var stateErr *domain.WrongStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected WrongStateError, got %v", err)
	}
	if stateErr.Event != domain.EventDepart {
		t.Errorf("event = %q, want %q", stateErr.Event, domain.EventDepart)
	}
	if stateErr.Current != domain.StateApproved {
		t.Errorf("current = %q, want %q", stateErr.Current, domain.StateApproved)
	}
}

func TestValidator_FullLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.State
		event domain.Event
		want  domain.State
	}{
		{domain.StateRequested, domain.EventApprove, domain.StateApproved},
		{domain.StateApproved, domain.EventIssue, domain.StateOrderIssued},
		{domain.StateOrderIssued, domain.EventDepart, domain.StateInTransit},
		{domain.StateInTransit, domain.EventReceive, domain.StateCompleted},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_CancelFromOrderIssued(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Cancel is valid from "requested", "approved" and "order_issued".
	got, err := v.Apply(ctx, domain.StateOrderIssued, domain.EventCancel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.StateCancelled {
		t.Errorf("got %q, want %q", got, domain.StateCancelled)
	}
}

func TestValidator_RejectNotAllowedAfterIssue(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	_, err := v.Apply(ctx, domain.StateOrderIssued, domain.EventReject)
	var stateErr *domain.WrongStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected WrongStateError, got %v", err)
	}
}

func TestValidator_TerminalStatesAreFinal(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	events := []domain.Event{
		domain.EventApprove, domain.EventIssue, domain.EventDepart,
		domain.EventReceive, domain.EventReject, domain.EventCancel,
	}
	for _, state := range []domain.State{domain.StateCompleted, domain.StateRejected, domain.StateCancelled} {
		for _, event := range events {
			if _, err := v.Apply(ctx, state, event); err == nil {
				t.Errorf("Apply(%q, %q) succeeded, want error", state, event)
			}
		}
	}
}
