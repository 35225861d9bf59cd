package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

func TestCanCancelBeforeDeadline(t *testing.T) {
	cp := NewCancellationPolicy(testPolicies())
	res := model.Reservation{
		ID:       "r1",
		Status:   model.StatusConfirmed,
		Interval: model.NewInterval(feb(10), feb(12)),
	}
	// Two days out: well before the 24h deadline.
	if err := cp.CanCancel(res, "economy", feb(8)); err != nil {
		t.Fatalf("cancel two days out: %v", err)
	}
	// Exactly 25 hours before the start is still allowed.
	if err := cp.CanCancel(res, "economy", feb(10).Add(-25*time.Hour)); err != nil {
		t.Fatalf("cancel 25h out: %v", err)
	}
}

func TestCanCancelInsideDeadline(t *testing.T) {
	cp := NewCancellationPolicy(testPolicies())
	res := model.Reservation{
		ID:       "r1",
		Status:   model.StatusConfirmed,
		Interval: model.NewInterval(feb(10), feb(12)),
	}
	// Fifteen hours before the start: inside the 24h window.
	err := cp.CanCancel(res, "economy", feb(10).Add(-15*time.Hour))
	if !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("cancel inside deadline: got %v", err)
	}
}

func TestCanCancelTerminalStates(t *testing.T) {
	cp := NewCancellationPolicy(testPolicies())
	for _, s := range []model.Status{model.StatusCompleted, model.StatusCancelled, model.StatusRefunded} {
		res := model.Reservation{ID: "r1", Status: s, Interval: model.NewInterval(feb(10), feb(12))}
		if err := cp.CanCancel(res, "economy", feb(1)); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("cancel %s: got %v", s, err)
		}
	}
}

func TestRefundAmount(t *testing.T) {
	cp := NewCancellationPolicy(testPolicies())

	paid := model.Reservation{CostCents: 20000, PaymentStatus: model.PaymentPaid}
	if got := cp.Refund(paid, "economy"); got != 18000 {
		t.Fatalf("paid refund = %d, want 18000", got)
	}

	unpaid := model.Reservation{CostCents: 20000, PaymentStatus: model.PaymentUnpaid}
	if got := cp.Refund(unpaid, "economy"); got != 0 {
		t.Fatalf("unpaid refund = %d, want 0", got)
	}
}
