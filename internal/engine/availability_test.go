package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/resource-reservation/internal/ledger"
	"github.com/iliyamo/resource-reservation/internal/model"
)

func confirmedReservation(id string, iv model.Interval) model.Reservation {
	return model.Reservation{
		ID:                 id,
		ResourceID:         "car-1",
		CustomerID:         "cust-1",
		Interval:           iv,
		Status:             model.StatusConfirmed,
		ConfirmationNumber: "RES-" + id,
	}
}

func TestReserveIfAvailable(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	store := ledger.NewMemory()
	a := NewAvailabilityChecker(store, clock)

	// Book Feb 10 -> Feb 12.
	if err := a.ReserveIfAvailable(ctx, confirmedReservation("r1", model.NewInterval(feb(10), feb(12)))); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Feb 11 -> Feb 13 overlaps and must be rejected.
	err := a.ReserveIfAvailable(ctx, confirmedReservation("r2", model.NewInterval(feb(11), feb(13))))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("overlapping booking: got %v", err)
	}

	// Feb 12 -> Feb 15 only touches the boundary and must succeed.
	if err := a.ReserveIfAvailable(ctx, confirmedReservation("r3", model.NewInterval(feb(12), feb(15)))); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestReserveRejectsPastInterval(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(feb(20))
	a := NewAvailabilityChecker(ledger.NewMemory(), clock)

	err := a.ReserveIfAvailable(ctx, confirmedReservation("r1", model.NewInterval(feb(10), feb(12))))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("past interval: got %v", err)
	}
}

func TestExpiredHoldDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	store := ledger.NewMemory()
	a := NewAvailabilityChecker(store, clock)

	hold := confirmedReservation("r1", model.NewInterval(feb(10), feb(12)))
	hold.Status = model.StatusPending
	hold.HoldExpiresAt = baseTime.Add(15 * time.Minute)
	if err := store.Insert(ctx, hold); err != nil {
		t.Fatalf("insert hold: %v", err)
	}

	// While the hold is live the interval is taken.
	if err := a.ReserveIfAvailable(ctx, confirmedReservation("r2", model.NewInterval(feb(10), feb(12)))); !errors.Is(err, ErrConflict) {
		t.Fatalf("live hold should block: got %v", err)
	}

	// After expiry the unswept hold is dead weight and must not block.
	clock.Advance(16 * time.Minute)
	if err := a.ReserveIfAvailable(ctx, confirmedReservation("r3", model.NewInterval(feb(10), feb(12)))); err != nil {
		t.Fatalf("expired hold should not block: %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	store := ledger.NewMemory()
	a := NewAvailabilityChecker(store, clock)

	if err := a.ReserveIfAvailable(ctx, confirmedReservation("r1", model.NewInterval(feb(10), feb(12)))); err != nil {
		t.Fatalf("booking: %v", err)
	}

	free, err := a.IsAvailable(ctx, "car-1", model.NewInterval(feb(11), feb(13)))
	if err != nil || free {
		t.Fatalf("overlap: free=%v err=%v", free, err)
	}
	free, err = a.IsAvailable(ctx, "car-1", model.NewInterval(feb(13), feb(14)))
	if err != nil || !free {
		t.Fatalf("clear window: free=%v err=%v", free, err)
	}
	// Other resources are unaffected.
	free, err = a.IsAvailable(ctx, "car-2", model.NewInterval(feb(11), feb(13)))
	if err != nil || !free {
		t.Fatalf("other resource: free=%v err=%v", free, err)
	}
}

func TestRescheduleExcludesOwnRow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	store := ledger.NewMemory()
	a := NewAvailabilityChecker(store, clock)

	res := confirmedReservation("r1", model.NewInterval(feb(10), feb(12)))
	if err := a.ReserveIfAvailable(ctx, res); err != nil {
		t.Fatalf("booking: %v", err)
	}

	// Shifting within its own window must not conflict with itself.
	res.Interval = model.NewInterval(feb(11), feb(13))
	if err := a.RescheduleIfAvailable(ctx, res); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	// A second booking blocks the move.
	if err := a.ReserveIfAvailable(ctx, confirmedReservation("r2", model.NewInterval(feb(14), feb(16)))); err != nil {
		t.Fatalf("second booking: %v", err)
	}
	res.Interval = model.NewInterval(feb(15), feb(17))
	if err := a.RescheduleIfAvailable(ctx, res); !errors.Is(err, ErrConflict) {
		t.Fatalf("reschedule into occupied window: got %v", err)
	}
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	store := ledger.NewMemory()
	a := NewAvailabilityChecker(store, clock)

	const callers = 16
	iv := model.NewInterval(feb(10), feb(12))

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = a.ReserveIfAvailable(ctx, confirmedReservation(fmt.Sprintf("r%d", i), iv))
		}(i)
	}
	wg.Wait()

	won := 0
	for i, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrConflict):
		default:
			t.Fatalf("caller %d: unexpected error %v", i, err)
		}
	}
	if won != 1 {
		t.Fatalf("%d callers won the interval, want exactly 1", won)
	}
}
