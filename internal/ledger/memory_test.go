package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

func sampleReservation(id, conf string) model.Reservation {
	start := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	return model.Reservation{
		ID:                 id,
		ResourceID:         "car-1",
		CustomerID:         "cust-1",
		Interval:           model.NewInterval(start, start.Add(48*time.Hour)),
		Status:             model.StatusConfirmed,
		ConfirmationNumber: conf,
		CreatedAt:          start,
		UpdatedAt:          start,
	}
}

func TestMemoryInsertAndGet(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	res := sampleReservation("r1", "RES-1")
	if err := l.Insert(ctx, res); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := l.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ConfirmationNumber != "RES-1" {
		t.Fatalf("got confirmation %q", got.ConfirmationNumber)
	}
	if _, err := l.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	first := sampleReservation("r1", "RES-1")
	first.IdempotencyKey = "idem-1"
	if err := l.Insert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	dupConf := sampleReservation("r2", "RES-1")
	if err := l.Insert(ctx, dupConf); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("duplicate confirmation: got %v", err)
	}

	dupIdem := sampleReservation("r3", "RES-3")
	dupIdem.IdempotencyKey = "idem-1"
	if err := l.Insert(ctx, dupIdem); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("duplicate idempotency key: got %v", err)
	}

	got, err := l.GetByIdempotencyKey(ctx, "idem-1")
	if err != nil || got.ID != "r1" {
		t.Fatalf("idempotency lookup = %v, %v", got.ID, err)
	}
}

func TestMemoryGetOverlapping(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	booked := sampleReservation("r1", "RES-1") // Feb 10 15:00 -> Feb 12 15:00
	if err := l.Insert(ctx, booked); err != nil {
		t.Fatalf("insert: %v", err)
	}
	cancelled := sampleReservation("r2", "RES-2")
	cancelled.Status = model.StatusCancelled
	if err := l.Insert(ctx, cancelled); err != nil {
		t.Fatalf("insert: %v", err)
	}

	overlap := model.NewInterval(booked.Interval.Start.Add(24*time.Hour), booked.Interval.End.Add(24*time.Hour))
	found, err := l.GetOverlapping(ctx, "car-1", overlap, model.OccupyingStatuses)
	if err != nil {
		t.Fatalf("overlap query: %v", err)
	}
	if len(found) != 1 || found[0].ID != "r1" {
		t.Fatalf("expected only the confirmed booking, got %d rows", len(found))
	}

	clear := model.NewInterval(booked.Interval.End, booked.Interval.End.Add(72*time.Hour))
	found, err = l.GetOverlapping(ctx, "car-1", clear, model.OccupyingStatuses)
	if err != nil {
		t.Fatalf("overlap query: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("adjacent interval should not overlap, got %d rows", len(found))
	}
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	res := sampleReservation("r1", "RES-1")
	if err := l.Insert(ctx, res); err != nil {
		t.Fatalf("insert: %v", err)
	}
	res.Status = model.StatusActive
	if err := l.Update(ctx, res); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := l.GetByID(ctx, "r1")
	if got.Status != model.StatusActive {
		t.Fatalf("update not applied, status %s", got.Status)
	}
	missing := sampleReservation("ghost", "RES-9")
	if err := l.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("updating missing row: got %v", err)
	}
}

func TestMemoryListExpiredPending(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

	expired := sampleReservation("r1", "RES-1")
	expired.Status = model.StatusPending
	expired.HoldExpiresAt = now.Add(-time.Minute)
	live := sampleReservation("r2", "RES-2")
	live.Status = model.StatusPending
	live.HoldExpiresAt = now.Add(10 * time.Minute)
	for _, r := range []model.Reservation{expired, live} {
		if err := l.Insert(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}

	out, err := l.ListExpiredPending(ctx, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].ID != "r1" {
		t.Fatalf("expected only the expired hold, got %d rows", len(out))
	}
}

func TestMemoryCloneIsolation(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	res := sampleReservation("r1", "RES-1")
	res.Fees = []model.Fee{{Name: "base", AmountCents: 100}}
	if err := l.Insert(ctx, res); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, _ := l.GetByID(ctx, "r1")
	got.Fees[0].AmountCents = 999
	again, _ := l.GetByID(ctx, "r1")
	if again.Fees[0].AmountCents != 100 {
		t.Fatalf("caller mutation leaked into ledger state")
	}
}
