package engine

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/resource-reservation/internal/catalog"
	"github.com/iliyamo/resource-reservation/internal/ledger"
	"github.com/iliyamo/resource-reservation/internal/model"
)

func TestSweepExpiresHolds(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	svc, store, cat := newTestService(clock)
	rec := NewReconciler(store, cat, svc.Availability(), NewStateMachine(clock), LogNotifier{}, clock, time.Minute)

	in := bookInput(model.NewInterval(feb(10), feb(12)))
	in.Hold = true
	held, err := svc.Book(ctx, in)
	if err != nil {
		t.Fatalf("hold book: %v", err)
	}

	// Before the TTL elapses the sweep leaves the hold alone.
	report := rec.Sweep(ctx)
	if report.Expired != 0 {
		t.Fatalf("premature expiry: %+v", report)
	}

	clock.Advance(16 * time.Minute)
	report = rec.Sweep(ctx)
	if report.Expired != 1 || report.Failed != 0 {
		t.Fatalf("sweep report = %+v, want 1 expired", report)
	}

	got, err := svc.Get(ctx, held.ID)
	if err != nil || got.Status != model.StatusCancelled {
		t.Fatalf("after sweep: %v, %s", err, got.Status)
	}

	// The interval is bookable again.
	if _, err := svc.Book(ctx, bookInput(model.NewInterval(feb(10), feb(12)))); err != nil {
		t.Fatalf("rebooking after expiry: %v", err)
	}
}

func TestSweepActivatesDueReservations(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	svc, store, cat := newTestService(clock)

	auto := testResource()
	auto.ID = "shuttle-1"
	auto.AutoActivate = true
	cat.Put(auto)

	rec := NewReconciler(store, cat, svc.Availability(), NewStateMachine(clock), LogNotifier{}, clock, time.Minute)

	manualIn := bookInput(model.NewInterval(baseTime.Add(time.Hour), baseTime.Add(4*time.Hour)))
	manual, err := svc.Book(ctx, manualIn)
	if err != nil {
		t.Fatalf("book manual: %v", err)
	}

	autoIn := bookInput(model.NewInterval(baseTime.Add(time.Hour), baseTime.Add(4*time.Hour)))
	autoIn.ResourceID = "shuttle-1"
	autoRes, err := svc.Book(ctx, autoIn)
	if err != nil {
		t.Fatalf("book auto: %v", err)
	}

	// Nothing is due yet.
	if report := rec.Sweep(ctx); report.Activated != 0 {
		t.Fatalf("premature activation: %+v", report)
	}

	clock.Advance(2 * time.Hour)
	report := rec.Sweep(ctx)
	if report.Activated != 1 || report.Failed != 0 {
		t.Fatalf("sweep report = %+v, want 1 activated", report)
	}

	got, _ := svc.Get(ctx, autoRes.ID)
	if got.Status != model.StatusActive {
		t.Fatalf("auto-activate resource stayed %s", got.Status)
	}
	got, _ = svc.Get(ctx, manual.ID)
	if got.Status != model.StatusConfirmed {
		t.Fatalf("manual resource should stay CONFIRMED, got %s", got.Status)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	svc, store, cat := newTestService(clock)
	rec := NewReconciler(store, cat, svc.Availability(), NewStateMachine(clock), LogNotifier{}, clock, time.Minute)

	in := bookInput(model.NewInterval(feb(10), feb(12)))
	in.Hold = true
	if _, err := svc.Book(ctx, in); err != nil {
		t.Fatalf("hold book: %v", err)
	}

	clock.Advance(16 * time.Minute)
	if report := rec.Sweep(ctx); report.Expired != 1 {
		t.Fatalf("first sweep: %+v", report)
	}
	// A second pass finds nothing left to do.
	if report := rec.Sweep(ctx); report.Expired != 0 || report.Failed != 0 {
		t.Fatalf("second sweep: %+v", report)
	}
}

func TestSweepSkipsConcurrentlyConfirmedHold(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(baseTime)
	store := ledger.NewMemory()
	gate := newUpdateGate(store)
	cat := catalog.NewMemory()
	cat.Put(testResource())
	svc := NewService(cat, gate, testPolicies(), LogNotifier{}, clock, "RES")
	rec := NewReconciler(gate, cat, svc.Availability(), NewStateMachine(clock), LogNotifier{}, clock, time.Minute)

	in := bookInput(model.NewInterval(feb(10), feb(12)))
	in.Hold = true
	held, err := svc.Book(ctx, in)
	if err != nil {
		t.Fatalf("hold book: %v", err)
	}

	confirmErr := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(ctx, held.ID, nil)
		confirmErr <- err
	}()
	<-gate.entered

	// The TTL passes while the confirm write is stalled; the sweep lists
	// the hold as expired but must not cancel it once the confirm lands.
	clock.Advance(16 * time.Minute)
	reportCh := make(chan SweepReport, 1)
	go func() { reportCh <- rec.Sweep(ctx) }()

	// Give the sweep time to reach the resource lock before releasing.
	time.Sleep(50 * time.Millisecond)
	close(gate.release)

	if err := <-confirmErr; err != nil {
		t.Fatalf("confirm: %v", err)
	}
	report := <-reportCh
	if report.Expired != 0 || report.Failed != 0 {
		t.Fatalf("sweep report = %+v, want nothing expired", report)
	}
	got, err := svc.Get(ctx, held.ID)
	if err != nil || got.Status != model.StatusConfirmed {
		t.Fatalf("after sweep: %v, %s", err, got.Status)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	clock := newFakeClock(baseTime)
	svc, store, cat := newTestService(clock)
	rec := NewReconciler(store, cat, svc.Availability(), NewStateMachine(clock), LogNotifier{}, clock, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancellation")
	}
}
