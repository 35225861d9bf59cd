package engine

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/resource-reservation/internal/catalog"
    "github.com/iliyamo/resource-reservation/internal/ledger"
    "github.com/iliyamo/resource-reservation/internal/model"
)

// Reconciler is the periodic sweep that reclaims expired holds and
// advances time-driven transitions.  Every mutation goes through the same
// state machine as the foreground path and is committed under the same
// per-resource lock as bookings, so a sweep never races a confirm on the
// same reservation.  A failure on one reservation is logged and retried on
// the next tick without aborting the rest of the sweep.
type Reconciler struct {
    ledger       ledger.Ledger
    catalog      catalog.Catalog
    availability *AvailabilityChecker
    machine      *StateMachine
    notifier     Notifier
    clock        Clock
    interval     time.Duration
}

// NewReconciler builds a reconciler ticking at the given interval.  The
// availability checker must be the service's own so both share one lock
// set per resource.
func NewReconciler(store ledger.Ledger, cat catalog.Catalog, avail *AvailabilityChecker, machine *StateMachine, notifier Notifier, clock Clock, interval time.Duration) *Reconciler {
    if notifier == nil {
        notifier = LogNotifier{}
    }
    if interval <= 0 {
        interval = 5 * time.Minute
    }
    return &Reconciler{
        ledger:       store,
        catalog:      cat,
        availability: avail,
        machine:      machine,
        notifier:     notifier,
        clock:        clock,
        interval:     interval,
    }
}

// Run sweeps immediately, then on every tick until the context is
// cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
    t := time.NewTicker(r.interval)
    defer t.Stop()

    r.Sweep(ctx)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-t.C:
            r.Sweep(ctx)
        }
    }
}

// Sweep performs one reconciliation pass and reports the outcome to the
// notifier.  Exported so tests and operator tooling can drive single
// passes with a fake clock.
func (r *Reconciler) Sweep(ctx context.Context) SweepReport {
    now := r.clock.Now()
    report := SweepReport{SweptAt: now.UTC().Format(time.RFC3339)}

    r.expireHolds(ctx, now, &report)
    r.activateDue(ctx, now, &report)

    if err := r.notifier.NotifySweep(ctx, report); err != nil {
        log.Printf("reconciler: sweep report delivery failed: %v", err)
    }
    return report
}

// expireHolds cancels PENDING reservations whose hold timed out, freeing
// their intervals.
func (r *Reconciler) expireHolds(ctx context.Context, now time.Time, report *SweepReport) {
    expired, err := r.ledger.ListExpiredPending(ctx, now)
    if err != nil {
        log.Printf("reconciler: listing expired holds failed: %v", err)
        report.Failed++
        return
    }
    for _, res := range expired {
        cancelled, ok, err := r.expireHold(ctx, res, now)
        if err != nil {
            log.Printf("reconciler: expiring reservation %s: %v", res.ID, err)
            report.Failed++
            continue
        }
        if !ok {
            continue
        }
        report.Expired++
        if err := r.notifier.NotifyEvent(ctx, newEvent(EventExpired, cancelled, now)); err != nil {
            log.Printf("reconciler: notify expiry of %s failed: %v", res.ID, err)
        }
    }
}

// expireHold cancels one expired hold under its resource's booking lock.
// The row is re-read first so a hold confirmed since the listing is left
// alone; ok reports whether a cancellation was committed.
func (r *Reconciler) expireHold(ctx context.Context, res model.Reservation, now time.Time) (model.Reservation, bool, error) {
    lk := r.availability.locks.forResource(res.ResourceID)
    lk.Lock()
    defer lk.Unlock()

    fresh, err := r.ledger.GetByID(ctx, res.ID)
    if err != nil {
        return model.Reservation{}, false, err
    }
    if fresh.Status != model.StatusPending || !fresh.HoldExpired(now) {
        return fresh, false, nil
    }
    if err := r.machine.Transition(&fresh, model.StatusCancelled); err != nil {
        return model.Reservation{}, false, err
    }
    if err := r.ledger.Update(ctx, fresh); err != nil {
        return model.Reservation{}, false, err
    }
    return fresh, true, nil
}

// activateDue moves CONFIRMED reservations to ACTIVE once their interval
// has started, for resources with automatic activation.
func (r *Reconciler) activateDue(ctx context.Context, now time.Time, report *SweepReport) {
    due, err := r.ledger.ListDueForActivation(ctx, now)
    if err != nil {
        log.Printf("reconciler: listing due activations failed: %v", err)
        report.Failed++
        return
    }
    for _, res := range due {
        resource, err := r.catalog.GetByID(ctx, res.ResourceID)
        if err != nil {
            log.Printf("reconciler: resource %s for reservation %s: %v", res.ResourceID, res.ID, err)
            report.Failed++
            continue
        }
        if !resource.AutoActivate {
            continue
        }
        activated, ok, err := r.activateOne(ctx, res, now)
        if err != nil {
            log.Printf("reconciler: activating reservation %s: %v", res.ID, err)
            report.Failed++
            continue
        }
        if !ok {
            continue
        }
        report.Activated++
        if err := r.notifier.NotifyEvent(ctx, newEvent(EventActivated, activated, now)); err != nil {
            log.Printf("reconciler: notify activation of %s failed: %v", res.ID, err)
        }
    }
}

// activateOne commits a single activation under the resource's booking
// lock, re-reading the row so a reservation cancelled since the listing is
// skipped.
func (r *Reconciler) activateOne(ctx context.Context, res model.Reservation, now time.Time) (model.Reservation, bool, error) {
    lk := r.availability.locks.forResource(res.ResourceID)
    lk.Lock()
    defer lk.Unlock()

    fresh, err := r.ledger.GetByID(ctx, res.ID)
    if err != nil {
        return model.Reservation{}, false, err
    }
    if fresh.Status != model.StatusConfirmed || fresh.Interval.Start.After(now) {
        return fresh, false, nil
    }
    if err := r.machine.Transition(&fresh, model.StatusActive); err != nil {
        return model.Reservation{}, false, err
    }
    if err := r.ledger.Update(ctx, fresh); err != nil {
        return model.Reservation{}, false, err
    }
    return fresh, true, nil
}
