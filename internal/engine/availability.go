package engine

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/iliyamo/resource-reservation/internal/ledger"
    "github.com/iliyamo/resource-reservation/internal/model"
)

// resourceLocks hands out one mutex per resource ID so that
// check-then-reserve is serialized per resource without a global lock.
type resourceLocks struct {
    mu    sync.Mutex
    locks map[string]*sync.Mutex
}

func newResourceLocks() *resourceLocks {
    return &resourceLocks{locks: make(map[string]*sync.Mutex)}
}

func (r *resourceLocks) forResource(id string) *sync.Mutex {
    r.mu.Lock()
    defer r.mu.Unlock()
    lk, ok := r.locks[id]
    if !ok {
        lk = &sync.Mutex{}
        r.locks[id] = lk
    }
    return lk
}

// AvailabilityChecker decides whether a resource is free for an interval
// and performs the atomic check-then-reserve.  The availability read and
// the insert are held under the same per-resource lock; two concurrent
// bookings on the same resource cannot both observe a free interval and
// both commit.
type AvailabilityChecker struct {
    ledger ledger.Ledger
    clock  Clock
    locks  *resourceLocks
}

// NewAvailabilityChecker returns a checker over the given ledger.
func NewAvailabilityChecker(store ledger.Ledger, clock Clock) *AvailabilityChecker {
    return &AvailabilityChecker{ledger: store, clock: clock, locks: newResourceLocks()}
}

// validateInterval applies the request edge cases: malformed intervals and
// intervals entirely in the past are rejected before any store call.
func (a *AvailabilityChecker) validateInterval(iv model.Interval) error {
    if err := iv.Validate(); err != nil {
        return fmt.Errorf("%w: %v", ErrValidation, err)
    }
    if !iv.End.After(a.clock.Now()) {
        return fmt.Errorf("%w: interval ends in the past", ErrValidation)
    }
    return nil
}

// occupying filters out reservations that no longer block the interval:
// PENDING holds past their expiry are dead weight the reconciler has not
// swept yet and must not deny a booking.
func occupying(found []model.Reservation, now time.Time) []model.Reservation {
    live := found[:0]
    for _, res := range found {
        if res.Status == model.StatusPending && res.HoldExpired(now) {
            continue
        }
        live = append(live, res)
    }
    return live
}

// IsAvailable reports whether no occupying reservation overlaps the
// interval.  This is the weak read used for quotes; the booking path
// re-checks under the resource lock regardless of what this returned.
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, resourceID string, iv model.Interval) (bool, error) {
    if err := a.validateInterval(iv); err != nil {
        return false, err
    }
    found, err := a.ledger.GetOverlapping(ctx, resourceID, iv, model.OccupyingStatuses)
    if err != nil {
        return false, err
    }
    return len(occupying(found, a.clock.Now())) == 0, nil
}

// ReserveIfAvailable inserts the reservation iff its interval is free,
// as a single atomic unit with respect to other callers targeting the
// same resource.  It returns ErrConflict when an occupying reservation
// overlaps, and passes through ledger.ErrDuplicateKey for the caller's
// idempotency handling.
func (a *AvailabilityChecker) ReserveIfAvailable(ctx context.Context, res model.Reservation) error {
    if err := a.validateInterval(res.Interval); err != nil {
        return err
    }
    lk := a.locks.forResource(res.ResourceID)
    lk.Lock()
    defer lk.Unlock()

    found, err := a.ledger.GetOverlapping(ctx, res.ResourceID, res.Interval, model.OccupyingStatuses)
    if err != nil {
        return err
    }
    if live := occupying(found, a.clock.Now()); len(live) > 0 {
        return fmt.Errorf("%w: resource %s has %d overlapping reservation(s)", ErrConflict, res.ResourceID, len(live))
    }
    return a.ledger.Insert(ctx, res)
}

// RescheduleIfAvailable moves an existing reservation to a new interval
// under the same per-resource serialization as ReserveIfAvailable.  The
// reservation's own row is excluded from the overlap check.
func (a *AvailabilityChecker) RescheduleIfAvailable(ctx context.Context, res model.Reservation) error {
    if err := a.validateInterval(res.Interval); err != nil {
        return err
    }
    lk := a.locks.forResource(res.ResourceID)
    lk.Lock()
    defer lk.Unlock()

    found, err := a.ledger.GetOverlapping(ctx, res.ResourceID, res.Interval, model.OccupyingStatuses)
    if err != nil {
        return err
    }
    live := occupying(found, a.clock.Now())
    for _, other := range live {
        if other.ID != res.ID {
            return fmt.Errorf("%w: resource %s is booked over the requested interval", ErrConflict, res.ResourceID)
        }
    }
    return a.ledger.Update(ctx, res)
}
