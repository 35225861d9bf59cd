// Package ledger is the authoritative store of reservations.  The engine
// consumes the Ledger interface and never assumes a particular storage
// backend; any implementation that keeps confirmation numbers and
// idempotency keys unique suffices.  Reservations are never deleted, only
// moved to terminal states through the engine's state machine.
package ledger

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// ErrNotFound is returned when no reservation matches the requested
// identifier or idempotency key.
var ErrNotFound = errors.New("reservation not found")

// ErrDuplicateKey is returned by Insert when the reservation's ID,
// confirmation number or idempotency key collides with an existing row.
// The booking path treats a confirmation-number collision as retriable and
// an idempotency-key collision as a replayed request.
var ErrDuplicateKey = errors.New("duplicate key")

// Ledger stores reservations.  All methods honour the deadline on the
// supplied context; a store call must never block past it.
type Ledger interface {
    // Insert persists a new reservation.  It fails with ErrDuplicateKey
    // when a uniqueness constraint is violated.
    Insert(ctx context.Context, res model.Reservation) error

    // Update replaces the stored reservation with the same ID.  It fails
    // with ErrNotFound when the reservation does not exist.
    Update(ctx context.Context, res model.Reservation) error

    // GetByID fetches a single reservation.
    GetByID(ctx context.Context, id string) (model.Reservation, error)

    // GetByIdempotencyKey fetches the reservation previously created with
    // the given key, enabling safe client retries.
    GetByIdempotencyKey(ctx context.Context, key string) (model.Reservation, error)

    // GetOverlapping returns reservations on the resource whose interval
    // overlaps the given one (half-open semantics) and whose status is in
    // statuses.  Used by availability checks.
    GetOverlapping(ctx context.Context, resourceID string, iv model.Interval, statuses []model.Status) ([]model.Reservation, error)

    // ListByCustomer returns all reservations for a customer, newest first.
    ListByCustomer(ctx context.Context, customerID string) ([]model.Reservation, error)

    // ListExpiredPending returns PENDING reservations whose hold expiry is
    // at or before now.  Consumed by the reconciler.
    ListExpiredPending(ctx context.Context, now time.Time) ([]model.Reservation, error)

    // ListDueForActivation returns CONFIRMED reservations whose interval
    // has started at or before now.  Consumed by the reconciler.
    ListDueForActivation(ctx context.Context, now time.Time) ([]model.Reservation, error)
}
