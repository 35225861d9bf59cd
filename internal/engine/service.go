package engine

import (
    "context"
    "errors"
    "fmt"
    "log"

    "github.com/google/uuid"

    "github.com/iliyamo/resource-reservation/internal/catalog"
    "github.com/iliyamo/resource-reservation/internal/ledger"
    "github.com/iliyamo/resource-reservation/internal/model"
)

// confirmationRetries bounds the regenerate-on-collision loop for
// confirmation numbers.  With an 8-hex random suffix a single retry is
// already overkill.
const confirmationRetries = 3

// Service is the reservation façade: it composes the availability checker,
// pricing calculator, state machine and cancellation policy into the
// quote/book/modify/cancel/activate/complete operations.  All reservation
// writes flow through the state machine and the ledger; lifecycle events
// go to the notifier on a best-effort basis.
type Service struct {
    catalog       catalog.Catalog
    ledger        ledger.Ledger
    availability  *AvailabilityChecker
    pricing       *Pricing
    machine       *StateMachine
    cancellation  *CancellationPolicy
    confirmations *ConfirmationNumbers
    policies      *Policies
    notifier      Notifier
    clock         Clock
}

// NewService wires the engine together.  A nil notifier falls back to
// LogNotifier.
func NewService(cat catalog.Catalog, store ledger.Ledger, policies *Policies, notifier Notifier, clock Clock, confirmationPrefix string) *Service {
    if notifier == nil {
        notifier = LogNotifier{}
    }
    if clock == nil {
        clock = SystemClock{}
    }
    return &Service{
        catalog:       cat,
        ledger:        store,
        availability:  NewAvailabilityChecker(store, clock),
        pricing:       NewPricing(policies),
        machine:       NewStateMachine(clock),
        cancellation:  NewCancellationPolicy(policies),
        confirmations: NewConfirmationNumbers(confirmationPrefix, clock),
        policies:      policies,
        notifier:      notifier,
        clock:         clock,
    }
}

// Availability exposes the checker for collaborators (the HTTP surface's
// availability endpoint) without opening the booking internals.
func (s *Service) Availability() *AvailabilityChecker { return s.availability }

// Pricing exposes the calculator for read-only collaborators.
func (s *Service) Pricing() *Pricing { return s.pricing }

// BookInput is a booking request.
//
// Hold controls the initial state: when true the reservation is created
// PENDING with a hold expiry and must be confirmed before the hold runs
// out; otherwise the create path folds availability check and confirmation
// into one step and the reservation is born CONFIRMED and PAID.
type BookInput struct {
    ResourceID     string
    CustomerID     string
    Interval       model.Interval
    Attributes     QuoteAttributes
    IdempotencyKey string
    Hold           bool
    PaymentRef     *string
}

// Quote prices a request without reserving anything.  The availability
// answer is a snapshot; only the booking path enforces the no-overlap
// invariant.
func (s *Service) Quote(ctx context.Context, resourceID string, iv model.Interval, attrs QuoteAttributes) (PriceQuote, error) {
    resource, err := s.getResource(ctx, resourceID)
    if err != nil {
        return PriceQuote{}, err
    }
    if err := s.availability.validateInterval(iv); err != nil {
        return PriceQuote{}, err
    }
    return s.pricing.Quote(resource, iv, attrs)
}

// Book creates a reservation for the interval, atomically with respect to
// other bookings on the same resource.  Repeating the call with the same
// idempotency key returns the originally created reservation and has no
// further effect.
func (s *Service) Book(ctx context.Context, in BookInput) (model.Reservation, error) {
    if in.CustomerID == "" {
        return model.Reservation{}, fmt.Errorf("%w: customer id is required", ErrValidation)
    }
    if in.IdempotencyKey != "" {
        existing, err := s.ledger.GetByIdempotencyKey(ctx, in.IdempotencyKey)
        if err == nil {
            return existing, nil
        }
        if !errors.Is(err, ledger.ErrNotFound) {
            return model.Reservation{}, err
        }
    }

    resource, err := s.getResource(ctx, in.ResourceID)
    if err != nil {
        return model.Reservation{}, err
    }
    if err := s.availability.validateInterval(in.Interval); err != nil {
        return model.Reservation{}, err
    }
    quote, err := s.pricing.Quote(resource, in.Interval, in.Attributes)
    if err != nil {
        return model.Reservation{}, err
    }

    now := s.clock.Now()
    res := model.Reservation{
        ID:             uuid.NewString(),
        ResourceID:     in.ResourceID,
        CustomerID:     in.CustomerID,
        Interval:       model.NewInterval(in.Interval.Start, in.Interval.End),
        CostCents:      quote.CostCents,
        DepositCents:   quote.DepositCents,
        Fees:           quote.Fees,
        IdempotencyKey: in.IdempotencyKey,
        PaymentRef:     in.PaymentRef,
        Attributes:     model.PolicyAttributes{ExtraItems: in.Attributes.ExtraItems},
        CreatedAt:      now,
        UpdatedAt:      now,
    }
    if in.Hold {
        res.Status = model.StatusPending
        res.PaymentStatus = model.PaymentUnpaid
        res.HoldExpiresAt = now.Add(s.policies.ForCategory(resource.Category).HoldTTL)
    } else {
        res.Status = model.StatusConfirmed
        res.PaymentStatus = model.PaymentPaid
    }

    for attempt := 0; attempt < confirmationRetries; attempt++ {
        res.ConfirmationNumber = s.confirmations.Generate()
        err = s.availability.ReserveIfAvailable(ctx, res)
        if err == nil {
            s.emit(ctx, EventBooked, res)
            return res, nil
        }
        if !errors.Is(err, ledger.ErrDuplicateKey) {
            return model.Reservation{}, err
        }
        // A duplicate insert under the resource lock is either a raced
        // retry on the same idempotency key or a confirmation-number
        // collision.  Resolve the former, regenerate for the latter.
        if in.IdempotencyKey != "" {
            if existing, lookupErr := s.ledger.GetByIdempotencyKey(ctx, in.IdempotencyKey); lookupErr == nil {
                return existing, nil
            }
        }
    }
    return model.Reservation{}, fmt.Errorf("booking failed after %d confirmation number attempts: %w", confirmationRetries, err)
}

// Confirm moves a PENDING hold to CONFIRMED, recording payment.  The
// expiry check and the status write run under the same per-resource lock
// as bookings: a hold at the edge of its TTL stops occupying the interval
// the moment it expires, so without the lock a late confirm could commit
// after another customer has claimed the freed window.  Confirming an
// expired hold fails with ErrConflict.
func (s *Service) Confirm(ctx context.Context, reservationID string, paymentRef *string) (model.Reservation, error) {
    res, err := s.getReservation(ctx, reservationID)
    if err != nil {
        return model.Reservation{}, err
    }
    res, confirmed, err := s.confirmLocked(ctx, res.ResourceID, reservationID, paymentRef)
    if err != nil {
        return model.Reservation{}, err
    }
    if confirmed {
        s.emit(ctx, EventConfirmed, res)
    }
    return res, nil
}

// confirmLocked performs the confirm checks and the status write under the
// resource's booking lock.  The confirmed result is false on an idempotent
// retry, so the event fires only once.
func (s *Service) confirmLocked(ctx context.Context, resourceID, reservationID string, paymentRef *string) (model.Reservation, bool, error) {
    lk := s.availability.locks.forResource(resourceID)
    lk.Lock()
    defer lk.Unlock()

    // Re-read under the lock; the reconciler may have expired the hold in
    // the meantime.
    res, err := s.getReservation(ctx, reservationID)
    if err != nil {
        return model.Reservation{}, false, err
    }
    if res.Status == model.StatusConfirmed {
        return res, false, nil
    }
    now := s.clock.Now()
    if res.Status == model.StatusPending && res.HoldExpired(now) {
        return model.Reservation{}, false, fmt.Errorf("%w: hold on reservation %s expired at %s", ErrConflict, res.ID, res.HoldExpiresAt)
    }
    // The interval must still be free of other occupants before the hold
    // hardens into a confirmed booking.
    found, err := s.ledger.GetOverlapping(ctx, res.ResourceID, res.Interval, model.OccupyingStatuses)
    if err != nil {
        return model.Reservation{}, false, err
    }
    for _, other := range occupying(found, now) {
        if other.ID != res.ID {
            return model.Reservation{}, false, fmt.Errorf("%w: resource %s was booked over the held interval", ErrConflict, res.ResourceID)
        }
    }
    if err := s.machine.Transition(&res, model.StatusConfirmed); err != nil {
        return model.Reservation{}, false, err
    }
    res.PaymentStatus = model.PaymentPaid
    if paymentRef != nil {
        res.PaymentRef = paymentRef
    }
    if err := s.ledger.Update(ctx, res); err != nil {
        return model.Reservation{}, false, err
    }
    return res, true, nil
}

// Modify reschedules a PENDING or CONFIRMED reservation to a new interval
// and/or new request attributes, re-checking availability atomically and
// charging the category's modification fee.
func (s *Service) Modify(ctx context.Context, reservationID string, newInterval model.Interval, attrs QuoteAttributes) (model.Reservation, error) {
    res, err := s.getReservation(ctx, reservationID)
    if err != nil {
        return model.Reservation{}, err
    }
    if res.Status != model.StatusPending && res.Status != model.StatusConfirmed {
        return model.Reservation{}, fmt.Errorf("%w: cannot modify a %s reservation", ErrInvalidTransition, res.Status)
    }
    if res.Status == model.StatusPending && res.HoldExpired(s.clock.Now()) {
        return model.Reservation{}, fmt.Errorf("%w: hold on reservation %s expired at %s", ErrConflict, res.ID, res.HoldExpiresAt)
    }
    resource, err := s.getResource(ctx, res.ResourceID)
    if err != nil {
        return model.Reservation{}, err
    }
    quote, err := s.pricing.Quote(resource, newInterval, attrs)
    if err != nil {
        return model.Reservation{}, err
    }
    modFee := s.pricing.ModificationFee(resource.Category)

    res.Interval = model.NewInterval(newInterval.Start, newInterval.End)
    res.CostCents = quote.CostCents + modFee.AmountCents
    res.DepositCents = quote.DepositCents
    res.Fees = append(quote.Fees, modFee)
    res.Attributes.ExtraItems = attrs.ExtraItems
    res.UpdatedAt = s.clock.Now()

    if err := s.availability.RescheduleIfAvailable(ctx, res); err != nil {
        return model.Reservation{}, err
    }
    s.emit(ctx, EventModified, res)
    return res, nil
}

// Cancel cancels the reservation, frees its interval and records any
// refund owed.  Cancelling a reservation that is already CANCELLED or
// REFUNDED is a no-op returning the stored state, so retries are safe.
func (s *Service) Cancel(ctx context.Context, reservationID string) (model.Reservation, error) {
    res, err := s.getReservation(ctx, reservationID)
    if err != nil {
        return model.Reservation{}, err
    }
    if res.Status == model.StatusCancelled || res.Status == model.StatusRefunded {
        return res, nil
    }
    resource, err := s.getResource(ctx, res.ResourceID)
    if err != nil {
        return model.Reservation{}, err
    }
    if err := s.cancellation.CanCancel(res, resource.Category, s.clock.Now()); err != nil {
        return model.Reservation{}, err
    }
    if err := s.machine.Transition(&res, model.StatusCancelled); err != nil {
        return model.Reservation{}, err
    }
    if err := s.ledger.Update(ctx, res); err != nil {
        return model.Reservation{}, err
    }
    if refund := s.cancellation.Refund(res, resource.Category); refund > 0 {
        if err := s.machine.Transition(&res, model.StatusRefunded, WithRefund(refund)); err != nil {
            return model.Reservation{}, err
        }
        if err := s.ledger.Update(ctx, res); err != nil {
            return model.Reservation{}, err
        }
    }
    s.emit(ctx, EventCancelled, res)
    return res, nil
}

// Activate marks pickup/check-in on a CONFIRMED reservation.
func (s *Service) Activate(ctx context.Context, reservationID string) (model.Reservation, error) {
    res, err := s.getReservation(ctx, reservationID)
    if err != nil {
        return model.Reservation{}, err
    }
    if res.Status == model.StatusActive {
        return res, nil // idempotent retry
    }
    if err := s.machine.Transition(&res, model.StatusActive); err != nil {
        return model.Reservation{}, err
    }
    if err := s.ledger.Update(ctx, res); err != nil {
        return model.Reservation{}, err
    }
    s.emit(ctx, EventActivated, res)
    return res, nil
}

// Complete settles and closes an ACTIVE reservation.  Settlement fees
// (late return, usage overage, level mismatch, unpaid extra items) are
// computed from the measured attributes and added to the cost on this
// transition.
func (s *Service) Complete(ctx context.Context, reservationID string, settlement model.PolicyAttributes) (model.Reservation, error) {
    res, err := s.getReservation(ctx, reservationID)
    if err != nil {
        return model.Reservation{}, err
    }
    resource, err := s.getResource(ctx, res.ResourceID)
    if err != nil {
        return model.Reservation{}, err
    }
    fees := s.pricing.Settlement(resource, res, settlement)
    if err := s.machine.Transition(&res, model.StatusCompleted, WithSettlement(fees)); err != nil {
        return model.Reservation{}, err
    }
    res.Attributes = settlement
    if err := s.ledger.Update(ctx, res); err != nil {
        return model.Reservation{}, err
    }
    s.emit(ctx, EventCompleted, res)
    return res, nil
}

// Get fetches a reservation by ID.
func (s *Service) Get(ctx context.Context, reservationID string) (model.Reservation, error) {
    return s.getReservation(ctx, reservationID)
}

// ListByCustomer returns a customer's reservations, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]model.Reservation, error) {
    return s.ledger.ListByCustomer(ctx, customerID)
}

func (s *Service) getResource(ctx context.Context, resourceID string) (model.Resource, error) {
    resource, err := s.catalog.GetByID(ctx, resourceID)
    if err != nil {
        if errors.Is(err, catalog.ErrResourceNotFound) {
            return model.Resource{}, fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
        }
        return model.Resource{}, err
    }
    return resource, nil
}

func (s *Service) getReservation(ctx context.Context, id string) (model.Reservation, error) {
    res, err := s.ledger.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, ledger.ErrNotFound) {
            return model.Reservation{}, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
        }
        return model.Reservation{}, err
    }
    return res, nil
}

// emit sends a lifecycle event.  Delivery failure is logged and otherwise
// ignored; notification must never roll back reservation state.
func (s *Service) emit(ctx context.Context, kind string, res model.Reservation) {
    ev := newEvent(kind, res, s.clock.Now())
    if err := s.notifier.NotifyEvent(ctx, ev); err != nil {
        log.Printf("engine: notify %s for reservation %s failed: %v", kind, res.ID, err)
    }
}
