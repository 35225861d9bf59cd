package engine

import (
    "fmt"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// StateMachine is the single authority over reservation status changes.
// Both the foreground service and the background reconciler go through
// Transition; nothing else writes a reservation's status.  Side effects
// are attached to specific edges via options and rejected on any other
// edge.
type StateMachine struct {
    clock Clock
}

// NewStateMachine returns a state machine using the given clock for
// UpdatedAt stamps.
func NewStateMachine(clock Clock) *StateMachine {
    return &StateMachine{clock: clock}
}

type transitionEffects struct {
    settlementFees []model.Fee
    refundCents    int64
    hasRefund      bool
}

// TransitionOption attaches an edge-specific side effect to a transition.
type TransitionOption func(*transitionEffects)

// WithSettlement adds settlement fees to the reservation cost.  Valid only
// on the ACTIVE -> COMPLETED edge.
func WithSettlement(fees []model.Fee) TransitionOption {
    return func(e *transitionEffects) { e.settlementFees = fees }
}

// WithRefund records the refund amount.  Valid only on the
// CANCELLED -> REFUNDED edge.
func WithRefund(amountCents int64) TransitionOption {
    return func(e *transitionEffects) {
        e.refundCents = amountCents
        e.hasRefund = true
    }
}

// Transition moves the reservation to the target status, applying the
// edge's side effects and advancing UpdatedAt.  An edge absent from the
// model transition table fails with ErrInvalidTransition and leaves the
// reservation unchanged.
func (m *StateMachine) Transition(res *model.Reservation, target model.Status, opts ...TransitionOption) error {
    if !target.IsValid() {
        return fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, target)
    }
    if !res.Status.CanTransitionTo(target) {
        return fmt.Errorf("%w: %s -> %s on reservation %s", ErrInvalidTransition, res.Status, target, res.ID)
    }

    var effects transitionEffects
    for _, opt := range opts {
        opt(&effects)
    }
    if effects.settlementFees != nil && !(res.Status == model.StatusActive && target == model.StatusCompleted) {
        return fmt.Errorf("%w: settlement only applies on ACTIVE -> COMPLETED", ErrInvalidTransition)
    }
    if effects.hasRefund && !(res.Status == model.StatusCancelled && target == model.StatusRefunded) {
        return fmt.Errorf("%w: refund only applies on CANCELLED -> REFUNDED", ErrInvalidTransition)
    }

    switch target {
    case model.StatusConfirmed:
        // Confirming consumes the hold; the interval is now firmly held.
        res.HoldExpiresAt = time.Time{}
    case model.StatusCompleted:
        for _, fee := range effects.settlementFees {
            res.Fees = append(res.Fees, fee)
            res.CostCents += fee.AmountCents
        }
    case model.StatusCancelled:
        res.HoldExpiresAt = time.Time{}
    case model.StatusRefunded:
        res.RefundCents = effects.refundCents
    }

    res.Status = target
    res.UpdatedAt = m.clock.Now()
    return nil
}
