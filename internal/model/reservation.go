package model

import "time"

// PaymentStatus tracks whether the reservation total has been paid.  The
// engine records payment state but never captures payment itself; the
// gateway integration lives outside this service.
type PaymentStatus string

const (
    PaymentUnpaid PaymentStatus = "UNPAID"
    PaymentPaid   PaymentStatus = "PAID"
)

// PolicyAttributes carries the domain-specific usage figures attached to a
// reservation: what was requested up front and what was measured when the
// resource came back.  Settlement fees are pure functions of these values
// together with the resource's allowances.
//
// Fields:
//  UnitsUsed       – metered usage on return (e.g. kilometres driven).
//  LevelAtPickup   – metered level at handover (e.g. fuel percent).
//  LevelAtReturn   – metered level on return; a drop below pickup level
//                    triggers the mismatch fee.
//  ExtraItems      – items beyond the included allowance (extra baggage).
//  ReturnedAt      – actual return time; after the interval end it
//                    triggers the late-return fee.
type PolicyAttributes struct {
    UnitsUsed     int64     `json:"units_used"`
    LevelAtPickup int       `json:"level_at_pickup"`
    LevelAtReturn int       `json:"level_at_return"`
    ExtraItems    int64     `json:"extra_items"`
    ReturnedAt    time.Time `json:"returned_at,omitempty"`
}

// Fee is a single named line in a price or settlement breakdown.
type Fee struct {
    Name        string `json:"name"`
    AmountCents int64  `json:"amount_cents"`
}

// Reservation records the allocation of one resource to one customer for a
// half-open interval.  Reservations are created by the engine's booking
// path, mutated only through state-machine transitions and never deleted;
// terminal states are immutable apart from the refund annotation.
//
// Fields:
//  ID                 – reservation identifier (UUID).
//  ResourceID         – resource being reserved.
//  CustomerID         – customer holding the reservation.
//  Interval           – reserved window [start, end) in UTC.
//  Status             – lifecycle state, see Status.
//  CostCents          – total cost in cents; grows at settlement.
//  DepositCents       – deposit computed at quote time.
//  Fees               – itemised fee breakdown accumulated so far.
//  ConfirmationNumber – unique human-presentable identifier.
//  IdempotencyKey     – caller-supplied dedupe token, empty when absent.
//  PaymentStatus      – UNPAID or PAID; controls refund arithmetic.
//  PaymentRef         – external payment reference, if any.
//  RefundCents        – refund recorded on cancellation of a paid booking.
//  HoldExpiresAt      – expiry for PENDING holds; zero once confirmed.
//  Attributes         – domain-specific usage figures, see PolicyAttributes.
type Reservation struct {
    ID                 string           `json:"id"`
    ResourceID         string           `json:"resource_id"`
    CustomerID         string           `json:"customer_id"`
    Interval           Interval         `json:"interval"`
    Status             Status           `json:"status"`
    CostCents          int64            `json:"cost_cents"`
    DepositCents       int64            `json:"deposit_cents"`
    Fees               []Fee            `json:"fees,omitempty"`
    ConfirmationNumber string           `json:"confirmation_number"`
    IdempotencyKey     string           `json:"idempotency_key,omitempty"`
    PaymentStatus      PaymentStatus    `json:"payment_status"`
    PaymentRef         *string          `json:"payment_ref,omitempty"`
    RefundCents        int64            `json:"refund_cents,omitempty"`
    HoldExpiresAt      time.Time        `json:"hold_expires_at,omitempty"`
    Attributes         PolicyAttributes `json:"attributes"`
    CreatedAt          time.Time        `json:"created_at"`
    UpdatedAt          time.Time        `json:"updated_at"`
}

// HoldExpired reports whether the reservation carries a hold whose expiry
// has passed at the given time.  A zero HoldExpiresAt means no hold was
// taken (or it was consumed by confirmation) and never reads as expired.
func (r Reservation) HoldExpired(now time.Time) bool {
    return !r.HoldExpiresAt.IsZero() && !r.HoldExpiresAt.After(now)
}

// Clone returns a deep copy of the reservation so callers can mutate a
// candidate without touching ledger-owned state.
func (r Reservation) Clone() Reservation {
    out := r
    if r.Fees != nil {
        out.Fees = make([]Fee, len(r.Fees))
        copy(out.Fees, r.Fees)
    }
    if r.PaymentRef != nil {
        ref := *r.PaymentRef
        out.PaymentRef = &ref
    }
    return out
}
