package engine

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// Event kinds emitted over the reservation lifecycle.
const (
    EventBooked    = "reservation.booked"
    EventConfirmed = "reservation.confirmed"
    EventModified  = "reservation.modified"
    EventCancelled = "reservation.cancelled"
    EventExpired   = "reservation.expired"
    EventActivated = "reservation.activated"
    EventCompleted = "reservation.completed"
)

// Event describes a lifecycle change on a reservation.  Events carry
// enough for downstream consumers to notify or log without querying the
// ledger.
type Event struct {
    Kind               string `json:"kind"`
    ReservationID      string `json:"reservation_id"`
    ResourceID         string `json:"resource_id"`
    CustomerID         string `json:"customer_id"`
    ConfirmationNumber string `json:"confirmation_number"`
    Status             string `json:"status"`
    CostCents          int64  `json:"cost_cents"`
    RefundCents        int64  `json:"refund_cents,omitempty"`
    OccurredAt         string `json:"occurred_at"`
}

// SweepReport summarises one reconciliation pass.
type SweepReport struct {
    Expired   int    `json:"expired"`
    Activated int    `json:"activated"`
    Failed    int    `json:"failed"`
    SweptAt   string `json:"swept_at"`
}

// Notifier receives lifecycle events and sweep reports.  Delivery is best
// effort: a failing notifier must never roll back reservation state, so
// implementations return errors for logging only.
type Notifier interface {
    NotifyEvent(ctx context.Context, ev Event) error
    NotifySweep(ctx context.Context, report SweepReport) error
}

// LogNotifier writes events to the process log.  It is the fallback when
// no message broker is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyEvent(_ context.Context, ev Event) error {
    log.Printf("event %s reservation=%s resource=%s customer=%s status=%s", ev.Kind, ev.ReservationID, ev.ResourceID, ev.CustomerID, ev.Status)
    return nil
}

func (LogNotifier) NotifySweep(_ context.Context, report SweepReport) error {
    log.Printf("reconcile sweep expired=%d activated=%d failed=%d", report.Expired, report.Activated, report.Failed)
    return nil
}

func newEvent(kind string, res model.Reservation, now time.Time) Event {
    return Event{
        Kind:               kind,
        ReservationID:      res.ID,
        ResourceID:         res.ResourceID,
        CustomerID:         res.CustomerID,
        ConfirmationNumber: res.ConfirmationNumber,
        Status:             res.Status.String(),
        CostCents:          res.CostCents,
        RefundCents:        res.RefundCents,
        OccurredAt:         now.UTC().Format(time.RFC3339),
    }
}
