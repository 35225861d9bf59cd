package model

import "fmt"

// Status is the lifecycle state of a reservation.  The value set is closed:
// any string outside the declared constants is rejected by ParseStatus and
// by the transition table below.
type Status string

const (
    StatusPending   Status = "PENDING"   // awaiting payment/confirmation, may auto-expire
    StatusConfirmed Status = "CONFIRMED" // holds the resource for the interval
    StatusActive    Status = "ACTIVE"    // pickup or check-in occurred
    StatusCompleted Status = "COMPLETED" // resource returned, terminal
    StatusCancelled Status = "CANCELLED" // terminal; may still move to REFUNDED
    StatusRefunded  Status = "REFUNDED"  // terminal, refund recorded
)

// validTransitions is the authoritative transition table.  An edge absent
// from this map is illegal regardless of who attempts it; the state machine
// in the engine package consults this table and nothing else.  CANCELLED is
// terminal for scheduling purposes but may move to REFUNDED once a refund
// is issued on a paid reservation.
var validTransitions = map[Status][]Status{
    StatusPending:   {StatusConfirmed, StatusCancelled},
    StatusConfirmed: {StatusActive, StatusCancelled},
    StatusActive:    {StatusCompleted},
    StatusCompleted: {},
    StatusCancelled: {StatusRefunded},
    StatusRefunded:  {},
}

// OccupyingStatuses are the states in which a reservation occupies its
// interval for availability purposes.  PENDING holds count because a hold
// provisionally occupies the slot until it expires or is confirmed.
var OccupyingStatuses = []Status{StatusPending, StatusConfirmed, StatusActive}

// IsValid reports whether the status is one of the declared constants.
func (s Status) IsValid() bool {
    _, ok := validTransitions[s]
    return ok
}

// CanTransitionTo reports whether the edge s -> target exists in the table.
func (s Status) CanTransitionTo(target Status) bool {
    for _, t := range validTransitions[s] {
        if t == target {
            return true
        }
    }
    return false
}

// IsTerminal reports whether no further lifecycle transitions are possible.
// REFUNDED is reachable from CANCELLED, so CANCELLED is not terminal in the
// strict table sense, but both are terminal for occupancy: neither counts
// in availability checks.
func (s Status) IsTerminal() bool {
    return len(validTransitions[s]) == 0
}

// Occupies reports whether a reservation in this status blocks the interval
// for other bookings.
func (s Status) Occupies() bool {
    for _, o := range OccupyingStatuses {
        if s == o {
            return true
        }
    }
    return false
}

// String returns the stored string form of the status.
func (s Status) String() string { return string(s) }

// ParseStatus converts a raw string into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
    s := Status(raw)
    if !s.IsValid() {
        return "", fmt.Errorf("unknown reservation status %q", raw)
    }
    return s, nil
}
