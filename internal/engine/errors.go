// Package engine implements the reservation engine: availability checks,
// the booking state machine, pricing, cancellation policy, the background
// reconciler and the service façade composing them.  It consumes a ledger
// and a catalog and exposes typed errors so callers can map outcomes to
// their own surfaces without string matching.
package engine

import "errors"

// Error taxonomy.  Every sentinel corresponds to a caller-actionable
// condition; none is used for ordinary control flow.  Callers match with
// errors.Is because the engine wraps these with %w context.
var (
    // ErrValidation marks a malformed request: inverted or zero-length
    // interval, interval entirely in the past, non-positive quantities.
    // Never worth an automatic retry.
    ErrValidation = errors.New("validation failed")

    // ErrConflict means the resource is not available for the requested
    // interval.  The caller may retry with a different interval.
    ErrConflict = errors.New("resource unavailable for interval")

    // ErrInvalidTransition marks an illegal state change.  It indicates a
    // caller or reconciler bug and is surfaced rather than swallowed.
    ErrInvalidTransition = errors.New("invalid status transition")

    // ErrNotFound marks an unknown resource or reservation identifier.
    ErrNotFound = errors.New("not found")

    // ErrPolicyViolation marks a cancellation requested past the
    // category's deadline.
    ErrPolicyViolation = errors.New("cancellation policy violation")
)
