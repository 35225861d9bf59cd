// Package queue publishes and consumes reservation lifecycle messages over
// the message broker.  The engine emits events through the Publisher (an
// engine.Notifier); the consumer turns them into human-readable log lines
// for downstream notification tooling.
package queue

const (
    // EventsQueueName carries reservation lifecycle events (booked,
    // cancelled, expired, activated, completed).
    EventsQueueName = "reservation.events"

    // SweepsQueueName carries reconciliation sweep reports.
    SweepsQueueName = "reservation.sweeps"
)
