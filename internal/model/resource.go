package model

import "time"

// CapacityAttributes describes the usage allowances bundled with a
// resource's base rate.  The engine reads these when pricing settlement
// fees; a zero allowance means the attribute is not metered for the
// resource's category.
//
// Fields:
//  IncludedUnits – usage units (e.g. kilometres) included per reservation;
//                  0 means unlimited.
//  IncludedItems – items (e.g. baggage pieces) included per reservation.
//  Capacity      – physical capacity of the resource (seats, beds).
type CapacityAttributes struct {
    IncludedUnits int64 `json:"included_units"`
    IncludedItems int64 `json:"included_items"`
    Capacity      int   `json:"capacity"`
}

// Resource is a bookable unit of inventory: a vehicle, an aircraft seat, a
// hotel room.  Resources are owned by the catalog and are read-only from
// the engine's point of view; catalog management mutates them elsewhere.
//
// Fields:
//  ID               – catalog identifier.
//  Category         – vehicle class / fare class / room type; selects the
//                     cancellation policy and activation behaviour.
//  RatePerUnitCents – base price per billing unit in cents.
//  BillingUnit      – granularity the rate applies to (e.g. 24h for a
//                     per-day rate); durations are rounded up to it.
//  Capacity         – bundled usage allowances, see CapacityAttributes.
//  Location         – where the resource is picked up or used.
//  AutoActivate     – when true the reconciler moves CONFIRMED
//                     reservations to ACTIVE once the interval starts.
type Resource struct {
    ID               string             `json:"id"`
    Category         string             `json:"category"`
    RatePerUnitCents int64              `json:"rate_per_unit_cents"`
    BillingUnit      time.Duration      `json:"billing_unit"`
    Capacity         CapacityAttributes `json:"capacity"`
    Location         string             `json:"location"`
    AutoActivate     bool               `json:"auto_activate"`
    CreatedAt        time.Time          `json:"created_at"`
    UpdatedAt        time.Time          `json:"updated_at"`
}
