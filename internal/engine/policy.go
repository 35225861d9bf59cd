package engine

import (
    "fmt"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// Policy holds the per-category pricing and cancellation constants.  Every
// fee computation in the engine is a pure function of a Policy together
// with the resource and reservation involved, so behaviour is fully
// determined by inputs.
type Policy struct {
    DepositMultiplier    float64       // deposit = cost * multiplier
    RefundRate           float64       // refund = cost * rate when paid
    CancellationDeadline time.Duration // cancel allowed until start - deadline
    HoldTTL              time.Duration // PENDING holds expire after this
    LateReturnFeeCents   int64         // flat fee when returned past interval end
    OveragePerUnitCents  int64         // per unit beyond the included allowance
    MismatchFeeCents     int64         // flat fee when return level is below pickup
    ExtraItemFeeCents    int64         // per item beyond the included allowance
    ModificationFeeCents int64         // flat fee for post-booking modification
}

// DefaultPolicy returns the constants used when a category has no
// override.
func DefaultPolicy() Policy {
    return Policy{
        DepositMultiplier:    2.0,
        RefundRate:           0.9,
        CancellationDeadline: 24 * time.Hour,
        HoldTTL:              15 * time.Minute,
        LateReturnFeeCents:   5000,
        OveragePerUnitCents:  25,
        MismatchFeeCents:     7500,
        ExtraItemFeeCents:    3000,
        ModificationFeeCents: 2500,
    }
}

// Policies resolves the policy for a resource category, falling back to a
// default when the category has no dedicated entry.
type Policies struct {
    fallback   Policy
    byCategory map[string]Policy
}

// NewPolicies builds a policy set around the given fallback.
func NewPolicies(fallback Policy) *Policies {
    return &Policies{fallback: fallback, byCategory: make(map[string]Policy)}
}

// SetCategory installs a category-specific policy override.
func (p *Policies) SetCategory(category string, policy Policy) {
    p.byCategory[category] = policy
}

// ForCategory returns the policy governing the category.
func (p *Policies) ForCategory(category string) Policy {
    if pol, ok := p.byCategory[category]; ok {
        return pol
    }
    return p.fallback
}

// CancellationPolicy decides whether a cancellation is permitted and what
// refund it carries.  Refunds are recorded, never executed; payment
// reversal is the gateway's job.
type CancellationPolicy struct {
    policies *Policies
}

// NewCancellationPolicy returns a policy engine over the given policy set.
func NewCancellationPolicy(policies *Policies) *CancellationPolicy {
    return &CancellationPolicy{policies: policies}
}

// CanCancel returns nil when the reservation may be cancelled at the given
// time, or an error wrapping ErrPolicyViolation (or ErrInvalidTransition
// for terminal states) explaining why not.  A reservation may be cancelled
// while the cancellation deadline has not yet passed relative to its start.
func (c *CancellationPolicy) CanCancel(res model.Reservation, category string, now time.Time) error {
    if res.Status.IsTerminal() || res.Status == model.StatusCancelled {
        return fmt.Errorf("%w: reservation %s is %s", ErrInvalidTransition, res.ID, res.Status)
    }
    deadline := c.policies.ForCategory(category).CancellationDeadline
    if now.Add(deadline).After(res.Interval.Start) {
        return fmt.Errorf("%w: cancellation closes %s before start (start %s)",
            ErrPolicyViolation, deadline, res.Interval.Start.Format(time.RFC3339))
    }
    return nil
}

// Refund computes the refund amount for a cancelled reservation: the paid
// total multiplied by the category refund rate, zero when nothing was
// paid.
func (c *CancellationPolicy) Refund(res model.Reservation, category string) int64 {
    if res.PaymentStatus != model.PaymentPaid {
        return 0
    }
    rate := c.policies.ForCategory(category).RefundRate
    return int64(float64(res.CostCents) * rate)
}
