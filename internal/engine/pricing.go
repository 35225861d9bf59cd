package engine

import (
    "fmt"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// Fee names used in quote and settlement breakdowns.
const (
    FeeBase         = "base"
    FeeExtraItems   = "extra_items"
    FeeLateReturn   = "late_return"
    FeeOverage      = "usage_overage"
    FeeMismatch     = "level_mismatch"
    FeeModification = "modification"
)

// QuoteAttributes are the request attributes that affect the up-front
// price.
type QuoteAttributes struct {
    ExtraItems int64 `json:"extra_items"` // items carried, incl. the free allowance
}

// PriceQuote is the outcome of pricing a reservation request.
type PriceQuote struct {
    CostCents    int64       `json:"cost_cents"`
    DepositCents int64       `json:"deposit_cents"`
    Fees         []model.Fee `json:"fees"`
}

// Pricing derives cost, deposit and fees from the resource's rate schedule
// and the governing policy.  All methods are pure functions of their
// inputs.
type Pricing struct {
    policies *Policies
}

// NewPricing returns a calculator over the given policy set.
func NewPricing(policies *Policies) *Pricing {
    return &Pricing{policies: policies}
}

// Quote prices the requested interval.  Base cost is the per-unit rate
// times the duration rounded up to the resource's billing unit; the
// deposit is the cost times the category's deposit multiplier.  Items
// beyond the included allowance are charged up front.
func (p *Pricing) Quote(resource model.Resource, iv model.Interval, attrs QuoteAttributes) (PriceQuote, error) {
    if err := iv.Validate(); err != nil {
        return PriceQuote{}, fmt.Errorf("%w: %v", ErrValidation, err)
    }
    if attrs.ExtraItems < 0 {
        return PriceQuote{}, fmt.Errorf("%w: extra_items must not be negative", ErrValidation)
    }
    policy := p.policies.ForCategory(resource.Category)

    units := durationUnits(iv, resource.BillingUnit)
    base := resource.RatePerUnitCents * units
    fees := []model.Fee{{Name: FeeBase, AmountCents: base}}

    if billable := attrs.ExtraItems - resource.Capacity.IncludedItems; billable > 0 {
        fees = append(fees, model.Fee{Name: FeeExtraItems, AmountCents: billable * policy.ExtraItemFeeCents})
    }

    cost := int64(0)
    for _, f := range fees {
        cost += f.AmountCents
    }
    return PriceQuote{
        CostCents:    cost,
        DepositCents: int64(float64(cost) * policy.DepositMultiplier),
        Fees:         fees,
    }, nil
}

// ModificationFee returns the flat fee charged for changing a booking
// after creation.
func (p *Pricing) ModificationFee(category string) model.Fee {
    return model.Fee{Name: FeeModification, AmountCents: p.policies.ForCategory(category).ModificationFeeCents}
}

// Settlement computes the fees owed when a resource comes back, comparing
// the measured attributes against the reservation and the resource's
// allowances.  Each fee toggles independently; an empty slice means a
// clean return.
func (p *Pricing) Settlement(resource model.Resource, res model.Reservation, attrs model.PolicyAttributes) []model.Fee {
    policy := p.policies.ForCategory(resource.Category)
    var fees []model.Fee

    if !attrs.ReturnedAt.IsZero() && attrs.ReturnedAt.After(res.Interval.End) {
        fees = append(fees, model.Fee{Name: FeeLateReturn, AmountCents: policy.LateReturnFeeCents})
    }
    if resource.Capacity.IncludedUnits > 0 && attrs.UnitsUsed > resource.Capacity.IncludedUnits {
        over := attrs.UnitsUsed - resource.Capacity.IncludedUnits
        fees = append(fees, model.Fee{Name: FeeOverage, AmountCents: over * policy.OveragePerUnitCents})
    }
    if attrs.LevelAtReturn < attrs.LevelAtPickup {
        fees = append(fees, model.Fee{Name: FeeMismatch, AmountCents: policy.MismatchFeeCents})
    }
    // Charge only items not already paid for at booking time.
    paidFor := res.Attributes.ExtraItems
    if paidFor < resource.Capacity.IncludedItems {
        paidFor = resource.Capacity.IncludedItems
    }
    if extra := attrs.ExtraItems - paidFor; extra > 0 {
        fees = append(fees, model.Fee{Name: FeeExtraItems, AmountCents: extra * policy.ExtraItemFeeCents})
    }
    return fees
}

// durationUnits rounds the interval length up to whole billing units.  A
// zero or negative unit falls back to a single unit so a misconfigured
// resource never prices at zero.
func durationUnits(iv model.Interval, unit time.Duration) int64 {
    if unit <= 0 {
        return 1
    }
    d := iv.Duration()
    units := int64(d / unit)
    if d%unit != 0 {
        units++
    }
    if units < 1 {
        units = 1
    }
    return units
}
