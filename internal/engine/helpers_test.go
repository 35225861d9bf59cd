package engine

import (
	"sync"
	"time"

	"github.com/iliyamo/resource-reservation/internal/catalog"
	"github.com/iliyamo/resource-reservation/internal/ledger"
	"github.com/iliyamo/resource-reservation/internal/model"
)

// fakeClock is a settable clock so expiry and deadline logic can be tested
// without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// baseTime is well before every interval used in tests.
var baseTime = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

// feb returns 15:00 UTC on the given February day, matching the pickup
// times used throughout the tests.
func feb(day int) time.Time {
	return time.Date(2024, 2, day, 15, 0, 0, 0, time.UTC)
}

func testResource() model.Resource {
	return model.Resource{
		ID:               "car-1",
		Category:         "economy",
		RatePerUnitCents: 10000,
		BillingUnit:      24 * time.Hour,
		Capacity: model.CapacityAttributes{
			IncludedUnits: 300,
			IncludedItems: 1,
			Capacity:      5,
		},
		Location: "downtown",
	}
}

func testPolicies() *Policies {
	return NewPolicies(DefaultPolicy())
}

// newTestService wires a service over in-memory stores with a fake clock
// and the silent log notifier.
func newTestService(clock *fakeClock) (*Service, *ledger.MemoryLedger, *catalog.MemoryCatalog) {
	store := ledger.NewMemory()
	cat := catalog.NewMemory()
	cat.Put(testResource())
	svc := NewService(cat, store, testPolicies(), LogNotifier{}, clock, "RES")
	return svc, store, cat
}
