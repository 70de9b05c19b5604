package live

import (
	"sync"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
)

// EnrichedSale is a sale together with its join results.
// A nil Product with a nil ProductErr means the product does not exist;
// ProductErr is set when the lookup itself failed. Customer likewise.
type EnrichedSale struct {
	Sale        *v1.SaleEvent
	Product     *v1.Product
	ProductErr  error
	Customer    *v1.Customer
	CustomerErr error
}

// Region is the customer's region, or UnknownRegion when it did not resolve.
func (e EnrichedSale) Region() string {
	if e.Customer == nil {
		return coreagg.UnknownRegion
	}
	return e.Customer.Region
}

// Cache keeps the aggregate of the live window current as sales arrive.
//
// Apply and Prime must be called from a single goroutine (the dispatcher).
// Snapshot may be called from anywhere.
type Cache struct {
	mu      sync.RWMutex
	tally   *coreagg.Tally
	version uint64
	topN    int
}

// NewCache creates an empty cache over w ranking topN groups.
func NewCache(w coreagg.Window, topN int) *Cache {
	if topN <= 0 {
		topN = coreagg.DefaultTopN
	}
	return &Cache{
		tally: coreagg.NewTally(w),
		topN:  topN,
	}
}

// Prime replaces the cached state with a batch result, re-anchoring the
// live window to the tally's window.
func (c *Cache) Prime(t *coreagg.Tally) coreagg.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tally = t
	c.version++
	return c.snapshotLocked()
}

// Apply folds one sale into the cache. Sales outside the live window are
// ignored and reported with false.
//
// Apply is not idempotent: applying the same sale twice counts it twice.
func (c *Cache) Apply(e EnrichedSale) (coreagg.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tally.Window().Contains(e.Sale.OccurredAt) {
		return c.snapshotLocked(), false
	}

	c.tally.Fold(e.Sale)
	// a failed lookup keeps whatever an earlier join learned
	if e.ProductErr == nil {
		c.tally.JoinProduct(e.Sale.ProductID, e.Product)
	}
	if e.CustomerErr == nil {
		c.tally.JoinCustomer(e.Sale.CustomerID, e.Customer)
	}

	region := e.Region()
	if e.CustomerErr != nil {
		if known, ok := c.tally.CustomerRegion(e.Sale.CustomerID); ok {
			region = known
		}
	}
	c.tally.AddRegionRevenue(region, e.Sale.TotalRevenue)

	c.version++
	return c.snapshotLocked(), true
}

// Contains reports whether the sale with id is already counted.
func (c *Cache) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tally.Contains(id)
}

// Snapshot returns the current aggregate.
func (c *Cache) Snapshot() coreagg.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Window is the current live window.
func (c *Cache) Window() coreagg.Window {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tally.Window()
}

func (c *Cache) snapshotLocked() coreagg.Snapshot {
	snap := c.tally.Snapshot(c.topN)
	snap.Version = c.version
	return snap
}
