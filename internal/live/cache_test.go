package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aevon-lab/salespulse/internal/aggregation"
	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan1    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	january = coreagg.Window{Start: jan1, End: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
)

var (
	laptop  = &v1.Product{ID: "A", Name: "Laptop"}
	monitor = &v1.Product{ID: "B", Name: "Monitor"}
	ann     = &v1.Customer{ID: "c1", Name: "Ann", Region: "North"}
	bob     = &v1.Customer{ID: "c2", Name: "Bob", Region: "South"}
)

func newSale(id, product, customer string, qty, total int64, day int) *v1.SaleEvent {
	return &v1.SaleEvent{
		ID:           id,
		ProductID:    product,
		CustomerID:   customer,
		Quantity:     qty,
		UnitRevenue:  decimal.NewFromInt(total / qty),
		TotalRevenue: decimal.NewFromInt(total),
		OccurredAt:   jan1.AddDate(0, 0, day),
	}
}

func referenceStore() *memory.Store {
	s := memory.NewStore(0)
	for _, p := range []*v1.Product{laptop, monitor} {
		s.PutProduct(p)
	}
	for _, c := range []*v1.Customer{ann, bob} {
		s.PutCustomer(c)
	}
	return s
}

// withoutVersion clears the field only the live cache sets.
func withoutVersion(s coreagg.Snapshot) coreagg.Snapshot {
	s.Version = 0
	return s
}

func TestCache_Scenario(t *testing.T) {
	cache := NewCache(january, 5)

	_, ok := cache.Apply(EnrichedSale{Sale: newSale("s1", "A", "c1", 2, 200, 9), Product: laptop, Customer: ann})
	require.True(t, ok)
	snap, ok := cache.Apply(EnrichedSale{Sale: newSale("s2", "B", "c2", 1, 500, 11), Product: monitor, Customer: bob})
	require.True(t, ok)

	assert.True(t, decimal.NewFromInt(700).Equal(snap.TotalRevenue))
	assert.Equal(t, int64(2), snap.OrderCount)
	require.Len(t, snap.TopProducts, 2)
	assert.Equal(t, "B", snap.TopProducts[0].ProductID)
	assert.Equal(t, "A", snap.TopProducts[1].ProductID)
	assert.Equal(t, uint64(2), snap.Version)
}

func TestCache_MatchesBatchAfterEveryEvent(t *testing.T) {
	ctx := context.Background()
	store := referenceStore()
	agg := aggregation.NewAggregator(store, aggregation.Options{})

	stream := []*v1.SaleEvent{
		newSale("s1", "A", "c1", 2, 200, 1),
		newSale("s2", "B", "c2", 1, 500, 2),
		newSale("s3", "A", "c2", 3, 450, 3),
		newSale("s4", "B", "c1", 1, 150, 4),
	}

	// prime from the first sale, then feed the rest incrementally
	require.NoError(t, store.SaveSale(ctx, stream[0]))
	tally, err := agg.Aggregate(ctx, january)
	require.NoError(t, err)

	cache := NewCache(january, 5)
	cache.Prime(tally)

	for _, sale := range stream[1:] {
		require.NoError(t, store.SaveSale(ctx, sale))
		product, _ := store.ResolveProduct(ctx, sale.ProductID)
		customer, _ := store.ResolveCustomer(ctx, sale.CustomerID)

		live, ok := cache.Apply(EnrichedSale{Sale: sale, Product: product, Customer: customer})
		require.True(t, ok)

		batch, err := agg.ComputeSnapshot(ctx, january)
		require.NoError(t, err)
		assert.Equal(t, withoutVersion(batch), withoutVersion(live), "after %s", sale.ID)
	}
}

func TestCache_TopNReordersAcrossCutoff(t *testing.T) {
	cache := NewCache(january, 2)
	products := map[string]*v1.Product{}
	for _, id := range []string{"p1", "p2", "p3"} {
		products[id] = &v1.Product{ID: id, Name: id}
	}

	cache.Apply(EnrichedSale{Sale: newSale("s1", "p1", "c1", 1, 300, 1), Product: products["p1"], Customer: ann})
	cache.Apply(EnrichedSale{Sale: newSale("s2", "p2", "c1", 1, 200, 1), Product: products["p2"], Customer: ann})
	snap, _ := cache.Apply(EnrichedSale{Sale: newSale("s3", "p3", "c1", 1, 100, 1), Product: products["p3"], Customer: ann})
	require.Equal(t, []string{"p1", "p2"}, []string{snap.TopProducts[0].ProductID, snap.TopProducts[1].ProductID})

	// p3 climbs from third to first
	snap, _ = cache.Apply(EnrichedSale{Sale: newSale("s4", "p3", "c1", 1, 400, 2), Product: products["p3"], Customer: ann})
	require.Len(t, snap.TopProducts, 2)
	assert.Equal(t, "p3", snap.TopProducts[0].ProductID)
	assert.Equal(t, "p1", snap.TopProducts[1].ProductID)
}

func TestCache_UnresolvedCustomerGoesToUnknown(t *testing.T) {
	cache := NewCache(january, 5)

	snap, ok := cache.Apply(EnrichedSale{Sale: newSale("s1", "A", "ghost", 1, 90, 1), Product: laptop})
	require.True(t, ok)
	require.Len(t, snap.RegionTotals, 1)
	assert.Equal(t, coreagg.UnknownRegion, snap.RegionTotals[0].Region)
	assert.Empty(t, snap.TopCustomers)
}

func TestCache_LookupFailureKeepsEarlierJoin(t *testing.T) {
	cache := NewCache(january, 5)
	cache.Apply(EnrichedSale{Sale: newSale("s1", "A", "c1", 1, 10, 1), Product: laptop, Customer: ann})

	failed := errors.New("lookup timeout")
	snap, _ := cache.Apply(EnrichedSale{Sale: newSale("s2", "A", "c1", 1, 20, 2), ProductErr: failed, CustomerErr: failed})
	require.Len(t, snap.RegionTotals, 1)
	assert.Equal(t, "North", snap.RegionTotals[0].Region)
	assert.True(t, decimal.NewFromInt(30).Equal(snap.RegionTotals[0].TotalRevenue))
	require.Len(t, snap.TopProducts, 1)
	assert.True(t, decimal.NewFromInt(30).Equal(snap.TopProducts[0].TotalRevenue))
	require.Len(t, snap.TopCustomers, 1)
	assert.Equal(t, "Ann", snap.TopCustomers[0].CustomerName)
}

func TestCache_NotFoundAfterResolveMatchesBatch(t *testing.T) {
	ctx := context.Background()
	s1 := newSale("s1", "A", "c1", 2, 200, 1)
	s2 := newSale("s2", "B", "c2", 1, 500, 2)
	s3 := newSale("s3", "A", "c1", 1, 100, 3)

	before := referenceStore()
	require.NoError(t, before.SaveSale(ctx, s1))
	require.NoError(t, before.SaveSale(ctx, s2))
	tally, err := aggregation.NewAggregator(before, aggregation.Options{}).Aggregate(ctx, january)
	require.NoError(t, err)

	cache := NewCache(january, 5)
	cache.Prime(tally)
	require.Len(t, cache.Snapshot().TopProducts, 2)

	// product A has been deleted by the time s3 arrives
	after := memory.NewStore(0)
	after.PutProduct(monitor)
	after.PutCustomer(ann)
	after.PutCustomer(bob)
	for _, sale := range []*v1.SaleEvent{s1, s2, s3} {
		require.NoError(t, after.SaveSale(ctx, sale))
	}

	live, ok := cache.Apply(EnrichedSale{Sale: s3, Customer: ann})
	require.True(t, ok)

	batch, err := aggregation.NewAggregator(after, aggregation.Options{}).ComputeSnapshot(ctx, january)
	require.NoError(t, err)
	assert.Equal(t, withoutVersion(batch), withoutVersion(live))
	require.Len(t, live.TopProducts, 1)
	assert.Equal(t, "B", live.TopProducts[0].ProductID)
}

func TestCache_OutsideWindowIgnored(t *testing.T) {
	cache := NewCache(january, 5)

	snap, ok := cache.Apply(EnrichedSale{Sale: newSale("s1", "A", "c1", 1, 10, 60), Product: laptop, Customer: ann})
	assert.False(t, ok)
	assert.Zero(t, snap.OrderCount)
	assert.Zero(t, snap.Version)
}

func TestCache_ReplayDoubleCounts(t *testing.T) {
	cache := NewCache(january, 5)
	e := EnrichedSale{Sale: newSale("s1", "A", "c1", 1, 100, 1), Product: laptop, Customer: ann}

	cache.Apply(e)
	snap, _ := cache.Apply(e)
	assert.True(t, decimal.NewFromInt(200).Equal(snap.TotalRevenue))
	assert.Equal(t, int64(2), snap.OrderCount)
}

func TestCache_PrimeReanchorsWindow(t *testing.T) {
	cache := NewCache(coreagg.Window{Start: coreagg.DefaultRevenueStart}, 5)
	feb := coreagg.Window{Start: jan1.AddDate(0, 1, 0), End: jan1.AddDate(0, 2, 0)}

	snap := cache.Prime(coreagg.NewTally(feb))
	assert.Equal(t, feb, snap.Window)
	assert.Equal(t, feb, cache.Window())
	assert.Equal(t, uint64(1), snap.Version)

	_, ok := cache.Apply(EnrichedSale{Sale: newSale("s1", "A", "c1", 1, 10, 1), Product: laptop, Customer: ann})
	assert.False(t, ok, "january sale is outside the re-anchored window")
}
