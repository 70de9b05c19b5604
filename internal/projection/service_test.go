package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aevon-lab/salespulse/internal/aggregation"
	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	coreerrors "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/aevon-lab/salespulse/internal/core/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sale(id, product, customer string, qty, total int64) *v1.SaleEvent {
	return &v1.SaleEvent{
		ID:           id,
		ProductID:    product,
		CustomerID:   customer,
		Quantity:     qty,
		UnitRevenue:  decimal.NewFromInt(total / qty),
		TotalRevenue: decimal.NewFromInt(total),
		OccurredAt:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore(0)
	s.PutProduct(&v1.Product{ID: "A", Name: "Laptop"})
	s.PutProduct(&v1.Product{ID: "B", Name: "Monitor"})
	s.PutCustomer(&v1.Customer{ID: "c1", Name: "Ann", Region: "North"})
	s.PutCustomer(&v1.Customer{ID: "c2", Name: "Bob", Region: "South"})
	require.NoError(t, s.SaveSale(context.Background(), sale("s1", "A", "c1", 2, 200)))
	require.NoError(t, s.SaveSale(context.Background(), sale("s2", "B", "c2", 1, 500)))
	return s
}

type fakeLive struct {
	snap coreagg.Snapshot
}

func (f *fakeLive) Snapshot() coreagg.Snapshot { return f.snap }

type fakePrimer struct {
	primed *coreagg.Tally
	err    error
}

func (f *fakePrimer) Prime(_ context.Context, tally *coreagg.Tally) (coreagg.Snapshot, error) {
	if f.err != nil {
		return coreagg.Snapshot{}, f.err
	}
	f.primed = tally
	snap := tally.Snapshot(coreagg.DefaultTopN)
	snap.Version = 1
	return snap, nil
}

func TestService_Snapshot_PrimesLiveCache(t *testing.T) {
	primer := &fakePrimer{}
	svc := NewService(aggregation.NewAggregator(seededStore(t), aggregation.Options{}), primer, nil)

	snap, err := svc.Snapshot(context.Background(), WindowQuery{StartDate: "2024-01-01"})
	require.NoError(t, err)

	require.NotNil(t, primer.primed)
	assert.True(t, primer.primed.Window().OpenEnded())
	assert.Equal(t, uint64(1), snap.Version)
	assert.True(t, decimal.NewFromInt(700).Equal(snap.TotalRevenue))
	assert.True(t, decimal.NewFromInt(350).Equal(snap.AvgOrderValue()))
	require.Len(t, snap.RegionTotals, 2)
}

func TestService_Snapshot_PrimeFailureReturnsBatch(t *testing.T) {
	primer := &fakePrimer{err: errors.New("dispatcher stopped")}
	svc := NewService(aggregation.NewAggregator(seededStore(t), aggregation.Options{}), primer, nil)

	snap, err := svc.Snapshot(context.Background(), WindowQuery{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Zero(t, snap.Version)
	assert.Equal(t, int64(2), snap.OrderCount)
}

func TestService_Snapshot_RequiresStart(t *testing.T) {
	svc := NewService(aggregation.NewAggregator(seededStore(t), aggregation.Options{}), nil, nil)

	_, err := svc.Snapshot(context.Background(), WindowQuery{EndDate: "2024-01-31"})
	require.ErrorIs(t, err, coreerrors.ErrInvalidWindow)
}

func TestService_RegionStats(t *testing.T) {
	svc := NewService(aggregation.NewAggregator(seededStore(t), aggregation.Options{}), nil, nil)

	rows, err := svc.RegionStats(context.Background(), WindowQuery{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "North", rows[0].Region)
	assert.Equal(t, "South", rows[1].Region)
}

func TestService_Revenue_DateOnlyEndIsMidnight(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	late := sale("s3", "A", "c1", 1, 50)
	late.OccurredAt = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSale(ctx, late))

	svc := NewService(aggregation.NewAggregator(store, aggregation.Options{}), nil, nil)

	resp, err := svc.Revenue(ctx, WindowQuery{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(resp.TotalRevenue), "noon on the end date is excluded")
}
