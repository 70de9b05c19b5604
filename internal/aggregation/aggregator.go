package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultJoinWorkers  = 8
	defaultQueryTimeout = 10 * time.Second
)

// Options controls join concurrency and store deadlines for batch queries.
type Options struct {
	// JoinWorkers bounds concurrent product/customer lookups per query.
	JoinWorkers int
	// QueryTimeout applies to every individual store call.
	QueryTimeout time.Duration
	// TopN is the ranking size of snapshots.
	TopN int
}

func (o Options) normalized() Options {
	n := o
	if n.JoinWorkers <= 0 {
		n.JoinWorkers = defaultJoinWorkers
	}
	if n.QueryTimeout <= 0 {
		n.QueryTimeout = defaultQueryTimeout
	}
	if n.TopN <= 0 {
		n.TopN = coreagg.DefaultTopN
	}
	return n
}

// Aggregator computes windowed aggregates from the raw sales log.
// It holds no state between calls.
type Aggregator struct {
	store  storage.EventStore
	opts   Options
	flight singleflight.Group
}

// NewAggregator creates a batch aggregator over store.
func NewAggregator(store storage.EventStore, opts Options) *Aggregator {
	return &Aggregator{store: store, opts: opts.normalized()}
}

// TopN is the configured ranking size.
func (a *Aggregator) TopN() int { return a.opts.TopN }

// TotalRevenue sums totalRevenue over the window. Zero when nothing matches.
func (a *Aggregator) TotalRevenue(ctx context.Context, w coreagg.Window) (decimal.Decimal, error) {
	events, err := a.queryEvents(ctx, w)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.TotalRevenue)
	}
	return total, nil
}

// TopProducts ranks products by revenue, keeps the first limit, then joins
// each to its product row. Unknown products are dropped after the cut, so
// fewer than limit rows may come back.
func (a *Aggregator) TopProducts(ctx context.Context, w coreagg.Window, limit int) ([]coreagg.ProductTotal, error) {
	tally, _, err := a.fold(ctx, w)
	if err != nil {
		return nil, err
	}
	ranked := tally.RankedProducts()
	if err := a.joinProducts(ctx, tally, ids(coreagg.Head(ranked, limit))); err != nil {
		return nil, err
	}
	return coreagg.TopProducts(ranked, limit), nil
}

// TopCustomers is TopProducts keyed by customer, carrying name and region.
func (a *Aggregator) TopCustomers(ctx context.Context, w coreagg.Window, limit int) ([]coreagg.CustomerTotal, error) {
	tally, _, err := a.fold(ctx, w)
	if err != nil {
		return nil, err
	}
	ranked := tally.RankedCustomers()
	if _, err := a.joinCustomers(ctx, tally, ids(coreagg.Head(ranked, limit))); err != nil {
		return nil, err
	}
	return coreagg.TopCustomers(ranked, limit), nil
}

// RegionStats joins every sale to its customer and sums revenue per region.
// Sales whose customer does not resolve are left out.
func (a *Aggregator) RegionStats(ctx context.Context, w coreagg.Window) ([]coreagg.RegionTotal, error) {
	tally, events, err := a.fold(ctx, w)
	if err != nil {
		return nil, err
	}
	customers, err := a.joinCustomers(ctx, tally, tally.CustomerIDs())
	if err != nil {
		return nil, err
	}
	addRegions(tally, events, customers)
	return tally.Snapshot(0).RegionTotals, nil
}

// Aggregate builds the complete grouping state for w: every group folded,
// the top products joined, and every customer joined for region totals.
// The live cache is primed from its result.
//
// Concurrent calls for the same window share one computation. It runs
// detached from the first caller's cancellation, bounded by the query
// timeout of each store call, and every caller gets its own copy.
func (a *Aggregator) Aggregate(ctx context.Context, w coreagg.Window) (*coreagg.Tally, error) {
	key := w.Start.Format(time.RFC3339Nano) + "|" + w.End.Format(time.RFC3339Nano)
	detached := context.WithoutCancel(ctx)
	ch := a.flight.DoChan(key, func() (interface{}, error) {
		return a.aggregate(detached, w)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tally := res.Val.(*coreagg.Tally)
		if res.Shared {
			slog.Debug("[Aggregator] Shared aggregate computation", "window", key)
			return tally.Clone(), nil
		}
		return tally, nil
	case <-ctx.Done():
		return nil, storeError("aggregate", ctx.Err())
	}
}

func (a *Aggregator) aggregate(ctx context.Context, w coreagg.Window) (*coreagg.Tally, error) {
	started := time.Now()

	tally, events, err := a.fold(ctx, w)
	if err != nil {
		return nil, err
	}

	// Product and customer joins touch disjoint groups of the tally.
	g, gctx := errgroup.WithContext(ctx)
	var customers map[string]*v1.Customer
	g.Go(func() error {
		return a.joinProducts(gctx, tally, ids(coreagg.Head(tally.RankedProducts(), a.opts.TopN)))
	})
	g.Go(func() error {
		var err error
		customers, err = a.joinCustomers(gctx, tally, tally.CustomerIDs())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	addRegions(tally, events, customers)

	slog.Debug("[Aggregator] Aggregated window",
		"start", w.Start,
		"end", w.End,
		"events", len(events),
		"elapsed", time.Since(started))
	return tally, nil
}

// ComputeSnapshot runs Aggregate and renders the top-N snapshot.
func (a *Aggregator) ComputeSnapshot(ctx context.Context, w coreagg.Window) (coreagg.Snapshot, error) {
	tally, err := a.Aggregate(ctx, w)
	if err != nil {
		return coreagg.Snapshot{}, err
	}
	return tally.Snapshot(a.opts.TopN), nil
}

func (a *Aggregator) fold(ctx context.Context, w coreagg.Window) (*coreagg.Tally, []*v1.SaleEvent, error) {
	events, err := a.queryEvents(ctx, w)
	if err != nil {
		return nil, nil, err
	}
	tally := coreagg.NewTally(w)
	for _, e := range events {
		tally.Fold(e)
	}
	return tally, events, nil
}

// addRegions attributes each sale to its customer's region in event order.
// Sales of unknown customers are skipped (inner join).
func addRegions(tally *coreagg.Tally, events []*v1.SaleEvent, customers map[string]*v1.Customer) {
	for _, e := range events {
		c, ok := customers[e.CustomerID]
		if !ok {
			continue
		}
		tally.AddRegionRevenue(c.Region, e.TotalRevenue)
	}
}

func (a *Aggregator) queryEvents(ctx context.Context, w coreagg.Window) ([]*v1.SaleEvent, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.opts.QueryTimeout)
	defer cancel()

	events, err := a.store.QueryEvents(callCtx, w)
	if err != nil {
		return nil, storeError("query sales", err)
	}
	return events, nil
}

// joinProducts resolves ids concurrently and records each outcome on tally.
func (a *Aggregator) joinProducts(ctx context.Context, tally *coreagg.Tally, productIDs []string) error {
	found, err := resolveAll(ctx, a.opts, productIDs, a.store.ResolveProduct)
	if err != nil {
		return storeError("resolve products", err)
	}
	for _, id := range productIDs {
		tally.JoinProduct(id, found[id])
	}
	return nil
}

// joinCustomers resolves ids concurrently, records each outcome on tally and
// returns the customers that exist.
func (a *Aggregator) joinCustomers(ctx context.Context, tally *coreagg.Tally, customerIDs []string) (map[string]*v1.Customer, error) {
	found, err := resolveAll(ctx, a.opts, customerIDs, a.store.ResolveCustomer)
	if err != nil {
		return nil, storeError("resolve customers", err)
	}
	for _, id := range customerIDs {
		tally.JoinCustomer(id, found[id])
	}
	return found, nil
}

// resolveAll looks up every id with at most opts.JoinWorkers calls in flight.
// Ids that do not exist are absent from the result; any other error aborts.
func resolveAll[T any](
	ctx context.Context,
	opts Options,
	keys []string,
	resolve func(context.Context, string) (*T, error),
) (map[string]*T, error) {
	var mu sync.Mutex
	found := make(map[string]*T, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.JoinWorkers)
	for _, id := range keys {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, opts.QueryTimeout)
			defer cancel()

			v, err := resolve(callCtx, id)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			found[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

// storeError makes sure every store failure classifies as unavailable,
// including deadlines hit before the adapter could wrap them.
func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", storage.ErrStoreUnavailable, op, err)
}

func ids(groups []*coreagg.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.ID
	}
	return out
}
