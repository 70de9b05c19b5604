package projection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// Aggregates is the batch side of the analytics surface.
type Aggregates interface {
	TotalRevenue(ctx context.Context, w coreagg.Window) (decimal.Decimal, error)
	TopProducts(ctx context.Context, w coreagg.Window, limit int) ([]coreagg.ProductTotal, error)
	TopCustomers(ctx context.Context, w coreagg.Window, limit int) ([]coreagg.CustomerTotal, error)
	RegionStats(ctx context.Context, w coreagg.Window) ([]coreagg.RegionTotal, error)
	Aggregate(ctx context.Context, w coreagg.Window) (*coreagg.Tally, error)
	TopN() int
}

// LivePrimer re-anchors the live cache on a batch result.
type LivePrimer interface {
	Prime(ctx context.Context, tally *coreagg.Tally) (coreagg.Snapshot, error)
}

// LiveView reads the live cache.
type LiveView interface {
	Snapshot() coreagg.Snapshot
}

// Service implements the analytics query layer.
// Every query is recomputed from the raw sales; only /snapshot touches the
// live cache.
type Service struct {
	aggregates Aggregates
	primer     LivePrimer
	live       LiveView
	nowFn      func() time.Time
}

// NewService creates a new analytics service. primer and live may be nil
// when no change feed runs; /snapshot then only computes and /live is 503.
func NewService(aggregates Aggregates, primer LivePrimer, live LiveView) *Service {
	return &Service{
		aggregates: aggregates,
		primer:     primer,
		live:       live,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Revenue sums revenue over the window. Missing bounds default to
// [2000-01-01, now].
func (s *Service) Revenue(ctx context.Context, q WindowQuery) (*RevenueResponse, error) {
	w, err := coreagg.ParseWindowWithDefaults(q.StartDate, q.EndDate, s.nowFn())
	if err != nil {
		return nil, err
	}
	total, err := s.aggregates.TotalRevenue(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	return &RevenueResponse{TotalRevenue: total}, nil
}

func (s *Service) TopProducts(ctx context.Context, q WindowQuery) ([]coreagg.ProductTotal, error) {
	w, err := coreagg.ParseWindow(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	rows, err := s.aggregates.TopProducts(ctx, w, s.aggregates.TopN())
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return rows, nil
}

func (s *Service) TopCustomers(ctx context.Context, q WindowQuery) ([]coreagg.CustomerTotal, error) {
	w, err := coreagg.ParseWindow(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	rows, err := s.aggregates.TopCustomers(ctx, w, s.aggregates.TopN())
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	return rows, nil
}

func (s *Service) RegionStats(ctx context.Context, q WindowQuery) ([]coreagg.RegionTotal, error) {
	w, err := coreagg.ParseWindow(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	rows, err := s.aggregates.RegionStats(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("region stats: %w", err)
	}
	return rows, nil
}

// Snapshot computes the full aggregate of the window and re-anchors the
// live cache on it. endDate may be omitted to follow new sales indefinitely.
//
// When the cache cannot be primed the batch result is still returned.
func (s *Service) Snapshot(ctx context.Context, q WindowQuery) (coreagg.Snapshot, error) {
	w, err := coreagg.ParseOpenWindow(q.StartDate, q.EndDate)
	if err != nil {
		return coreagg.Snapshot{}, err
	}
	tally, err := s.aggregates.Aggregate(ctx, w)
	if err != nil {
		return coreagg.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}

	// rendered before the tally is handed over to the cache
	snap := tally.Snapshot(s.aggregates.TopN())
	if s.primer == nil {
		return snap, nil
	}

	primed, err := s.primer.Prime(ctx, tally)
	if err != nil {
		slog.Warn("[Projection] Live cache not primed", "error", err)
		return snap, nil
	}
	return primed, nil
}

// Live returns the current live snapshot, or false when no cache runs.
func (s *Service) Live() (coreagg.Snapshot, bool) {
	if s.live == nil {
		return coreagg.Snapshot{}, false
	}
	return s.live.Snapshot(), true
}
