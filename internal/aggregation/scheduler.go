package aggregation

import (
	"context"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage"
)

// snapshotter is the part of Aggregator the scheduler needs.
type snapshotter interface {
	ComputeSnapshot(ctx context.Context, w coreagg.Window) (coreagg.Snapshot, error)
}

// ArchiveScheduler periodically archives a report over a trailing window.
// It is stateless: each tick independently recomputes from the raw sales.
type ArchiveScheduler struct {
	interval   time.Duration
	lookback   time.Duration
	aggregator snapshotter
	archive    storage.ReportArchive
	now        func() time.Time
}

// NewArchiveScheduler creates a scheduler that every interval archives
// the totals of the last lookback.
func NewArchiveScheduler(
	interval time.Duration,
	lookback time.Duration,
	aggregator snapshotter,
	archive storage.ReportArchive,
) *ArchiveScheduler {
	return &ArchiveScheduler{
		interval:   interval,
		lookback:   lookback,
		aggregator: aggregator,
		archive:    archive,
		now:        time.Now,
	}
}

// Start begins periodic archiving.
// Runs until context is cancelled.
func (s *ArchiveScheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[ArchiveScheduler] Starting report archiving",
		"interval", s.interval,
		"lookback", s.lookback,
	)

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Error("[ArchiveScheduler] Archiving failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("[ArchiveScheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// RunOnce computes the trailing window ending now and appends one report.
func (s *ArchiveScheduler) RunOnce(ctx context.Context) (*v1.Report, error) {
	now := s.now().UTC()
	w := coreagg.Window{Start: now.Add(-s.lookback), End: now}

	snap, err := s.aggregator.ComputeSnapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	stored, err := s.archive.AppendReport(ctx, &v1.Report{
		ReportDate:    now,
		TotalRevenue:  snap.TotalRevenue,
		AvgOrderValue: snap.AvgOrderValue(),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("[ArchiveScheduler] Archived report",
		"id", stored.ID,
		"total_revenue", stored.TotalRevenue.String(),
		"orders", snap.OrderCount,
	)
	return stored, nil
}
