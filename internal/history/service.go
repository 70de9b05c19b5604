package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreerrors "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaveRequest is the POST /history body.
type SaveRequest struct {
	ReportDate    *time.Time       `json:"reportDate"`
	TotalRevenue  *decimal.Decimal `json:"totalRevenue"`
	AvgOrderValue *decimal.Decimal `json:"avgOrderValue"`
}

// Service stores and lists archived reports. Reports are append-only.
type Service struct {
	archive storage.ReportArchive
	nowFn   func() time.Time
}

func NewService(archive storage.ReportArchive) *Service {
	if archive == nil {
		panic("history: archive must not be nil")
	}
	return &Service{
		archive: archive,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RegisterRoutes registers the history routes. The caller mounts it under
// /api/analytics.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/history", s.HandleSave)
	r.GET("/history", s.HandleList)
}

// Save validates req and appends it. A missing reportDate is set to now.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*v1.Report, error) {
	report, err := s.toReport(req)
	if err != nil {
		return nil, err
	}

	stored, err := s.archive.AppendReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("append report: %w", err)
	}

	slog.Info("[History] Report archived",
		"id", stored.ID,
		"report_date", stored.ReportDate,
		"total_revenue", stored.TotalRevenue.String())
	return stored, nil
}

// List returns every report, newest reportDate first.
func (s *Service) List(ctx context.Context) ([]*v1.Report, error) {
	reports, err := s.archive.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if reports == nil {
		reports = []*v1.Report{}
	}
	return reports, nil
}

func (s *Service) toReport(req SaveRequest) (*v1.Report, error) {
	if req.TotalRevenue == nil {
		return nil, fmt.Errorf("%w: totalRevenue is required", coreerrors.ErrValidation)
	}
	if req.AvgOrderValue == nil {
		return nil, fmt.Errorf("%w: avgOrderValue is required", coreerrors.ErrValidation)
	}
	if req.TotalRevenue.IsNegative() {
		return nil, fmt.Errorf("%w: totalRevenue must not be negative", coreerrors.ErrValidation)
	}
	if req.AvgOrderValue.IsNegative() {
		return nil, fmt.Errorf("%w: avgOrderValue must not be negative", coreerrors.ErrValidation)
	}

	report := &v1.Report{
		TotalRevenue:  *req.TotalRevenue,
		AvgOrderValue: *req.AvgOrderValue,
	}
	if req.ReportDate != nil {
		report.ReportDate = req.ReportDate.UTC()
	} else {
		report.ReportDate = s.nowFn()
	}
	return report, nil
}
