package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
)

// ReportAdapter implements storage.ReportArchive using PostgreSQL.
// Reports are append-only; there is no update or delete path.
type ReportAdapter struct {
	db  *sql.DB
	now func() time.Time
}

// NewReportAdapter creates a ReportAdapter sharing the given connection.
func NewReportAdapter(db *sql.DB) *ReportAdapter {
	return &ReportAdapter{db: db, now: time.Now}
}

// AppendReport inserts report and returns it with its id.
// A zero ReportDate is set to the current time.
func (a *ReportAdapter) AppendReport(ctx context.Context, report *v1.Report) (*v1.Report, error) {
	stored := *report
	if stored.ReportDate.IsZero() {
		stored.ReportDate = a.now().UTC()
	}

	err := a.db.QueryRowContext(ctx, queryAppendReport,
		stored.ReportDate,
		stored.TotalRevenue,
		stored.AvgOrderValue,
	).Scan(&stored.ID)
	if err != nil {
		return nil, unavailable("append report", err)
	}

	slog.Debug("[ReportAdapter] Appended report", "id", stored.ID, "report_date", stored.ReportDate)
	return &stored, nil
}

// ListReports returns every report ordered by report_date descending.
func (a *ReportAdapter) ListReports(ctx context.Context) ([]*v1.Report, error) {
	rows, err := a.db.QueryContext(ctx, queryListReports)
	if err != nil {
		return nil, unavailable("list reports", err)
	}
	defer rows.Close()

	reports := make([]*v1.Report, 0)
	for rows.Next() {
		var r v1.Report
		if err := rows.Scan(&r.ID, &r.ReportDate, &r.TotalRevenue, &r.AvgOrderValue); err != nil {
			return nil, unavailable("scan report", err)
		}
		r.ReportDate = r.ReportDate.UTC()
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate reports", err)
	}
	return reports, nil
}
