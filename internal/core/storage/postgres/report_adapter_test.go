package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestReportAdapter_AppendDefaultsReportDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	adapter := NewReportAdapter(db)
	adapter.now = func() time.Time { return now }

	mock.ExpectQuery(regexp.QuoteMeta(queryAppendReport)).
		WithArgs(now, decimal.NewFromInt(700), decimal.NewFromInt(350)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	stored, err := adapter.AppendReport(context.Background(), &v1.Report{
		TotalRevenue:  decimal.NewFromInt(700),
		AvgOrderValue: decimal.NewFromInt(350),
	})
	require.NoError(t, err)
	require.Equal(t, "3", stored.ID)
	require.Equal(t, now, stored.ReportDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_AppendKeepsExplicitDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reportDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	adapter := NewReportAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(queryAppendReport)).
		WithArgs(reportDate, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	stored, err := adapter.AppendReport(context.Background(), &v1.Report{ReportDate: reportDate})
	require.NoError(t, err)
	require.Equal(t, reportDate, stored.ReportDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_ListReports(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewReportAdapter(db)
	columns := []string{"id", "report_date", "total_revenue", "avg_order_value"}

	mock.ExpectQuery(regexp.QuoteMeta(queryListReports)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "300.00", "150.00").
			AddRow(int64(3), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "200.00", "100.00").
			AddRow(int64(2), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "100.00", "50.00"),
		)

	reports, err := adapter.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	require.Equal(t, "1", reports[0].ID)
	require.Equal(t, "150.00", reports[0].AvgOrderValue.StringFixed(2))
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), reports[2].ReportDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_ListReportsFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryListReports)).
		WillReturnError(errors.New("relation \"reports\" does not exist"))

	_, err = NewReportAdapter(db).ListReports(context.Background())
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
