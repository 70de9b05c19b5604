package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAdapter_SaveSale(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	newSale := func(id string) *v1.SaleEvent {
		return &v1.SaleEvent{
			ID:           id,
			CustomerID:   "cust-1",
			ProductID:    "prod-1",
			Quantity:     2,
			UnitRevenue:  decimal.NewFromInt(100),
			TotalRevenue: decimal.NewFromInt(200),
			OccurredAt:   now,
		}
	}

	tests := []struct {
		name       string
		sale       *v1.SaleEvent
		mockResult func(mock sqlmock.Sqlmock, sale *v1.SaleEvent)
		assertions func(t *testing.T, sale *v1.SaleEvent, err error)
	}{
		{
			name: "success sets seq",
			sale: newSale("sale-1"),
			mockResult: func(mock sqlmock.Sqlmock, sale *v1.SaleEvent) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveSale)).
					WithArgs(
						sale.ID,
						sale.CustomerID,
						sale.ProductID,
						sale.Quantity,
						sale.UnitRevenue,
						sale.TotalRevenue,
						sale.OccurredAt,
					).
					WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(42)))
			},
			assertions: func(t *testing.T, sale *v1.SaleEvent, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(42), sale.Seq)
			},
		},
		{
			name: "duplicate maps to ErrDuplicate",
			sale: newSale("sale-dup"),
			mockResult: func(mock sqlmock.Sqlmock, sale *v1.SaleEvent) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveSale)).
					WillReturnRows(sqlmock.NewRows([]string{"seq"}))
			},
			assertions: func(t *testing.T, sale *v1.SaleEvent, err error) {
				require.ErrorIs(t, err, storage.ErrDuplicate)
				require.Equal(t, int64(0), sale.Seq)
			},
		},
		{
			name: "driver error maps to ErrStoreUnavailable",
			sale: newSale("sale-2"),
			mockResult: func(mock sqlmock.Sqlmock, sale *v1.SaleEvent) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveSale)).
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, sale *v1.SaleEvent, err error) {
				require.ErrorIs(t, err, storage.ErrStoreUnavailable)
				require.ErrorContains(t, err, "connection reset")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			tc.mockResult(mock, tc.sale)

			err := adapter.SaveSale(context.Background(), tc.sale)
			tc.assertions(t, tc.sale, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_QueryEventsClosedWindow(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	w := coreagg.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	occurredAt := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(querySalesInWindow)).
		WithArgs(w.Start, w.End).
		WillReturnRows(sqlmock.NewRows(saleRowColumns()).
			AddRow("sale-1", "cust-1", "prod-A", int64(2), "100.00", "200.00", occurredAt, int64(7)).
			AddRow("sale-2", "cust-2", "prod-B", int64(1), "500.00", "500.00", occurredAt.Add(time.Hour), int64(8)),
		).RowsWillBeClosed()

	sales, err := adapter.QueryEvents(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.Equal(t, "sale-1", sales[0].ID)
	require.Equal(t, int64(7), sales[0].Seq)
	require.True(t, decimal.NewFromInt(200).Equal(sales[0].TotalRevenue))
	require.Equal(t, "prod-B", sales[1].ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_QueryEventsOpenWindow(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(querySalesSince)).
		WithArgs(start).
		WillReturnRows(sqlmock.NewRows(saleRowColumns()))

	sales, err := adapter.QueryEvents(context.Background(), coreagg.Window{Start: start})
	require.NoError(t, err)
	require.NotNil(t, sales)
	require.Empty(t, sales)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_QueryEventsFailure(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	w := coreagg.Window{Start: time.Unix(0, 0).UTC(), End: time.Now().UTC()}
	mock.ExpectQuery(regexp.QuoteMeta(querySalesInWindow)).
		WillReturnError(context.DeadlineExceeded)

	_, err := adapter.QueryEvents(context.Background(), w)
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ResolveProduct(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryResolveProduct)).
		WithArgs("prod-A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "price"}).
			AddRow("prod-A", "Laptop", "Electronics", "999.99"))
	mock.ExpectQuery(regexp.QuoteMeta(queryResolveProduct)).
		WithArgs("prod-missing").
		WillReturnError(sql.ErrNoRows)

	p, err := adapter.ResolveProduct(context.Background(), "prod-A")
	require.NoError(t, err)
	require.Equal(t, "Laptop", p.Name)
	require.Equal(t, "999.99", p.Price.StringFixed(2))

	_, err = adapter.ResolveProduct(context.Background(), "prod-missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ResolveCustomer(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryResolveCustomer)).
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "region", "type"}).
			AddRow("cust-1", "Ann", "North", "Business"))
	mock.ExpectQuery(regexp.QuoteMeta(queryResolveCustomer)).
		WithArgs("cust-2").
		WillReturnError(errors.New("too many connections"))

	c, err := adapter.ResolveCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Equal(t, "North", c.Region)
	require.Equal(t, "Business", c.Type)

	_, err = adapter.ResolveCustomer(context.Background(), "cust-2")
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	require.NotErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	for _, q := range preparedQueries() {
		mock.ExpectPrepare(regexp.QuoteMeta(q)).WillBeClosed()
	}
	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{db: db}
	require.NoError(t, adapter.prepare())

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	for _, q := range preparedQueries() {
		mock.ExpectPrepare(regexp.QuoteMeta(q))
	}
	adapter := &Adapter{db: db}
	require.NoError(t, adapter.prepare())

	return adapter, mock, db
}

// preparedQueries lists statements in the order prepare() creates them.
func preparedQueries() []string {
	return []string{
		querySaveSale,
		querySalesInWindow,
		querySalesSince,
		queryResolveProduct,
		queryResolveCustomer,
	}
}

func saleRowColumns() []string {
	return []string{
		"id",
		"customer_id",
		"product_id",
		"quantity",
		"unit_revenue",
		"total_revenue",
		"occurred_at",
		"seq",
	}
}
