package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSaleRow scans a sales row into a SaleEvent.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanSaleRow(row scanner) (*v1.SaleEvent, error) {
	var sale v1.SaleEvent
	err := row.Scan(
		&sale.ID,
		&sale.CustomerID,
		&sale.ProductID,
		&sale.Quantity,
		&sale.UnitRevenue,
		&sale.TotalRevenue,
		&sale.OccurredAt,
		&sale.Seq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sale row: %w", err)
	}
	sale.OccurredAt = sale.OccurredAt.UTC()
	return &sale, nil
}

// saleNotification is the row_to_json(NEW) payload the insert trigger sends.
type saleNotification struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	ProductID    string          `json:"product_id"`
	Quantity     int64           `json:"quantity"`
	UnitRevenue  decimal.Decimal `json:"unit_revenue"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Seq          int64           `json:"seq"`
}

// decodeNotification turns a sale_inserted payload into a SaleEvent.
func decodeNotification(payload string) (*v1.SaleEvent, error) {
	var n saleNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return nil, fmt.Errorf("failed to decode notification payload: %w", err)
	}
	if n.ID == "" {
		return nil, fmt.Errorf("notification payload has no sale id")
	}
	return &v1.SaleEvent{
		ID:           n.ID,
		CustomerID:   n.CustomerID,
		ProductID:    n.ProductID,
		Quantity:     n.Quantity,
		UnitRevenue:  n.UnitRevenue,
		TotalRevenue: n.TotalRevenue,
		OccurredAt:   n.OccurredAt.UTC(),
		Seq:          n.Seq,
	}, nil
}

// unavailable wraps a driver error so the HTTP layer reports 503.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", storage.ErrStoreUnavailable, op, err)
}
