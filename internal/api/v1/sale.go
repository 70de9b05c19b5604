package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Revenue values go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// SaleEvent is one immutable sales fact.
// It is created once by the ingestion path and never mutated afterwards.
type SaleEvent struct {
	// ID is the unique identifier of the sale. Assigned by ingestion when empty.
	ID string `json:"id"`

	// CustomerID references a Customer. The reference may dangle; joins drop it.
	CustomerID string `json:"customerId"`

	// ProductID references a Product. The reference may dangle; joins drop it.
	ProductID string `json:"productId"`

	// Quantity is the number of units sold. Always positive.
	Quantity int64 `json:"quantity"`

	// UnitRevenue is the revenue per unit at the time of sale.
	UnitRevenue decimal.Decimal `json:"unitRevenue"`

	// TotalRevenue is the revenue of the whole sale. This is the value every
	// aggregate sums.
	TotalRevenue decimal.Decimal `json:"totalRevenue"`

	// OccurredAt is when the sale happened. Windows filter on this field.
	OccurredAt time.Time `json:"occurredAt"`

	// Seq is the store-assigned insertion sequence.
	// It gives batch scans the same order the change feed delivers in.
	Seq int64 `json:"-"`
}

// Validate ensures the sale has all required attributes.
func (s *SaleEvent) Validate() error {
	if s.CustomerID == "" {
		return fmt.Errorf("customerId is required")
	}
	if s.ProductID == "" {
		return fmt.Errorf("productId is required")
	}
	if s.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", s.Quantity)
	}
	if s.UnitRevenue.IsNegative() {
		return fmt.Errorf("unitRevenue must not be negative")
	}
	if s.TotalRevenue.IsNegative() {
		return fmt.Errorf("totalRevenue must not be negative")
	}
	if s.OccurredAt.IsZero() {
		return fmt.Errorf("occurredAt is required")
	}
	return nil
}

// Customer is read-only reference data joined by customer aggregates.
type Customer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Type   string `json:"type"`
}

// Product is read-only reference data joined by product aggregates.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}
