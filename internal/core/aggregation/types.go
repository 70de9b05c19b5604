package aggregation

import (
	"github.com/shopspring/decimal"
)

// DefaultTopN is how many products and customers a snapshot ranks.
const DefaultTopN = 5

// UnknownRegion collects revenue of customers that do not resolve.
// Only the live cache uses it; batch region stats drop those sales instead.
const UnknownRegion = "Unknown"

// ProductTotal is one row of the top products ranking.
type ProductTotal struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	TotalQuantity int64           `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

// CustomerTotal is one row of the top customers ranking.
type CustomerTotal struct {
	CustomerID    string          `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	Region        string          `json:"region"`
	TotalQuantity int64           `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

// RegionTotal is the revenue attributed to one customer region.
type RegionTotal struct {
	Region       string          `json:"region"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// Snapshot is the full aggregate result for a window.
// Slices are never nil so they render as [] rather than null.
type Snapshot struct {
	Window       Window          `json:"window"`
	Version      uint64          `json:"version"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	OrderCount   int64           `json:"orderCount"`
	TopProducts  []ProductTotal  `json:"topProducts"`
	TopCustomers []CustomerTotal `json:"topCustomers"`
	RegionTotals []RegionTotal   `json:"regionTotals"`
}

// AvgOrderValue is totalRevenue / orderCount, or zero for an empty window.
func (s Snapshot) AvgOrderValue() decimal.Decimal {
	if s.OrderCount == 0 {
		return decimal.Zero
	}
	return s.TotalRevenue.DivRound(decimal.NewFromInt(s.OrderCount), 2)
}
