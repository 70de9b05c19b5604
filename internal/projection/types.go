package projection

import (
	"github.com/shopspring/decimal"
)

// WindowQuery is the date range every analytics query takes.
// Bounds are YYYY-MM-DD or RFC3339; which ones are required depends on the query.
type WindowQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// RevenueResponse is the body of GET /revenue.
type RevenueResponse struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}
