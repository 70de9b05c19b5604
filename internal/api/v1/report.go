package v1

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is a point-in-time archive entry used for historical trend display.
// Reports are append-only. ID is assigned by the archive.
type Report struct {
	ID            string          `json:"id"`
	ReportDate    time.Time       `json:"reportDate"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
}
