package storage

import (
	"context"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	coreerrors "github.com/aevon-lab/salespulse/internal/core/errors"
)

// Store errors. They alias the core sentinels so the HTTP layer can classify
// them without importing a storage adapter.
var (
	// ErrNotFound is returned when a product or customer id does not resolve.
	ErrNotFound = coreerrors.ErrNotFound

	// ErrStoreUnavailable wraps every connection or query failure.
	ErrStoreUnavailable = coreerrors.ErrStoreUnavailable

	// ErrDuplicate is returned when a sale with the same id already exists.
	ErrDuplicate = coreerrors.ErrDuplicate
)

// EventStore is the read and append surface over sales and their reference data.
type EventStore interface {
	// QueryEvents returns every sale whose occurredAt lies inside w, ordered
	// by insertion. An open-ended window has no upper bound.
	QueryEvents(ctx context.Context, w coreagg.Window) ([]*v1.SaleEvent, error)

	// ResolveProduct returns ErrNotFound for unknown ids.
	ResolveProduct(ctx context.Context, id string) (*v1.Product, error)

	// ResolveCustomer returns ErrNotFound for unknown ids.
	ResolveCustomer(ctx context.Context, id string) (*v1.Customer, error)

	// SaveSale appends a sale and fills in its insertion sequence.
	SaveSale(ctx context.Context, sale *v1.SaleEvent) error

	// SubscribeInserts opens a stream of appended sales.
	// An error means the stream could not be established at all.
	SubscribeInserts(ctx context.Context) (InsertStream, error)

	Ping(ctx context.Context) error
}

// InsertStream delivers appended sales in insertion order, at least once.
// The Events channel is closed when the stream ends; Err then reports why
// (nil after Close or context cancellation).
type InsertStream interface {
	Events() <-chan *v1.SaleEvent
	Err() error
	Close() error
}

// ReportArchive is an append-only log of computed reports.
type ReportArchive interface {
	// AppendReport stores report, assigning its id.
	AppendReport(ctx context.Context, report *v1.Report) (*v1.Report, error)

	// ListReports returns every report, newest reportDate first.
	ListReports(ctx context.Context) ([]*v1.Report, error)
}
