package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	colSales     = "sales"
	colProducts  = "products"
	colCustomers = "customers"
	colReports   = "reports"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 2 * time.Second

	defaultStreamBuffer = 256
)

// Options configures the MongoDB store.
type Options struct {
	URI          string
	Database     string
	MaxPoolSize  uint64
	MinPoolSize  uint64
	StreamBuffer int
}

// Store implements storage.EventStore and storage.ReportArchive on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	opts   Options
	now    func() time.Time
}

// Connect dials MongoDB and verifies the connection.
func Connect(opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("mongo database name is empty")
	}

	clientOptions := options.Client().ApplyURI(opts.URI).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)
	if opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(opts.MinPoolSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), pingTimeout)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("[Mongo] Connected", "database", opts.Database)
	s := newStore(client.Database(opts.Database), opts)
	s.client = client
	return s, nil
}

func newStore(db *mongo.Database, opts Options) *Store {
	return &Store{db: db, opts: opts, now: time.Now}
}

// EnsureIndexes creates the indexes the window scans and joins rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(colSales).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reportDate", Value: 1}}},
		{Keys: bson.D{{Key: "productId", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create sales indexes: %w", err)
	}
	_, err = s.db.Collection(colReports).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reportDate", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create reports index: %w", err)
	}
	slog.Info("[Mongo] Indexes ensured")
	return nil
}

// SaveSale inserts a sale document.
func (s *Store) SaveSale(ctx context.Context, sale *v1.SaleEvent) error {
	doc, err := saleToDoc(sale)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(colSales).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicate
		}
		return unavailable("insert sale", err)
	}
	slog.Debug("[Mongo] Saved sale", "sale_id", sale.ID)
	return nil
}

// QueryEvents returns sales inside w in natural (insertion) order.
func (s *Store) QueryEvents(ctx context.Context, w coreagg.Window) ([]*v1.SaleEvent, error) {
	bounds := bson.D{{Key: "$gte", Value: w.Start}}
	if !w.OpenEnded() {
		bounds = append(bounds, bson.E{Key: "$lte", Value: w.End})
	}
	filter := bson.D{{Key: "reportDate", Value: bounds}}
	opts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})

	cursor, err := s.db.Collection(colSales).Find(ctx, filter, opts)
	if err != nil {
		return nil, unavailable("find sales", err)
	}
	defer cursor.Close(ctx)

	sales := make([]*v1.SaleEvent, 0)
	for cursor.Next(ctx) {
		var doc saleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, unavailable("decode sale", err)
		}
		sale, err := doc.toSale()
		if err != nil {
			return nil, unavailable("decode sale", err)
		}
		sales = append(sales, sale)
	}
	if err := cursor.Err(); err != nil {
		return nil, unavailable("iterate sales", err)
	}
	return sales, nil
}

// ResolveProduct looks up a product by id.
func (s *Store) ResolveProduct(ctx context.Context, id string) (*v1.Product, error) {
	var doc productDoc
	err := s.db.Collection(colProducts).FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find product", err)
	}
	p, err := doc.toProduct()
	if err != nil {
		return nil, unavailable("decode product", err)
	}
	return p, nil
}

// ResolveCustomer looks up a customer by id.
func (s *Store) ResolveCustomer(ctx context.Context, id string) (*v1.Customer, error) {
	var doc customerDoc
	err := s.db.Collection(colCustomers).FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find customer", err)
	}
	return &v1.Customer{ID: doc.ID, Name: doc.Name, Region: doc.Region, Type: doc.Type}, nil
}

// AppendReport inserts a report. A zero ReportDate is set to now.
func (s *Store) AppendReport(ctx context.Context, report *v1.Report) (*v1.Report, error) {
	date := report.ReportDate
	if date.IsZero() {
		date = s.now().UTC()
	}
	total, err := toDecimal128(report.TotalRevenue)
	if err != nil {
		return nil, err
	}
	avg, err := toDecimal128(report.AvgOrderValue)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Collection(colReports).InsertOne(ctx, bson.D{
		{Key: "reportDate", Value: date},
		{Key: "totalRevenue", Value: total},
		{Key: "avgOrderValue", Value: avg},
	})
	if err != nil {
		return nil, unavailable("insert report", err)
	}

	stored := *report
	stored.ReportDate = date
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		stored.ID = oid.Hex()
	} else {
		stored.ID = fmt.Sprint(res.InsertedID)
	}
	return &stored, nil
}

// ListReports returns reports newest reportDate first; ties by newest _id.
func (s *Store) ListReports(ctx context.Context) ([]*v1.Report, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "reportDate", Value: -1},
		{Key: "_id", Value: -1},
	})
	cursor, err := s.db.Collection(colReports).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, unavailable("find reports", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*v1.Report, 0)
	for cursor.Next(ctx) {
		var doc reportDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, unavailable("decode report", err)
		}
		r, err := doc.toReport()
		if err != nil {
			return nil, unavailable("decode report", err)
		}
		reports = append(reports, r)
	}
	if err := cursor.Err(); err != nil {
		return nil, unavailable("iterate reports", err)
	}
	return reports, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB client: %w", err)
	}
	slog.Info("[Mongo] Disconnected")
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", storage.ErrStoreUnavailable, op, err)
}
