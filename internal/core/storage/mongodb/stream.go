package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// changeEvent is the subset of a change stream document the feed needs.
type changeEvent struct {
	OperationType string  `bson:"operationType"`
	FullDocument  saleDoc `bson:"fullDocument"`
}

// changeCursor is the part of *mongo.ChangeStream the stream loop uses.
type changeCursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// SubscribeInserts opens a change stream on sales filtered to inserts.
// Change streams need a replica set; a standalone server fails here.
func (s *Store) SubscribeInserts(ctx context.Context) (storage.InsertStream, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	cs, err := s.db.Collection(colSales).Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.Default))
	if err != nil {
		return nil, unavailable("watch sales", err)
	}

	buffer := s.opts.StreamBuffer
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	st := newChangeStream(buffer)
	slog.Info("[Mongo] Watching sales for inserts")
	go st.run(ctx, cs)
	return st, nil
}

// changeStream adapts a change stream cursor to storage.InsertStream.
type changeStream struct {
	events chan *v1.SaleEvent
	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newChangeStream(buffer int) *changeStream {
	return &changeStream{
		events: make(chan *v1.SaleEvent, buffer),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (c *changeStream) Events() <-chan *v1.SaleEvent { return c.events }

func (c *changeStream) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close cancels the cursor and waits for the loop to exit.
func (c *changeStream) Close() error {
	<-c.ready
	c.cancel()
	<-c.done
	return nil
}

func (c *changeStream) run(parent context.Context, cs changeCursor) {
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	close(c.ready)

	defer close(c.done)
	defer close(c.events)
	defer cancel()
	defer cs.Close(context.Background()) //nolint:errcheck

	for cs.Next(ctx) {
		var ev changeEvent
		if err := cs.Decode(&ev); err != nil {
			slog.Warn("[Mongo] Dropping undecodable change event", "error", err)
			continue
		}
		if ev.OperationType != "insert" {
			continue
		}
		sale, err := ev.FullDocument.toSale()
		if err != nil {
			slog.Warn("[Mongo] Dropping malformed sale document", "error", err)
			continue
		}
		select {
		case c.events <- sale:
		case <-ctx.Done():
			return
		}
	}

	if err := cs.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		c.mu.Lock()
		c.err = unavailable("change stream", err)
		c.mu.Unlock()
		slog.Warn("[Mongo] Change stream ended", "error", err)
	}
}
