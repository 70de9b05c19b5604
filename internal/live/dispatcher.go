package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage"
)

// NewSaleEvent is the realtime event name for an appended sale.
const NewSaleEvent = "newSale"

const (
	defaultMinReconnect   = 500 * time.Millisecond
	defaultMaxReconnect   = 30 * time.Second
	defaultDedupWindow    = 1024
	defaultResolveTimeout = 5 * time.Second
)

// ErrDispatcherStopped is returned by Prime once the dispatcher has exited.
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// State is the connection state of the change feed.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Publisher delivers a realtime message to subscribers without blocking.
type Publisher interface {
	Publish(event string, data any) error
}

// DispatcherOptions controls reconnect backoff, dedup and lookups.
type DispatcherOptions struct {
	MinReconnect time.Duration
	MaxReconnect time.Duration
	// DedupWindow is how many recent sale ids are remembered to drop
	// redelivered notifications.
	DedupWindow    int
	ResolveTimeout time.Duration
}

func (o DispatcherOptions) normalized() DispatcherOptions {
	n := o
	if n.MinReconnect <= 0 {
		n.MinReconnect = defaultMinReconnect
	}
	if n.MaxReconnect < n.MinReconnect {
		n.MaxReconnect = defaultMaxReconnect
		if n.MaxReconnect < n.MinReconnect {
			n.MaxReconnect = n.MinReconnect
		}
	}
	if n.DedupWindow <= 0 {
		n.DedupWindow = defaultDedupWindow
	}
	if n.ResolveTimeout <= 0 {
		n.ResolveTimeout = defaultResolveTimeout
	}
	return n
}

// SalePayload is the data of a newSale message: the sale, its join
// results and the live snapshot after applying it.
type SalePayload struct {
	*v1.SaleEvent
	ProductName  string           `json:"productName,omitempty"`
	CustomerName string           `json:"customerName,omitempty"`
	Region       string           `json:"region"`
	Snapshot     coreagg.Snapshot `json:"snapshot"`
}

type primeRequest struct {
	tally *coreagg.Tally
	done  chan coreagg.Snapshot
}

// Dispatcher consumes the store's insert stream, keeps the cache current and
// broadcasts every new sale. It is the only writer of its cache.
type Dispatcher struct {
	store storage.EventStore
	cache *Cache
	pub   Publisher
	opts  DispatcherOptions

	state   atomic.Int32
	primes  chan primeRequest
	stopped chan struct{}
	startMu sync.Mutex
	started bool

	// owned by the run goroutine
	recent *recentLog
}

// NewDispatcher wires a dispatcher. Nothing runs until Start.
func NewDispatcher(store storage.EventStore, cache *Cache, pub Publisher, opts DispatcherOptions) *Dispatcher {
	opts = opts.normalized()
	return &Dispatcher{
		store:   store,
		cache:   cache,
		pub:     pub,
		opts:    opts,
		primes:  make(chan primeRequest),
		stopped: make(chan struct{}),
		recent:  newRecentLog(opts.DedupWindow),
	}
}

// State reports whether the feed is currently connected.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Done is closed when the dispatcher has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.stopped
}

// Start opens the first insert stream and then consumes it in the
// background until ctx is cancelled. Failure to open the first stream is
// returned; later losses are retried with backoff.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started {
		return errors.New("dispatcher already started")
	}

	stream, err := d.store.SubscribeInserts(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to sale inserts: %w", err)
	}
	d.started = true
	d.setState(StateConnected)
	slog.Info("[Dispatcher] Change feed connected")

	go d.run(ctx, stream)
	return nil
}

// Prime replaces the cache state with a batch result. The replacement runs
// on the dispatcher goroutine; sales already delivered but not contained in
// the tally are re-applied.
func (d *Dispatcher) Prime(ctx context.Context, tally *coreagg.Tally) (coreagg.Snapshot, error) {
	req := primeRequest{tally: tally, done: make(chan coreagg.Snapshot, 1)}
	select {
	case d.primes <- req:
	case <-d.stopped:
		return coreagg.Snapshot{}, ErrDispatcherStopped
	case <-ctx.Done():
		return coreagg.Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-req.done:
		return snap, nil
	case <-ctx.Done():
		return coreagg.Snapshot{}, ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, stream storage.InsertStream) {
	defer close(d.stopped)
	defer d.setState(StateDisconnected)

	backoff := d.opts.MinReconnect
	for {
		lost := d.consume(ctx, stream)
		stream.Close() //nolint:errcheck
		if ctx.Err() != nil {
			slog.Info("[Dispatcher] Stopping (context cancelled)")
			return
		}

		d.setState(StateDisconnected)
		slog.Warn("[Dispatcher] Change feed lost, sales inserted until reconnect are not replayed",
			"error", lost)

		for {
			if !d.wait(ctx, backoff) {
				slog.Info("[Dispatcher] Stopping (context cancelled)")
				return
			}
			next, err := d.store.SubscribeInserts(ctx)
			if err == nil {
				stream = next
				backoff = d.opts.MinReconnect
				break
			}
			backoff = min(backoff*2, d.opts.MaxReconnect)
			slog.Warn("[Dispatcher] Reconnect failed", "error", err, "retry_in", backoff)
		}

		d.setState(StateConnected)
		slog.Info("[Dispatcher] Change feed reconnected")
	}
}

// consume handles events and prime requests until the stream ends or ctx is
// cancelled. It returns the stream's error.
func (d *Dispatcher) consume(ctx context.Context, stream storage.InsertStream) error {
	events := stream.Events()
	for {
		select {
		case sale, ok := <-events:
			if !ok {
				return stream.Err()
			}
			d.handle(ctx, sale)
		case req := <-d.primes:
			d.prime(req)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// wait sleeps for backoff while still serving prime requests.
func (d *Dispatcher) wait(ctx context.Context, backoff time.Duration) bool {
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return true
		case req := <-d.primes:
			d.prime(req)
		case <-ctx.Done():
			return false
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, sale *v1.SaleEvent) {
	if sale == nil {
		return
	}
	if d.recent.seen(sale.ID) {
		slog.Debug("[Dispatcher] Dropping redelivered sale", "id", sale.ID)
		return
	}

	enriched := d.enrich(ctx, sale)
	d.recent.add(enriched)

	var snap coreagg.Snapshot
	if d.cache.Contains(sale.ID) {
		// already folded into the primed tally
		snap = d.cache.Snapshot()
	} else {
		var applied bool
		snap, applied = d.cache.Apply(enriched)
		if !applied {
			slog.Debug("[Dispatcher] Sale outside live window", "id", sale.ID, "occurred_at", sale.OccurredAt)
		}
	}

	payload := SalePayload{
		SaleEvent: sale,
		Region:    enriched.Region(),
		Snapshot:  snap,
	}
	if enriched.Product != nil {
		payload.ProductName = enriched.Product.Name
	}
	if enriched.Customer != nil {
		payload.CustomerName = enriched.Customer.Name
	}
	if err := d.pub.Publish(NewSaleEvent, payload); err != nil {
		slog.Error("[Dispatcher] Broadcast failed", "id", sale.ID, "error", err)
	}
}

// enrich resolves the sale's product and customer. Lookup failures are
// logged and recorded apart from rows that do not exist.
func (d *Dispatcher) enrich(ctx context.Context, sale *v1.SaleEvent) EnrichedSale {
	out := EnrichedSale{Sale: sale}

	pctx, cancel := context.WithTimeout(ctx, d.opts.ResolveTimeout)
	product, err := d.store.ResolveProduct(pctx, sale.ProductID)
	cancel()
	switch {
	case err == nil:
		out.Product = product
	case errors.Is(err, storage.ErrNotFound):
	default:
		out.ProductErr = err
		slog.Warn("[Dispatcher] Product lookup failed", "id", sale.ID, "product_id", sale.ProductID, "error", err)
	}

	cctx, cancel := context.WithTimeout(ctx, d.opts.ResolveTimeout)
	customer, err := d.store.ResolveCustomer(cctx, sale.CustomerID)
	cancel()
	switch {
	case err == nil:
		out.Customer = customer
	case errors.Is(err, storage.ErrNotFound):
	default:
		out.CustomerErr = err
		slog.Warn("[Dispatcher] Customer lookup failed", "id", sale.ID, "customer_id", sale.CustomerID, "error", err)
	}
	return out
}

func (d *Dispatcher) prime(req primeRequest) {
	snap := d.cache.Prime(req.tally)

	// sales delivered before the batch query saw them
	replayed := 0
	for _, e := range d.recent.entries() {
		if !req.tally.Contains(e.Sale.ID) {
			if s, ok := d.cache.Apply(e); ok {
				snap = s
				replayed++
			}
		}
	}

	slog.Info("[Dispatcher] Live cache primed",
		"start", snap.Window.Start,
		"end", snap.Window.End,
		"orders", snap.OrderCount,
		"last_seq", req.tally.LastSeq(),
		"replayed", replayed)
	req.done <- snap
}

func (d *Dispatcher) setState(s State) {
	d.state.Store(int32(s))
}

// recentLog remembers the last n sales in arrival order.
type recentLog struct {
	buf  []EnrichedSale
	ids  map[string]struct{}
	next int
	full bool
}

func newRecentLog(n int) *recentLog {
	return &recentLog{
		buf: make([]EnrichedSale, n),
		ids: make(map[string]struct{}, n),
	}
}

func (r *recentLog) seen(id string) bool {
	_, ok := r.ids[id]
	return ok
}

func (r *recentLog) add(e EnrichedSale) {
	if r.full {
		delete(r.ids, r.buf[r.next].Sale.ID)
	}
	r.buf[r.next] = e
	r.ids[e.Sale.ID] = struct{}{}
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// entries returns the remembered sales, oldest first.
func (r *recentLog) entries() []EnrichedSale {
	if !r.full {
		out := make([]EnrichedSale, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]EnrichedSale, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
