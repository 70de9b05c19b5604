package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	"github.com/aevon-lab/salespulse/internal/core/storage"
)

const defaultStreamBuffer = 256

// Store is an in-memory implementation of storage.EventStore and
// storage.ReportArchive. Useful for testing and development.
type Store struct {
	mu        sync.RWMutex
	sales     []*v1.SaleEvent
	saleIDs   map[string]struct{}
	products  map[string]*v1.Product
	customers map[string]*v1.Customer
	reports   []*v1.Report
	seq       int64
	reportSeq int64

	streams      map[*stream]struct{}
	streamBuffer int
	now          func() time.Time
}

// NewStore creates an empty store. streamBuffer <= 0 uses the default.
func NewStore(streamBuffer int) *Store {
	if streamBuffer <= 0 {
		streamBuffer = defaultStreamBuffer
	}
	return &Store{
		saleIDs:      make(map[string]struct{}),
		products:     make(map[string]*v1.Product),
		customers:    make(map[string]*v1.Customer),
		streams:      make(map[*stream]struct{}),
		streamBuffer: streamBuffer,
		now:          time.Now,
	}
}

// PutProduct adds or replaces reference data.
func (s *Store) PutProduct(p *v1.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *p
	s.products[p.ID] = &copy
}

// PutCustomer adds or replaces reference data.
func (s *Store) PutCustomer(c *v1.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *c
	s.customers[c.ID] = &copy
}

// SaveSale appends a sale and fans it out to every open stream.
// A stream whose buffer is full is ended with an overflow error rather
// than blocking the writer.
func (s *Store) SaveSale(ctx context.Context, sale *v1.SaleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.saleIDs[sale.ID]; exists {
		return storage.ErrDuplicate
	}
	s.seq++
	sale.Seq = s.seq

	copy := *sale
	s.sales = append(s.sales, &copy)
	s.saleIDs[sale.ID] = struct{}{}

	for st := range s.streams {
		delivered := copy
		select {
		case st.events <- &delivered:
		default:
			slog.Warn("[Memory] Insert stream overflowed, closing it", "buffer", cap(st.events))
			s.endStreamLocked(st, fmt.Errorf("%w: insert stream overflow", storage.ErrStoreUnavailable))
		}
	}
	return nil
}

// QueryEvents returns copies of sales inside w in insertion order.
func (s *Store) QueryEvents(ctx context.Context, w coreagg.Window) ([]*v1.SaleEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*v1.SaleEvent, 0)
	for _, sale := range s.sales {
		if !w.Contains(sale.OccurredAt) {
			continue
		}
		copy := *sale
		result = append(result, &copy)
	}
	return result, nil
}

func (s *Store) ResolveProduct(ctx context.Context, id string) (*v1.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	copy := *p
	return &copy, nil
}

func (s *Store) ResolveCustomer(ctx context.Context, id string) (*v1.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	copy := *c
	return &copy, nil
}

// AppendReport stores a copy of report. A zero ReportDate is set to now.
func (s *Store) AppendReport(ctx context.Context, report *v1.Report) (*v1.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reportSeq++
	stored := *report
	stored.ID = strconv.FormatInt(s.reportSeq, 10)
	if stored.ReportDate.IsZero() {
		stored.ReportDate = s.now().UTC()
	}
	s.reports = append(s.reports, &stored)

	out := stored
	return &out, nil
}

// ListReports returns reports newest reportDate first; ties newest insertion first.
func (s *Store) ListReports(ctx context.Context) ([]*v1.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*v1.Report, 0, len(s.reports))
	for i := len(s.reports) - 1; i >= 0; i-- {
		copy := *s.reports[i]
		result = append(result, &copy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReportDate.After(result[j].ReportDate)
	})
	return result, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// SubscribeInserts registers a stream that receives every later SaveSale.
func (s *Store) SubscribeInserts(ctx context.Context) (storage.InsertStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &stream{
		store:  s,
		events: make(chan *v1.SaleEvent, s.streamBuffer),
		ended:  make(chan struct{}),
	}
	s.streams[st] = struct{}{}

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				st.Close() //nolint:errcheck
			case <-st.ended:
			}
		}()
	}
	return st, nil
}

// OpenStreams reports how many insert streams are registered.
func (s *Store) OpenStreams() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams)
}

// CloseStreams ends every open stream with err, simulating a lost feed.
func (s *Store) CloseStreams(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for st := range s.streams {
		s.endStreamLocked(st, err)
	}
}

// Close ends every open stream cleanly. The stored data is kept.
func (s *Store) Close() error {
	s.CloseStreams(nil)
	return nil
}

func (s *Store) endStreamLocked(st *stream, err error) {
	if _, ok := s.streams[st]; !ok {
		return
	}
	delete(s.streams, st)
	st.err = err
	close(st.events)
	close(st.ended)
}

type stream struct {
	store  *Store
	events chan *v1.SaleEvent
	ended  chan struct{}
	err    error // guarded by store.mu
}

func (st *stream) Events() <-chan *v1.SaleEvent { return st.events }

func (st *stream) Err() error {
	st.store.mu.RLock()
	defer st.store.mu.RUnlock()
	return st.err
}

func (st *stream) Close() error {
	st.store.mu.Lock()
	defer st.store.mu.Unlock()
	st.store.endStreamLocked(st, nil)
	return nil
}
