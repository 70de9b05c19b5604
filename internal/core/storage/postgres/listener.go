package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/lib/pq"
)

// insertChannel is the NOTIFY channel the sales insert trigger publishes on.
const insertChannel = "sale_inserted"

const (
	defaultStreamBuffer = 256
	listenerReadyWait   = 10 * time.Second
	listenerIdlePing    = 90 * time.Second
)

// SubscribeInserts opens a LISTEN on sale_inserted.
// Failing to connect or to LISTEN is returned to the caller. Once open, a
// dropped connection ends the stream with an error instead of letting
// pq reconnect silently; notifications sent while disconnected are lost.
func (a *Adapter) SubscribeInserts(ctx context.Context) (storage.InsertStream, error) {
	buffer := a.opts.StreamBuffer
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	s := newInsertStream(buffer)

	minReconnect, maxReconnect := a.opts.ListenerMinReconnect, a.opts.ListenerMaxReconnect
	if minReconnect <= 0 {
		minReconnect = time.Second
	}
	if maxReconnect < minReconnect {
		maxReconnect = minReconnect
	}
	l := pq.NewListener(a.opts.DSN, minReconnect, maxReconnect, s.onListenerEvent)

	waitCtx, cancel := context.WithTimeout(ctx, listenerReadyWait)
	defer cancel()
	select {
	case err := <-s.ready:
		if err != nil {
			l.Close()
			return nil, unavailable("connect listener", err)
		}
	case <-waitCtx.Done():
		l.Close()
		return nil, unavailable("connect listener", waitCtx.Err())
	}

	if err := l.Listen(insertChannel); err != nil {
		l.Close()
		return nil, unavailable("listen "+insertChannel, err)
	}
	if err := l.Ping(); err != nil {
		l.Close()
		return nil, unavailable("ping listener", err)
	}

	slog.Info("[Postgres] Listening for inserted sales", "channel", insertChannel)
	go s.run(ctx, l.Notify, l.Ping, l.Close)
	return s, nil
}

// insertStream adapts a pq.Listener to storage.InsertStream.
// Only run closes events.
type insertStream struct {
	events chan *v1.SaleEvent
	ready  chan error
	stop   chan struct{}
	done   chan struct{}

	readyOnce sync.Once
	stopOnce  sync.Once

	mu  sync.Mutex
	err error
}

func newInsertStream(buffer int) *insertStream {
	return &insertStream{
		events: make(chan *v1.SaleEvent, buffer),
		ready:  make(chan error, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *insertStream) Events() <-chan *v1.SaleEvent { return s.events }

func (s *insertStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the stream and waits for the listener to shut down.
func (s *insertStream) Close() error {
	s.halt(nil)
	<-s.done
	return nil
}

// halt records the first terminal error and signals run to stop.
func (s *insertStream) halt(err error) {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.stop)
	})
}

// onListenerEvent runs on the pq listener goroutine and must not block.
func (s *insertStream) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		s.readyOnce.Do(func() { s.ready <- nil })
	case pq.ListenerEventConnectionAttemptFailed:
		s.readyOnce.Do(func() { s.ready <- err })
	case pq.ListenerEventDisconnected:
		slog.Warn("[Postgres] Listener disconnected", "error", err)
		if err == nil {
			err = errors.New("connection lost")
		}
		s.halt(fmt.Errorf("%w: listener disconnected: %w", storage.ErrStoreUnavailable, err))
	}
}

func (s *insertStream) run(
	ctx context.Context,
	notify <-chan *pq.Notification,
	ping func() error,
	closeListener func() error,
) {
	defer close(s.done)
	defer close(s.events)
	defer func() {
		if err := closeListener(); err != nil {
			slog.Warn("[Postgres] Failed to close listener", "error", err)
		}
	}()

	idle := time.NewTicker(listenerIdlePing)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			s.halt(nil)
			return
		case <-s.stop:
			return
		case <-idle.C:
			go func() {
				if err := ping(); err != nil {
					slog.Warn("[Postgres] Listener ping failed", "error", err)
				}
			}()
		case n, ok := <-notify:
			if !ok {
				s.halt(fmt.Errorf("%w: listener closed", storage.ErrStoreUnavailable))
				return
			}
			if n == nil {
				// pq sends nil after re-establishing a connection.
				continue
			}
			sale, err := decodeNotification(n.Extra)
			if err != nil {
				slog.Warn("[Postgres] Dropping undecodable notification", "error", err)
				continue
			}
			select {
			case s.events <- sale:
			case <-s.stop:
				return
			case <-ctx.Done():
				s.halt(nil)
				return
			}
		}
	}
}
