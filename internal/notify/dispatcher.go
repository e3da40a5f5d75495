// Package notify delivers reservation confirmations off the request path.
// The Dispatcher accepts messages without blocking and hands them to a Sink
// from a small pool of worker goroutines.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

var (
	// ErrQueueFull is returned by Notify when every buffer slot is taken.
	ErrQueueFull = errors.New("notification queue full")
	// ErrClosed is returned by Notify after Shutdown.
	ErrClosed = errors.New("notification dispatcher closed")
)

// Message is one confirmation to deliver.
type Message struct {
	To          string
	Reservation model.Reservation
}

// Sink performs the actual delivery.
type Sink interface {
	Send(ctx context.Context, m Message) error
}

// NotificationError describes a delivery that failed.  It is logged, never
// returned to API clients.
type NotificationError struct {
	ReservationID string
	To            string
	Err           error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s about reservation %s: %v", e.To, e.ReservationID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Dispatcher is a buffered queue drained by a fixed number of workers.
type Dispatcher struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines delivering through sink.  Each
// delivery gets its own timeout.
func NewDispatcher(sink Sink, workers, buffer int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		sink:    sink,
		log:     log,
		timeout: timeout,
		queue:   make(chan Message, buffer),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

// Notify queues a confirmation for r and returns immediately.
func (d *Dispatcher) Notify(email string, r model.Reservation) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- Message{To: email, Reservation: r}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for m := range d.queue {
		d.deliver(id, m)
	}
}

func (d *Dispatcher) deliver(worker int, m Message) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.sink.Send(ctx, m); err != nil {
		nerr := &NotificationError{ReservationID: m.Reservation.ID, To: m.To, Err: err}
		d.log.Error("notification failed", zap.Int("worker", worker), zap.Error(nerr))
		return
	}
	d.log.Debug("notification sent", zap.Int("worker", worker),
		zap.String("reservation_id", m.Reservation.ID), zap.String("to", m.To))
}

// Shutdown stops accepting messages, lets the workers drain the queue and
// waits for them or for ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
