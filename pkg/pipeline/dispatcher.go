package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"form-analyzer/pkg/models"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("feedback queue is full")

// Sink receives feedback events one at a time. Deliver must not block; it
// returns false when the event was dropped.
type Sink interface {
	Deliver(ev models.FeedbackEvent) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev models.FeedbackEvent) bool

func (f SinkFunc) Deliver(ev models.FeedbackEvent) bool { return f(ev) }

// ChanSink try-sends events into a channel.
type ChanSink chan<- models.FeedbackEvent

func (c ChanSink) Deliver(ev models.FeedbackEvent) bool {
	select {
	case c <- ev:
		return true
	default:
		return false
	}
}

type DispatchStats struct {
	Pushed    uint64 `json:"pushed"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Pending   int    `json:"pending"`
}

// Dispatcher is a FIFO queue of feedback events handed to a Sink in arrival
// order. Priority does not affect ordering.
type Dispatcher struct {
	queue  chan models.FeedbackEvent
	sink   Sink
	logger *zap.Logger

	pushed    atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDispatcher(queueSize int, sink Sink, logger *zap.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:  make(chan models.FeedbackEvent, queueSize),
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Push enqueues ev without blocking.
func (d *Dispatcher) Push(ev models.FeedbackEvent) error {
	select {
	case d.queue <- ev:
		d.pushed.Add(1)
		return nil
	default:
		d.dropped.Add(1)
		d.logger.Warn("Feedback queue full, dropping event",
			zap.String("kind", string(ev.Kind)), zap.String("text", ev.Text))
		return ErrQueueFull
	}
}

// Start runs a single worker that drains the queue into the sink. Use either
// Start or DispatchPending, not both.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.worker(ctx)
}

// Stop halts the worker after it delivers what is already queued.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

// DispatchPending synchronously delivers every queued event and returns how
// many were handed to the sink.
func (d *Dispatcher) DispatchPending() int {
	n := 0
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
			n++
		default:
			return n
		}
	}
}

func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Pushed:    d.pushed.Load(),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Pending:   len(d.queue),
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)

		case <-d.done:
			d.DispatchPending()
			return

		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) deliver(ev models.FeedbackEvent) {
	if d.sink == nil || !d.sink.Deliver(ev) {
		d.dropped.Add(1)
		d.logger.Debug("Sink dropped feedback event", zap.String("kind", string(ev.Kind)))
		return
	}
	d.delivered.Add(1)
}
