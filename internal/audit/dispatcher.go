package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a Dispatcher.
type Options struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	SinkTimeout  time.Duration
	RetryBackoff time.Duration
}

// Dispatcher is a Recorder backed by a bounded queue and a pool of workers.
// Each entry is written to every sink independently; a sink failure is
// retried, then logged and counted, and never affects the other sinks.
type Dispatcher struct {
	opts    Options
	jobs    chan Entry
	sinks   []Sink
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start before recording.
func NewDispatcher(opts Options, log *zap.Logger, metrics *Metrics, sinks ...Sink) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 2 * time.Second
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Dispatcher{
		opts:    opts,
		jobs:    make(chan Entry, opts.QueueSize),
		sinks:   sinks,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled or
// after Close has drained the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Record enqueues an entry and returns immediately. When the queue is full
// the entry is dropped.
func (d *Dispatcher) Record(actor, action string, details map[string]any) {
	e := Entry{Actor: actor, Action: action, Details: details, Timestamp: d.now().UTC()}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(e, "dispatcher closed")
		return
	}
	select {
	case d.jobs <- e:
	default:
		d.drop(e, "queue full")
	}
}

// Close stops accepting entries, lets the workers drain the queue and waits
// for them to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) drop(e Entry, reason string) {
	d.metrics.Dropped.Inc()
	d.log.Warn("audit entry dropped",
		zap.String("reason", reason),
		zap.String("actor", e.Actor),
		zap.String("action", e.Action))
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.log.Debug("audit worker started", zap.Int("worker", id))
	for {
		select {
		case e, ok := <-d.jobs:
			if !ok {
				d.log.Debug("audit worker drained", zap.Int("worker", id))
				return
			}
			d.deliver(e)
		case <-ctx.Done():
			d.log.Debug("audit worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// deliver writes e to all sinks concurrently and waits for every outcome.
func (d *Dispatcher) deliver(e Entry) {
	var wg sync.WaitGroup
	for _, sink := range d.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			d.writeWithRetry(s, e)
		}(sink)
	}
	wg.Wait()
}

func (d *Dispatcher) writeWithRetry(s Sink, e Entry) {
	var err error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.metrics.Retries.WithLabelValues(s.Name()).Inc()
			time.Sleep(d.opts.RetryBackoff * time.Duration(attempt-1))
		}
		if err = d.writeOnce(s, e); err == nil {
			d.metrics.SinkWrites.WithLabelValues(s.Name(), "success").Inc()
			return
		}
		d.log.Debug("audit sink attempt failed",
			zap.String("sink", s.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	d.metrics.SinkWrites.WithLabelValues(s.Name(), "failure").Inc()
	d.log.Error("audit sink write failed",
		zap.String("sink", s.Name()),
		zap.String("actor", e.Actor),
		zap.String("action", e.Action),
		zap.Int("attempts", d.opts.MaxAttempts),
		zap.Error(err))
}

func (d *Dispatcher) writeOnce(s Sink, e Entry) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.SinkTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Write(ctx, e)
}
