package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// sinkQueueCapacity bounds the per-sink delivery queue. When a sink
	// falls this far behind, new events for it are dropped rather than
	// blocking the emitting engine.
	sinkQueueCapacity = 256

	// sinkEmitTimeout bounds a single delivery attempt to a sink
	sinkEmitTimeout = 5 * time.Second
)

// SinkHealth is one entry of a health report.
type SinkHealth struct {
	Name    string
	Healthy bool
}

// Dispatcher fans events out to registered sinks after filtering. Emit is
// fire-and-forget: it never blocks on slow sinks and never returns sink
// failures to the caller. Each sink has its own delivery queue drained by
// a dedicated goroutine, so one caller's events reach a given sink in the
// order they were emitted.
type Dispatcher struct {
	filter *Filter
	sinks  []Sink
	queues []chan *AuthEvent
	logger *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex // guards closed against Emit racing Close
	isClosed  bool
}

// NewDispatcher creates a dispatcher delivering to the given sinks. A nil
// filter allows all events. An empty sink list is valid: events are
// filtered and dropped, which is how the pipeline is disabled.
func NewDispatcher(filter *Filter, sinks []Sink, logger *slog.Logger) *Dispatcher {
	if filter == nil {
		filter = AllowAll()
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		filter: filter,
		sinks:  sinks,
		queues: make([]chan *AuthEvent, len(sinks)),
		logger: logger,
	}

	for i, sink := range sinks {
		d.queues[i] = make(chan *AuthEvent, sinkQueueCapacity)
		d.wg.Add(1)
		go d.drain(sink, d.queues[i])
	}

	d.logger.Info("Event dispatcher started", "sinks", len(sinks))
	return d
}

// Emit queues the event for delivery to every sink that the filter allows.
// It returns immediately; delivery failures are logged, never propagated.
func (d *Dispatcher) Emit(event *AuthEvent) {
	if event == nil {
		return
	}
	if !d.filter.ShouldEmit(event.Type) {
		d.logger.Debug("Event filtered out", "event_type", string(event.Type))
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.isClosed {
		return
	}

	for i := range d.queues {
		select {
		case d.queues[i] <- event:
		default:
			d.logger.Warn("Event sink queue full, dropping event",
				"sink", d.sinks[i].Name(),
				"event_type", string(event.Type))
		}
	}
}

// HealthCheck polls each sink's liveness predicate sequentially. Intended
// for operational diagnostics, not the request path.
func (d *Dispatcher) HealthCheck(ctx context.Context) []SinkHealth {
	report := make([]SinkHealth, 0, len(d.sinks))
	for _, sink := range d.sinks {
		report = append(report, SinkHealth{
			Name:    sink.Name(),
			Healthy: sink.HealthCheck(ctx),
		})
	}
	return report
}

// Close stops accepting events, flushes the queues, and waits for the
// delivery goroutines to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.isClosed = true
		for i := range d.queues {
			close(d.queues[i])
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) drain(sink Sink, queue <-chan *AuthEvent) {
	defer d.wg.Done()

	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), sinkEmitTimeout)
		if err := sink.Emit(ctx, event); err != nil {
			d.logger.Error("Failed to emit event to sink",
				"sink", sink.Name(),
				"event_type", string(event.Type),
				"error", err)
		}
		cancel()
	}
}
