package events

import (
	"context"
	"log/slog"
	"sync"
)

// Sink is the capability surface event backends implement. Emit errors are
// logged by the dispatcher and never surfaced to the triggering engine.
type Sink interface {
	// Name identifies the sink in logs and health reports
	Name() string

	// Emit delivers one event to the backend
	Emit(ctx context.Context, event *AuthEvent) error

	// HealthCheck reports backend liveness (default implementations
	// return true unconditionally)
	HealthCheck(ctx context.Context) bool
}

// DefaultMemorySinkCapacity bounds the in-memory ring when none is given.
const DefaultMemorySinkCapacity = 1000

// MemorySink retains the most recent events in a bounded ring buffer,
// evicting the oldest on overflow. Useful for tests and for serving a
// recent-activity view without external infrastructure.
type MemorySink struct {
	mu       sync.RWMutex
	events   []*AuthEvent
	capacity int
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates a ring buffer sink retaining up to capacity events.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemorySinkCapacity
	}
	return &MemorySink{capacity: capacity}
}

// Name implements Sink.
func (s *MemorySink) Name() string { return "in_memory" }

// Emit appends the event, evicting the oldest entries past capacity.
func (s *MemorySink) Emit(_ context.Context, event *AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return nil
}

// HealthCheck implements Sink.
func (s *MemorySink) HealthCheck(_ context.Context) bool { return true }

// Events returns a copy of all retained events, oldest first.
func (s *MemorySink) Events() []*AuthEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*AuthEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Recent returns up to limit of the most recent events, oldest first.
func (s *MemorySink) Recent(limit int) []*AuthEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]*AuthEvent, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// Clear drops all retained events.
func (s *MemorySink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// LogSink serializes each event to a structured log line.
type LogSink struct {
	logger *slog.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink creates a sink writing to the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Emit writes one log line per event.
func (s *LogSink) Emit(_ context.Context, event *AuthEvent) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", string(event.Type),
		"severity", string(event.Severity),
		"timestamp", event.Timestamp,
	}
	if event.UserID != "" {
		attrs = append(attrs, "user_id", event.UserID)
	}
	if event.ClientID != "" {
		attrs = append(attrs, "client_id", event.ClientID)
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, "metadata", event.Metadata)
	}
	if event.Error != "" {
		attrs = append(attrs, "error", event.Error)
	}

	switch event.Severity {
	case SeverityError:
		s.logger.Error("auth_event", attrs...)
	case SeverityWarning:
		s.logger.Warn("auth_event", attrs...)
	default:
		s.logger.Info("auth_event", attrs...)
	}
	return nil
}

// HealthCheck implements Sink.
func (s *LogSink) HealthCheck(_ context.Context) bool { return true }
