// Package dispatcher delivers committed domain events to in-process handlers.
// It is the notification side of the transition service: Publish returns as
// soon as handlers are scheduled, and handler failures never reach the caller.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/event"
)

// ErrClosed is returned when publishing to a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	port.EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name for debugging
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// SubscribeAll registers a handler that receives every event type
	SubscribeAll(name string, handler Handler)

	// Dispatch sends event to all registered handlers synchronously
	// Returns first error encountered (handlers run in order)
	Dispatch(ctx context.Context, evt *event.Event) error

	// ListHandlers returns registered handlers for an event type, wildcard handlers last
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close stops accepting events and waits for in-flight handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	closed   bool
	logger   Logger

	handlerTimeout time.Duration
	attempts       int
	backoff        time.Duration

	wg sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithHandlerTimeout bounds each asynchronous handler attempt
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.handlerTimeout = timeout
	}
}

// WithRetry retries failed asynchronous handlers. The wait before attempt n
// is backoff*(n-1).
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *eventDispatcher) {
		if attempts < 1 {
			attempts = 1
		}
		d.attempts = attempts
		d.backoff = backoff
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
		attempts: 1,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Subscribe registers a handler for an event type with an auto-generated name
func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("handler-%d", len(d.handlers[eventType]))
	d.mu.RUnlock()
	d.SubscribeNamed(eventType, name, handler)
}

// SubscribeNamed registers a handler with a specific name for debugging
func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

// SubscribeAll registers a handler for every event type
func (d *eventDispatcher) SubscribeAll(name string, handler Handler) {
	d.SubscribeNamed(anyType, name, handler)
}

// Publish implements port.EventPublisher by dispatching asynchronously.
// Handlers run detached from ctx cancellation.
func (d *eventDispatcher) Publish(ctx context.Context, evt *event.Event) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}
	handlers := d.matching(evt.Type)
	d.wg.Add(len(handlers))
	d.mu.RUnlock()

	d.logInfo("Publishing event",
		"event_type", evt.Type,
		"event_id", evt.ID,
		"application_id", evt.ApplicationID,
		"handler_count", len(handlers),
	)

	detached := context.WithoutCancel(ctx)
	for _, info := range handlers {
		go func(h HandlerInfo) {
			defer d.wg.Done()
			if err := d.deliver(detached, evt, h); err != nil {
				d.logError("Async handler failed",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", h.Name,
					"attempts", d.attempts,
					"error", err,
				)
			}
		}(info)
	}

	return nil
}

// Dispatch sends event to all registered handlers synchronously
func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}
	handlers := d.matching(evt.Type)
	d.mu.RUnlock()

	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}

	return nil
}

// ListHandlers returns registered handlers for an event type
func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.matching(eventType)
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{Name: h.Name, EventType: h.EventType}
	}
	return result
}

// Close shuts down the dispatcher and waits for async handlers to complete
func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	d.closed = true
	d.mu.Unlock()

	d.logInfo("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.logInfo("Dispatcher closed")

	return nil
}

// matching returns the handlers for eventType followed by wildcard handlers.
// Caller holds d.mu.
func (d *eventDispatcher) matching(eventType event.Type) []HandlerInfo {
	typed := d.handlers[eventType]
	if eventType == anyType {
		return append([]HandlerInfo(nil), typed...)
	}
	all := d.handlers[anyType]
	out := make([]HandlerInfo, 0, len(typed)+len(all))
	out = append(out, typed...)
	return append(out, all...)
}

// deliver runs one handler with the configured timeout and retries
func (d *eventDispatcher) deliver(ctx context.Context, evt *event.Event, info HandlerInfo) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(d.backoff * time.Duration(attempt-1))
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if d.handlerTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, d.handlerTimeout)
		}
		err = d.safeExecute(attemptCtx, evt, info)
		cancel()

		if err == nil {
			return nil
		}
	}
	return err
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.logError("Handler panic recovered",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"panic", r,
			)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}

var _ port.EventPublisher = (*eventDispatcher)(nil)
