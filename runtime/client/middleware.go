package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/registry"
)

// OperationEvent describes one entity operation passing through the client.
type OperationEvent struct {
	Op       sqlgen.Op
	Entity   string
	Table    string
	Count    int
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware intercepts entity operations. It must call next to run the
// operation and return its error.
type Middleware func(ctx context.Context, event *OperationEvent, next func() error) error

// Use adds a middleware to the chain. Middlewares run in the order added.
func (c *Client) Use(middleware Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, middleware)
}

// run executes an operation through the middleware chain
func (c *Client) run(ctx context.Context, op sqlgen.Op, a *registry.Artifact, count int, exec func() error) error {
	c.mu.Lock()
	chain := c.middlewares
	c.mu.Unlock()
	if len(chain) == 0 {
		return exec()
	}

	event := &OperationEvent{
		Op:     op,
		Entity: a.Entity.Name,
		Table:  a.TableName(),
		Count:  count,
		Start:  time.Now(),
	}

	var next func() error
	index := 0

	next = func() error {
		if index >= len(chain) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := chain[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every operation at debug level and failures at
// error level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.ErrorContext(ctx, "operation failed",
				"op", event.Op.String(), "table", event.Table, "error", err)
		} else {
			logger.DebugContext(ctx, "operation completed",
				"op", event.Op.String(), "table", event.Table, "count", event.Count, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of every operation
func TimingMiddleware(onTiming func(op sqlgen.Op, table string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Op, event.Table, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed operations
func ErrorMiddleware(onError func(event *OperationEvent, err error)) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event, err)
		}
		return err
	}
}
