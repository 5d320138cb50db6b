// Package handler defines the callback contracts an agent drives: message
// handlers react to inbound lines, state handlers produce outbound ones.
package handler

import (
	"context"
	"time"
)

// AppendFunc appends one message to an outbox. The record terminator is
// added by the implementation.
type AppendFunc func(ctx context.Context, msg string) error

// MessageHandler is invoked once per inbound line, with the line exactly as
// read, trailing newline included.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg string) error
}

// MessageHandlerFunc adapts an ordinary function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg string) error

// HandleMessage calls f(ctx, msg).
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg string) error {
	return f(ctx, msg)
}

// StateHandler runs for the lifetime of an agent, producing zero or more
// messages through send. It should return when ctx is cancelled.
type StateHandler interface {
	Run(ctx context.Context, send AppendFunc) error
}

// StateHandlerFunc adapts an ordinary function to StateHandler.
type StateHandlerFunc func(ctx context.Context, send AppendFunc) error

// Run calls f(ctx, send).
func (f StateHandlerFunc) Run(ctx context.Context, send AppendFunc) error {
	return f(ctx, send)
}

// Sleep waits for d or until ctx is done, whichever comes first. It is the
// suspension point state handlers use between productions.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
