// Package inbox tails an agent's inbox file and hands each new line to the
// agent's message handlers.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aki/tailbox/internal/core/handler"
	"github.com/aki/tailbox/internal/core/logger"
	"github.com/aki/tailbox/internal/core/tail"
	"github.com/aki/tailbox/internal/filemanager"
)

// HandlerError reports a message handler failure. It stops the dispatcher.
type HandlerError struct {
	// Index is the handler's position in registration order
	Index int
	// Line is the line being dispatched
	Line string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("message handler %d failed: %v", e.Index, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Options configures a Dispatcher
type Options struct {
	// PollInterval is passed to the tailer; zero means the tail default
	PollInterval time.Duration
	// OnReady is called once, just before Ready closes. err is nil when
	// the tailer attached and the setup failure otherwise.
	OnReady func(err error)
	Logger   logger.Logger
}

// Dispatcher delivers inbox lines to message handlers. Line i's whole
// handler chain completes before line i+1 is read.
type Dispatcher struct {
	path      string
	handlers  []handler.MessageHandler
	opts      Options
	log       logger.Logger
	ready     chan struct{}
	readyOnce sync.Once
	delivered atomic.Uint64
}

// New creates a Dispatcher for path. handlers is copied; order is kept.
func New(path string, handlers []handler.MessageHandler, opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		path:     path,
		handlers: append([]handler.MessageHandler(nil), handlers...),
		opts:     opts,
		log:      logger.Component(log, "inbox").With("path", path),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the tailer has attached at the end of the inbox, or
// once setting up the inbox has failed; Options.OnReady receives the
// failure. Lines appended after a successful attach are guaranteed to be
// delivered.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.ready
}

func (d *Dispatcher) markReady(err error) {
	d.readyOnce.Do(func() {
		if d.opts.OnReady != nil {
			d.opts.OnReady(err)
		}
		close(d.ready)
	})
}

// Delivered returns how many lines have passed through every handler.
func (d *Dispatcher) Delivered() uint64 {
	return d.delivered.Load()
}

// Run creates the inbox if needed, attaches a tailer and dispatches lines
// until ctx is cancelled or an error occurs. A failing handler ends Run
// with a *HandlerError.
func (d *Dispatcher) Run(ctx context.Context) error {
	f, tailer, err := d.attach()
	d.markReady(err)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	d.log.Debug("tailing inbox", "handlers", len(d.handlers))

	for line, err := range tailer.Lines(ctx) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("failed to read inbox: %w", err)
		}
		if err := d.dispatch(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) attach() (*os.File, *tail.Tailer, error) {
	if err := filemanager.Touch(d.path); err != nil {
		return nil, nil, fmt.Errorf("failed to create inbox: %w", err)
	}

	f, err := os.Open(d.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open inbox: %w", err)
	}

	tailer := tail.New(f, tail.Options{PollInterval: d.opts.PollInterval})
	if err := tailer.Start(); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to attach to inbox: %w", err)
	}
	return f, tailer, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, line string) error {
	for i, h := range d.handlers {
		if err := invoke(ctx, h, line); err != nil {
			return &HandlerError{Index: i, Line: line, Err: err}
		}
	}
	d.delivered.Add(1)
	return nil
}

// invoke turns a handler panic into an error so it stops the dispatcher
// like any other failure.
func invoke(ctx context.Context, h handler.MessageHandler, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.HandleMessage(ctx, line)
}
