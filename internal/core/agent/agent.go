// Package agent composes an inbox dispatcher, an outbox writer and a set of
// state handlers into one supervised runtime unit.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aki/tailbox/internal/core/handler"
	"github.com/aki/tailbox/internal/core/inbox"
	"github.com/aki/tailbox/internal/core/logger"
	"github.com/aki/tailbox/internal/core/outbox"
)

// Agent reads one inbox file and writes one outbox file.
//
// Start launches one task for the inbox and one per state handler. A
// failing message handler only ends inbox processing. A failing state
// handler makes Start return its error, but sibling tasks keep running
// until the caller cancels the context passed to Start.
type Agent struct {
	id        string
	inboxPath string
	cfg       config
	log       logger.Logger
	outbox    *outbox.Writer

	mu              sync.Mutex
	status          Status
	messageHandlers []handler.MessageHandler
	stateHandlers   []handler.StateHandler
	dispatcher      *inbox.Dispatcher
	inboxErr        error

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

// New creates an agent reading inboxPath and writing outboxPath. Neither
// file needs to exist yet.
func New(inboxPath, outboxPath string, opts ...Option) *Agent {
	cfg := config{
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}
	if cfg.logger == nil {
		cfg.logger = logger.Nop()
	}

	log := logger.ForAgent(cfg.logger, cfg.id, inboxPath, outboxPath)
	return &Agent{
		id:        cfg.id,
		inboxPath: inboxPath,
		cfg:       cfg,
		log:       log,
		outbox: outbox.New(outboxPath, outbox.Options{
			Lock:        cfg.lockOutbox,
			LockTimeout: cfg.lockTimeout,
			Logger:      log,
		}),
		status: StatusCreated,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// ID returns the agent identifier
func (a *Agent) ID() string { return a.id }

// InboxPath returns the inbox file path
func (a *Agent) InboxPath() string { return a.inboxPath }

// OutboxPath returns the outbox file path
func (a *Agent) OutboxPath() string { return a.outbox.Path() }

// Status returns the current lifecycle state
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// MessageHandlers returns the registered message handlers in order
func (a *Agent) MessageHandlers() []handler.MessageHandler {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]handler.MessageHandler(nil), a.messageHandlers...)
}

// StateHandlers returns the registered state handlers in order
func (a *Agent) StateHandlers() []handler.StateHandler {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]handler.StateHandler(nil), a.stateHandlers...)
}

// RegisterMessageHandler appends h to the handlers run for every inbox line.
func (a *Agent) RegisterMessageHandler(h handler.MessageHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusCreated {
		return ErrAlreadyStarted
	}
	a.messageHandlers = append(a.messageHandlers, h)
	return nil
}

// RegisterStateHandler appends h to the handlers started with the agent.
func (a *Agent) RegisterStateHandler(h handler.StateHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusCreated {
		return ErrAlreadyStarted
	}
	a.stateHandlers = append(a.stateHandlers, h)
	return nil
}

// Append writes msg to this agent's outbox.
func (a *Agent) Append(ctx context.Context, msg string) error {
	return a.outbox.Append(ctx, msg)
}

// Ready is closed once the inbox tailer has attached, or once setting up
// the inbox has failed; check InboxErr after it closes. Lines appended to
// the inbox after a successful attach are delivered.
func (a *Agent) Ready() <-chan struct{} {
	return a.ready
}

// InboxErr returns the error that stopped inbox processing, or nil while
// the inbox is being processed or after it stopped on cancellation.
func (a *Agent) InboxErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inboxErr
}

func (a *Agent) inboxReady(err error) {
	if err != nil {
		a.setInboxErr(err)
	}
	a.readyOnce.Do(func() { close(a.ready) })
}

func (a *Agent) setInboxErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inboxErr = err
}

// Done is closed when every task launched by Start has exited. It never
// closes for an agent that was not started.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until every task launched by Start has exited.
func (a *Agent) Wait() {
	<-a.done
}

// Delivered returns how many inbox lines went through every message
// handler. It is zero before Start.
func (a *Agent) Delivered() uint64 {
	a.mu.Lock()
	d := a.dispatcher
	a.mu.Unlock()
	if d == nil {
		return 0
	}
	return d.Delivered()
}

// Start runs the agent. It returns:
//   - the first state handler error, as soon as it happens;
//   - ctx.Err() after every task has unwound, once ctx is cancelled;
//   - nil if every task returned on its own without error.
//
// Start may be called only once.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.status != StatusCreated {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.status = StatusStarting
	stateHandlers := append([]handler.StateHandler(nil), a.stateHandlers...)
	messageHandlers := len(a.messageHandlers)
	a.dispatcher = inbox.New(a.inboxPath, a.messageHandlers, inbox.Options{
		PollInterval: a.cfg.pollInterval,
		OnReady:      a.inboxReady,
		Logger:       a.log,
	})
	dispatcher := a.dispatcher
	a.mu.Unlock()

	a.log.Info("agent starting",
		"message_handlers", messageHandlers,
		"state_handlers", len(stateHandlers))

	// Handlers reach the agent's logger through logger.FromContext.
	ctx = logger.WithContext(ctx, a.log)

	failed := make(chan error, len(stateHandlers))
	var g errgroup.Group

	g.Go(func() error {
		a.handleInbox(ctx, dispatcher)
		return nil
	})

	send := a.outbox.AppendFunc()
	for i, h := range stateHandlers {
		g.Go(func() error {
			err := runStateHandler(ctx, i, h, send)
			if err != nil && ctx.Err() == nil {
				a.log.Error("state handler failed", "index", i, "error", err)
				failed <- err
			}
			return err
		})
	}

	a.setStatus(StatusRunning)

	exited := make(chan error, 1)
	go func() {
		err := g.Wait()
		close(a.done)
		exited <- err
	}()

	select {
	case err := <-failed:
		a.setStatus(StatusFailed)
		a.log.Error("agent failed", "error", err)
		return err
	case err := <-exited:
		return a.finish(ctx, err)
	}
}

func (a *Agent) finish(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		a.setStatus(StatusStopped)
		a.log.Info("agent stopped")
		return ctx.Err()
	case err != nil:
		a.setStatus(StatusFailed)
		a.log.Error("agent failed", "error", err)
		return err
	default:
		a.setStatus(StatusCompleted)
		a.log.Info("agent tasks completed")
		return nil
	}
}

// handleInbox runs the dispatcher and reports why it stopped. Inbox
// failures are terminal for inbox processing only.
func (a *Agent) handleInbox(ctx context.Context, d *inbox.Dispatcher) {
	err := d.Run(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	a.setInboxErr(err)
	a.log.Error("inbox processing stopped", "error", err)
}

func runStateHandler(ctx context.Context, index int, h handler.StateHandler, send handler.AppendFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("state handler %d panicked: %v", index, r)
		}
	}()
	if err := h.Run(ctx, send); err != nil {
		return fmt.Errorf("state handler %d: %w", index, err)
	}
	return nil
}

func (a *Agent) setStatus(s Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	// A failure reported by Start is sticky; later unwinding does not
	// overwrite it.
	if a.status == StatusFailed {
		return
	}
	a.status = s
}
