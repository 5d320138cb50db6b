package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aki/tailbox/internal/core/behavior"
	"github.com/aki/tailbox/internal/core/handler"
	"github.com/aki/tailbox/internal/core/logger"
	"github.com/aki/tailbox/internal/filemanager"
)

const testPoll = 10 * time.Millisecond

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) HandleMessage(_ context.Context, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
	return nil
}

func (r *lineRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func paths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "inbox.txt"), filepath.Join(dir, "outbox.txt")
}

func appendTo(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// run starts a in the background and waits for its inbox to attach.
func run(t *testing.T, a *Agent) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	select {
	case <-a.Ready():
		require.NoError(t, a.InboxErr())
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("agent inbox did not attach")
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-a.Done():
		case <-time.After(2 * time.Second):
			t.Error("agent tasks did not unwind")
		}
	})
	return cancel, done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
		return nil
	}
}

func TestNew(t *testing.T) {
	a := New("in.txt", "out.txt")

	assert.Equal(t, "in.txt", a.InboxPath())
	assert.Equal(t, "out.txt", a.OutboxPath())
	assert.NotEmpty(t, a.ID())
	assert.Empty(t, a.MessageHandlers())
	assert.Empty(t, a.StateHandlers())
	assert.Equal(t, StatusCreated, a.Status())
	assert.Zero(t, a.Delivered())

	b := New("in.txt", "out.txt", WithID("alice"))
	assert.Equal(t, "alice", b.ID())
	assert.NotEqual(t, a.ID(), New("in.txt", "out.txt").ID())
}

func TestRegisterHandlers(t *testing.T) {
	a := New("in.txt", "out.txt")
	noop := handler.MessageHandlerFunc(func(context.Context, string) error { return nil })
	idle := handler.StateHandlerFunc(func(ctx context.Context, _ handler.AppendFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.NoError(t, a.RegisterMessageHandler(noop))
	require.NoError(t, a.RegisterStateHandler(idle))

	assert.Len(t, a.MessageHandlers(), 1)
	assert.Len(t, a.StateHandlers(), 1)
}

func TestAgent_Append(t *testing.T) {
	_, outbox := paths(t)
	a := New("unused.txt", outbox)

	require.NoError(t, a.Append(context.Background(), "test message"))

	data, err := os.ReadFile(outbox)
	require.NoError(t, err)
	assert.Equal(t, "test message\n", string(data))
}

func TestAgent_DeliversInboxLines(t *testing.T) {
	inbox, outbox := paths(t)
	rec := &lineRecorder{}
	a := New(inbox, outbox, WithPollInterval(100*time.Millisecond))
	require.NoError(t, a.RegisterMessageHandler(rec))
	run(t, a)

	appendTo(t, inbox, "ping\n")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"ping\n"}, rec.snapshot())
	assert.Equal(t, uint64(1), a.Delivered())
	assert.Equal(t, StatusRunning, a.Status())
}

func TestAgent_CreatesFiles(t *testing.T) {
	inbox, outbox := paths(t)
	a := New(inbox, outbox, WithPollInterval(testPoll))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(ctx context.Context, send handler.AppendFunc) error {
		if err := send(ctx, "test message"); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	})))
	run(t, a)

	require.Eventually(t, func() bool {
		_, err := os.Stat(outbox)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	_, err := os.Stat(inbox)
	assert.NoError(t, err)
}

func TestAgent_StartTwice(t *testing.T) {
	inbox, outbox := paths(t)
	a := New(inbox, outbox, WithPollInterval(testPoll))
	run(t, a)

	assert.ErrorIs(t, a.Start(context.Background()), ErrAlreadyStarted)
	assert.ErrorIs(t, a.RegisterMessageHandler(&lineRecorder{}), ErrAlreadyStarted)
	assert.ErrorIs(t, a.RegisterStateHandler(behavior.NewGenerator()), ErrAlreadyStarted)
}

func TestAgent_Cancel(t *testing.T) {
	inbox, outbox := paths(t)
	a := New(inbox, outbox, WithPollInterval(time.Hour))
	require.NoError(t, a.RegisterStateHandler(behavior.Repeat("tick", time.Hour)))
	cancel, done := run(t, a)

	cancel()

	assert.ErrorIs(t, waitErr(t, done), context.Canceled)
	assert.Equal(t, StatusStopped, a.Status())
	select {
	case <-a.Done():
	default:
		t.Fatal("Start returned before every task exited")
	}
}

func TestAgent_StateHandlerOutput(t *testing.T) {
	// One time unit is 100ms: "hello world" every 2 units, observed for 3.9.
	const unit = 100 * time.Millisecond
	inbox, outbox := paths(t)
	a := New(inbox, outbox, WithPollInterval(testPoll))
	require.NoError(t, a.RegisterStateHandler(behavior.Repeat("hello world", 2*unit)))

	ctx, cancel := context.WithTimeout(context.Background(), 39*unit/10)
	defer cancel()
	err := a.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	data, err := os.ReadFile(outbox)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestAgent_MessageHandlerFailureStopsInboxOnly(t *testing.T) {
	inbox, outbox := paths(t)
	logs := &syncBuffer{}
	rec := &lineRecorder{}
	var ticks atomic.Int32

	a := New(inbox, outbox,
		WithPollInterval(testPoll),
		WithLogger(logger.New(logger.WithOutput(logs))))
	require.NoError(t, a.RegisterMessageHandler(handler.MessageHandlerFunc(func(_ context.Context, msg string) error {
		if msg == "poison\n" {
			return errors.New("cannot digest")
		}
		return nil
	})))
	require.NoError(t, a.RegisterMessageHandler(rec))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(ctx context.Context, send handler.AppendFunc) error {
		for {
			if err := send(ctx, "tick"); err != nil {
				return err
			}
			ticks.Add(1)
			if err := handler.Sleep(ctx, 10*time.Millisecond); err != nil {
				return err
			}
		}
	})))
	cancel, done := run(t, a)

	appendTo(t, inbox, "first\npoison\nafter\n")

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(logs.String()), []byte("inbox processing stopped"))
	}, time.Second, 5*time.Millisecond)

	// The state handler keeps producing after the inbox stopped.
	before := ticks.Load()
	require.Eventually(t, func() bool { return ticks.Load() > before+2 }, time.Second, 5*time.Millisecond)

	appendTo(t, inbox, "ignored\n")
	time.Sleep(5 * testPoll)
	assert.Equal(t, []string{"first\n"}, rec.snapshot())
	assert.Equal(t, StatusRunning, a.Status())

	cancel()
	assert.ErrorIs(t, waitErr(t, done), context.Canceled)
}

func TestAgent_StateHandlerFailure(t *testing.T) {
	inbox, outbox := paths(t)
	logs := &syncBuffer{}
	boom := errors.New("generator broke")
	sibling := make(chan struct{})
	var siblingStopped atomic.Bool

	a := New(inbox, outbox,
		WithPollInterval(testPoll),
		WithLogger(logger.New(logger.WithOutput(logs))))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(ctx context.Context, _ handler.AppendFunc) error {
		close(sibling)
		<-ctx.Done()
		siblingStopped.Store(true)
		return ctx.Err()
	})))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(context.Context, handler.AppendFunc) error {
		<-sibling
		return boom
	})))
	rec := &lineRecorder{}
	require.NoError(t, a.RegisterMessageHandler(rec))

	cancel, done := run(t, a)

	err := waitErr(t, done)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusFailed, a.Status())
	assert.Contains(t, logs.String(), "state handler failed")

	// Siblings are not cancelled: the inbox still delivers.
	assert.False(t, siblingStopped.Load())
	appendTo(t, inbox, "still here\n")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	a.Wait()
	assert.True(t, siblingStopped.Load())
	assert.Equal(t, StatusFailed, a.Status())
}

func TestAgent_StateHandlerPanic(t *testing.T) {
	inbox, outbox := paths(t)
	a := New(inbox, outbox, WithPollInterval(testPoll))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(context.Context, handler.AppendFunc) error {
		panic("out of words")
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := a.Start(ctx)
	assert.ErrorContains(t, err, "out of words")

	cancel()
	a.Wait()
}

func TestAgent_CompletesWhenAllTasksReturn(t *testing.T) {
	// An inbox under a regular file cannot be created, so inbox processing
	// stops right away; the only state handler returns nil.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	a := New(filepath.Join(blocker, "inbox.txt"), filepath.Join(dir, "outbox.txt"))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(ctx context.Context, send handler.AppendFunc) error {
		return send(ctx, "bye")
	})))

	err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, a.Status())
}

func TestAgent_HandlersLogThroughContext(t *testing.T) {
	inboxPath, outboxPath := paths(t)
	logs := &syncBuffer{}
	a := New(inboxPath, outboxPath, WithID("logged"), WithLogger(logger.New(logger.WithOutput(logs))))

	logged := make(chan struct{})
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(ctx context.Context, _ handler.AppendFunc) error {
		logger.FromContext(ctx).Info("from state handler")
		close(logged)
		<-ctx.Done()
		return ctx.Err()
	})))
	run(t, a)

	select {
	case <-logged:
	case <-time.After(time.Second):
		t.Fatal("state handler did not run")
	}
	assert.Contains(t, logs.String(), "from state handler")
	assert.Contains(t, logs.String(), "agent=logged")
}

func TestAgent_ReadyClosesOnInboxSetupFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	a := New(filepath.Join(blocker, "inbox.txt"), filepath.Join(dir, "outbox.txt"))
	require.NoError(t, a.RegisterStateHandler(handler.StateHandlerFunc(func(ctx context.Context, _ handler.AppendFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})))
	assert.NoError(t, a.InboxErr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	select {
	case <-a.Ready():
	case <-time.After(500 * time.Millisecond):
		cancel()
		t.Fatalf("Ready never closed; status=%s", a.Status())
	}
	err := a.InboxErr()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create inbox")
	assert.Eventually(t, func() bool { return a.Status() == StatusRunning }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, waitErr(t, done), context.Canceled)
	assert.Equal(t, StatusStopped, a.Status())
}

// stopAfter runs the generator for d, then returns nil so the agent stays
// up for its inbox. It waits for peer to attach first so no line lands
// before the peer's tailer. finished is closed when the generator is done.
func stopAfter(g *behavior.Generator, d time.Duration, peer *Agent, finished chan<- struct{}) handler.StateHandler {
	return handler.StateHandlerFunc(func(ctx context.Context, send handler.AppendFunc) error {
		defer close(finished)
		select {
		case <-peer.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := peer.InboxErr(); err != nil {
			return err
		}
		genCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		err := g.Run(genCtx, send)
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
}

func TestTwoAgentsExchangeMessages(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "inbox.txt")
	fileB := filepath.Join(dir, "outbox.txt")

	alice := New(fileA, fileB, WithID("alice"), WithPollInterval(testPoll))
	bob := New(fileB, fileA, WithID("bob"), WithPollInterval(testPoll))

	aliceFilter := behavior.NewKeywordFilter("hello", io.Discard)
	bobFilter := behavior.NewKeywordFilter("hello", io.Discard)
	require.NoError(t, alice.RegisterMessageHandler(aliceFilter))
	require.NoError(t, bob.RegisterMessageHandler(bobFilter))
	aliceDone := make(chan struct{})
	bobDone := make(chan struct{})
	require.NoError(t, alice.RegisterStateHandler(stopAfter(&behavior.Generator{Words: behavior.DefaultWords, Interval: 5 * time.Millisecond}, 300*time.Millisecond, bob, aliceDone)))
	require.NoError(t, bob.RegisterStateHandler(stopAfter(&behavior.Generator{Words: behavior.DefaultWords, Interval: 5 * time.Millisecond}, 300*time.Millisecond, alice, bobDone)))

	run(t, alice)
	run(t, bob)

	for _, finished := range []chan struct{}{aliceDone, bobDone} {
		select {
		case <-finished:
		case <-time.After(3 * time.Second):
			t.Fatal("generator did not finish")
		}
	}

	countInFile := func(path string) uint64 {
		lines, err := filemanager.ReadLines(path)
		if err != nil {
			return 0
		}
		var n uint64
		for _, l := range lines {
			if behavior.ContainsWord(l, "hello") {
				n++
			}
		}
		return n
	}

	// With the generators done, wait for every inbox line to be dispatched.
	require.Eventually(t, func() bool {
		lines, err := filemanager.ReadLines(fileA)
		return err == nil && len(lines) > 0 && alice.Delivered() == uint64(len(lines))
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		lines, err := filemanager.ReadLines(fileB)
		return err == nil && len(lines) > 0 && bob.Delivered() == uint64(len(lines))
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, countInFile(fileA), aliceFilter.Count())
	assert.Equal(t, countInFile(fileB), bobFilter.Count())
}
