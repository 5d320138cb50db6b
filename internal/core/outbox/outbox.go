// Package outbox appends outbound messages to an agent's outbox file.
//
// Every Append is a self-contained open-append-close cycle; no handle is
// kept between calls. Concurrent appends from several state handlers rely
// on the filesystem's O_APPEND atomicity. Records larger than what the
// filesystem appends atomically may interleave unless Options.Lock is set,
// which serialises appends through an advisory file lock.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/aki/tailbox/internal/core/handler"
	"github.com/aki/tailbox/internal/core/logger"
	"github.com/aki/tailbox/internal/filemanager"
)

// Options configures a Writer
type Options struct {
	// Lock takes an exclusive advisory lock around each append
	Lock bool
	// LockTimeout bounds lock acquisition when Lock is set
	LockTimeout time.Duration
	// Logger receives append failures
	Logger logger.Logger
}

// Writer appends newline-terminated messages to one outbox file.
type Writer struct {
	path     string
	opts     Options
	appender *filemanager.Appender
	log      logger.Logger
}

// New creates a Writer for path. The file is not touched until the first
// Append.
func New(path string, opts Options) *Writer {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{
		path:     path,
		opts:     opts,
		appender: filemanager.NewAppender(opts.LockTimeout),
		log:      logger.Component(log, "outbox").With("path", path),
	}
}

// Path returns the outbox file path
func (w *Writer) Path() string {
	return w.path
}

// Append writes msg followed by a single newline. A cancelled ctx prevents
// the append from starting and abandons a pending lock wait; a write that
// has started is completed.
func (w *Writer) Append(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// msg+"\n" goes out as one write so it lands as one record.
	if err := w.appender.Append(ctx, w.path, []byte(msg+"\n"), w.opts.Lock); err != nil {
		w.log.Error("append failed", "error", err)
		return fmt.Errorf("failed to append to outbox: %w", err)
	}

	w.log.Debug("appended", "bytes", len(msg)+1)
	return nil
}

// AppendFunc returns Append as the capability handed to state handlers.
func (w *Writer) AppendFunc() handler.AppendFunc {
	return w.Append
}
