// Package tail follows a growing text file and yields complete lines as
// they are appended, in the manner of tail -f.
package tail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"
)

// Options configures the tail behavior
type Options struct {
	// PollInterval is how long to wait before retrying when no complete
	// line is available
	PollInterval time.Duration
}

// DefaultOptions returns default tail options
func DefaultOptions() Options {
	return Options{
		PollInterval: 100 * time.Millisecond,
	}
}

// Tailer yields lines appended to a file after it attached. It is not safe
// for concurrent use and cannot be rewound.
type Tailer struct {
	r       io.ReadSeeker
	br      *bufio.Reader
	opts    Options
	pending []byte
}

// New creates a Tailer reading from r
func New(r io.ReadSeeker, opts Options) *Tailer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	return &Tailer{
		r:    r,
		opts: opts,
	}
}

// Start attaches the tailer by seeking to the current end of file. Content
// written before Start is never yielded. Next calls Start implicitly; call
// it directly to attach before any writer starts appending.
func (t *Tailer) Start() error {
	if t.br != nil {
		return nil
	}
	if _, err := t.r.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	t.br = bufio.NewReader(t.r)
	return nil
}

// Next blocks until the next complete line is available and returns it with
// its trailing newline. A line without a terminator stays buffered until the
// terminator arrives. Next returns ctx.Err() once ctx is done.
func (t *Tailer) Next(ctx context.Context) (string, error) {
	if err := t.Start(); err != nil {
		return "", err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk, err := t.br.ReadBytes('\n')
		t.pending = append(t.pending, chunk...)
		if err == nil {
			line := string(t.pending)
			t.pending = t.pending[:0]
			return line, nil
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read line: %w", err)
		}

		if timer == nil {
			timer = time.NewTimer(t.opts.PollInterval)
		} else {
			timer.Reset(t.opts.PollInterval)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

// Lines returns the lazy, unbounded sequence of lines. The sequence ends
// after yielding the first error, which is ctx.Err() on cancellation.
func (t *Tailer) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := t.Next(ctx)
			if err != nil {
				yield("", err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Follow writes every new line to w until ctx is cancelled or a read or
// write fails.
func (t *Tailer) Follow(ctx context.Context, w io.Writer) error {
	for line, err := range t.Lines(ctx) {
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
