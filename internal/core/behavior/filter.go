package behavior

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aki/tailbox/internal/core/logger"
)

// ContainsWord reports whether word occurs in msg as a whitespace-delimited
// token. Surrounding whitespace, including a trailing newline, is ignored.
func ContainsWord(msg, word string) bool {
	for _, f := range strings.Fields(msg) {
		if f == word {
			return true
		}
	}
	return false
}

// KeywordFilter prints every message containing Keyword as a whole word
// and counts the matches.
type KeywordFilter struct {
	Keyword string
	// Out receives matching messages; nil means os.Stdout
	Out io.Writer

	mu      sync.Mutex
	matches atomic.Uint64
}

// NewKeywordFilter returns a filter for keyword writing to out.
func NewKeywordFilter(keyword string, out io.Writer) *KeywordFilter {
	return &KeywordFilter{Keyword: keyword, Out: out}
}

// HandleMessage implements handler.MessageHandler.
func (f *KeywordFilter) HandleMessage(ctx context.Context, msg string) error {
	if !ContainsWord(msg, f.Keyword) {
		return nil
	}

	out := f.Out
	if out == nil {
		out = os.Stdout
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := fmt.Fprintln(out, strings.TrimRight(msg, "\r\n")); err != nil {
		return fmt.Errorf("failed to print match: %w", err)
	}
	n := f.matches.Add(1)
	logger.FromContext(ctx).Debug("keyword matched", "keyword", f.Keyword, "count", n)
	return nil
}

// Count returns the number of matching messages seen so far.
func (f *KeywordFilter) Count() uint64 {
	return f.matches.Load()
}
