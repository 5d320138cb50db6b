// Package behavior holds the stock handlers tailbox agents are assembled
// from: a random two-word message generator, a fixed-message repeater and
// a keyword filter.
package behavior

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/aki/tailbox/internal/core/handler"
	"github.com/aki/tailbox/internal/core/logger"
)

// DefaultWords is the vocabulary the generator draws from by default.
var DefaultWords = []string{"hello", "sun", "world", "space", "moon", "crypto", "sky", "ocean", "universe", "human"}

// DefaultInterval is the pause between generated messages.
const DefaultInterval = 2 * time.Second

// Generator emits two words picked uniformly at random (with replacement)
// from Words, joined by a space, then sleeps Interval, until cancelled.
type Generator struct {
	Words    []string
	Interval time.Duration
	// Rand is the source of randomness; nil uses a per-generator PCG seeded
	// from the global source.
	Rand *rand.Rand

	mu sync.Mutex
}

// NewGenerator returns a Generator with the default vocabulary and interval.
func NewGenerator() *Generator {
	return &Generator{
		Words:    DefaultWords,
		Interval: DefaultInterval,
	}
}

// Message returns the next two-word message.
func (g *Generator) Message() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Rand == nil {
		g.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	words := g.Words
	if len(words) == 0 {
		words = DefaultWords
	}
	return strings.Join([]string{
		words[g.Rand.IntN(len(words))],
		words[g.Rand.IntN(len(words))],
	}, " ")
}

// Run implements handler.StateHandler.
func (g *Generator) Run(ctx context.Context, send handler.AppendFunc) error {
	interval := g.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := logger.FromContext(ctx)
	for {
		msg := g.Message()
		if err := send(ctx, msg); err != nil {
			return err
		}
		log.Debug("generated message", "message", msg)
		if err := handler.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// Repeat returns a state handler that appends msg once every interval,
// starting one interval after it is launched. A non-positive interval
// means DefaultInterval.
func Repeat(msg string, interval time.Duration) handler.StateHandler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return handler.StateHandlerFunc(func(ctx context.Context, send handler.AppendFunc) error {
		for {
			if err := handler.Sleep(ctx, interval); err != nil {
				return err
			}
			if err := send(ctx, msg); err != nil {
				return err
			}
		}
	})
}
