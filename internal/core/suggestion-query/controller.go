// internal/core/suggestion-query/controller.go
package suggestionquery

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"shopping-assistant/internal/common/clock"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/sequence"
	"shopping-assistant/internal/models"
)

type Option func(*Controller)

// WithClock replaces the wall clock that drives the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithOnChange registers a callback invoked after every visible state change.
// It runs without the controller lock held.
func WithOnChange(fn func(Snapshot)) Option {
	return func(ctrl *Controller) { ctrl.onChange = fn }
}

// Controller turns keystrokes into debounced suggestion fetches. Only the
// response to the highest issued sequence number may reach the visible state.
type Controller struct {
	config   *Config
	fetcher  Fetcher
	clock    clock.Clock
	logger   logger.Logger
	onChange func(Snapshot)
	seq      sequence.Sequencer

	mu          sync.Mutex
	state       State
	text        string
	current     uint64
	suggestions []models.ProductSummary
	timer       clock.Timer
	generation  uint64
	cancel      context.CancelFunc

	inflight sync.WaitGroup
}

func NewController(cfg *Config, fetcher Fetcher, log logger.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	c := &Controller{
		config:  defaultConfig(cfg),
		fetcher: fetcher,
		clock:   clock.NewRealClock(),
		logger:  log.Named("suggestion-query"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input records the current text of the search box.
func (c *Controller) Input(text string) {
	c.mu.Lock()
	if utf8.RuneCountInString(text) < c.config.MinChars {
		changed := c.resetLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		if changed {
			c.notify(snap)
		}
		return
	}
	if text == c.text && c.state != StateIdle {
		c.mu.Unlock()
		return
	}

	c.stopTimerLocked()
	c.generation++
	gen := c.generation
	// a newer keystroke makes every earlier fetch stale
	c.seq.Next()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateDebouncing
	c.text = text
	c.timer = c.clock.AfterFunc(c.config.Debounce, func() { c.fire(text, gen) })
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Close returns to Idle. Any fetch still in flight is cancelled and its
// response will not be shown.
func (c *Controller) Close() {
	c.mu.Lock()
	changed := c.resetLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
}

// Snapshot returns a copy of the visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until every fetch started so far has been handled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// resetLocked moves to Idle and reports whether anything visible changed.
// Advancing the sequence makes any in-flight response stale.
func (c *Controller) resetLocked() bool {
	c.stopTimerLocked()
	c.generation++
	c.seq.Next()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	changed := c.state != StateIdle || len(c.suggestions) > 0
	c.state = StateIdle
	c.text = ""
	c.current = 0
	c.suggestions = nil
	return changed
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:       c.state,
		Text:        c.text,
		Seq:         c.current,
		Suggestions: append([]models.ProductSummary(nil), c.suggestions...),
	}
}

// fire runs when the debounce window of text elapses.
func (c *Controller) fire(text string, gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		// superseded by a later Input or Close after the timer already fired
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	seq := c.seq.Next()
	c.state = StateFetching
	c.current = seq
	c.inflight.Add(1)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	go c.fetch(ctx, cancel, text, seq)
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, text string, seq uint64) {
	defer c.inflight.Done()
	defer cancel()

	results, err := c.fetcher.GetSuggestions(ctx, text)

	c.mu.Lock()
	if !c.seq.IsLatest(seq) {
		c.mu.Unlock()
		result := "superseded"
		if errors.Is(err, context.Canceled) {
			result = "cancelled"
		}
		metrics.SuggestionFetches.WithLabelValues(result).Inc()
		c.logger.Debug("discarding stale suggestions", map[string]interface{}{
			"seq":   seq,
			"query": text,
		})
		return
	}

	if err != nil {
		c.logger.Warn("suggestion fetch failed", map[string]interface{}{
			"seq":   seq,
			"query": text,
			"error": err,
		})
		metrics.SuggestionFetches.WithLabelValues("failed").Inc()
		results = nil
	} else {
		metrics.SuggestionFetches.WithLabelValues("applied").Inc()
	}

	c.suggestions = results
	c.cancel = nil
	c.state = StateSettled
	c.text = text
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
