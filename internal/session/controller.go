package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"ssbprep/internal/model"

	"go.uber.org/zap"
)

var (
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrClosed         = errors.New("session closed")
)

// Scorer turns a finished attempt into a report. A report returned together
// with an error is partial and is shown alongside the failure.
type Scorer interface {
	Evaluate(ctx context.Context, t model.TestType, responses []model.Response) (*model.ScoreReport, error)
}

// Ticker is the subset of time.Ticker the controller needs
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) Chan() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()                  { s.t.Stop() }

// NewTicker wraps time.NewTicker
func NewTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Option configures a Controller
type Option func(*Controller)

// WithTicker replaces the wall-clock ticker
func WithTicker(fn TickerFunc) Option {
	return func(c *Controller) { c.newTicker = fn }
}

// WithInterval changes the length of one countdown step
func WithInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithObserver registers fn to receive every state the session passes through
func WithObserver(fn func(State)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// Controller owns one session. A single goroutine applies every event, so
// timer ticks and user actions can never interleave inside a transition.
type Controller struct {
	scorer    Scorer
	log       *zap.Logger
	newTicker TickerFunc
	interval  time.Duration

	events  chan request
	done    chan struct{}
	started atomic.Bool
	cancel  context.CancelFunc

	mu        sync.RWMutex
	state     State
	observers []func(State)
}

// NewController creates a controller for a session in Setup
func NewController(initial State, scorer Scorer, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		scorer:    scorer,
		log:       log,
		newTicker: NewTicker,
		interval:  time.Second,
		events:    make(chan request),
		done:      make(chan struct{}),
		state:     initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the session loop over items and returns once the first
// item is active. Cancelling ctx abandons the session.
func (c *Controller) Start(ctx context.Context, items []model.Item) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	ready := make(chan struct{})
	go c.run(ctx, items, ready)
	<-ready
	return nil
}

// request is a user event plus the signal that it has been applied
type request struct {
	ev      Event
	applied chan struct{}
}

// Send delivers a user event to the session loop and returns once it has
// been applied, so a following Snapshot reflects it
func (c *Controller) Send(ev Event) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	req := request{ev: ev, applied: make(chan struct{})}
	select {
	case c.events <- req:
	case <-c.done:
		return ErrClosed
	}
	<-req.applied
	return nil
}

// Abandon stops the session: no further ticks, transitions or scoring
func (c *Controller) Abandon() {
	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()
	if cancel == nil {
		return
	}
	cancel()
	<-c.done
}

// Done is closed once the loop has exited
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Subscribe adds an observer after construction
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Snapshot returns the current state
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) run(ctx context.Context, items []model.Item, ready chan<- struct{}) {
	defer close(c.done)

	var (
		ticker Ticker
		tick   <-chan time.Time
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stopTicker()

	// buffered so a late scorer never blocks after the loop exits
	scored := make(chan Event, 1)

	step := func(ev Event) bool {
		prev := c.Snapshot()
		next := Next(prev, ev)

		c.mu.Lock()
		c.state = next
		observers := slices.Clone(c.observers)
		c.mu.Unlock()

		if next.Phase != prev.Phase || next.Index != prev.Index {
			stopTicker()
			if next.Phase.Timed() {
				ticker = c.newTicker(c.interval)
				tick = ticker.Chan()
			}
			if next.Phase == PhaseEvaluating {
				go c.score(ctx, next, scored)
			}
		}

		for _, fn := range observers {
			fn(next)
		}
		return next.Done()
	}

	done := step(Start{Items: items})
	close(ready)
	if done {
		return
	}
	for {
		var finished bool
		select {
		case <-ctx.Done():
			c.log.Debug("session abandoned", zap.String("session", c.state.ID))
			return
		case <-tick:
			finished = step(Tick{})
		case req := <-c.events:
			finished = step(req.ev)
			close(req.applied)
		case ev := <-scored:
			finished = step(ev)
		}
		if finished {
			return
		}
	}
}

func (c *Controller) score(ctx context.Context, s State, out chan<- Event) {
	report, err := c.scorer.Evaluate(ctx, s.TestType, s.Responses)
	if err != nil {
		c.log.Warn("session scoring failed",
			zap.String("session", s.ID),
			zap.String("testType", string(s.TestType)),
			zap.Error(err),
		)
		out <- ScoreFailed{Err: err, Partial: report}
		return
	}
	out <- Scored{Report: report}
}
