package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/store"
)

const (
	// DefaultCoarseInterval re-renders aggregate status badges.
	DefaultCoarseInterval = 60 * time.Second
	// DefaultFineInterval drives the live countdown and the one-shot check.
	DefaultFineInterval = time.Second
)

// Runner drives the engine on two independent timers: a coarse tick for
// badges and a fine tick for the countdown and the one-shot notification
// check. Both timers die with the context. A tasks-saved event on the bus
// triggers an immediate re-evaluation so other windows' edits show up
// without waiting for the next tick.
type Runner struct {
	store  *store.Store
	engine *Engine
	pub    events.Publisher
	logger *slog.Logger

	coarseInterval time.Duration
	fineInterval   time.Duration

	onBadges    func(BadgeCounts)
	onCountdown func(*CountdownTarget, time.Time)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithIntervals overrides the coarse and fine tick intervals.
func WithIntervals(coarse, fine time.Duration) RunnerOption {
	return func(r *Runner) {
		if coarse > 0 {
			r.coarseInterval = coarse
		}
		if fine > 0 {
			r.fineInterval = fine
		}
	}
}

// WithBadgesFunc sets the callback invoked with fresh badge counts.
func WithBadgesFunc(fn func(BadgeCounts)) RunnerOption {
	return func(r *Runner) { r.onBadges = fn }
}

// WithCountdownFunc sets the callback invoked with the current countdown
// target (nil when no task qualifies).
func WithCountdownFunc(fn func(*CountdownTarget, time.Time)) RunnerOption {
	return func(r *Runner) { r.onCountdown = fn }
}

// NewRunner creates a runner. The publisher may be nil when no external
// change signal is wired.
func NewRunner(s *store.Store, e *Engine, pub events.Publisher, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		store:          s,
		engine:         e,
		pub:            pub,
		logger:         logger,
		coarseInterval: DefaultCoarseInterval,
		fineInterval:   DefaultFineInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates until ctx is cancelled. Returns nil on cancellation; the
// engine holds no resources needing release beyond the notified-set.
func (r *Runner) Run(ctx context.Context) error {
	coarse := time.NewTicker(r.coarseInterval)
	defer coarse.Stop()
	fine := time.NewTicker(r.fineInterval)
	defer fine.Stop()

	var taskEvents <-chan events.Event
	if r.pub != nil {
		ch := r.pub.Subscribe(events.TopicTasks)
		defer r.pub.Unsubscribe(events.TopicTasks, ch)
		taskEvents = ch
	}

	// Initial pass so the UI is populated before the first tick.
	r.coarseTick(time.Now())
	r.fineTick(time.Now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-coarse.C:
			r.coarseTick(now)
		case now := <-fine.C:
			r.fineTick(now)
		case _, ok := <-taskEvents:
			if !ok {
				taskEvents = nil
				continue
			}
			now := time.Now()
			r.coarseTick(now)
			r.fineTick(now)
		}
	}
}

func (r *Runner) coarseTick(now time.Time) {
	counts := EvaluateAll(r.store.AllTasksFlat(), now)
	if r.onBadges != nil {
		r.onBadges(counts)
	}
}

func (r *Runner) fineTick(now time.Time) {
	tasks := r.store.AllTasksFlat()
	if r.onCountdown != nil {
		r.onCountdown(SelectNextCountdownTarget(tasks, now), now)
	}
	r.engine.CheckAndNotify(tasks, now)
}
