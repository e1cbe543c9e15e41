package reminder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/quadjournal/quad/internal/notify"
	"github.com/quadjournal/quad/internal/store"
)

// Engine owns the session-scoped one-shot notification state. Everything
// else is re-derived per evaluation; an engine restart only loses the
// already-notified markers, which is accepted session scope.
type Engine struct {
	mu       sync.Mutex
	notified map[string]struct{}
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewEngine creates an engine with an empty notified-set.
func NewEngine(notifier notify.Notifier, logger *slog.Logger) *Engine {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		notified: make(map[string]struct{}),
		notifier: notifier,
		logger:   logger,
	}
}

// CheckAndNotify classifies every task and bundles all tasks newly
// observed as Alerting into a single outbound batch, delivered at most
// once. Tasks already notified are skipped until their alert memory is
// cleared or the session ends. Overdue tasks never trigger this automatic
// path; they are surfaced via badges only.
func (e *Engine) CheckAndNotify(tasks []store.FlatTask, now time.Time) []notify.TaskSummary {
	return e.check(tasks, now, false)
}

// CheckNow is the manual "check important tasks now" entry point: unlike
// the periodic path it also includes Overdue tasks in the batch. The
// one-shot guarantee is shared with CheckAndNotify.
func (e *Engine) CheckNow(tasks []store.FlatTask, now time.Time) []notify.TaskSummary {
	return e.check(tasks, now, true)
}

func (e *Engine) check(tasks []store.FlatTask, now time.Time, includeOverdue bool) []notify.TaskSummary {
	e.mu.Lock()
	var batch []notify.TaskSummary
	for _, ft := range tasks {
		state, ok := Classify(ft.Task, now)
		if !ok {
			continue
		}
		if state != StateAlerting && !(includeOverdue && state == StateOverdue) {
			continue
		}
		if _, seen := e.notified[ft.ID]; seen {
			continue
		}
		e.notified[ft.ID] = struct{}{}
		batch = append(batch, notify.TaskSummary{
			ID:             ft.ID,
			Title:          ft.Title,
			Description:    ft.Description,
			Deadline:       ft.Deadline,
			DaysLeft:       DaysLeft(ft.Task, now),
			AlertThreshold: ft.AlertDays(),
			Priority:       ft.GetPriority(),
			Quadrant:       ft.Quadrant,
		})
	}
	e.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	// Best-effort delivery: the markers are already recorded, so a failed
	// delivery is not re-sent.
	if err := e.notifier.Notify(batch); err != nil {
		e.logger.Warn("reminder delivery failed", "tasks", len(batch), "error", err)
	}
	return batch
}

// ClearAlertMemory removes one task's one-shot marker so it can re-enter
// the alert cycle, typically after its deadline or threshold was edited.
func (e *Engine) ClearAlertMemory(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.notified, id)
}

// ClearAllAlertMemory empties the notified-set, typically after a full
// data reset.
func (e *Engine) ClearAllAlertMemory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notified = make(map[string]struct{})
}

// NotifiedCount returns the size of the notified-set.
func (e *Engine) NotifiedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.notified)
}
