// Package notify defines the boundary to the notification surface: the
// engine hands over a batch of task summaries exactly once and does not
// care how they are rendered, dismissed, or snoozed.
package notify

import (
	"log/slog"
	"sync"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/task"
)

// TaskSummary is one task in an outbound notification batch.
type TaskSummary struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Deadline       string        `json:"deadline"`
	DaysLeft       int           `json:"daysLeft"`
	AlertThreshold int           `json:"alertThreshold"`
	Priority       task.Priority `json:"priority"`
	Quadrant       task.Quadrant `json:"quadrant"`
}

// Notifier delivers a notification batch. Delivery is best-effort: the
// engine records the one-shot marker before delivery and never retries.
type Notifier interface {
	Notify(batch []TaskSummary) error
}

// LogNotifier writes batches to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs each batch.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the batch.
func (n *LogNotifier) Notify(batch []TaskSummary) error {
	for _, s := range batch {
		n.logger.Info("task reminder",
			"id", s.ID,
			"title", s.Title,
			"deadline", s.Deadline,
			"days_left", s.DaysLeft,
			"quadrant", s.Quadrant,
		)
	}
	return nil
}

// PublisherNotifier re-emits batches on the event bus so the sync server
// can fan them out to notification windows.
type PublisherNotifier struct {
	pub events.Publisher
}

// NewPublisherNotifier creates a notifier backed by the event bus.
func NewPublisherNotifier(pub events.Publisher) *PublisherNotifier {
	return &PublisherNotifier{pub: pub}
}

// Notify publishes the batch on the reminder topic.
func (n *PublisherNotifier) Notify(batch []TaskSummary) error {
	n.pub.Publish(events.NewEvent(events.EventReminderBatch, events.TopicReminder, batch))
	return nil
}

// NopNotifier discards batches.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(batch []TaskSummary) error { return nil }

// Multi fans one batch out to several notifiers. The first error is
// returned after all notifiers ran.
type Multi []Notifier

// Notify delivers to every notifier.
func (m Multi) Notify(batch []TaskSummary) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(batch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Recorder captures batches for tests.
type Recorder struct {
	mu      sync.Mutex
	batches [][]TaskSummary
	// Err, when set, is returned from Notify after recording.
	Err error
}

// Notify records the batch.
func (r *Recorder) Notify(batch []TaskSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := append([]TaskSummary(nil), batch...)
	r.batches = append(r.batches, copied)
	return r.Err
}

// Batches returns all recorded batches.
func (r *Recorder) Batches() [][]TaskSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]TaskSummary(nil), r.batches...)
}
