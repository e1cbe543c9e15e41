// Package task defines the quadrant task record and its enums.
package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeadlineLayout is the calendar-date format deadlines are stored in.
// A deadline has no time-of-day component; comparisons treat it as local
// midnight of that date.
const DeadlineLayout = "2006-01-02"

// DefaultAlertDays is the alert threshold backfilled onto tasks that have
// none set. An explicit 0 means "alert only at/after the deadline" and is
// distinct from unset.
const DefaultAlertDays = 3

// Quadrant is one of the four fixed Eisenhower-matrix categories.
type Quadrant string

const (
	QuadrantUrgentImportant       Quadrant = "urgent-important"
	QuadrantImportantNotUrgent    Quadrant = "important-not-urgent"
	QuadrantUrgentNotImportant    Quadrant = "urgent-not-important"
	QuadrantNotUrgentNotImportant Quadrant = "not-urgent-not-important"
)

// ValidQuadrants returns all valid quadrant values in display order.
func ValidQuadrants() []Quadrant {
	return []Quadrant{
		QuadrantUrgentImportant,
		QuadrantImportantNotUrgent,
		QuadrantUrgentNotImportant,
		QuadrantNotUrgentNotImportant,
	}
}

// IsValidQuadrant returns true if the quadrant is a valid quadrant value.
func IsValidQuadrant(q Quadrant) bool {
	switch q {
	case QuadrantUrgentImportant, QuadrantImportantNotUrgent,
		QuadrantUrgentNotImportant, QuadrantNotUrgentNotImportant:
		return true
	default:
		return false
	}
}

// Label returns a human-readable name for the quadrant.
func (q Quadrant) Label() string {
	switch q {
	case QuadrantUrgentImportant:
		return "Urgent & Important"
	case QuadrantImportantNotUrgent:
		return "Important, Not Urgent"
	case QuadrantUrgentNotImportant:
		return "Urgent, Not Important"
	case QuadrantNotUrgentNotImportant:
		return "Not Urgent, Not Important"
	default:
		return string(q)
	}
}

// Priority represents the advisory urgency of a task. It is not used in
// alert-timing logic.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// IsValidPriority returns true if the priority is a valid priority value.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// PriorityOrder returns a numeric value for sorting (lower = higher priority).
func PriorityOrder(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Task is a single quadrant task record. JSON tags match the persisted
// blob format.
type Task struct {
	// ID is the unique identifier, stable for the task's lifetime.
	ID string `json:"id"`

	// Title is a short display string, required and non-empty after trim.
	Title string `json:"title"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Deadline is an optional calendar date (YYYY-MM-DD). Empty means the
	// task is never evaluated for alerts.
	Deadline string `json:"deadline,omitempty"`

	// AlertThreshold is the number of days before the deadline at which the
	// task becomes alert-worthy. A nil pointer means "unset" and is
	// backfilled to DefaultAlertDays; an explicit 0 means "alert only
	// at/after the deadline".
	AlertThreshold *int `json:"alertThreshold,omitempty"`

	// Priority is advisory only.
	Priority Priority `json:"priority,omitempty"`

	// Completed tasks are excluded from all alert evaluation.
	Completed bool `json:"completed"`

	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the task was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a new task with a fresh unique id and timestamps set to now.
func New(title, description, deadline string, alertThreshold int, priority Priority) *Task {
	now := time.Now()
	threshold := alertThreshold
	return &Task{
		ID:             NewID(),
		Title:          strings.TrimSpace(title),
		Description:    description,
		Deadline:       deadline,
		AlertThreshold: &threshold,
		Priority:       priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewID generates a unique task id. IDs are never reused.
func NewID() string {
	return "task_" + uuid.NewString()
}

// AlertDays returns the task's alert threshold, defaulting to
// DefaultAlertDays when unset. The explicit-zero sentinel survives: a
// stored 0 comes back as 0.
func (t *Task) AlertDays() int {
	if t.AlertThreshold == nil {
		return DefaultAlertDays
	}
	if *t.AlertThreshold < 0 {
		return DefaultAlertDays
	}
	return *t.AlertThreshold
}

// GetPriority returns the task's priority, defaulting to medium if not set.
func (t *Task) GetPriority() Priority {
	if t.Priority == "" {
		return PriorityMedium
	}
	return t.Priority
}

// DeadlineAt parses the deadline as local midnight in loc. The boolean
// reports whether the task has a usable deadline; absent or malformed
// deadlines exclude the task from evaluation.
func (t *Task) DeadlineAt(loc *time.Location) (time.Time, bool) {
	if t.Deadline == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DeadlineLayout, t.Deadline, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Normalize backfills missing optional fields in place and reports whether
// anything changed. Loaded data with backfilled fields must be re-persisted.
func (t *Task) Normalize() bool {
	changed := false
	if t.AlertThreshold == nil || *t.AlertThreshold < 0 {
		threshold := DefaultAlertDays
		t.AlertThreshold = &threshold
		changed = true
	}
	if !IsValidPriority(t.Priority) {
		t.Priority = PriorityMedium
		changed = true
	}
	return changed
}

// Touch refreshes the updated timestamp.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now()
}
