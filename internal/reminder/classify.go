// Package reminder implements the deadline evaluation and one-shot
// notification engine. Classification is derived fresh from wall-clock
// time on every evaluation; the only state the engine holds is the
// session-scoped set of already-notified task ids.
package reminder

import (
	"math"
	"time"

	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

// day is the fixed 86,400,000 ms day used for all threshold math.
const day = 86400000 * time.Millisecond

// State is the derived classification of a task relative to now. It is
// never stored.
type State string

const (
	// StateDormant: no usable deadline, or the alert window has not opened.
	StateDormant State = "dormant"
	// StateAlerting: inside the pre-deadline alert window.
	StateAlerting State = "alerting"
	// StateOverdue: at or past the deadline.
	StateOverdue State = "overdue"
)

// Classify derives the state of a single task at now. The boolean reports
// whether the task participates in evaluation at all: completed tasks and
// tasks with absent or unparseable deadlines are excluded. The deadline is
// interpreted as local midnight in now's location.
func Classify(t task.Task, now time.Time) (State, bool) {
	if t.Completed {
		return StateDormant, false
	}
	deadline, ok := t.DeadlineAt(now.Location())
	if !ok {
		return StateDormant, false
	}

	if !now.Before(deadline) {
		return StateOverdue, true
	}

	// An explicit threshold of 0 alerts only at/after the deadline itself;
	// such a task is never Alerting.
	threshold := t.AlertDays()
	if threshold == 0 {
		return StateDormant, true
	}

	alertStart := deadline.Add(-time.Duration(threshold) * day)
	if now.Before(alertStart) {
		return StateDormant, true
	}
	return StateAlerting, true
}

// DaysLeft reports whole days until the deadline, rounding up; zero or
// negative means the deadline has arrived or passed.
func DaysLeft(t task.Task, now time.Time) int {
	deadline, ok := t.DeadlineAt(now.Location())
	if !ok {
		return 0
	}
	return int(math.Ceil(float64(deadline.Sub(now)) / float64(day)))
}

// BadgeCounts breaks qualifying tasks out by quadrant class, for status
// badges: the urgent-important quadrant versus all others.
type BadgeCounts struct {
	UrgentImportantOverdue  int `json:"urgentImportantOverdue"`
	UrgentImportantAlerting int `json:"urgentImportantAlerting"`
	OtherOverdue            int `json:"otherOverdue"`
	OtherAlerting           int `json:"otherAlerting"`
}

// Total returns the number of qualifying tasks.
func (b BadgeCounts) Total() int {
	return b.UrgentImportantOverdue + b.UrgentImportantAlerting + b.OtherOverdue + b.OtherAlerting
}

// EvaluateAll classifies every task and tallies badge counts. Malformed
// individual tasks are silently excluded; evaluation of the rest proceeds.
func EvaluateAll(tasks []store.FlatTask, now time.Time) BadgeCounts {
	var counts BadgeCounts
	for _, ft := range tasks {
		state, ok := Classify(ft.Task, now)
		if !ok {
			continue
		}
		urgent := ft.Quadrant == task.QuadrantUrgentImportant
		switch state {
		case StateOverdue:
			if urgent {
				counts.UrgentImportantOverdue++
			} else {
				counts.OtherOverdue++
			}
		case StateAlerting:
			if urgent {
				counts.UrgentImportantAlerting++
			} else {
				counts.OtherAlerting++
			}
		}
	}
	return counts
}
