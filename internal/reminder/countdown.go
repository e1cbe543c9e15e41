package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/quadjournal/quad/internal/store"
)

// maxLabelRunes is the title length shown in countdown labels before
// truncation. Underlying task data is never truncated.
const maxLabelRunes = 12

// CountdownTarget is the single task selected to drive the live countdown
// display.
type CountdownTarget struct {
	Task     store.FlatTask
	State    State
	Deadline time.Time
}

// SelectNextCountdownTarget deterministically picks one task for the
// countdown: the most recently overdue task if any task is overdue,
// otherwise the alerting task closest to its deadline. Returns nil when no
// task qualifies.
func SelectNextCountdownTarget(tasks []store.FlatTask, now time.Time) *CountdownTarget {
	var overdue, alerting *CountdownTarget

	for _, ft := range tasks {
		state, ok := Classify(ft.Task, now)
		if !ok {
			continue
		}
		deadline, _ := ft.DeadlineAt(now.Location())

		switch state {
		case StateOverdue:
			// Smallest now-deadline wins: the latest deadline.
			if overdue == nil || deadline.After(overdue.Deadline) {
				overdue = &CountdownTarget{Task: ft, State: state, Deadline: deadline}
			}
		case StateAlerting:
			// Smallest deadline-now wins: the earliest deadline.
			if alerting == nil || deadline.Before(alerting.Deadline) {
				alerting = &CountdownTarget{Task: ft, State: state, Deadline: deadline}
			}
		}
	}

	if overdue != nil {
		return overdue
	}
	return alerting
}

// FormatDuration renders a duration as D/H/M/S, truncated to whole
// seconds, dropping leading zero units. Seconds are always shown.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Truncate(time.Second)

	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	mins := int(d / time.Minute)
	secs := int((d - time.Duration(mins)*time.Minute) / time.Second)

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 || b.Len() > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if mins > 0 || b.Len() > 0 {
		fmt.Fprintf(&b, "%dm ", mins)
	}
	fmt.Fprintf(&b, "%ds", secs)
	return b.String()
}

// Label renders the countdown line for display: the task title (truncated
// with an ellipsis past 12 runes) and the remaining or elapsed time.
func (c *CountdownTarget) Label(now time.Time) string {
	title := []rune(c.Task.Title)
	if len(title) > maxLabelRunes {
		title = append(title[:maxLabelRunes], '…')
	}

	if c.State == StateOverdue {
		return fmt.Sprintf("%s overdue %s", string(title), FormatDuration(now.Sub(c.Deadline)))
	}
	return fmt.Sprintf("%s due in %s", string(title), FormatDuration(c.Deadline.Sub(now)))
}
