package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

// midnight is a fixed local-midnight reference; deadline strings are
// interpreted as midnight in now's location, so tests anchor now against
// this instant.
var midnight = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

const midnightDate = "2026-08-28"

func flat(id string, q task.Quadrant, deadline string, threshold int, completed bool) store.FlatTask {
	t := threshold
	return store.FlatTask{
		Task: task.Task{
			ID:             id,
			Title:          id,
			Deadline:       deadline,
			AlertThreshold: &t,
			Completed:      completed,
		},
		Quadrant: q,
	}
}

func TestClassify_States(t *testing.T) {
	tests := []struct {
		name      string
		deadline  string
		threshold int
		now       time.Time
		want      State
		wantOK    bool
	}{
		{
			name:     "far future is dormant",
			deadline: midnightDate, threshold: 3,
			now:  midnight.Add(-4 * 24 * time.Hour),
			want: StateDormant, wantOK: true,
		},
		{
			name:     "window boundary enters alerting",
			deadline: midnightDate, threshold: 3,
			now:  midnight.Add(-3 * 24 * time.Hour),
			want: StateAlerting, wantOK: true,
		},
		{
			name:     "inside window is alerting",
			deadline: midnightDate, threshold: 3,
			now:  midnight.Add(-time.Hour),
			want: StateAlerting, wantOK: true,
		},
		{
			name:     "at deadline is overdue",
			deadline: midnightDate, threshold: 3,
			now:  midnight,
			want: StateOverdue, wantOK: true,
		},
		{
			name:     "past deadline stays overdue",
			deadline: midnightDate, threshold: 3,
			now:  midnight.Add(48 * time.Hour),
			want: StateOverdue, wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := flat("t1", task.QuadrantUrgentImportant, tt.deadline, tt.threshold, false)
			state, ok := Classify(ft.Task, tt.now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestClassify_ThresholdZeroSentinel(t *testing.T) {
	ft := flat("t1", task.QuadrantUrgentImportant, midnightDate, 0, false)

	// One hour before the deadline: dormant, never alerting.
	state, ok := Classify(ft.Task, midnight.Add(-time.Hour))
	assert.True(t, ok)
	assert.Equal(t, StateDormant, state)

	// At the deadline instant: overdue.
	state, ok = Classify(ft.Task, midnight)
	assert.True(t, ok)
	assert.Equal(t, StateOverdue, state)

	// Sweep the whole pre-deadline window: alerting must never appear.
	for offset := 10 * 24 * time.Hour; offset > 0; offset -= 6 * time.Hour {
		state, _ := Classify(ft.Task, midnight.Add(-offset))
		assert.NotEqual(t, StateAlerting, state, "offset %v", offset)
	}
}

func TestClassify_UnsetThresholdDefaultsToThree(t *testing.T) {
	ft := store.FlatTask{
		Task:     task.Task{ID: "t1", Title: "t1", Deadline: midnightDate},
		Quadrant: task.QuadrantUrgentImportant,
	}

	state, ok := Classify(ft.Task, midnight.Add(-2*24*time.Hour))
	assert.True(t, ok)
	assert.Equal(t, StateAlerting, state)

	state, _ = Classify(ft.Task, midnight.Add(-4*24*time.Hour))
	assert.Equal(t, StateDormant, state)
}

func TestClassify_Exclusions(t *testing.T) {
	// Completed tasks are excluded unconditionally, even when overdue.
	done := flat("t1", task.QuadrantUrgentImportant, midnightDate, 3, true)
	_, ok := Classify(done.Task, midnight.Add(time.Hour))
	assert.False(t, ok)

	// No deadline.
	_, ok = Classify(task.Task{ID: "t2", Title: "t2"}, midnight)
	assert.False(t, ok)

	// Malformed deadline is isolated, not an error.
	_, ok = Classify(task.Task{ID: "t3", Title: "t3", Deadline: "soonish"}, midnight)
	assert.False(t, ok)
}

func TestEvaluateAll_BadgeCounts(t *testing.T) {
	now := midnight
	tasks := []store.FlatTask{
		flat("ui-overdue", task.QuadrantUrgentImportant, "2026-08-27", 3, false),
		flat("ui-alerting", task.QuadrantUrgentImportant, "2026-08-30", 3, false),
		flat("other-overdue", task.QuadrantImportantNotUrgent, "2026-08-26", 3, false),
		flat("other-alerting", task.QuadrantNotUrgentNotImportant, "2026-08-29", 3, false),
		flat("dormant", task.QuadrantUrgentImportant, "2026-12-01", 3, false),
		flat("completed", task.QuadrantUrgentImportant, "2026-08-20", 3, true),
		flat("no-deadline", task.QuadrantUrgentImportant, "", 3, false),
	}

	counts := EvaluateAll(tasks, now)
	assert.Equal(t, 1, counts.UrgentImportantOverdue)
	assert.Equal(t, 1, counts.UrgentImportantAlerting)
	assert.Equal(t, 1, counts.OtherOverdue)
	assert.Equal(t, 1, counts.OtherAlerting)
	assert.Equal(t, 4, counts.Total())
}

func TestEvaluateAll_Idempotent(t *testing.T) {
	now := midnight.Add(-time.Hour)
	tasks := []store.FlatTask{
		flat("a", task.QuadrantUrgentImportant, midnightDate, 3, false),
		flat("b", task.QuadrantImportantNotUrgent, "2026-08-20", 3, false),
	}

	first := EvaluateAll(tasks, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EvaluateAll(tasks, now))
	}
}

func TestEvaluateAll_EmptyYieldsNoUrgent(t *testing.T) {
	counts := EvaluateAll(nil, midnight)
	assert.Equal(t, 0, counts.Total())
}

func TestDaysLeft(t *testing.T) {
	ft := flat("t1", task.QuadrantUrgentImportant, midnightDate, 3, false)

	assert.Equal(t, 3, DaysLeft(ft.Task, midnight.Add(-3*24*time.Hour)))
	assert.Equal(t, 1, DaysLeft(ft.Task, midnight.Add(-time.Hour)))
	assert.Equal(t, 0, DaysLeft(ft.Task, midnight))
	assert.Equal(t, -1, DaysLeft(ft.Task, midnight.Add(25*time.Hour)))
}
