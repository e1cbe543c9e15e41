package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadjournal/quad/internal/task"
	"github.com/quadjournal/quad/internal/store"
)

func TestSelectNextCountdownTarget_PrefersMostRecentlyOverdue(t *testing.T) {
	// Five seconds past today's midnight: today's deadline is 5s overdue,
	// yesterday's is a day and 5s overdue.
	now := midnight.Add(5 * time.Second)
	tasks := []store.FlatTask{
		flat("older", task.QuadrantUrgentImportant, "2026-08-27", 3, false),
		flat("fresher", task.QuadrantImportantNotUrgent, midnightDate, 3, false),
		flat("alerting", task.QuadrantUrgentImportant, "2026-08-30", 3, false),
	}

	target := SelectNextCountdownTarget(tasks, now)
	require.NotNil(t, target)
	assert.Equal(t, "fresher", target.Task.ID)
	assert.Equal(t, StateOverdue, target.State)
}

func TestSelectNextCountdownTarget_SoonestAlertingWhenNoneOverdue(t *testing.T) {
	now := midnight.Add(-time.Hour)
	tasks := []store.FlatTask{
		flat("later", task.QuadrantUrgentImportant, "2026-08-29", 5, false),
		flat("sooner", task.QuadrantImportantNotUrgent, midnightDate, 5, false),
	}

	target := SelectNextCountdownTarget(tasks, now)
	require.NotNil(t, target)
	assert.Equal(t, "sooner", target.Task.ID)
	assert.Equal(t, StateAlerting, target.State)
}

func TestSelectNextCountdownTarget_NilWhenNothingQualifies(t *testing.T) {
	tasks := []store.FlatTask{
		flat("dormant", task.QuadrantUrgentImportant, "2026-12-01", 3, false),
		flat("completed", task.QuadrantUrgentImportant, "2026-08-20", 3, true),
		flat("undated", task.QuadrantUrgentImportant, "", 3, false),
	}
	assert.Nil(t, SelectNextCountdownTarget(tasks, midnight))
	assert.Nil(t, SelectNextCountdownTarget(nil, midnight))
}

func TestSelectNextCountdownTarget_Idempotent(t *testing.T) {
	now := midnight.Add(-30 * time.Minute)
	tasks := []store.FlatTask{
		flat("a", task.QuadrantUrgentImportant, midnightDate, 3, false),
		flat("b", task.QuadrantImportantNotUrgent, "2026-08-30", 3, false),
	}

	first := SelectNextCountdownTarget(tasks, now)
	require.NotNil(t, first)
	for i := 0; i < 5; i++ {
		again := SelectNextCountdownTarget(tasks, now)
		require.NotNil(t, again)
		assert.Equal(t, first.Task.ID, again.Task.ID)
		assert.Equal(t, first.State, again.State)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
		{24*time.Hour + 5*time.Minute + 6*time.Second, "1d 0h 5m 6s"},
		{2*time.Hour + 30*time.Minute, "2h 30m 0s"},
		{2 * time.Minute, "2m 0s"},
		{59 * time.Second, "59s"},
		{0, "0s"},
		// Truncated, not rounded, to whole seconds.
		{1900 * time.Millisecond, "1s"},
		{-5 * time.Second, "5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d), "duration %v", tt.d)
	}
}

func TestCountdownLabel(t *testing.T) {
	ft := flat("t1", task.QuadrantUrgentImportant, midnightDate, 3, false)
	ft.Title = "short"

	target := &CountdownTarget{Task: ft, State: StateAlerting, Deadline: midnight}
	assert.Equal(t, "short due in 1m 30s", target.Label(midnight.Add(-90*time.Second)))

	target.State = StateOverdue
	assert.Equal(t, "short overdue 10s", target.Label(midnight.Add(10*time.Second)))
}

func TestCountdownLabel_TruncatesLongTitles(t *testing.T) {
	ft := flat("t1", task.QuadrantUrgentImportant, midnightDate, 3, false)
	ft.Title = "write the quarterly report"

	target := &CountdownTarget{Task: ft, State: StateAlerting, Deadline: midnight}
	label := target.Label(midnight.Add(-time.Minute))
	assert.Equal(t, "write the qu… due in 1m 0s", label)

	// Underlying data is untouched.
	assert.Equal(t, "write the quarterly report", ft.Title)
}
