package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/kv"
	"github.com/quadjournal/quad/internal/task"
)

func newTestStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	kvs := kv.NewMemoryStore()
	s := New(kvs, nil, nil)
	require.NoError(t, s.Load())
	return s, kvs
}

func TestLoad_EmptyInitializesDefault(t *testing.T) {
	s, kvs := newTestStore(t)

	assert.Equal(t, 0, s.TaskCount())

	// The empty default must be persisted as a valid structure.
	blob, ok, err := kvs.Get(TasksKey)
	require.NoError(t, err)
	require.True(t, ok)

	var raw map[task.Quadrant][]*task.Task
	require.NoError(t, json.Unmarshal([]byte(blob), &raw))
	assert.Len(t, raw, 4)
}

func TestLoad_CorruptBlobFailsSoft(t *testing.T) {
	kvs := kv.NewMemoryStore()
	require.NoError(t, kvs.Set(TasksKey, "{not json"))

	s := New(kvs, nil, nil)
	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.TaskCount())

	// A valid empty structure replaced the corrupt blob.
	blob, _, err := kvs.Get(TasksKey)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(blob)))
}

func TestLoad_BackfillsMissingFields(t *testing.T) {
	kvs := kv.NewMemoryStore()
	blob := `{
		"urgent-important": [{"id":"t1","title":"legacy","completed":false}],
		"important-not-urgent": [],
		"urgent-not-important": [],
		"not-urgent-not-important": []
	}`
	require.NoError(t, kvs.Set(TasksKey, blob))

	s := New(kvs, nil, nil)
	require.NoError(t, s.Load())

	got, _, ok := s.FindTask("t1")
	require.True(t, ok)
	require.NotNil(t, got.AlertThreshold)
	assert.Equal(t, task.DefaultAlertDays, *got.AlertThreshold)
	assert.Equal(t, task.PriorityMedium, got.Priority)

	// Backfilled values must be re-persisted immediately.
	persisted, _, err := kvs.Get(TasksKey)
	require.NoError(t, err)
	assert.Contains(t, persisted, `"alertThreshold":3`)
	assert.Contains(t, persisted, `"priority":"medium"`)
}

func TestLoad_ZeroThresholdNotBackfilled(t *testing.T) {
	kvs := kv.NewMemoryStore()
	blob := `{
		"urgent-important": [{"id":"t1","title":"x","alertThreshold":0,"priority":"high","completed":false}],
		"important-not-urgent": [],
		"urgent-not-important": [],
		"not-urgent-not-important": []
	}`
	require.NoError(t, kvs.Set(TasksKey, blob))

	s := New(kvs, nil, nil)
	require.NoError(t, s.Load())

	got, _, ok := s.FindTask("t1")
	require.True(t, ok)
	assert.Equal(t, 0, got.AlertDays())
}

func TestAddTask(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.AddTask(task.QuadrantUrgentImportant, "ship release", "v2", "2026-09-01", 3, task.PriorityHigh)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	list := s.Tasks(task.QuadrantUrgentImportant)
	require.Len(t, list, 1)
	assert.Equal(t, "ship release", list[0].Title)
}

func TestAddTask_Validation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddTask(task.QuadrantUrgentImportant, "   ", "", "", 3, task.PriorityMedium)
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = s.AddTask("nope", "title", "", "", 3, task.PriorityMedium)
	assert.ErrorIs(t, err, ErrInvalidQuadrant)
}

func TestMoveTask_QuadrantExclusivity(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.AddTask(task.QuadrantUrgentImportant, "move me", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)

	moved, err := s.MoveTask(task.QuadrantUrgentImportant, task.QuadrantImportantNotUrgent, created.ID)
	require.NoError(t, err)
	assert.True(t, moved)

	assert.Empty(t, s.Tasks(task.QuadrantUrgentImportant))
	dest := s.Tasks(task.QuadrantImportantNotUrgent)
	require.Len(t, dest, 1)
	assert.Equal(t, created.ID, dest[0].ID)

	// The task appears in exactly one quadrant overall.
	assert.Equal(t, 1, s.TaskCount())
}

func TestMoveTask_MissingIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)

	moved, err := s.MoveTask(task.QuadrantUrgentImportant, task.QuadrantImportantNotUrgent, "ghost")
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.AddTask(task.QuadrantUrgentImportant, "doomed", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)

	removed, err := s.DeleteTask(task.QuadrantUrgentImportant, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, s.TaskCount())

	// Deleting again is a harmless no-op.
	removed, err = s.DeleteTask(task.QuadrantUrgentImportant, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestToggleCompleted(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.AddTask(task.QuadrantUrgentImportant, "flip", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)

	got, err := s.ToggleCompleted(task.QuadrantUrgentImportant, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Completed)

	got, err = s.ToggleCompleted(task.QuadrantUrgentImportant, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	// Missing is a no-op, not an error.
	got, err = s.ToggleCompleted(task.QuadrantUrgentImportant, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateTask_SchedulingChangeDetection(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.AddTask(task.QuadrantUrgentImportant, "edit me", "", "2026-09-01", 3, task.PriorityMedium)
	require.NoError(t, err)

	// Title-only edit does not re-arm alerts.
	title := "edited"
	_, schedChanged, err := s.UpdateTask(task.QuadrantUrgentImportant, created.ID, TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.False(t, schedChanged)

	// Deadline edit does.
	deadline := "2026-10-01"
	_, schedChanged, err = s.UpdateTask(task.QuadrantUrgentImportant, created.ID, TaskUpdate{Deadline: &deadline})
	require.NoError(t, err)
	assert.True(t, schedChanged)

	// Threshold edit does.
	threshold := 7
	_, schedChanged, err = s.UpdateTask(task.QuadrantUrgentImportant, created.ID, TaskUpdate{AlertThreshold: &threshold})
	require.NoError(t, err)
	assert.True(t, schedChanged)

	// Setting the same threshold again does not.
	_, schedChanged, err = s.UpdateTask(task.QuadrantUrgentImportant, created.ID, TaskUpdate{AlertThreshold: &threshold})
	require.NoError(t, err)
	assert.False(t, schedChanged)
}

func TestAllTasksFlat(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddTask(task.QuadrantUrgentImportant, "a", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)
	_, err = s.AddTask(task.QuadrantNotUrgentNotImportant, "b", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)

	flat := s.AllTasksFlat()
	require.Len(t, flat, 2)
	assert.Equal(t, task.QuadrantUrgentImportant, flat[0].Quadrant)
	assert.Equal(t, task.QuadrantNotUrgentNotImportant, flat[1].Quadrant)
}

func TestSave_PublishesEvent(t *testing.T) {
	kvs := kv.NewMemoryStore()
	pub := events.NewMemoryPublisher()
	defer pub.Close()

	ch := pub.Subscribe(events.TopicTasks)

	s := New(kvs, pub, nil)
	require.NoError(t, s.Load())

	select {
	case e := <-ch:
		assert.Equal(t, events.EventTasksSaved, e.Type)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no tasks-saved event after load-and-persist")
	}
}

func TestCleanCompleted(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := s.AddTask(task.QuadrantUrgentImportant, "done", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)
	_, err = s.AddTask(task.QuadrantUrgentImportant, "open", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)
	_, err = s.ToggleCompleted(task.QuadrantUrgentImportant, a.ID)
	require.NoError(t, err)

	removed, err := s.CleanCompleted()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.TaskCount())

	removed, err = s.CleanCompleted()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSortTasks(t *testing.T) {
	mk := func(title, deadline string, created time.Time) *task.Task {
		return &task.Task{ID: title, Title: title, Deadline: deadline, CreatedAt: created, UpdatedAt: created}
	}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tasks := []*task.Task{
		mk("c", "", base.Add(2*time.Hour)),
		mk("a", "2026-09-02", base),
		mk("b", "2026-09-01", base.Add(time.Hour)),
	}

	SortTasks(tasks, SortByDeadline)
	assert.Equal(t, []string{"b", "a", "c"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	SortTasks(tasks, SortByTitle)
	assert.Equal(t, []string{"a", "b", "c"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	SortTasks(tasks, SortByCreated)
	assert.Equal(t, []string{"c", "b", "a"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}
