// Package store holds the four quadrant task lists and their persistence
// against the key-value blob store.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/kv"
	"github.com/quadjournal/quad/internal/task"
)

const (
	// TasksKey is the blob key the quadrant lists are persisted under.
	TasksKey = "quadrant-tasks"
)

// ErrTitleRequired is returned when a task is created with an empty title.
var ErrTitleRequired = errors.New("task title is required")

// ErrInvalidQuadrant is returned when an operation names an unknown quadrant.
var ErrInvalidQuadrant = errors.New("invalid quadrant")

// FlatTask is a task annotated with the quadrant that owns it, for engine
// consumption.
type FlatTask struct {
	task.Task
	Quadrant task.Quadrant `json:"quadrant"`
}

// TaskUpdate describes a partial edit. Nil fields are left unchanged.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Deadline       *string
	AlertThreshold *int
	Priority       *task.Priority
}

// Store owns the four quadrant lists. All mutations persist immediately
// and publish a tasks-saved event so other windows re-sample; stale or bad
// persisted data never surfaces as an error, only as an empty store.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	pub    events.Publisher
	logger *slog.Logger
	now    func() time.Time

	tasks map[task.Quadrant][]*task.Task
}

// New creates a store over the given blob store. The publisher may be nil
// when no other windows need change signals.
func New(kvs kv.Store, pub events.Publisher, logger *slog.Logger) *Store {
	if pub == nil {
		pub = events.NewNopPublisher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kvs,
		pub:    pub,
		logger: logger,
		now:    time.Now,
		tasks:  emptyQuadrants(),
	}
}

func emptyQuadrants() map[task.Quadrant][]*task.Task {
	m := make(map[task.Quadrant][]*task.Task, 4)
	for _, q := range task.ValidQuadrants() {
		m[q] = nil
	}
	return m
}

// Load reads the persisted blob. A missing or malformed blob initializes
// all four quadrants to empty lists and persists that default. Missing
// optional task fields are backfilled and the migrated data re-persisted.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok, err := s.kv.Get(TasksKey)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if !ok {
		s.tasks = emptyQuadrants()
		return s.saveLocked()
	}

	var raw map[task.Quadrant][]*task.Task
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		// Corrupt data must never crash the UI; reset to a valid default.
		s.logger.Warn("task data corrupt, resetting to empty", "error", err)
		s.tasks = emptyQuadrants()
		return s.saveLocked()
	}

	migrated := false
	tasks := emptyQuadrants()
	for _, q := range task.ValidQuadrants() {
		list, ok := raw[q]
		if !ok {
			migrated = true
			continue
		}
		for _, t := range list {
			if t == nil {
				migrated = true
				continue
			}
			if t.Normalize() {
				migrated = true
			}
			tasks[q] = append(tasks[q], t)
		}
	}
	s.tasks = tasks

	if migrated {
		return s.saveLocked()
	}
	return nil
}

// Save serializes the four lists back to the blob store and notifies
// collaborators that task data changed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := s.kv.Set(TasksKey, string(data)); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	s.pub.Publish(events.NewEvent(events.EventTasksSaved, events.TopicTasks, s.countsLocked()))
	return nil
}

func (s *Store) countsLocked() map[task.Quadrant]int {
	counts := make(map[task.Quadrant]int, 4)
	for q, list := range s.tasks {
		counts[q] = len(list)
	}
	return counts
}

// AddTask constructs a new record with a fresh unique id and appends it to
// the quadrant's list. This is the sole ingestion point for new tasks.
func (s *Store) AddTask(q task.Quadrant, title, description, deadline string, alertThreshold int, priority task.Priority) (*task.Task, error) {
	if !task.IsValidQuadrant(q) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuadrant, q)
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if !task.IsValidPriority(priority) {
		priority = task.PriorityMedium
	}

	t := task.New(title, description, deadline, alertThreshold, priority)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[q] = append(s.tasks[q], t)
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return t, nil
}

// MoveTask removes the task from the source quadrant and appends it to the
// destination, refreshing its updated timestamp. A task absent from the
// source quadrant makes this a no-op.
func (s *Store) MoveTask(from, to task.Quadrant, id string) (bool, error) {
	if !task.IsValidQuadrant(from) || !task.IsValidQuadrant(to) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.tasks[from], id)
	if idx < 0 {
		return false, nil
	}

	t := s.tasks[from][idx]
	s.tasks[from] = append(s.tasks[from][:idx], s.tasks[from][idx+1:]...)
	t.UpdatedAt = s.now()
	s.tasks[to] = append(s.tasks[to], t)

	return true, s.saveLocked()
}

// DeleteTask removes the matching record irreversibly; no-op if absent.
func (s *Store) DeleteTask(q task.Quadrant, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.tasks[q], id)
	if idx < 0 {
		return false, nil
	}
	s.tasks[q] = append(s.tasks[q][:idx], s.tasks[q][idx+1:]...)
	return true, s.saveLocked()
}

// ToggleCompleted flips the completed flag; no-op if absent.
func (s *Store) ToggleCompleted(q task.Quadrant, id string) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.tasks[q], id)
	if idx < 0 {
		return nil, nil
	}
	t := s.tasks[q][idx]
	t.Completed = !t.Completed
	t.UpdatedAt = s.now()
	return t, s.saveLocked()
}

// UpdateTask applies a partial edit. The second return reports whether a
// scheduling-relevant field (deadline or alert threshold) changed, in which
// case the caller must clear the task's alert memory so it can re-enter the
// alert cycle. No-op when the task is absent.
func (s *Store) UpdateTask(q task.Quadrant, id string, upd TaskUpdate) (*task.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.tasks[q], id)
	if idx < 0 {
		return nil, false, nil
	}

	t := s.tasks[q][idx]
	schedulingChanged := false

	if upd.Title != nil && strings.TrimSpace(*upd.Title) != "" {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Deadline != nil && *upd.Deadline != t.Deadline {
		t.Deadline = *upd.Deadline
		schedulingChanged = true
	}
	if upd.AlertThreshold != nil && (t.AlertThreshold == nil || *upd.AlertThreshold != *t.AlertThreshold) {
		threshold := *upd.AlertThreshold
		t.AlertThreshold = &threshold
		schedulingChanged = true
	}
	if upd.Priority != nil && task.IsValidPriority(*upd.Priority) {
		t.Priority = *upd.Priority
	}
	t.UpdatedAt = s.now()

	return t, schedulingChanged, s.saveLocked()
}

// FindTask locates a task by id across all quadrants.
func (s *Store) FindTask(id string) (*task.Task, task.Quadrant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range task.ValidQuadrants() {
		if idx := indexOf(s.tasks[q], id); idx >= 0 {
			return s.tasks[q][idx], q, true
		}
	}
	return nil, "", false
}

// Tasks returns a copy of one quadrant's list.
func (s *Store) Tasks(q task.Quadrant) []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*task.Task(nil), s.tasks[q]...)
}

// AllTasksFlat returns every task across all quadrants annotated with its
// quadrant, in quadrant display order.
func (s *Store) AllTasksFlat() []FlatTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flat []FlatTask
	for _, q := range task.ValidQuadrants() {
		for _, t := range s.tasks[q] {
			flat = append(flat, FlatTask{Task: *t, Quadrant: q})
		}
	}
	return flat
}

// TaskCount returns the total number of tasks across all quadrants.
func (s *Store) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, list := range s.tasks {
		n += len(list)
	}
	return n
}

// CleanCompleted removes all completed tasks and reports how many were
// removed. Nothing is persisted when no task was completed.
func (s *Store) CleanCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for q, list := range s.tasks {
		kept := list[:0]
		for _, t := range list {
			if t.Completed {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		s.tasks[q] = kept
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveLocked()
}

func indexOf(list []*task.Task, id string) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// SortMethod selects the ordering used when listing tasks.
type SortMethod string

const (
	SortByDeadline SortMethod = "deadline"
	SortByCreated  SortMethod = "created"
	SortByUpdated  SortMethod = "updated"
	SortByTitle    SortMethod = "title"
)

// ValidSortMethods returns all valid sort methods.
func ValidSortMethods() []SortMethod {
	return []SortMethod{SortByDeadline, SortByCreated, SortByUpdated, SortByTitle}
}

// IsValidSortMethod checks if the given sort method is valid.
func IsValidSortMethod(m SortMethod) bool {
	switch m {
	case SortByDeadline, SortByCreated, SortByUpdated, SortByTitle:
		return true
	}
	return false
}

// SortTasks orders tasks in place. Deadline sorting puts undated tasks
// last; ties and undated tasks fall back to newest-created first.
func SortTasks(tasks []*task.Task, method SortMethod) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch method {
		case SortByDeadline:
			if a.Deadline == "" && b.Deadline == "" {
				return a.CreatedAt.After(b.CreatedAt)
			}
			if a.Deadline == "" {
				return false
			}
			if b.Deadline == "" {
				return true
			}
			return a.Deadline < b.Deadline
		case SortByCreated:
			return a.CreatedAt.After(b.CreatedAt)
		case SortByUpdated:
			return a.UpdatedAt.After(b.UpdatedAt)
		case SortByTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return false
		}
	})
}
