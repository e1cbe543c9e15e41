// Package journal holds free-form dated entries and their persistence
// against the key-value blob store. Entries are the raw material the
// assistant classifies into quadrant tasks.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/kv"
)

// EntriesKey is the blob key the entry list is persisted under.
const EntriesKey = "journal-entries"

// ErrTitleRequired is returned when an entry is created with an empty title.
var ErrTitleRequired = errors.New("entry title is required")

// ErrNotFound is returned when an operation names an unknown entry.
var ErrNotFound = errors.New("entry not found")

// Entry is a single journal record.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEntryID returns a fresh unique entry id.
func NewEntryID() string {
	return "entry_" + uuid.NewString()
}

// Store owns the entry list. Mutations persist immediately and publish an
// entries-saved event; a corrupt blob loads as an empty list.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	pub    events.Publisher
	logger *slog.Logger
	now    func() time.Time

	entries []*Entry
}

// New creates an entry store over the given blob store.
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
	}
}

// Load reads the persisted entry list. Missing or malformed data yields an
// empty list rather than an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok, err := s.kv.Get(EntriesKey)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	if !ok {
		s.entries = nil
		return nil
	}

	var entries []*Entry
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		s.logger.Warn("journal data corrupt, resetting to empty", "error", err)
		s.entries = nil
		return s.saveLocked()
	}

	kept := entries[:0]
	for _, e := range entries {
		if e != nil && e.ID != "" {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *Store) saveLocked() error {
	list := s.entries
	if list == nil {
		list = []*Entry{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	if err := s.kv.Set(EntriesKey, string(data)); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	s.pub.Publish(events.NewEvent(events.EventEntriesSaved, events.TopicEntries, len(s.entries)))
	return nil
}

// Add creates a new entry and persists the list.
func (s *Store) Add(title, content string, tags []string) (*Entry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := &Entry{
		ID:        NewEntryID(),
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries = append(s.entries, e)
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// EntryUpdate describes a partial edit. Nil fields are left unchanged.
type EntryUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// Update applies a partial edit and persists the list.
func (s *Store) Update(id string, upd EntryUpdate) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID != id {
			continue
		}
		if upd.Title != nil {
			title := strings.TrimSpace(*upd.Title)
			if title == "" {
				return nil, ErrTitleRequired
			}
			e.Title = title
		}
		if upd.Content != nil {
			e.Content = *upd.Content
		}
		if upd.Tags != nil {
			e.Tags = *upd.Tags
		}
		e.UpdatedAt = s.now()
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the entry with the given id. Deleting an unknown id is a
// no-op and reports false.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if err := s.saveLocked(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// List returns all entries, newest first by creation time.
func (s *Store) List() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
