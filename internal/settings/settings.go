// Package settings persists user preferences as two blobs: the quadrant
// view's reminder and sorting knobs, and the app-wide theme and AI provider
// configuration. Loading merges saved values over defaults and never fails.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/kv"
	"github.com/quadjournal/quad/internal/store"
)

const (
	// QuadrantKey is the blob key for the quadrant view settings.
	QuadrantKey = "quadrant-settings"
	// AppKey is the blob key for the app-wide settings.
	AppKey = "app-settings"
)

// Quadrant holds the quadrant view's reminder and sorting knobs.
type Quadrant struct {
	ReminderDays   int              `json:"reminderDays"`
	UrgentReminder bool             `json:"urgentReminder"`
	SortMethod     store.SortMethod `json:"sortMethod"`
	AutoSave       bool             `json:"autoSave"`
}

// App holds the theme and AI provider configuration.
type App struct {
	Theme       string `json:"theme"`
	AIProvider  string `json:"aiProvider"`
	OllamaURL   string `json:"ollamaUrl"`
	OllamaModel string `json:"ollamaModel"`
	OpenAIURL   string `json:"openaiUrl"`
	OpenAIKey   string `json:"openaiKey"`
	OpenAIModel string `json:"openaiModel"`
	CustomURL   string `json:"customUrl"`
	CustomKey   string `json:"customKey"`
	CustomModel string `json:"customModel"`
	AutoSummary bool   `json:"autoSummary"`
	FontSize    string `json:"fontSize"`
	LineNumbers bool   `json:"lineNumbers"`
	WordWrap    bool   `json:"wordWrap"`
}

// DefaultQuadrant returns the quadrant view defaults.
func DefaultQuadrant() Quadrant {
	return Quadrant{
		ReminderDays:   3,
		UrgentReminder: true,
		SortMethod:     store.SortByDeadline,
		AutoSave:       true,
	}
}

// DefaultApp returns the app-wide defaults.
func DefaultApp() App {
	return App{
		Theme:       "system",
		AIProvider:  "ollama",
		OllamaURL:   "http://localhost:11434",
		OllamaModel: "llama2",
		OpenAIURL:   "https://api.openai.com/v1",
		OpenAIModel: "gpt-3.5-turbo",
		AutoSummary: true,
		FontSize:    "14",
		LineNumbers: true,
		WordWrap:    true,
	}
}

// Manager loads and saves both settings blobs.
type Manager struct {
	mu     sync.Mutex
	kv     kv.Store
	pub    events.Publisher
	logger *slog.Logger

	quadrant Quadrant
	app      App
}

// NewManager creates a manager over the given blob store with defaults
// applied until Load is called.
func NewManager(kvs kv.Store, pub events.Publisher, logger *slog.Logger) *Manager {
	if pub == nil {
		pub = events.NewNopPublisher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		kv:       kvs,
		pub:      pub,
		logger:   logger,
		quadrant: DefaultQuadrant(),
		app:      DefaultApp(),
	}
}

// Load reads both blobs, merging saved fields over the defaults. Missing or
// malformed blobs leave the defaults in place; Load itself only fails on a
// storage error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := DefaultQuadrant()
	if err := m.loadInto(QuadrantKey, &q); err != nil {
		return err
	}
	if !store.IsValidSortMethod(q.SortMethod) {
		q.SortMethod = store.SortByDeadline
	}
	if q.ReminderDays < 0 {
		q.ReminderDays = DefaultQuadrant().ReminderDays
	}
	m.quadrant = q

	a := DefaultApp()
	if err := m.loadInto(AppKey, &a); err != nil {
		return err
	}
	m.app = a
	return nil
}

func (m *Manager) loadInto(key string, dst any) error {
	blob, ok, err := m.kv.Get(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	// Unmarshalling over the defaults leaves absent fields at their
	// default values.
	if err := json.Unmarshal([]byte(blob), dst); err != nil {
		m.logger.Warn("settings blob corrupt, using defaults", "key", key, "error", err)
	}
	return nil
}

// Quadrant returns the current quadrant view settings.
func (m *Manager) Quadrant() Quadrant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quadrant
}

// App returns the current app-wide settings.
func (m *Manager) App() App {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app
}

// SetQuadrant persists new quadrant view settings.
func (m *Manager) SetQuadrant(q Quadrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !store.IsValidSortMethod(q.SortMethod) {
		return fmt.Errorf("invalid sort method: %s", q.SortMethod)
	}
	if err := m.save(QuadrantKey, q); err != nil {
		return err
	}
	m.quadrant = q
	return nil
}

// SetApp persists new app-wide settings.
func (m *Manager) SetApp(a App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(AppKey, a); err != nil {
		return err
	}
	m.app = a
	return nil
}

func (m *Manager) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := m.kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	m.pub.Publish(events.NewEvent(events.EventSettingsSaved, events.TopicSettings, key))
	return nil
}
