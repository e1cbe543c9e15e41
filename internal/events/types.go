// Package events provides the in-process publish/subscribe bus that carries
// cross-window sync signals for quad.
package events

import (
	"time"
)

// Topic identifies a stream of related events.
type Topic string

const (
	// TopicTasks carries task-store change notifications.
	TopicTasks Topic = "tasks"
	// TopicEntries carries journal-entry change notifications.
	TopicEntries Topic = "entries"
	// TopicSettings carries settings change notifications.
	TopicSettings Topic = "settings"
	// TopicReminder carries reminder notification batches.
	TopicReminder Topic = "reminder"
)

// EventType defines the type of event.
type EventType string

const (
	// EventTasksSaved indicates the task store was persisted.
	EventTasksSaved EventType = "tasks_saved"
	// EventEntriesSaved indicates the journal entries were persisted.
	EventEntriesSaved EventType = "entries_saved"
	// EventSettingsSaved indicates the settings blob was persisted.
	EventSettingsSaved EventType = "settings_saved"
	// EventReminderBatch indicates a reminder notification batch was emitted.
	EventReminderBatch EventType = "reminder_batch"
)

// Event represents a published event.
type Event struct {
	Type  EventType `json:"type"`
	Topic Topic     `json:"topic"`
	Data  any       `json:"data,omitempty"`
	Time  time.Time `json:"time"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, topic Topic, data any) Event {
	return Event{
		Type:  eventType,
		Topic: topic,
		Data:  data,
		Time:  time.Now(),
	}
}
