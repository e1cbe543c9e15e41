package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quadjournal/quad/internal/task"
)

const (
	// BackupKeyPrefix prefixes backup blob keys; the suffix is the backup's
	// creation time in unix milliseconds.
	BackupKeyPrefix = "quadrant-backup-"

	// maxBackups is how many reset backups are retained.
	maxBackups = 10
)

// ErrBackupNotFound is returned when a restore names a missing backup.
var ErrBackupNotFound = errors.New("backup not found")

// Backup identifies one stored reset backup.
type Backup struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"createdAt"`
}

// backupDoc is the persisted backup format.
type backupDoc struct {
	Timestamp time.Time                      `json:"timestamp"`
	Tasks     map[task.Quadrant][]*task.Task `json:"tasks"`
}

// Reset backs up the current data, clears every quadrant, persists the
// empty state, and prunes old backups. Returns the backup key.
func (s *Store) Reset() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc := backupDoc{Timestamp: now, Tasks: s.tasks}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}

	key := BackupKeyPrefix + strconv.FormatInt(now.UnixMilli(), 10)
	if err := s.kv.Set(key, string(data)); err != nil {
		return "", fmt.Errorf("save backup: %w", err)
	}

	s.tasks = emptyQuadrants()
	if err := s.saveLocked(); err != nil {
		return "", err
	}

	if err := s.pruneBackupsLocked(); err != nil {
		// Pruning failure leaves extra backups behind; the reset succeeded.
		s.logger.Warn("backup pruning failed", "error", err)
	}
	return key, nil
}

// ListBackups returns all stored backups, newest first.
func (s *Store) ListBackups() ([]Backup, error) {
	keys, err := s.kv.Keys(BackupKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := make([]Backup, 0, len(keys))
	for _, key := range keys {
		millis, err := strconv.ParseInt(strings.TrimPrefix(key, BackupKeyPrefix), 10, 64)
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Key: key, CreatedAt: time.UnixMilli(millis)})
	}

	// Keys sort ascending lexically; order by actual timestamp, newest first.
	for i, j := 0, len(backups)-1; i < j; i, j = i+1, j-1 {
		backups[i], backups[j] = backups[j], backups[i]
	}
	return backups, nil
}

// Restore replaces the current data with the named backup's tasks.
func (s *Store) Restore(key string) error {
	blob, ok, err := s.kv.Get(key)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, key)
	}

	var doc backupDoc
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return fmt.Errorf("parse backup %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := emptyQuadrants()
	for _, q := range task.ValidQuadrants() {
		for _, t := range doc.Tasks[q] {
			if t == nil {
				continue
			}
			t.Normalize()
			tasks[q] = append(tasks[q], t)
		}
	}
	s.tasks = tasks
	return s.saveLocked()
}

// pruneBackupsLocked deletes all but the newest maxBackups backups.
func (s *Store) pruneBackupsLocked() error {
	keys, err := s.kv.Keys(BackupKeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) <= maxBackups {
		return nil
	}

	type stamped struct {
		key    string
		millis int64
	}
	var all []stamped
	for _, key := range keys {
		millis, err := strconv.ParseInt(strings.TrimPrefix(key, BackupKeyPrefix), 10, 64)
		if err != nil {
			continue
		}
		all = append(all, stamped{key, millis})
	}

	// Oldest first.
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].millis < all[i].millis {
				all[i], all[j] = all[j], all[i]
			}
		}
	}

	for len(all) > maxBackups {
		if err := s.kv.Delete(all[0].key); err != nil {
			return err
		}
		all = all[1:]
	}
	return nil
}

// ExportVersion tags exported task documents.
const ExportVersion = "1.0"

// ExportDoc is the exported task document format.
type ExportDoc struct {
	Tasks      map[task.Quadrant][]*task.Task `json:"tasks"`
	ExportDate time.Time                      `json:"exportDate"`
	Version    string                         `json:"version"`
}

// Export renders the current data as a versioned, indented JSON document.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := ExportDoc{
		Tasks:      s.tasks,
		ExportDate: s.now(),
		Version:    ExportVersion,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}
