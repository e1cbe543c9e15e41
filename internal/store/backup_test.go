package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadjournal/quad/internal/task"
)

func TestResetAndRestore(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.AddTask(task.QuadrantUrgentImportant, "precious", "", "2026-09-01", 3, task.PriorityHigh)
	require.NoError(t, err)

	key, err := s.Reset()
	require.NoError(t, err)
	assert.Equal(t, 0, s.TaskCount())

	backups, err := s.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, key, backups[0].Key)

	require.NoError(t, s.Restore(key))
	got, q, ok := s.FindTask(created.ID)
	require.True(t, ok)
	assert.Equal(t, task.QuadrantUrgentImportant, q)
	assert.Equal(t, "precious", got.Title)
}

func TestRestore_MissingBackup(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Restore(BackupKeyPrefix + "123")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestReset_PrunesOldBackups(t *testing.T) {
	s, kvs := newTestStore(t)

	// Distinct timestamps per backup key.
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 13; i++ {
		_, err := s.AddTask(task.QuadrantUrgentImportant, fmt.Sprintf("task %d", i), "", "", 3, task.PriorityMedium)
		require.NoError(t, err)
		_, err = s.Reset()
		require.NoError(t, err)
	}

	keys, err := kvs.Keys(BackupKeyPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 10)

	backups, err := s.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 10)
	// Newest first.
	assert.True(t, backups[0].CreatedAt.After(backups[9].CreatedAt))
}

func TestExport(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddTask(task.QuadrantUrgentImportant, "exported", "", "", 3, task.PriorityMedium)
	require.NoError(t, err)

	data, err := s.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0"`)
	assert.Contains(t, string(data), `"exported"`)
}
