package repository

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripThroughFile(t *testing.T) {
	ctx := context.Background()
	src := newTestMemoryStore(t)
	task, err := src.CreateTask(ctx, fields("a", 5))
	require.NoError(t, err)
	_, err = src.AssignTask(ctx, task.ID, "w2")
	require.NoError(t, err)

	snap, err := Export(ctx, src)
	require.NoError(t, err)

	url := filepath.Join(t.TempDir(), "state.yaml")
	fsys := NewSnapshotFS()
	require.NoError(t, fsys.Save(ctx, url, snap))

	loaded, err := fsys.Load(ctx, url)
	require.NoError(t, err)

	dst := NewMemoryStore()
	require.NoError(t, Import(ctx, dst, loaded))

	got, err := dst.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, "w2", got.AssignedTo)
	assert.Equal(t, task.DueDate, got.DueDate)
	assert.True(t, task.CreatedDate.Equal(got.CreatedDate))

	workers, err := dst.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Len(t, workers, 2)
}

func TestSnapshot_LoadSeedDefaults(t *testing.T) {
	ctx := context.Background()
	seed := []byte(`workers:
  - {id: w1, name: Ada, department: IT, skill_level: 90}
tasks:
  - id: t1
    title: Upgrade
    description: Upgrade the software system
    estimated_hours: 8
    due_date: 2026-01-10
    created_date: 2026-01-01T09:00:00Z
`)
	url := filepath.Join(t.TempDir(), "seed.yaml")
	fsys := NewSnapshotFS()
	require.NoError(t, fsys.fs.Upload(ctx, url, 0o644, bytesReader(seed)))

	snap, err := fsys.Load(ctx, url)
	require.NoError(t, err)

	s := NewMemoryStore()
	require.NoError(t, Import(ctx, s, snap))

	got, err := s.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, got.Priority)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, model.Date{Year: 2026, Month: time.January, Day: 10}, got.DueDate)
}

func TestSnapshot_LoadMissing(t *testing.T) {
	_, err := NewSnapshotFS().Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
