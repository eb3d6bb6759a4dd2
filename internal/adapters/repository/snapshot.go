package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"
)

// Snapshot is the portable form of a store's records.
type Snapshot struct {
	Workers []model.Worker `yaml:"workers"`
	Tasks   []model.Task   `yaml:"tasks"`
}

// SnapshotFS reads and writes snapshots at any afs URL (local path, file://, mem://, s3://).
type SnapshotFS struct {
	fs afs.Service
}

// NewSnapshotFS creates a SnapshotFS backed by the default afs service.
func NewSnapshotFS() *SnapshotFS {
	return &SnapshotFS{fs: afs.New()}
}

// Load downloads and decodes the snapshot at url.
func (s *SnapshotFS) Load(ctx context.Context, url string) (Snapshot, error) {
	exists, err := s.fs.Exists(ctx, url)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to check snapshot %s: %w", url, err)
	}
	if !exists {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", url, model.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot %s: %w", url, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", url, err)
	}
	return snap, nil
}

// Save encodes and uploads snap to url.
func (s *SnapshotFS) Save(ctx context.Context, url string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.fs.Upload(ctx, url, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", url, err)
	}
	return nil
}

// Export reads every record from r.
func Export(ctx context.Context, r Reader) (Snapshot, error) {
	workers, err := r.ListWorkers(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Workers: workers, Tasks: tasks}, nil
}

// Import writes every record of snap into w, workers first. Tasks without a
// priority get Medium; tasks without a status are Pending.
func Import(ctx context.Context, w Writer, snap Snapshot) error {
	for _, wk := range snap.Workers {
		if err := w.PutWorker(ctx, wk); err != nil {
			return fmt.Errorf("import worker %s: %w", wk.ID, err)
		}
	}
	for _, t := range snap.Tasks {
		if t.Priority == "" {
			t.Priority = model.PriorityMedium
		}
		if t.Status == "" {
			t.Status = model.StatusPending
		}
		if err := w.PutTask(ctx, t); err != nil {
			return fmt.Errorf("import task %s: %w", t.ID, err)
		}
	}
	return nil
}
