package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgen-server-go/db"
	"certgen-server-go/generator"
	"certgen-server-go/models"
)

type stubRenderer struct {
	failOn string
}

func (r stubRenderer) Ext() string { return ".txt" }

func (r stubRenderer) Render(data map[string]interface{}, w io.Writer) error {
	if data[models.KeyNameZh] == r.failOn {
		return errors.New("bad template")
	}
	_, err := fmt.Fprint(w, data[models.KeyNameZh])
	return err
}

var records = []models.Record{
	{NameZh: "张三", StudentID: "S001"},
	{NameZh: "李四", StudentID: "S002"},
}

// drain collects updates until the manager closes the channel
func drain(t *testing.T, ch <-chan models.Job) []models.Job {
	t.Helper()
	var got []models.Job
	timeout := time.After(5 * time.Second)
	for {
		select {
		case j, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, j)
		case <-timeout:
			t.Fatal("timed out waiting for job to finish")
			return got
		}
	}
}

func TestManagerRunsJob(t *testing.T) {
	store := db.NewMemoryStore()
	m := NewManager(store, nil, nil, 4)
	base := t.TempDir()

	job, err := m.Submit("b1", records, stubRenderer{}, generator.Options{OutputDir: base})
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, 2, job.Total)

	stored, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, stored.Status)

	updates, _ := m.Subscribe(job.ID)
	m.Start(context.Background())
	defer m.Stop()

	got := drain(t, updates)
	require.NotEmpty(t, got)
	assert.Equal(t, models.JobRunning, got[0].Status)

	final, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, final.Status)
	assert.Equal(t, "done", final.Stage)
	assert.Equal(t, 1.0, final.Progress)
	assert.Equal(t, "Completed!", final.Message)
	assert.Len(t, final.Documents, 2)
	assert.Equal(t, job.OutputDir, final.OutputDir)
	assert.Contains(t, final.OutputDir, job.ID)
}

func TestManagerRecordsFailure(t *testing.T) {
	store := db.NewMemoryStore()
	m := NewManager(store, nil, nil, 4)

	job, err := m.Submit("b1", records, stubRenderer{failOn: "李四"}, generator.Options{OutputDir: t.TempDir()})
	require.NoError(t, err)

	updates, _ := m.Subscribe(job.ID)
	m.Start(context.Background())
	defer m.Stop()
	drain(t, updates)

	final, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, final.Status)
	assert.Contains(t, final.Error, "bad template")
	assert.True(t, final.Done())
	require.Len(t, final.Documents, 1, "documents rendered before the failure stay listed")
	assert.Equal(t, "S001_张三.txt", filepath.Base(final.Documents[0]))
}

func TestManagerQueueFull(t *testing.T) {
	store := db.NewMemoryStore()
	m := NewManager(store, nil, nil, 1)

	_, err := m.Submit("b1", records, stubRenderer{}, generator.Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	_, err = m.Submit("b1", records, stubRenderer{}, generator.Options{OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestManagerUnsubscribe(t *testing.T) {
	m := NewManager(db.NewMemoryStore(), nil, nil, 1)
	ch, unsubscribe := m.Subscribe("j1")
	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok)
	unsubscribe()

	m.subMux.RLock()
	defer m.subMux.RUnlock()
	assert.Empty(t, m.subscribers)
}

func TestManagerFailsQueuedJobsOnStop(t *testing.T) {
	store := db.NewMemoryStore()
	m := NewManager(store, nil, nil, 4)

	var ids []string
	for i := 0; i < 3; i++ {
		job, err := m.Submit("b1", records, stubRenderer{}, generator.Options{OutputDir: t.TempDir()})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	updates, _ := m.Subscribe(ids[2])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Start(ctx)
	m.Stop()

	for _, id := range ids {
		job, err := store.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, models.JobFailed, job.Status, id)
		assert.Equal(t, ErrShuttingDown.Error(), job.Error, id)
	}
	got := drain(t, updates)
	require.NotEmpty(t, got)
	assert.Equal(t, models.JobFailed, got[len(got)-1].Status)
}
