package db

import (
	"errors"
	"fmt"
	"sync"

	"certgen-server-go/models"
)

// MemoryStore keeps batches and jobs in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*models.Batch
	jobs    map[string]models.Job
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]*models.Batch),
		jobs:    make(map[string]models.Job),
	}
}

func copyBatch(b *models.Batch) *models.Batch {
	c := *b
	c.Keys = append([]string(nil), b.Keys...)
	c.Records = append([]models.Record(nil), b.Records...)
	return &c
}

func (m *MemoryStore) SaveBatch(batch *models.Batch) error {
	if batch.ID == "" {
		return errors.New("batch ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (m *MemoryStore) GetBatch(batchID string) (*models.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[batchID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBatch(b), nil
}

func (m *MemoryStore) ListBatches() ([]models.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	batches := make([]models.Batch, 0, len(m.batches))
	for _, b := range m.batches {
		batches = append(batches, *copyBatch(b))
	}
	sortNewestFirst(batches)
	return batches, nil
}

func (m *MemoryStore) DeleteBatch(batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[batchID]; !ok {
		return ErrNotFound
	}
	delete(m.batches, batchID)
	return nil
}

// batch returns the stored batch and checks index when it is not negative.
// Callers hold the write lock.
func (m *MemoryStore) batch(batchID string, index int) (*models.Batch, error) {
	b, ok := m.batches[batchID]
	if !ok {
		return nil, ErrNotFound
	}
	if index >= len(b.Records) {
		return nil, fmt.Errorf("%w: %d of %d", ErrRecordIndex, index, len(b.Records))
	}
	return b, nil
}

func (m *MemoryStore) UpdateRecord(batchID string, index int, rec models.Record) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrRecordIndex, index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.batch(batchID, index)
	if err != nil {
		return err
	}
	b.Records[index] = rec
	return nil
}

func (m *MemoryStore) AppendRecord(batchID string, rec models.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.batch(batchID, -1)
	if err != nil {
		return 0, err
	}
	b.Records = append(b.Records, rec)
	return len(b.Records) - 1, nil
}

func (m *MemoryStore) DeleteRecord(batchID string, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrRecordIndex, index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.batch(batchID, index)
	if err != nil {
		return err
	}
	b.Records = append(b.Records[:index], b.Records[index+1:]...)
	return nil
}

func (m *MemoryStore) SaveJob(job *models.Job) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *job
	c.Documents = append([]string(nil), job.Documents...)
	c.PDFs = append([]string(nil), job.PDFs...)
	m.jobs[job.ID] = c
	return nil
}

func (m *MemoryStore) GetJob(jobID string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}
