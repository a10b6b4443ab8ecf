package db

import (
	"errors"

	"certgen-server-go/models"
)

var (
	// ErrNotFound is returned when a batch or job does not exist (or expired)
	ErrNotFound = errors.New("not found")
	// ErrRecordIndex is returned for a record index outside the batch
	ErrRecordIndex = errors.New("record index out of range")
)

// Store keeps batches and jobs between requests
type Store interface {
	SaveBatch(batch *models.Batch) error
	GetBatch(batchID string) (*models.Batch, error)
	// ListBatches returns every live batch, newest first
	ListBatches() ([]models.Batch, error)
	DeleteBatch(batchID string) error

	// UpdateRecord replaces the record at index
	UpdateRecord(batchID string, index int, rec models.Record) error
	// AppendRecord adds a record and returns its index
	AppendRecord(batchID string, rec models.Record) (int, error)
	DeleteRecord(batchID string, index int) error

	SaveJob(job *models.Job) error
	GetJob(jobID string) (*models.Job, error)
}
