package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certgen-server-go/convert"
	"certgen-server-go/db"
	"certgen-server-go/generator"
	"certgen-server-go/logger"
	"certgen-server-go/models"
	"certgen-server-go/render"
)

var (
	// ErrQueueFull is returned by Submit when the worker is too far behind
	ErrQueueFull = errors.New("generation queue is full")
	// ErrShuttingDown is recorded on jobs still queued when the worker stops
	ErrShuttingDown = errors.New("generation worker shut down before the job ran")
)

// Task is one queued generation run
type Task struct {
	JobID    string
	Records  []models.Record
	Renderer render.Renderer
	Options  generator.Options
}

// Manager runs generation tasks one at a time on a background goroutine
// and publishes job state to the store and to subscribers.
type Manager struct {
	store     db.Store
	converter convert.Converter
	merger    convert.Merger

	tasks       chan Task
	subscribers map[string]map[chan models.Job]bool
	subMux      sync.RWMutex

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewManager creates a manager holding up to queueSize pending tasks.
// converter and merger may be nil when PDFs are never requested.
func NewManager(store db.Store, converter convert.Converter, merger convert.Merger, queueSize int) *Manager {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Manager{
		store:       store,
		converter:   converter,
		merger:      merger,
		tasks:       make(chan Task, queueSize),
		subscribers: make(map[string]map[chan models.Job]bool),
	}
}

// Start launches the worker. It stops when ctx is cancelled or Stop is
// called; a running task sees the cancellation between records and tasks
// still queued are marked failed.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run(ctx)
	logger.Info("Generation worker started")
}

// Stop cancels the worker and waits for it to exit
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Submit queues a run over records. Output goes to a directory named after
// the job inside opts.OutputDir.
func (m *Manager) Submit(batchID string, records []models.Record, renderer render.Renderer, opts generator.Options) (*models.Job, error) {
	now := time.Now()
	job := &models.Job{
		ID:        uuid.New().String(),
		BatchID:   batchID,
		Status:    models.JobQueued,
		Total:     len(records),
		Message:   "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	opts.OutputDir = filepath.Join(opts.OutputDir, job.ID)
	job.OutputDir = opts.OutputDir

	if err := m.store.SaveJob(job); err != nil {
		return nil, err
	}

	select {
	case m.tasks <- Task{JobID: job.ID, Records: records, Renderer: renderer, Options: opts}:
		logger.Info("Generation job enqueued", zap.String("job", job.ID), zap.String("batch", batchID), zap.Int("records", len(records)))
		return job, nil
	default:
		logger.Warn("Generation queue full, rejecting job", zap.String("job", job.ID))
		job.Status = models.JobFailed
		job.Error = ErrQueueFull.Error()
		job.UpdatedAt = time.Now()
		_ = m.store.SaveJob(job)
		return nil, ErrQueueFull
	}
}

// Subscribe registers for state updates of one job. The channel is closed
// when the job finishes or the returned function is called.
func (m *Manager) Subscribe(jobID string) (<-chan models.Job, func()) {
	ch := make(chan models.Job, 16)
	m.subMux.Lock()
	if m.subscribers[jobID] == nil {
		m.subscribers[jobID] = make(map[chan models.Job]bool)
	}
	m.subscribers[jobID][ch] = true
	m.subMux.Unlock()

	return ch, func() {
		m.subMux.Lock()
		defer m.subMux.Unlock()
		if subs, ok := m.subscribers[jobID]; ok && subs[ch] {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(m.subscribers, jobID)
			}
			close(ch)
		}
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			m.failPending()
			logger.Info("Generation worker stopped")
			return
		case task := <-m.tasks:
			if ctx.Err() != nil {
				m.fail(task.JobID, ErrShuttingDown)
				continue
			}
			m.process(ctx, task)
		}
	}
}

// failPending marks every task left in the queue as failed
func (m *Manager) failPending() {
	for {
		select {
		case task := <-m.tasks:
			m.fail(task.JobID, ErrShuttingDown)
		default:
			return
		}
	}
}

func (m *Manager) fail(jobID string, reason error) {
	job, err := m.store.GetJob(jobID)
	if err != nil {
		logger.Error("Failed to load job", zap.String("job", jobID), zap.Error(err))
		return
	}
	logger.Warn("Dropping queued generation job", zap.String("job", jobID), zap.Error(reason))
	job.Status = models.JobFailed
	job.Error = reason.Error()
	m.publish(job)
	m.closeSubscribers(jobID)
}

func (m *Manager) process(ctx context.Context, task Task) {
	job, err := m.store.GetJob(task.JobID)
	if err != nil {
		logger.Error("Failed to load job", zap.String("job", task.JobID), zap.Error(err))
		return
	}
	logger.Info("Processing generation job", zap.String("job", job.ID), zap.String("batch", job.BatchID))

	job.Status = models.JobRunning
	job.Message = "Starting"
	m.publish(job)

	gen := generator.New(task.Renderer, m.converter, m.merger)
	res, err := gen.Run(ctx, task.Records, task.Options, func(p generator.Progress) {
		job.Stage = string(p.Stage)
		job.Current = p.Current
		job.Total = p.Total
		job.Progress = p.Fraction
		job.Message = p.Message
		m.publish(job)
	})

	if res != nil {
		job.Documents = res.Documents
		job.PDFs = res.PDFs
		job.Merged = res.Merged
		job.Archive = res.Archive
	}
	if err != nil {
		logger.Error("Generation job failed", zap.String("job", job.ID), zap.Error(err))
		job.Status = models.JobFailed
		job.Error = err.Error()
	} else {
		logger.Info("Generation job completed", zap.String("job", job.ID), zap.Int("documents", len(job.Documents)))
		job.Status = models.JobCompleted
	}
	m.publish(job)
	m.closeSubscribers(job.ID)
}

// publish saves the job and broadcasts a copy to its subscribers
func (m *Manager) publish(job *models.Job) {
	job.UpdatedAt = time.Now()
	if err := m.store.SaveJob(job); err != nil {
		logger.Warn("Failed to save job state", zap.String("job", job.ID), zap.Error(err))
	}

	m.subMux.RLock()
	defer m.subMux.RUnlock()
	for ch := range m.subscribers[job.ID] {
		select {
		case ch <- *job:
		default:
			// Drop update if subscriber is slow
		}
	}
}

func (m *Manager) closeSubscribers(jobID string) {
	m.subMux.Lock()
	defer m.subMux.Unlock()
	for ch := range m.subscribers[jobID] {
		close(ch)
	}
	delete(m.subscribers, jobID)
}
