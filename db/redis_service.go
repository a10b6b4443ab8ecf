package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"certgen-server-go/config"
	"certgen-server-go/logger"
	"certgen-server-go/models"
)

const (
	batchesKey    = "batches"  // Set: all batch IDs
	batchPrefix   = "batch:"   // Hash prefix: batch:{id} -> batch metadata
	recordsSuffix = ":records" // List suffix: batch:{id}:records -> JSON records
	jobPrefix     = "job:"     // Hash prefix: job:{id} -> job state
	deletedMarker = "__deleted__"
)

// RedisService keeps batches and jobs in Redis. Every key expires after TTL.
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context // Base context
	TTL    time.Duration
}

// NewRedisService creates a new RedisService instance. A zero ttl keeps keys
// forever.
func NewRedisService(client *redis.Client, ttl time.Duration) *RedisService {
	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
		TTL:    ttl,
	}
}

func getBatchKey(batchID string) string {
	return batchPrefix + batchID
}

func getRecordsKey(batchID string) string {
	return batchPrefix + batchID + recordsSuffix
}

func getJobKey(jobID string) string {
	return jobPrefix + jobID
}

// expire refreshes the TTL of keys. Every write to a batch refreshes both
// of its keys so the hash and the record list expire together.
func (s *RedisService) expire(pipe redis.Pipeliner, keys ...string) {
	if s.TTL <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(s.Ctx, k, s.TTL)
	}
}

// --- Batch Operations ---

// SaveBatch stores the batch metadata and replaces its records
func (s *RedisService) SaveBatch(batch *models.Batch) error {
	if batch.ID == "" {
		return errors.New("batch ID cannot be empty")
	}
	keys, err := json.Marshal(batch.Keys)
	if err != nil {
		return fmt.Errorf("failed to encode batch keys: %w", err)
	}
	records := make([]interface{}, 0, len(batch.Records))
	for i := range batch.Records {
		raw, err := json.Marshal(batch.Records[i])
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		records = append(records, string(raw))
	}

	batchKey := getBatchKey(batch.ID)
	recordsKey := getRecordsKey(batch.ID)

	pipe := s.Client.TxPipeline()
	pipe.SAdd(s.Ctx, batchesKey, batch.ID)
	pipe.HMSet(s.Ctx, batchKey, map[string]interface{}{
		"id":        batch.ID,
		"source":    batch.Source,
		"createdAt": batch.CreatedAt.Format(time.RFC3339Nano),
		"keys":      string(keys),
		"skipped":   batch.Skipped,
	})
	pipe.Del(s.Ctx, recordsKey)
	if len(records) > 0 {
		pipe.RPush(s.Ctx, recordsKey, records...)
	}
	s.expire(pipe, batchKey, recordsKey)

	if _, err := pipe.Exec(s.Ctx); err != nil {
		logger.Error("Error saving batch", zap.String("batch", batch.ID), zap.Error(err))
		return fmt.Errorf("failed to save batch to Redis: %w", err)
	}
	logger.Debug("Saved batch", zap.String("batch", batch.ID), zap.Int("records", len(records)))
	return nil
}

// GetBatch retrieves a batch with all of its records
func (s *RedisService) GetBatch(batchID string) (*models.Batch, error) {
	data, err := s.Client.HGetAll(s.Ctx, getBatchKey(batchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get batch from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	batch := &models.Batch{
		ID:     data["id"],
		Source: data["source"],
	}
	if t, err := time.Parse(time.RFC3339Nano, data["createdAt"]); err == nil {
		batch.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(data["keys"]), &batch.Keys); err != nil {
		return nil, fmt.Errorf("corrupt keys for batch %s: %w", batchID, err)
	}
	batch.Skipped, _ = strconv.Atoi(data["skipped"])

	raw, err := s.Client.LRange(s.Ctx, getRecordsKey(batchID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get records from Redis: %w", err)
	}
	batch.Records = make([]models.Record, 0, len(raw))
	for i, item := range raw {
		var rec models.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("corrupt record %d in batch %s: %w", i, batchID, err)
		}
		batch.Records = append(batch.Records, rec)
	}
	return batch, nil
}

// ListBatches retrieves all batches. IDs whose keys have expired are pruned
// from the set.
func (s *RedisService) ListBatches() ([]models.Batch, error) {
	ids, err := s.Client.SMembers(s.Ctx, batchesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get batch IDs from Redis: %w", err)
	}

	batches := make([]models.Batch, 0, len(ids))
	for _, id := range ids {
		batch, err := s.GetBatch(id)
		if errors.Is(err, ErrNotFound) {
			s.Client.SRem(s.Ctx, batchesKey, id)
			continue
		}
		if err != nil {
			// Log the error but keep listing the others
			logger.Warn("Error fetching batch", zap.String("batch", id), zap.Error(err))
			continue
		}
		batches = append(batches, *batch)
	}
	sortNewestFirst(batches)
	return batches, nil
}

// DeleteBatch removes a batch and its records
func (s *RedisService) DeleteBatch(batchID string) error {
	exists, err := s.batchExists(batchID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	pipe := s.Client.TxPipeline()
	pipe.SRem(s.Ctx, batchesKey, batchID)
	pipe.Del(s.Ctx, getBatchKey(batchID), getRecordsKey(batchID))
	if _, err := pipe.Exec(s.Ctx); err != nil {
		return fmt.Errorf("failed to delete batch from Redis: %w", err)
	}
	logger.Info("Deleted batch", zap.String("batch", batchID))
	return nil
}

func (s *RedisService) batchExists(batchID string) (bool, error) {
	n, err := s.Client.Exists(s.Ctx, getBatchKey(batchID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check batch existence: %w", err)
	}
	return n > 0, nil
}

// checkIndex verifies the batch exists and index addresses one of its records
func (s *RedisService) checkIndex(batchID string, index int) error {
	exists, err := s.batchExists(batchID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	n, err := s.Client.LLen(s.Ctx, getRecordsKey(batchID)).Result()
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if index < 0 || int64(index) >= n {
		return fmt.Errorf("%w: %d of %d", ErrRecordIndex, index, n)
	}
	return nil
}

// --- Record Operations ---

// UpdateRecord replaces one record in place
func (s *RedisService) UpdateRecord(batchID string, index int, rec models.Record) error {
	if err := s.checkIndex(batchID, index); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	recordsKey := getRecordsKey(batchID)
	pipe := s.Client.TxPipeline()
	pipe.LSet(s.Ctx, recordsKey, int64(index), string(raw))
	s.expire(pipe, getBatchKey(batchID), recordsKey)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		return fmt.Errorf("failed to update record in Redis: %w", err)
	}
	return nil
}

// AppendRecord adds a record at the end of the batch
func (s *RedisService) AppendRecord(batchID string, rec models.Record) (int, error) {
	exists, err := s.batchExists(batchID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}

	recordsKey := getRecordsKey(batchID)
	pipe := s.Client.TxPipeline()
	push := pipe.RPush(s.Ctx, recordsKey, string(raw))
	s.expire(pipe, getBatchKey(batchID), recordsKey)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		return 0, fmt.Errorf("failed to append record in Redis: %w", err)
	}
	return int(push.Val()) - 1, nil
}

// DeleteRecord removes one record. Redis lists cannot delete by index, so
// the element is overwritten with a marker which is then removed.
func (s *RedisService) DeleteRecord(batchID string, index int) error {
	if err := s.checkIndex(batchID, index); err != nil {
		return err
	}
	recordsKey := getRecordsKey(batchID)
	pipe := s.Client.TxPipeline()
	pipe.LSet(s.Ctx, recordsKey, int64(index), deletedMarker)
	pipe.LRem(s.Ctx, recordsKey, 1, deletedMarker)
	s.expire(pipe, getBatchKey(batchID), recordsKey)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		return fmt.Errorf("failed to delete record in Redis: %w", err)
	}
	return nil
}

// --- Job Operations ---

// SaveJob stores the full job state
func (s *RedisService) SaveJob(job *models.Job) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	jobKey := getJobKey(job.ID)
	pipe := s.Client.TxPipeline()
	pipe.HSet(s.Ctx, jobKey, map[string]interface{}{
		"status":  string(job.Status),
		"batchId": job.BatchID,
		"data":    string(raw),
	})
	s.expire(pipe, jobKey)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		logger.Error("Error saving job", zap.String("job", job.ID), zap.Error(err))
		return fmt.Errorf("failed to save job to Redis: %w", err)
	}
	return nil
}

// GetJob retrieves a job by its ID
func (s *RedisService) GetJob(jobID string) (*models.Job, error) {
	raw, err := s.Client.HGet(s.Ctx, getJobKey(jobID), "data").Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job from Redis: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("corrupt job %s: %w", jobID, err)
	}
	return &job, nil
}

func sortNewestFirst(batches []models.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(cfg config.StoreConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return rdb, nil
}
