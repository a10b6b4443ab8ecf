package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certgen-server-go/config"
	"certgen-server-go/db"
	"certgen-server-go/fields"
	"certgen-server-go/generator"
	"certgen-server-go/jobs"
	"certgen-server-go/logger"
	"certgen-server-go/metrics"
	"certgen-server-go/models"
	"certgen-server-go/render"
	"certgen-server-go/sheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store  db.Store
	Jobs   *jobs.Manager
	Config *config.Config
	Now    func() time.Time
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.Store, manager *jobs.Manager, cfg *config.Config) *APIHandler {
	return &APIHandler{
		Store:  store,
		Jobs:   manager,
		Config: cfg,
		Now:    time.Now,
	}
}

// BatchSummary is the list view of a batch
type BatchSummary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	Count     int       `json:"count"`
	Skipped   int       `json:"skipped"`
}

// respondError maps store and loader errors onto HTTP statuses
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg + ": not found"})
	case errors.Is(err, db.ErrRecordIndex):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sheet.ErrMissingColumns),
		errors.Is(err, sheet.ErrEmptySheet),
		errors.Is(err, render.ErrUnsupportedTemplate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// --- Batch Handlers ---

// UploadBatch handles POST /api/batches
func (h *APIHandler) UploadBatch(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	logger.Info("Received spreadsheet upload", zap.String("file", header.Filename), zap.Int64("size", header.Size))

	var table *sheet.Table
	if sheet.IsWorkbook(header.Filename) {
		table, err = sheet.ReadWorkbook(file)
	} else {
		table, err = sheet.ReadDelimited(file)
	}
	if err != nil {
		respondError(c, err, "Failed to read spreadsheet")
		return
	}
	h.createBatch(c, table, header.Filename, "upload")
}

// PasteBatch handles POST /api/batches/paste. The body is tab or comma
// separated text with a header row.
func (h *APIHandler) PasteBatch(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pasted data is empty"})
		return
	}
	table, err := sheet.ReadDelimited(bytes.NewReader(body))
	if err != nil {
		respondError(c, err, "Failed to parse pasted data")
		return
	}
	h.createBatch(c, table, "paste", "paste")
}

func (h *APIHandler) createBatch(c *gin.Context, table *sheet.Table, source, kind string) {
	res, err := fields.LoadRecords(table, h.Now())
	if err != nil {
		respondError(c, err, "Failed to load records")
		return
	}

	batch := &models.Batch{
		ID:        uuid.New().String(),
		Source:    source,
		CreatedAt: h.Now(),
		Keys:      res.Keys,
		Records:   res.Records,
		Skipped:   res.Skipped,
	}
	if batch.Records == nil {
		batch.Records = []models.Record{}
	}
	if err := h.Store.SaveBatch(batch); err != nil {
		respondError(c, err, "Failed to save batch")
		return
	}

	metrics.BatchesLoaded.WithLabelValues(kind).Inc()
	metrics.RecordsLoaded.Add(float64(len(batch.Records)))
	logger.Info("Loaded batch",
		zap.String("batch", batch.ID),
		zap.String("source", source),
		zap.Int("records", len(batch.Records)),
		zap.Int("skipped", batch.Skipped))
	c.JSON(http.StatusCreated, batch)
}

// ListBatches handles GET /api/batches
func (h *APIHandler) ListBatches(c *gin.Context) {
	batches, err := h.Store.ListBatches()
	if err != nil {
		respondError(c, err, "Failed to retrieve batches")
		return
	}
	summaries := make([]BatchSummary, 0, len(batches))
	for _, b := range batches {
		summaries = append(summaries, BatchSummary{
			ID:        b.ID,
			Source:    b.Source,
			CreatedAt: b.CreatedAt,
			Count:     len(b.Records),
			Skipped:   b.Skipped,
		})
	}
	c.JSON(http.StatusOK, summaries)
}

// GetBatch handles GET /api/batches/:batchId
func (h *APIHandler) GetBatch(c *gin.Context) {
	batch, err := h.Store.GetBatch(c.Param("batchId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// DeleteBatch handles DELETE /api/batches/:batchId
func (h *APIHandler) DeleteBatch(c *gin.Context) {
	if err := h.Store.DeleteBatch(c.Param("batchId")); err != nil {
		respondError(c, err, "Failed to delete batch")
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportBatch handles GET /api/batches/:batchId/export
func (h *APIHandler) ExportBatch(c *gin.Context) {
	batch, err := h.Store.GetBatch(c.Param("batchId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve batch")
		return
	}
	data, err := sheet.WriteWorkbook(batch.Keys, batch.Records)
	if err != nil {
		respondError(c, err, "Failed to export batch")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "batch-"+batch.ID+".xlsx"))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// --- Record Handlers ---

// applyEdits copies key/value edits onto rec. Unknown keys are rejected.
func applyEdits(rec *models.Record, edits map[string]string) error {
	for k, v := range edits {
		if !rec.Set(k, v) {
			return fmt.Errorf("unknown field %q", k)
		}
	}
	if strings.TrimSpace(rec.NameZh) == "" {
		return fmt.Errorf("field %q cannot be empty", models.KeyNameZh)
	}
	return nil
}

func recordIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Record index must be a number"})
		return 0, false
	}
	return index, true
}

// AddRecord handles POST /api/batches/:batchId/records
func (h *APIHandler) AddRecord(c *gin.Context) {
	var edits map[string]string
	if err := c.ShouldBindJSON(&edits); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	var rec models.Record
	if err := applyEdits(&rec, edits); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	index, err := h.Store.AppendRecord(c.Param("batchId"), rec)
	if err != nil {
		respondError(c, err, "Failed to add record")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"index": index, "record": rec})
}

// UpdateRecord handles PUT /api/batches/:batchId/records/:index. The body
// holds only the cells being changed.
func (h *APIHandler) UpdateRecord(c *gin.Context) {
	index, ok := recordIndex(c)
	if !ok {
		return
	}
	var edits map[string]string
	if err := c.ShouldBindJSON(&edits); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	batchID := c.Param("batchId")
	batch, err := h.Store.GetBatch(batchID)
	if err != nil {
		respondError(c, err, "Failed to retrieve batch")
		return
	}
	if index < 0 || index >= len(batch.Records) {
		respondError(c, fmt.Errorf("%w: %d", db.ErrRecordIndex, index), "Failed to update record")
		return
	}

	rec := batch.Records[index]
	if err := applyEdits(&rec, edits); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.UpdateRecord(batchID, index, rec); err != nil {
		respondError(c, err, "Failed to update record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": index, "record": rec})
}

// DeleteRecord handles DELETE /api/batches/:batchId/records/:index
func (h *APIHandler) DeleteRecord(c *gin.Context) {
	index, ok := recordIndex(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteRecord(c.Param("batchId"), index); err != nil {
		respondError(c, err, "Failed to delete record")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Generation Handlers ---

func formBool(c *gin.Context, key string) (bool, error) {
	v := c.PostForm(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid value for %q: %s", key, v)
	}
	return b, nil
}

// Generate handles POST /api/batches/:batchId/generate
func (h *APIHandler) Generate(c *gin.Context) {
	batch, err := h.Store.GetBatch(c.Param("batchId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve batch")
		return
	}
	if len(batch.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": generator.ErrNoRecords.Error()})
		return
	}

	file, header, err := c.Request.FormFile("template")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving template: " + err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read template"})
		return
	}
	renderer, err := render.FromBytes(header.Filename, data)
	if err != nil {
		respondError(c, err, "Failed to load template")
		return
	}

	opts := generator.Options{
		OutputDir:          h.Config.Output.Dir,
		MergedName:         h.Config.Output.MergedName,
		ArchiveName:        h.Config.Output.ArchiveName,
		Concurrency:        h.Config.Convert.Concurrency,
		ExpectedConversion: h.Config.Convert.ExpectedDuration,
	}
	for key, dst := range map[string]*bool{"pdf": &opts.PDF, "merge": &opts.Merge, "archive": &opts.Archive} {
		if *dst, err = formBool(c, key); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	job, err := h.Jobs.Submit(batch.ID, batch.Records, renderer, opts)
	if errors.Is(err, jobs.ErrQueueFull) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to queue generation")
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GetJob handles GET /api/jobs/:jobId
func (h *APIHandler) GetJob(c *gin.Context) {
	job, err := h.Store.GetJob(c.Param("jobId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve job")
		return
	}
	c.JSON(http.StatusOK, job)
}

// JobEvents handles GET /api/jobs/:jobId/events as a server-sent event
// stream of job states. The stream ends once the job finishes.
func (h *APIHandler) JobEvents(c *gin.Context) {
	jobID := c.Param("jobId")
	// Subscribe before reading the state so a job finishing in between
	// still closes the channel.
	updates, unsubscribe := h.Jobs.Subscribe(jobID)
	defer unsubscribe()

	job, err := h.Store.GetJob(jobID)
	if err != nil {
		respondError(c, err, "Failed to retrieve job")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("job", job)
	if job.Done() {
		return
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			logger.Debug("SSE client disconnected", zap.String("job", jobID))
			return false
		case update, ok := <-updates:
			if !ok {
				// Updates may have been dropped; the store has the final state
				if final, err := h.Store.GetJob(jobID); err == nil {
					c.SSEvent("job", final)
				}
				return false
			}
			c.SSEvent("job", update)
			return !update.Done()
		}
	})
}

// JobArchive handles GET /api/jobs/:jobId/archive
func (h *APIHandler) JobArchive(c *gin.Context) {
	job, err := h.Store.GetJob(c.Param("jobId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve job")
		return
	}
	if !job.Done() {
		c.JSON(http.StatusConflict, gin.H{"error": "Job has not finished yet"})
		return
	}
	if job.Archive == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job produced no archive"})
		return
	}
	c.FileAttachment(job.Archive, filepath.Base(job.Archive))
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
