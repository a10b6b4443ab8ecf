package handlers

import (
	"github.com/gin-gonic/gin"

	"certgen-server-go/metrics"
)

// SetupRouter builds the gin engine with every API route
func SetupRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if h.Config != nil {
		router.MaxMultipartMemory = h.Config.Server.MaxUploadSize
	}

	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)

		// Batch routes
		api.POST("/batches", h.UploadBatch)
		api.POST("/batches/paste", h.PasteBatch)
		api.GET("/batches", h.ListBatches)
		api.GET("/batches/:batchId", h.GetBatch)
		api.DELETE("/batches/:batchId", h.DeleteBatch)
		api.GET("/batches/:batchId/export", h.ExportBatch)

		// Record routes within a batch
		api.POST("/batches/:batchId/records", h.AddRecord)
		api.PUT("/batches/:batchId/records/:index", h.UpdateRecord)
		api.DELETE("/batches/:batchId/records/:index", h.DeleteRecord)

		// Generation
		api.POST("/batches/:batchId/generate", h.Generate)
		api.GET("/jobs/:jobId", h.GetJob)
		api.GET("/jobs/:jobId/events", h.JobEvents)
		api.GET("/jobs/:jobId/archive", h.JobArchive)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	return router
}
