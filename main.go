package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certgen-server-go/config"
	"certgen-server-go/convert"
	"certgen-server-go/db"
	"certgen-server-go/handlers"
	"certgen-server-go/jobs"
	"certgen-server-go/logger"
)

const jobQueueSize = 32

var configPath = kingpin.Flag("config", "Path to a YAML config file").Envar("CERTGEN_CONFIG").String()

func main() {
	kingpin.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitializeLogger(cfg.Logging.Level, cfg.Logging.Development); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	store, err := openStore(cfg.Store)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}

	converter := convert.NewSofficeConverter(cfg.Convert.Command, cfg.Convert.Timeout)
	converter.Isolated = cfg.Convert.Concurrency > 1
	manager := jobs.NewManager(store, converter, convert.NewPDFMerger(), jobQueueSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	manager.Start(ctx)

	gin.SetMode(cfg.Server.Mode)
	apiHandler := handlers.NewAPIHandler(store, manager, cfg)
	router := handlers.SetupRouter(apiHandler)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	manager.Stop()
}

// openStore picks the batch store named by the config
func openStore(cfg config.StoreConfig) (db.Store, error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory store, batches are lost on restart")
		return db.NewMemoryStore(), nil
	}
	client, err := db.InitializeRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return db.NewRedisService(client, cfg.TTL), nil
}
