package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/docserver/api/handlers"
	"github.com/clauselens/docserver/api/routes"
	"github.com/clauselens/docserver/config"
	"github.com/clauselens/docserver/internal/auth"
	"github.com/clauselens/docserver/internal/cache"
	"github.com/clauselens/docserver/internal/ingest"
	"github.com/clauselens/docserver/internal/recordstore/postgres"
	"github.com/clauselens/docserver/pkg/extract"
	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/queue"
	"github.com/clauselens/docserver/pkg/storage"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	serverCfg := config.GetServerConfig()

	blobs, err := storage.NewBlobStore(
		storage.Backend(serverCfg.StorageBackend),
		serverCfg.MaxUploadBytes,
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize blob store", logger.Error(err))
	}

	extractor, err := extract.NewTextractExtractor(log)
	if err != nil {
		log.Fatal("Failed to initialize extraction service", logger.Error(err))
	}

	// The record store is degradable: a dead database at boot still
	// yields a working server that falls back to the volatile cache.
	records, err := postgres.NewStore(config.GetPostgresConfig())
	if records == nil {
		log.Fatal("Failed to open record store", logger.Error(err))
	}
	if err != nil {
		log.Warn("Record store unreachable at startup, continuing degraded", logger.Error(err))
	} else if err := records.EnsureSchema(context.Background()); err != nil {
		log.Warn("Failed to ensure record store schema", logger.Error(err))
	}

	fallback := cache.New()

	redisCfg := config.GetRedisConfig()
	var (
		dispatcher queue.Dispatcher
		service    ingest.Service
	)
	if redisCfg.Configured() {
		asynqDispatcher, err := queue.NewAsynqDispatcher(&queue.Config{
			RedisAddr:     redisCfg.Addr,
			RedisPassword: redisCfg.Password,
			RedisDB:       redisCfg.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect background job queue", logger.Error(err))
		}
		defer asynqDispatcher.Close()
		dispatcher = asynqDispatcher
	} else {
		log.Info("Redis not configured, running background extraction in-process")
		dispatcher = queue.NewLocalDispatcher(int64(redisCfg.Concurrency),
			func(ctx context.Context, job *queue.Job) error {
				return service.RunExtraction(ctx, job)
			}, log)
	}

	orchestrator := ingest.NewOrchestrator(
		blobs,
		extractor,
		records,
		fallback,
		dispatcher,
		ingest.Config{SyncExtractTimeout: serverCfg.SyncExtractTimeout},
		log,
	)
	service = orchestrator

	verifier := auth.NewStaticVerifier(config.GetAuthConfig().TokenTable)

	h := handlers.NewHandlers(service, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, verifier)

	srv := &http.Server{
		Addr:    serverCfg.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", serverCfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
