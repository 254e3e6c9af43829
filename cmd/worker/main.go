package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/clauselens/docserver/config"
	"github.com/clauselens/docserver/internal/cache"
	"github.com/clauselens/docserver/internal/ingest"
	"github.com/clauselens/docserver/internal/recordstore/postgres"
	"github.com/clauselens/docserver/pkg/extract"
	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/queue"
	"github.com/clauselens/docserver/pkg/storage"
	"github.com/clauselens/docserver/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisCfg := config.GetRedisConfig()
	if !redisCfg.Configured() {
		log.Fatal("REDIS_ADDR is required for the worker")
	}

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

	records, err := postgres.NewStore(config.GetPostgresConfig())
	if records == nil {
		log.Fatal("Failed to open record store", logger.Error(err))
	}
	if err != nil {
		log.Warn("Record store unreachable at startup, continuing degraded", logger.Error(err))
	}

	// The worker never dispatches jobs itself; the local dispatcher only
	// satisfies the orchestrator's wiring.
	var service ingest.Service
	dispatcher := queue.NewLocalDispatcher(1,
		func(ctx context.Context, job *queue.Job) error {
			return service.RunExtraction(ctx, job)
		}, log)

	orchestrator := ingest.NewOrchestrator(
		blobs,
		extractor,
		records,
		cache.New(),
		dispatcher,
		ingest.Config{SyncExtractTimeout: serverCfg.SyncExtractTimeout},
		log,
	)
	service = orchestrator

	queueCfg := &queue.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
	}
	tracker, err := queue.NewTracker(queueCfg)
	if err != nil {
		log.Fatal("Failed to connect in-flight tracker", logger.Error(err))
	}
	defer tracker.Close()

	w := worker.NewExtractionWorker(&worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   redisCfg.Concurrency,
	}, orchestrator.RunExtraction, tracker, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down worker...")
		cancel()
	}()

	if err := w.Start(ctx); err != nil {
		log.Error("Worker stopped", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker stopped")
}
