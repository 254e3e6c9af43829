// Package worker hosts background extraction outside the request
// process: an asynq server consuming the jobs the API enqueues.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/queue"
)

// Config holds worker runtime settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Concurrency bounds parallel extraction jobs.
	Concurrency int
}

// ExtractionWorker consumes extraction jobs and runs them through the
// injected handler (the orchestrator's RunExtraction).
type ExtractionWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler queue.Handler
	tracker *queue.Tracker
	logger  logger.Logger
}

// NewExtractionWorker builds the asynq consumer. The tracker is
// optional; without it in-flight bookkeeping is skipped.
func NewExtractionWorker(cfg *Config, handler queue.Handler, tracker *queue.Tracker, log logger.Logger) *ExtractionWorker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
		},
	)

	w := &ExtractionWorker{
		server:  server,
		mux:     asynq.NewServeMux(),
		handler: handler,
		tracker: tracker,
		logger:  log,
	}
	w.mux.HandleFunc(queue.TaskTypeExtract, w.handleExtract)
	return w
}

func (w *ExtractionWorker) handleExtract(ctx context.Context, t *asynq.Task) error {
	var job queue.Job
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		w.logger.Error("Failed to unmarshal extraction job",
			logger.String("payload", string(t.Payload())),
			logger.Error(err),
		)
		return fmt.Errorf("failed to unmarshal extraction job: %w", err)
	}

	err := w.handler(ctx, &job)

	if w.tracker != nil {
		if trackErr := w.tracker.MarkDone(ctx, job.DocumentID); trackErr != nil {
			w.logger.Warn("Failed to clear in-flight marker",
				logger.String("documentId", job.DocumentID),
				logger.Error(trackErr),
			)
		}
	}

	if err != nil {
		// The handler already recorded the terminal error state; the job
		// is not retried.
		w.logger.Error("Extraction job failed",
			logger.String("documentId", job.DocumentID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// Start runs the consumer until ctx is cancelled.
func (w *ExtractionWorker) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.server.Stop()
	}()
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("worker server stopped: %w", err)
	}
	return nil
}

// Stop shuts the consumer down.
func (w *ExtractionWorker) Stop() {
	w.server.Stop()
	w.server.Shutdown()
}
