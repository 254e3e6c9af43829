// Package queue dispatches background extraction jobs. Production runs
// on asynq over Redis with a separate worker process; when Redis is not
// configured an in-process bounded dispatcher takes over so a single
// binary still serves async uploads.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskTypeExtract is the asynq task type for background extraction.
const TaskTypeExtract = "document:extract"

// inflightKey is the Redis set of document ids with extraction in flight.
const inflightKey = "extract:inflight"

// Job identifies one background extraction. It is created at most once
// per ingestion call; document ids are never reused across calls.
type Job struct {
	DocumentID string `json:"documentId"`
	OwnerID    string `json:"ownerId"`
	BlobPath   string `json:"blobPath"`
	MimeType   string `json:"mimeType"`
}

// Handler runs one background extraction to completion.
type Handler func(ctx context.Context, job *Job) error

// Dispatcher hands a job off for detached execution. Dispatch returns
// before the job runs; InFlight enumerates document ids whose extraction
// has not reached a terminal state yet.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *Job) error
	InFlight(ctx context.Context) ([]string, error)
}

// AsynqDispatcher enqueues jobs onto Redis for the worker binary.
type AsynqDispatcher struct {
	client *asynq.Client
	redis  *redis.Client
}

// Config holds queue connection settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewAsynqDispatcher connects the enqueue side of the queue.
func NewAsynqDispatcher(cfg *Config) (*AsynqDispatcher, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &AsynqDispatcher{
		client: asynq.NewClient(redisOpt),
		redis:  rdb,
	}, nil
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	task := asynq.NewTask(TaskTypeExtract, payload,
		// The pipeline performs no retries; a failed extraction lands the
		// record in a terminal error state instead.
		asynq.MaxRetry(0),
		asynq.TaskID(job.DocumentID),
	)
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue extraction job: %w", err)
	}

	if err := d.redis.SAdd(ctx, inflightKey, job.DocumentID).Err(); err != nil {
		// Tracking is observability only; the job itself is queued.
		return nil
	}
	return nil
}

func (d *AsynqDispatcher) InFlight(ctx context.Context) ([]string, error) {
	ids, err := d.redis.SMembers(ctx, inflightKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read in-flight set: %w", err)
	}
	return ids, nil
}

// Close releases queue connections.
func (d *AsynqDispatcher) Close() error {
	if err := d.client.Close(); err != nil {
		return err
	}
	return d.redis.Close()
}

// Tracker clears in-flight markers from the worker side.
type Tracker struct {
	redis *redis.Client
}

// NewTracker connects the worker-side in-flight tracker.
func NewTracker(cfg *Config) (*Tracker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Tracker{redis: rdb}, nil
}

// MarkDone removes a document from the in-flight set.
func (t *Tracker) MarkDone(ctx context.Context, documentID string) error {
	return t.redis.SRem(ctx, inflightKey, documentID).Err()
}

// Close releases the tracker connection.
func (t *Tracker) Close() error { return t.redis.Close() }
