package queue

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/clauselens/docserver/pkg/logger"
)

// LocalDispatcher runs jobs on detached goroutines bounded by a
// semaphore. Jobs are not tied to the dispatching request's lifetime:
// cancellation of the incoming context does not cancel the job. Tests
// use Wait to observe completion of everything dispatched so far.
type LocalDispatcher struct {
	handler Handler
	sem     *semaphore.Weighted
	logger  logger.Logger

	mu       sync.Mutex
	wg       sync.WaitGroup
	inflight map[string]struct{}
}

// NewLocalDispatcher builds an in-process dispatcher running at most
// limit jobs concurrently.
func NewLocalDispatcher(limit int64, handler Handler, log logger.Logger) *LocalDispatcher {
	if limit < 1 {
		limit = 1
	}
	return &LocalDispatcher{
		handler:  handler,
		sem:      semaphore.NewWeighted(limit),
		logger:   log,
		inflight: make(map[string]struct{}),
	}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, job *Job) error {
	d.mu.Lock()
	d.inflight[job.DocumentID] = struct{}{}
	d.mu.Unlock()
	d.wg.Add(1)

	// Keep request-scoped values but survive the request itself.
	detached := context.WithoutCancel(ctx)

	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.inflight, job.DocumentID)
			d.mu.Unlock()
		}()

		if err := d.sem.Acquire(detached, 1); err != nil {
			d.logger.Error("Failed to acquire extraction slot",
				logger.String("documentId", job.DocumentID),
				logger.Error(err),
			)
			return
		}
		defer d.sem.Release(1)

		if err := d.handler(detached, job); err != nil {
			// The handler already moved the record to a terminal state;
			// this is the structured trace of the failure.
			d.logger.Error("Background extraction failed",
				logger.String("documentId", job.DocumentID),
				logger.String("ownerId", job.OwnerID),
				logger.Error(err),
			)
		}
	}()

	return nil
}

func (d *LocalDispatcher) InFlight(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.inflight))
	for id := range d.inflight {
		ids = append(ids, id)
	}
	return ids, nil
}

// Wait blocks until all jobs dispatched so far have finished.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}
