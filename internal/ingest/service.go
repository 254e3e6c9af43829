package ingest

import (
	"context"

	"github.com/clauselens/docserver/internal/models"
	"github.com/clauselens/docserver/pkg/queue"
)

// Service drives an upload through blob storage, extraction and tiered
// persistence, and answers status queries. It exclusively owns the
// lifecycle transitions of document records.
type Service interface {
	// Ingest runs the synchronous pipeline: the result always carries a
	// terminal "processed" status, degrading extraction and persistence
	// failures into notes and warnings instead of errors.
	Ingest(ctx context.Context, req *models.UploadRequest) (*models.IngestResult, error)

	// IngestBackground stores the blob, records a pending document and
	// returns before extraction runs. Extraction is handed to the
	// dispatcher exactly once per call.
	IngestBackground(ctx context.Context, req *models.UploadRequest) (*models.IngestResult, error)

	// RunExtraction executes one background extraction job to a terminal
	// record state. Invoked by the worker or the local dispatcher, never
	// by request handlers.
	RunExtraction(ctx context.Context, job *queue.Job) error

	// Status returns the current record, recordstore.ErrNotFound when the
	// store answered and has no record, or a degraded record with status
	// "unknown" when the store cannot be reached.
	Status(ctx context.Context, ownerID, documentID string) (*models.DocumentRecord, error)

	// List returns the owner's records newest first, falling back to the
	// volatile cache when the store is unreachable.
	List(ctx context.Context, ownerID string) ([]*models.DocumentRecord, error)
}
