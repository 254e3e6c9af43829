package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/docserver/internal/cache"
	"github.com/clauselens/docserver/internal/models"
	"github.com/clauselens/docserver/internal/recordstore"
	"github.com/clauselens/docserver/pkg/extract"
	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/queue"
	"github.com/clauselens/docserver/pkg/storage"
)

// User-facing messages. The "not configured" wording is part of the API
// surface: clients match on it to explain why analysis is missing.
const (
	msgProcessed        = "Uploaded and processed successfully"
	msgPending          = "Processing started"
	noteNotConfigured   = "Extraction not configured; saved upload only."
	noteExtractDegraded = "Extraction unavailable or failed; saved upload, analysis skipped."
)

// Config holds orchestrator tunables.
type Config struct {
	// SyncExtractTimeout bounds the synchronous extraction call. A
	// timeout degrades to placeholder text, never to a request failure.
	SyncExtractTimeout time.Duration
}

// Orchestrator implements Service over the injected adapters.
type Orchestrator struct {
	blobs      storage.BlobStore
	extractor  extract.Extractor
	records    recordstore.RecordStore
	fallback   *cache.Cache
	dispatcher queue.Dispatcher
	config     Config
	logger     logger.Logger
	now        func() time.Time
}

// NewOrchestrator wires the ingestion pipeline together.
func NewOrchestrator(
	blobs storage.BlobStore,
	extractor extract.Extractor,
	records recordstore.RecordStore,
	fallback *cache.Cache,
	dispatcher queue.Dispatcher,
	config Config,
	log logger.Logger,
) *Orchestrator {
	if config.SyncExtractTimeout <= 0 {
		config.SyncExtractTimeout = 25 * time.Second
	}
	return &Orchestrator{
		blobs:      blobs,
		extractor:  extractor,
		records:    records,
		fallback:   fallback,
		dispatcher: dispatcher,
		config:     config,
		logger:     log,
		now:        time.Now,
	}
}

// newDocumentID generates a time-ordered id unique within an owner. The
// random suffix guards against two uploads landing in the same clock
// tick.
func newDocumentID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("doc_%d_%s", now.UnixMilli(), suffix)
}

func blobKey(ownerID, documentID, filename string) string {
	return fmt.Sprintf("users/%s/%s_%s", ownerID, documentID, filename)
}

func (o *Orchestrator) Ingest(ctx context.Context, req *models.UploadRequest) (*models.IngestResult, error) {
	now := o.now().UTC()
	documentID := newDocumentID(now)

	// Blob storage is the only hard failure of the whole pipeline.
	blobPath, err := o.blobs.Put(ctx, blobKey(req.OwnerID, documentID, req.Filename), req.Data, req.MimeType)
	if err != nil {
		o.logger.Error("Blob upload failed",
			logger.String("ownerId", req.OwnerID),
			logger.String("documentId", documentID),
			logger.Error(err),
		)
		return nil, err
	}

	text, note := o.extractInline(ctx, req)

	rec := &models.DocumentRecord{
		DocumentID:     documentID,
		OwnerID:        req.OwnerID,
		Filename:       req.Filename,
		BlobPath:       blobPath,
		Text:           text,
		Status:         models.StatusProcessed,
		ProcessingNote: note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var warning string
	if err := o.records.Upsert(ctx, rec); err != nil {
		warning = fmt.Sprintf("record persistence failed: %v", err)
		o.logger.Warn("Record store upsert failed, continuing",
			logger.String("documentId", documentID),
			logger.Error(err),
		)
	}

	// The cache write does not depend on the durable store's outcome.
	o.cachePut(rec)

	message := msgProcessed
	if note != "" {
		message = note
	}

	return &models.IngestResult{
		DocumentID: documentID,
		BlobPath:   blobPath,
		Text:       text,
		Status:     models.StatusProcessed,
		Message:    message,
		Warning:    warning,
		Note:       note,
		CreatedAt:  now,
	}, nil
}

func (o *Orchestrator) IngestBackground(ctx context.Context, req *models.UploadRequest) (*models.IngestResult, error) {
	now := o.now().UTC()
	documentID := newDocumentID(now)

	blobPath, err := o.blobs.Put(ctx, blobKey(req.OwnerID, documentID, req.Filename), req.Data, req.MimeType)
	if err != nil {
		o.logger.Error("Blob upload failed",
			logger.String("ownerId", req.OwnerID),
			logger.String("documentId", documentID),
			logger.Error(err),
		)
		return nil, err
	}

	rec := &models.DocumentRecord{
		DocumentID: documentID,
		OwnerID:    req.OwnerID,
		Filename:   req.Filename,
		BlobPath:   blobPath,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var warning string
	if err := o.records.Upsert(ctx, rec); err != nil {
		warning = fmt.Sprintf("record persistence failed: %v", err)
		o.logger.Warn("Record store upsert failed, continuing",
			logger.String("documentId", documentID),
			logger.Error(err),
		)
	}

	o.cachePut(rec)

	job := &queue.Job{
		DocumentID: documentID,
		OwnerID:    req.OwnerID,
		BlobPath:   blobPath,
		MimeType:   req.MimeType,
	}
	if err := o.dispatcher.Dispatch(ctx, job); err != nil {
		// The record stays pending; an external supervisor may re-trigger
		// the job. The caller learns about it through the warning.
		o.logger.Error("Failed to dispatch extraction job",
			logger.String("documentId", documentID),
			logger.Error(err),
		)
		if warning != "" {
			warning += "; "
		}
		warning += fmt.Sprintf("extraction dispatch failed: %v", err)
	}

	return &models.IngestResult{
		DocumentID: documentID,
		BlobPath:   blobPath,
		Status:     models.StatusPending,
		Message:    msgPending,
		Warning:    warning,
		CreatedAt:  now,
	}, nil
}

// extractInline runs the bounded synchronous extraction. Any failure
// degrades to placeholder text plus a diagnostic note; sync ingestion
// never terminates in an error state because of extraction.
func (o *Orchestrator) extractInline(ctx context.Context, req *models.UploadRequest) (text, note string) {
	if !o.extractor.Configured() {
		return extract.PlaceholderText, noteNotConfigured
	}

	extractCtx, cancel := context.WithTimeout(ctx, o.config.SyncExtractTimeout)
	defer cancel()

	extracted, err := o.extractor.ExtractSync(extractCtx, req.Data, req.MimeType)
	if err != nil {
		o.logger.Warn("Synchronous extraction degraded",
			logger.String("ownerId", req.OwnerID),
			logger.String("filename", req.Filename),
			logger.Error(err),
		)
		return extract.PlaceholderText, noteExtractDegraded
	}
	if extracted == "" {
		return extract.PlaceholderText, ""
	}
	return extracted, ""
}

func (o *Orchestrator) RunExtraction(ctx context.Context, job *queue.Job) error {
	o.logger.Info("Starting background extraction",
		logger.String("documentId", job.DocumentID),
		logger.String("ownerId", job.OwnerID),
	)

	jobID, err := o.extractor.ExtractAsync(ctx, job.BlobPath, job.MimeType)
	if err != nil {
		return o.failExtraction(ctx, job, fmt.Errorf("submit: %w", err))
	}

	outputLocator, err := o.extractor.AwaitResult(ctx, jobID)
	if err != nil {
		return o.failExtraction(ctx, job, fmt.Errorf("await: %w", err))
	}

	artifact, err := o.blobs.Get(ctx, outputLocator)
	if err != nil {
		return o.failExtraction(ctx, job, fmt.Errorf("fetch output %s: %w", outputLocator, err))
	}

	text, err := o.extractor.DecodeOutput(artifact)
	if err != nil {
		return o.failExtraction(ctx, job, fmt.Errorf("decode output: %w", err))
	}

	status := models.StatusProcessed
	err = o.records.Update(ctx, job.OwnerID, job.DocumentID, recordstore.UpdateFields{
		Text:   &text,
		Status: &status,
	})
	if err != nil {
		return o.failExtraction(ctx, job, fmt.Errorf("persist result: %w", err))
	}

	o.logger.Info("Background extraction completed",
		logger.String("documentId", job.DocumentID),
		logger.Int("textLength", len(text)),
	)
	return nil
}

// failExtraction moves the record to its terminal error state. The
// update itself is best-effort and not retried, but its failure is
// logged so the stuck-pending record is observable.
func (o *Orchestrator) failExtraction(ctx context.Context, job *queue.Job, cause error) error {
	status := models.StatusError
	detail := cause.Error()
	err := o.records.Update(ctx, job.OwnerID, job.DocumentID, recordstore.UpdateFields{
		Status:      &status,
		ErrorDetail: &detail,
	})
	if err != nil {
		o.logger.Error("Failed to record extraction error, record may remain pending",
			logger.String("documentId", job.DocumentID),
			logger.String("ownerId", job.OwnerID),
			logger.String("cause", detail),
			logger.Error(err),
		)
	}
	return fmt.Errorf("background extraction for %s: %w", job.DocumentID, cause)
}

func (o *Orchestrator) Status(ctx context.Context, ownerID, documentID string) (*models.DocumentRecord, error) {
	rec, err := o.records.Get(ctx, ownerID, documentID)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, err
	}

	// Store unreachable: "cannot tell" rather than "does not exist".
	o.logger.Warn("Record store unreachable for status query",
		logger.String("documentId", documentID),
		logger.Error(err),
	)
	return &models.DocumentRecord{
		DocumentID: documentID,
		OwnerID:    ownerID,
		Status:     models.StatusUnknown,
	}, nil
}

func (o *Orchestrator) List(ctx context.Context, ownerID string) ([]*models.DocumentRecord, error) {
	records, err := o.records.List(ctx, ownerID)
	if err == nil {
		return records, nil
	}

	o.logger.Warn("Record store unreachable, serving cached snapshots",
		logger.String("ownerId", ownerID),
		logger.Error(err),
	)

	entries := o.fallback.List(ownerID)
	records = make([]*models.DocumentRecord, 0, len(entries))
	for _, entry := range entries {
		// Snapshots carry no lifecycle state; text presence is the only
		// hint whether extraction had completed when they were written.
		status := models.StatusProcessed
		if entry.Text == "" {
			status = models.StatusUnknown
		}
		records = append(records, &models.DocumentRecord{
			DocumentID: entry.DocumentID,
			OwnerID:    entry.OwnerID,
			Filename:   entry.Filename,
			BlobPath:   entry.BlobPath,
			Text:       entry.Text,
			Status:     status,
			CreatedAt:  entry.CreatedAt,
			UpdatedAt:  entry.CreatedAt,
		})
	}
	return records, nil
}

func (o *Orchestrator) cachePut(rec *models.DocumentRecord) {
	o.fallback.Put(cache.Entry{
		DocumentID: rec.DocumentID,
		OwnerID:    rec.OwnerID,
		Filename:   rec.Filename,
		BlobPath:   rec.BlobPath,
		Text:       rec.Text,
		CreatedAt:  rec.CreatedAt,
	})
}
