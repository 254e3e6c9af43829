package models

import (
	"time"
)

// DocumentStatus tracks a document through the ingestion state machine.
// Transitions are monotone: pending moves to processed or error exactly
// once, and both of those are terminal.
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusProcessed DocumentStatus = "processed"
	StatusError     DocumentStatus = "error"
	// StatusUnknown is never persisted. It marks a degraded status read
	// when the record store cannot be reached.
	StatusUnknown DocumentStatus = "unknown"
)

// UploadRequest carries one incoming upload through the orchestrator. It
// is transient and never persisted as-is.
type UploadRequest struct {
	OwnerID  string
	Filename string
	MimeType string
	Data     []byte
}

// DocumentRecord is the durable record of an ingested document, keyed by
// (ownerId, documentId). DocumentID is immutable once assigned and
// BlobPath is set before the record is first visible.
type DocumentRecord struct {
	DocumentID     string         `json:"documentId"`
	OwnerID        string         `json:"ownerId"`
	Filename       string         `json:"filename,omitempty"`
	BlobPath       string         `json:"blobPath"`
	Text           string         `json:"text"`
	Status         DocumentStatus `json:"status"`
	ProcessingNote string         `json:"processingNote,omitempty"`
	ErrorDetail    string         `json:"errorDetail,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// IngestResult is what the orchestrator hands back to the caller of a
// sync or async ingestion.
type IngestResult struct {
	DocumentID string         `json:"documentId"`
	BlobPath   string         `json:"blobPath"`
	Text       string         `json:"text"`
	Status     DocumentStatus `json:"status"`
	Message    string         `json:"message"`
	// Warning is set when a degradable stage (record store) failed but
	// ingestion still succeeded.
	Warning string `json:"warning,omitempty"`
	// Note is set when extraction was skipped or degraded.
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
