package recordstore

import (
	"context"
	"errors"

	"github.com/clauselens/docserver/internal/models"
)

var (
	// ErrUnavailable means the backing store cannot be reached. The
	// orchestrator downgrades it to a warning, never to an ingestion
	// failure.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrNotFound means the store was reachable and the record does not
	// exist. Distinct from ErrUnavailable: "does not exist" versus
	// "cannot tell".
	ErrNotFound = errors.New("document record not found")
)

// UpdateFields names the columns a partial update may touch. Nil fields
// are left untouched; updatedAt always advances.
type UpdateFields struct {
	Text           *string
	Status         *models.DocumentStatus
	ProcessingNote *string
	ErrorDetail    *string
}

// RecordStore is durable structured storage for document records, keyed
// by (ownerId, documentId). It is transactional at single-record
// granularity only.
type RecordStore interface {
	Upsert(ctx context.Context, rec *models.DocumentRecord) error
	Update(ctx context.Context, ownerID, documentID string, fields UpdateFields) error
	Get(ctx context.Context, ownerID, documentID string) (*models.DocumentRecord, error)
	// List returns the owner's records ordered descending by createdAt.
	List(ctx context.Context, ownerID string) ([]*models.DocumentRecord, error)
}
