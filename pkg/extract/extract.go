package extract

import (
	"context"
	"errors"
)

// PlaceholderText stands in for extracted text whenever extraction is
// skipped or degrades. Ingestion never fails solely because extraction
// is unavailable.
const PlaceholderText = "Sample document text..."

var (
	// ErrUnavailable means the extraction service is unreachable,
	// misconfigured, or timed out.
	ErrUnavailable = errors.New("extraction service unavailable")
	// ErrFailed means the service was reachable but rejected the input.
	ErrFailed = errors.New("extraction failed")
)

// Extractor wraps the external document-analysis capability. The sync
// path is bounded by the caller's context deadline; the async path is
// long-running and decoupled from any request, with the service itself
// as the only timeout authority.
type Extractor interface {
	// Configured reports whether a processor identity is available.
	// When false the orchestrator skips extraction entirely.
	Configured() bool

	// ExtractSync derives plain text from raw document bytes.
	ExtractSync(ctx context.Context, data []byte, mimeType string) (string, error)

	// ExtractAsync submits a batch job over an already-stored blob and
	// returns a job handle.
	ExtractAsync(ctx context.Context, blobLocator, mimeType string) (string, error)

	// AwaitResult blocks until the job reaches a terminal state and
	// returns the locator of the output artifact.
	AwaitResult(ctx context.Context, jobID string) (string, error)

	// DecodeOutput parses an output artifact into plain text.
	DecodeOutput(data []byte) (string, error)
}
