package handlers

import (
	"github.com/clauselens/docserver/internal/ingest"
	"github.com/clauselens/docserver/pkg/logger"
)

// Handlers bundles all HTTP handlers for route registration.
type Handlers struct {
	Document *DocumentHandler
	Query    *QueryHandler
}

// NewHandlers builds the handler set over the ingestion service.
func NewHandlers(service ingest.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(service, log),
		Query:    NewQueryHandler(service, log),
	}
}
