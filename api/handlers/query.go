package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/docserver/api/middleware"
	"github.com/clauselens/docserver/internal/answer"
	"github.com/clauselens/docserver/internal/ingest"
	"github.com/clauselens/docserver/internal/recordstore"
	"github.com/clauselens/docserver/pkg/logger"
)

// QueryHandler serves identity echo and document Q&A.
type QueryHandler struct {
	service ingest.Service
	logger  logger.Logger
}

func NewQueryHandler(service ingest.Service, log logger.Logger) *QueryHandler {
	return &QueryHandler{service: service, logger: log}
}

// Me handles GET /me.
func (h *QueryHandler) Me(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": ident.UserID, "email": ident.Email})
}

type queryRequest struct {
	Query      string `json:"query" binding:"required"`
	DocumentID string `json:"documentId" binding:"required"`
}

// Query handles POST /query: a heuristic answer over the document's
// extracted text.
func (h *QueryHandler) Query(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query and documentId required"})
		return
	}

	rec, err := h.service.Status(c.Request.Context(), ident.UserID, req.DocumentID)
	if errors.Is(err, recordstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load document for query",
			logger.String("documentId", req.DocumentID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, answer.Answer(req.Query, rec.Text, rec.BlobPath))
}
