package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/docserver/api/middleware"
	"github.com/clauselens/docserver/internal/ingest"
	"github.com/clauselens/docserver/internal/models"
	"github.com/clauselens/docserver/internal/recordstore"
	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/storage"
)

// DocumentHandler serves the upload, status and listing endpoints.
type DocumentHandler struct {
	service ingest.Service
	logger  logger.Logger
}

// UploadResponse is the synchronous ingestion response.
type UploadResponse struct {
	DocumentID string           `json:"documentId"`
	BlobPath   string           `json:"blobPath"`
	Analysis   AnalysisResponse `json:"analysis"`
	Status     string           `json:"status"`
	Message    string           `json:"message"`
	Warning    string           `json:"warning,omitempty"`
}

// AnalysisResponse carries the extraction outcome.
type AnalysisResponse struct {
	Text string `json:"text"`
	Note string `json:"note,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewDocumentHandler(service ingest.Service, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, logger: log}
}

// Upload handles POST /upload: synchronous ingestion.
func (h *DocumentHandler) Upload(c *gin.Context) {
	req, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		h.ingestError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		DocumentID: result.DocumentID,
		BlobPath:   result.BlobPath,
		Analysis:   AnalysisResponse{Text: result.Text, Note: result.Note},
		Status:     string(result.Status),
		Message:    result.Message,
		Warning:    result.Warning,
	})
}

// UploadBackground handles POST /upload/background: the response is
// returned before extraction completes.
func (h *DocumentHandler) UploadBackground(c *gin.Context) {
	req, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.service.IngestBackground(c.Request.Context(), req)
	if err != nil {
		h.ingestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documentId": result.DocumentID,
		"status":     string(result.Status),
		"message":    result.Message,
		"warning":    result.Warning,
	})
}

// Status handles GET /status/:documentId.
func (h *DocumentHandler) Status(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	documentID := c.Param("documentId")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "documentId is required"})
		return
	}

	rec, err := h.service.Status(c.Request.Context(), ident.UserID, documentID)
	if errors.Is(err, recordstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// List handles GET /documents: the caller's records, newest first.
func (h *DocumentHandler) List(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return
	}

	records, err := h.service.List(c.Request.Context(), ident.UserID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	type listedDocument struct {
		*models.DocumentRecord
		ID string `json:"id"`
	}
	documents := make([]listedDocument, 0, len(records))
	for _, rec := range records {
		documents = append(documents, listedDocument{DocumentRecord: rec, ID: rec.DocumentID})
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

// readUpload pulls the identity and multipart file out of the request.
func (h *DocumentHandler) readUpload(c *gin.Context) (*models.UploadRequest, bool) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing identity"})
		return nil, false
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Failed to read upload", err)
		return nil, false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &models.UploadRequest{
		OwnerID:  ident.UserID,
		Filename: header.Filename,
		MimeType: mimeType,
		Data:     data,
	}, true
}

// ingestError maps pipeline hard failures onto HTTP status codes.
func (h *DocumentHandler) ingestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrPayloadTooLarge):
		h.handleError(c, http.StatusBadRequest, "File exceeds upload size limit", err)
	case errors.Is(err, storage.ErrUnavailable):
		h.handleError(c, http.StatusInternalServerError, "Upload storage unavailable", err)
	default:
		h.handleError(c, http.StatusInternalServerError, "Upload failed", err)
	}
}

func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

// healthResponse keeps /health stable for load balancers.
type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
}
