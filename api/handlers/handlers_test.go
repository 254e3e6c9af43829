package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/docserver/api/handlers"
	"github.com/clauselens/docserver/api/routes"
	"github.com/clauselens/docserver/internal/auth"
	"github.com/clauselens/docserver/internal/models"
	"github.com/clauselens/docserver/internal/recordstore"
	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/queue"
	"github.com/clauselens/docserver/pkg/storage"
)

// stubService scripts the ingestion service per test.
type stubService struct {
	ingestResult     *models.IngestResult
	ingestErr        error
	backgroundResult *models.IngestResult
	backgroundErr    error
	statusRecord     *models.DocumentRecord
	statusErr        error
	listRecords      []*models.DocumentRecord
	listErr          error

	lastUpload *models.UploadRequest
}

func (s *stubService) Ingest(ctx context.Context, req *models.UploadRequest) (*models.IngestResult, error) {
	s.lastUpload = req
	return s.ingestResult, s.ingestErr
}

func (s *stubService) IngestBackground(ctx context.Context, req *models.UploadRequest) (*models.IngestResult, error) {
	s.lastUpload = req
	return s.backgroundResult, s.backgroundErr
}

func (s *stubService) RunExtraction(ctx context.Context, job *queue.Job) error { return nil }

func (s *stubService) Status(ctx context.Context, ownerID, documentID string) (*models.DocumentRecord, error) {
	return s.statusRecord, s.statusErr
}

func (s *stubService) List(ctx context.Context, ownerID string) ([]*models.DocumentRecord, error) {
	return s.listRecords, s.listErr
}

func newTestRouter(service *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewHandlers(service, logger.NewTestLogger())
	verifier := auth.NewStaticVerifier("tok-alice=alice:alice@example.com")
	routes.SetupRoutes(r, h, verifier)
	return r
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(r *gin.Engine, method, path string, body *bytes.Buffer, contentType, token string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadRequiresAuth(t *testing.T) {
	r := newTestRouter(&stubService{})

	body, contentType := multipartBody(t, "lease.pdf", []byte("data"))
	w := doRequest(r, http.MethodPost, "/api/upload", body, contentType, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body, contentType = multipartBody(t, "lease.pdf", []byte("data"))
	w = doRequest(r, http.MethodPost, "/api/upload", body, contentType, "bogus")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadNoFile(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doRequest(r, http.MethodPost, "/api/upload", nil, "multipart/form-data", "tok-alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file uploaded")
}

func TestUploadSuccess(t *testing.T) {
	service := &stubService{
		ingestResult: &models.IngestResult{
			DocumentID: "doc_1",
			BlobPath:   "s3://bucket/users/alice/doc_1_lease.pdf",
			Text:       "extracted text",
			Status:     models.StatusProcessed,
			Message:    "Uploaded and processed successfully",
		},
	}
	r := newTestRouter(service)

	body, contentType := multipartBody(t, "lease.pdf", []byte("pdf bytes"))
	w := doRequest(r, http.MethodPost, "/api/upload", body, contentType, "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc_1", resp.DocumentID)
	assert.Equal(t, "processed", resp.Status)
	assert.Equal(t, "extracted text", resp.Analysis.Text)
	assert.Empty(t, resp.Warning)

	// The verified identity, not anything client-supplied, becomes the owner.
	require.NotNil(t, service.lastUpload)
	assert.Equal(t, "alice", service.lastUpload.OwnerID)
	assert.Equal(t, "lease.pdf", service.lastUpload.Filename)
	assert.Equal(t, []byte("pdf bytes"), service.lastUpload.Data)
}

func TestUploadStorageFailures(t *testing.T) {
	r := newTestRouter(&stubService{ingestErr: storageTooLarge()})
	body, contentType := multipartBody(t, "huge.pdf", []byte("data"))
	w := doRequest(r, http.MethodPost, "/api/upload", body, contentType, "tok-alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = newTestRouter(&stubService{ingestErr: storageDown()})
	body, contentType = multipartBody(t, "lease.pdf", []byte("data"))
	w = doRequest(r, http.MethodPost, "/api/upload", body, contentType, "tok-alice")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUploadBackgroundAccepted(t *testing.T) {
	service := &stubService{
		backgroundResult: &models.IngestResult{
			DocumentID: "doc_2",
			Status:     models.StatusPending,
			Message:    "Processing started",
		},
	}
	r := newTestRouter(service)

	body, contentType := multipartBody(t, "big.pdf", []byte("many bytes"))
	w := doRequest(r, http.MethodPost, "/api/upload/background", body, contentType, "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc_2", resp["documentId"])
	assert.Equal(t, "pending", resp["status"])
}

func TestStatusNotFound(t *testing.T) {
	r := newTestRouter(&stubService{statusErr: recordstore.ErrNotFound})

	w := doRequest(r, http.MethodGet, "/api/status/doc_missing", nil, "", "tok-alice")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestStatusFound(t *testing.T) {
	r := newTestRouter(&stubService{
		statusRecord: &models.DocumentRecord{
			DocumentID: "doc_1",
			OwnerID:    "alice",
			Status:     models.StatusProcessed,
			Text:       "text",
			CreatedAt:  time.Now().UTC(),
			UpdatedAt:  time.Now().UTC(),
		},
	})

	w := doRequest(r, http.MethodGet, "/api/status/doc_1", nil, "", "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc_1", resp["documentId"])
	assert.Equal(t, "processed", resp["status"])
}

func TestStatusDegradedUnknown(t *testing.T) {
	r := newTestRouter(&stubService{
		statusRecord: &models.DocumentRecord{
			DocumentID: "doc_1",
			OwnerID:    "alice",
			Status:     models.StatusUnknown,
		},
	})

	w := doRequest(r, http.MethodGet, "/api/status/doc_1", nil, "", "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unknown"`)
}

func TestListDocuments(t *testing.T) {
	r := newTestRouter(&stubService{
		listRecords: []*models.DocumentRecord{
			{DocumentID: "doc_2", OwnerID: "alice", Status: models.StatusProcessed},
			{DocumentID: "doc_1", OwnerID: "alice", Status: models.StatusProcessed},
		},
	})

	w := doRequest(r, http.MethodGet, "/api/documents", nil, "", "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Documents []map[string]any `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "doc_2", resp.Documents[0]["documentId"])
	assert.Equal(t, "doc_2", resp.Documents[0]["id"])
}

func TestMe(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doRequest(r, http.MethodGet, "/api/me", nil, "", "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"alice"`)
	assert.Contains(t, w.Body.String(), `"email":"alice@example.com"`)
}

func TestQuery(t *testing.T) {
	r := newTestRouter(&stubService{
		statusRecord: &models.DocumentRecord{
			DocumentID: "doc_1",
			OwnerID:    "alice",
			Status:     models.StatusProcessed,
			Text:       "The tenant shall indemnify the landlord.",
			BlobPath:   "s3://bucket/users/alice/doc_1_lease.pdf",
		},
	})

	body := bytes.NewBufferString(`{"query": "What are the risks?", "documentId": "doc_1"}`)
	w := doRequest(r, http.MethodPost, "/api/query", body, "application/json", "tok-alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["answer"], "HIGH RISK")
	assert.Equal(t, []any{"s3://bucket/users/alice/doc_1_lease.pdf"}, resp["sources"])
}

func TestQueryValidation(t *testing.T) {
	r := newTestRouter(&stubService{})

	body := bytes.NewBufferString(`{"query": "risks only"}`)
	w := doRequest(r, http.MethodPost, "/api/query", body, "application/json", "tok-alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryDocumentNotFound(t *testing.T) {
	r := newTestRouter(&stubService{statusErr: recordstore.ErrNotFound})

	body := bytes.NewBufferString(`{"query": "risks", "documentId": "doc_missing"}`)
	w := doRequest(r, http.MethodPost, "/api/query", body, "application/json", "tok-alice")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthIsPublic(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doRequest(r, http.MethodGet, "/health", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func storageTooLarge() error {
	return fmt.Errorf("upload of 20971520 bytes: %w", storage.ErrPayloadTooLarge)
}

func storageDown() error {
	return fmt.Errorf("put object: %w", storage.ErrUnavailable)
}
