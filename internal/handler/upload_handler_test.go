package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	"github.com/noah-isme/timetable-intake-api/internal/service"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
)

type mockIngestRunner struct {
	uploads *service.UploadSet
	summary *dto.IngestSummary
	runErr  error
	counts  map[string]int
}

func (m *mockIngestRunner) Run(ctx context.Context, uploads service.UploadSet) (*dto.IngestSummary, error) {
	m.uploads = &uploads
	if m.runErr != nil {
		return nil, m.runErr
	}
	return m.summary, nil
}

func (m *mockIngestRunner) Counts(ctx context.Context) (map[string]int, error) {
	if m.counts == nil {
		return nil, assert.AnError
	}
	return m.counts, nil
}

type mockUploadSaver struct {
	saved   []string
	removed []string
	saveErr error
}

func (m *mockUploadSaver) Save(field string, header *multipart.FileHeader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	path := "/tmp/spool/" + field
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *mockUploadSaver) RemoveAll(paths []string) error {
	m.removed = append(m.removed, paths...)
	return nil
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func uploadRouter(ingest *mockIngestRunner, spool *mockUploadSaver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewUploadHandler(ingest, spool, nil, nil)
	router.GET("/", h.Overview)
	router.POST("/upload", h.Upload)
	return router
}

func multipartUpload(t *testing.T, fields ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, field := range fields {
		part, err := writer.CreateFormFile(field, field+".xlsx")
		require.NoError(t, err)
		_, err = part.Write([]byte("workbook-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadOverview(t *testing.T) {
	ingest := &mockIngestRunner{counts: map[string]int{"teachers": 3, "subjects": 5}}
	router := uploadRouter(ingest, &mockUploadSaver{})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"teachersFile"`)
	assert.Contains(t, resp.Body.String(), `"teachers":3`)
}

func TestUploadOverviewCountsUnavailable(t *testing.T) {
	router := uploadRouter(&mockIngestRunner{}, &mockUploadSaver{})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "collection counts unavailable")
}

func TestUploadRedirectsOnSuccess(t *testing.T) {
	ingest := &mockIngestRunner{summary: &dto.IngestSummary{Teachers: 1, Subjects: 1, Rooms: 1}}
	spool := &mockUploadSaver{}
	router := uploadRouter(ingest, spool)

	body, contentType := multipartUpload(t, "teachersFile", "subjectsFile", "roomsFile", "fixedSlotsFile")
	req, _ := http.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/assign-teachers", resp.Header().Get("Location"))

	require.NotNil(t, ingest.uploads)
	assert.Equal(t, "/tmp/spool/teachersFile", ingest.uploads.Teachers)
	assert.Equal(t, "/tmp/spool/fixedSlotsFile", ingest.uploads.FixedSlots)
	assert.Len(t, spool.saved, 4)
}

func TestUploadOptionalFixedSlotsOmitted(t *testing.T) {
	ingest := &mockIngestRunner{summary: &dto.IngestSummary{}}
	router := uploadRouter(ingest, &mockUploadSaver{})

	body, contentType := multipartUpload(t, "teachersFile", "subjectsFile", "roomsFile")
	req, _ := http.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Empty(t, ingest.uploads.FixedSlots)
}

func TestUploadMissingRequiredFile(t *testing.T) {
	ingest := &mockIngestRunner{}
	spool := &mockUploadSaver{}
	router := uploadRouter(ingest, spool)

	body, contentType := multipartUpload(t, "teachersFile", "roomsFile")
	req, _ := http.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "subjectsFile")
	assert.Nil(t, ingest.uploads)
	assert.Empty(t, spool.saved)
}

func TestUploadIngestFailureReturnsEnvelope(t *testing.T) {
	ingest := &mockIngestRunner{runErr: appErrors.Clone(appErrors.ErrRowValidation, "teachers row 3: missing mis_id")}
	router := uploadRouter(ingest, &mockUploadSaver{})

	body, contentType := multipartUpload(t, "teachersFile", "subjectsFile", "roomsFile")
	req, _ := http.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "missing mis_id")
}

func TestUploadSaveFailureCleansSpooledFiles(t *testing.T) {
	spool := &mockUploadSaver{saveErr: assert.AnError}
	router := uploadRouter(&mockIngestRunner{}, spool)

	body, contentType := multipartUpload(t, "teachersFile", "subjectsFile", "roomsFile")
	req, _ := http.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Empty(t, spool.removed, "nothing was saved before the first failure")
}
