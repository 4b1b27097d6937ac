package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zots0127/vidstore/internal/infrastructure/blob"
	"github.com/zots0127/vidstore/internal/infrastructure/catalog"
	"github.com/zots0127/vidstore/internal/observability"
	"github.com/zots0127/vidstore/internal/usecase"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	blobs, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	validator := usecase.NewMimeValidator([]string{"video/mp4", "video/mpeg"})
	ingestor := usecase.NewIngestor(cat, blobs, validator, 4, 16*1024, zap.NewNop())

	return NewRouter(ingestor, observability.InitMetrics(), zap.NewNop())
}

func uploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	disposition := `form-data; name="` + field + `"`
	if filename != "" {
		disposition += `; filename="` + filename + `"`
	}
	header.Set("Content-Disposition", disposition)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	pw, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = pw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doUpload(t *testing.T, router *gin.Engine, filename string, content []byte) string {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "data", filename, "video/mp4", content))
	require.Equal(t, http.StatusCreated, rec.Code)

	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/v1/files/"))
	return strings.TrimPrefix(location, "/v1/files/")
}

func listFiles(t *testing.T, router *gin.Engine) []map[string]interface{} {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	return entries
}

func TestUploadRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	content := bytes.Repeat([]byte("frame-data"), 10000)

	id := doUpload(t, router, "movie.mp4", content)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/files/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename=movie.mp4`, rec.Header().Get("Content-Disposition"))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)

	entries := listFiles(t, router)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0]["fileid"])
	assert.Equal(t, "movie.mp4", entries[0]["name"])
	assert.Equal(t, float64(len(content)), entries[0]["size"])

	_, err = time.Parse(time.RFC3339, entries[0]["created_at"].(string))
	assert.NoError(t, err)
}

func TestUploadEmptyFileAccepted(t *testing.T) {
	router := newTestRouter(t)

	id := doUpload(t, router, "empty.mp4", nil)

	entries := listFiles(t, router)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0]["fileid"])
	assert.Equal(t, float64(0), entries[0]["size"])
}

func TestUploadMissingDataField(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "attachment", "movie.mp4", "video/mp4", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestUploadWithoutMultipartBody(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/files", strings.NewReader("raw")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadUnsupportedMediaType(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "data", "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	// Rejection happens before any record is created.
	assert.Empty(t, listFiles(t, router))
}

func TestUploadDuplicateName(t *testing.T) {
	router := newTestRouter(t)

	doUpload(t, router, "movie.mp4", []byte("first"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "data", "movie.mp4", "video/mp4", []byte("second")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Len(t, listFiles(t, router), 1)
}

func TestDeleteFile(t *testing.T) {
	router := newTestRouter(t)

	id := doUpload(t, router, "movie.mp4", []byte("bytes"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/files/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/files/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Idempotent against repeated deletes.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/files/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, listFiles(t, router))
}

func TestGetUnknownAndMalformedIDs(t *testing.T) {
	router := newTestRouter(t)

	for _, id := range []string{"b2c7a9ce-7b23-4d1a-9f6e-08f1f9a9b8aa", "garbage"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/files/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/files/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestListEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListAfterUploads(t *testing.T) {
	router := newTestRouter(t)

	ids := map[string]bool{}
	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		ids[doUpload(t, router, name, []byte(name))] = true
	}
	require.Len(t, ids, 3)

	entries := listFiles(t, router)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, ids[e["fileid"].(string)])
	}
}

func TestHealthAndIndexAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "multipart/form-data")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vidstore_uploaded_bytes_total")
}
