package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zots0127/vidstore/internal/domain/repository"
	"github.com/zots0127/vidstore/internal/observability"
	"github.com/zots0127/vidstore/internal/usecase"
)

// FileHandler adapts the ingestion coordinator to the HTTP surface.
// Failures map to a status code with an empty body; a client never sees a
// partial success.
type FileHandler struct {
	ingestor *usecase.Ingestor
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewFileHandler(ingestor *usecase.Ingestor, metrics *observability.Metrics, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		ingestor: ingestor,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes registers the file routes under the version prefix.
func (h *FileHandler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")

	v1.POST("/files", h.UploadFile)
	v1.GET("/files", h.ListFiles)
	v1.GET("/files/:fileid", h.GetFile)
	v1.DELETE("/files/:fileid", h.DeleteFile)
}

// listEntry is the client-facing record shape. The MIME type is
// deliberately not serialized in listings.
type listEntry struct {
	FileID    string `json:"fileid"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

func (h *FileHandler) UploadFile(c *gin.Context) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		h.metrics.RecordUpload("rejected", 0)
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := h.ingestor.Upload(c.Request.Context(), reader)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingField):
			h.metrics.RecordUpload("rejected", 0)
			c.Status(http.StatusBadRequest)
		case errors.Is(err, usecase.ErrUnsupportedMedia):
			h.metrics.RecordUpload("unsupported", 0)
			c.Status(http.StatusUnsupportedMediaType)
		case errors.Is(err, repository.ErrNameTaken):
			h.metrics.RecordUpload("conflict", 0)
			c.Status(http.StatusConflict)
		default:
			h.logger.Error("upload failed", zap.Error(err))
			h.metrics.RecordUpload("failed", 0)
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	h.metrics.RecordUpload("accepted", result.Size)
	c.Header("Location", "/v1/files/"+result.ID)
	c.Status(http.StatusCreated)
}

func (h *FileHandler) ListFiles(c *gin.Context) {
	records, err := h.ingestor.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	entries := make([]listEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, listEntry{
			FileID:    rec.ID,
			Name:      rec.Name,
			Size:      rec.Size,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, entries)
}

func (h *FileHandler) GetFile(c *gin.Context) {
	rec, rc, err := h.ingestor.Fetch(c.Request.Context(), c.Param("fileid"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.logger.Error("fetch failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	// The stored size is not used for Content-Length: a record whose
	// final size update was lost still has a complete blob behind it.
	c.Header("Content-Type", rec.Mime.String())
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": rec.Name,
	}))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("failed to stream blob",
			zap.String("id", rec.ID),
			zap.Error(err))
	}
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	err := h.ingestor.Remove(c.Request.Context(), c.Param("fileid"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.logger.Error("delete failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	h.metrics.RecordDelete()
	c.Status(http.StatusNoContent)
}
