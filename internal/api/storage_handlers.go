package api

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"veo-console/internal/backend"
	"veo-console/internal/logging"
	"veo-console/internal/presentation"
	"veo-console/internal/storage"
	"veo-console/internal/validation"
	"veo-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// VideoSource fournit le flux vidéo d'une opération terminée
type VideoSource interface {
	Download(ctx context.Context, operation string) (*backend.Video, error)
}

// ResultHandlers sert les vidéos générées: cache local d'abord, backend sinon
type ResultHandlers struct {
	source  VideoSource
	results *storage.ResultService
	logger  zerolog.Logger
}

func NewResultHandlers(source VideoSource, results *storage.ResultService, logger zerolog.Logger) *ResultHandlers {
	return &ResultHandlers{
		source:  source,
		results: results,
		logger:  logging.Component(logger, "results"),
	}
}

// Download diffuse la vidéo d'une opération
// @Summary Stream a generated video
// @Description Serves the stored copy when present, otherwise proxies the backend download. Add ?download=1 for an attachment.
// @Tags Results
// @Produce video/mp4
// @Param operation path string true "Operation name"
// @Param download query bool false "Force attachment"
// @Success 200 {file} file "Video stream"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Video not ready"
// @Failure 502 {object} models.ErrorResponse
// @Router /download/{operation} [get]
func (h *ResultHandlers) Download(c *gin.Context) {
	operation := c.GetString(validation.ValidatedOperation)
	disposition := "inline"
	if c.Query("download") != "" {
		disposition = "attachment"
	}

	if h.results != nil {
		reader, found, err := h.results.Open(c.Request.Context(), operation)
		if err != nil {
			h.logger.Warn().Err(err).Str("operation", operation).Msg("stored result unreadable, falling back to backend")
		} else if found {
			defer reader.Close()
			c.DataFromReader(http.StatusOK, -1, "video/mp4", reader, map[string]string{
				"Content-Disposition": contentDisposition(disposition, resultFilename(operation)),
			})
			return
		}
	}

	video, err := h.source.Download(c.Request.Context(), operation)
	if err != nil {
		h.respondDownloadError(c, operation, err)
		return
	}
	defer video.Body.Close()

	c.DataFromReader(http.StatusOK, video.Size, video.ContentType, video.Body, map[string]string{
		"Content-Disposition": contentDisposition(disposition, video.Filename),
	})
}

// SaveResult copie la vidéo d'une opération dans le stockage configuré
// @Summary Save a generated video
// @Tags Results
// @Produce json
// @Param operation path string true "Operation name"
// @Success 201 {object} models.SaveResultResponse
// @Success 200 {object} models.SaveResultResponse "Already stored"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Video not ready"
// @Failure 502 {object} models.ErrorResponse
// @Router /api/v1/results/{operation} [post]
func (h *ResultHandlers) SaveResult(c *gin.Context) {
	operation := c.GetString(validation.ValidatedOperation)
	ctx := c.Request.Context()

	if h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}

	filePath, err := storage.ResultPath(operation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.results.Exists(ctx, operation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if exists {
		c.JSON(http.StatusOK, h.saveResponse(ctx, operation, filePath, true))
		return
	}

	video, err := h.source.Download(ctx, operation)
	if err != nil {
		h.respondDownloadError(c, operation, err)
		return
	}
	defer video.Body.Close()

	if _, err := h.results.Save(ctx, operation, video.Body); err != nil {
		h.logger.Error().Err(err).Str("operation", operation).Msg("failed to save result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info().Str("operation", operation).Str("path", filePath).Msg("result saved")
	c.JSON(http.StatusCreated, h.saveResponse(ctx, operation, filePath, false))
}

// ListResults liste les résultats enregistrés
// @Summary List stored videos
// @Tags Results
// @Produce json
// @Success 200 {object} models.ResultListResponse
// @Failure 503 {object} models.ErrorResponse "Storage not configured"
// @Router /api/v1/results [get]
func (h *ResultHandlers) ListResults(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}

	operations, err := h.results.List(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stored := make([]models.StoredResult, 0, len(operations))
	for _, op := range operations {
		stored = append(stored, models.StoredResult{Operation: op, DownloadURL: presentation.DownloadURL(op)})
	}
	c.JSON(http.StatusOK, models.ResultListResponse{Results: stored, Count: len(stored)})
}

// DeleteResult supprime la copie enregistrée d'une opération
// @Summary Delete a stored video
// @Tags Results
// @Param operation path string true "Operation name"
// @Success 204 "Deleted"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Not stored"
// @Failure 503 {object} models.ErrorResponse "Storage not configured"
// @Router /api/v1/results/{operation} [delete]
func (h *ResultHandlers) DeleteResult(c *gin.Context) {
	operation := c.GetString(validation.ValidatedOperation)
	ctx := c.Request.Context()

	if h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}

	if _, err := storage.ResultPath(operation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.results.Exists(ctx, operation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not stored"})
		return
	}

	if err := h.results.Delete(ctx, operation); err != nil {
		h.logger.Error().Err(err).Str("operation", operation).Msg("failed to delete result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info().Str("operation", operation).Msg("result deleted")
	c.Status(http.StatusNoContent)
}

func (h *ResultHandlers) saveResponse(ctx context.Context, operation, filePath string, cached bool) models.SaveResultResponse {
	url, err := h.results.URL(ctx, operation)
	if err != nil {
		url = ""
	}
	return models.SaveResultResponse{
		Operation: operation,
		Path:      filePath,
		URL:       url,
		Cached:    cached,
	}
}

func (h *ResultHandlers) respondDownloadError(c *gin.Context, operation string, err error) {
	var transport *backend.TransportError

	switch {
	case errors.Is(err, backend.ErrResultNotReady):
		c.JSON(http.StatusNotFound, gin.H{"error": "video not ready"})
	case errors.As(err, &transport):
		h.logger.Warn().Err(err).Str("operation", operation).Msg("backend download failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": transport.UserMessage(), "kind": "transport"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// resultFilename dérive "<dernier segment>.mp4" du nom d'opération
func resultFilename(operation string) string {
	base := path.Base(strings.Trim(operation, "/"))
	if base == "." || base == "/" || base == "" {
		base = "video"
	}
	return base + ".mp4"
}

func contentDisposition(disposition, filename string) string {
	return mime.FormatMediaType(disposition, map[string]string{"filename": filename})
}
