package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"veo-console/internal/validation"
	"veo-console/pkg/models"

	"github.com/gin-gonic/gin"
)

const maxMultipartMemory = 32 << 20

// parseGenerationForm lit le formulaire (multipart ou urlencoded) sans le
// valider: les règles métier sont appliquées par le service de jobs.
func parseGenerationForm(c *gin.Context, flow models.Flow, validator *validation.APIValidator) (*models.GenerationForm, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}

	form := &models.GenerationForm{
		Flow:                  flow,
		Prompt:                c.PostForm("prompt"),
		PreviousOperationName: strings.TrimSpace(c.PostForm(models.FieldPreviousOperationName)),
		Settings: models.Settings{
			Model:           models.Model(c.PostForm("model")),
			AspectRatio:     models.AspectRatio(c.PostForm("aspect_ratio")),
			Resolution:      models.Resolution(c.PostForm("resolution")),
			DurationSeconds: parseDuration(c.PostForm("duration_seconds")),
		},
	}

	var files map[string][]*multipart.FileHeader
	if c.Request.MultipartForm != nil {
		files = c.Request.MultipartForm.File
	}

	sanitize := validation.SanitizeFilename
	if validator != nil {
		sanitize = validator.SanitizeFilename
	}

	first := func(field string) *models.Upload {
		if !flow.AcceptsUpload(field) {
			return nil
		}
		if headers := files[field]; len(headers) > 0 {
			return uploadFromHeader(field, headers[0], sanitize)
		}
		return nil
	}

	form.Image = first(models.FieldImage)
	form.FirstFrame = first(models.FieldFirstFrame)
	form.LastFrame = first(models.FieldLastFrame)
	form.BaseVideo = first(models.FieldBaseVideo)
	if !flow.AcceptsUpload(models.FieldImages) {
		return form, nil
	}
	for _, header := range files[models.FieldImages] {
		form.Images = append(form.Images, uploadFromHeader(models.FieldImages, header, sanitize))
	}

	return form, nil
}

// parseDuration retourne 0 pour un champ vide (valeur par défaut) et -1
// pour une valeur illisible, rejetée ensuite par la validation.
func parseDuration(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func uploadFromHeader(field string, header *multipart.FileHeader, sanitize func(string) string) *models.Upload {
	return &models.Upload{
		Field:       field,
		Filename:    sanitize(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
