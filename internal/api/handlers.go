package api

import (
	"errors"
	"net/http"
	"time"

	"veo-console/internal/backend"
	"veo-console/internal/jobs"
	"veo-console/internal/logging"
	"veo-console/internal/poller"
	"veo-console/internal/presentation"
	"veo-console/internal/validation"
	"veo-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const serviceName = "veo-console"

type Handlers struct {
	jobService   jobs.JobService
	validator    *validation.APIValidator
	pollInterval time.Duration
	logger       zerolog.Logger
}

func NewHandlers(jobService jobs.JobService, apiValidator *validation.APIValidator, pollInterval time.Duration, logger zerolog.Logger) *Handlers {
	return &Handlers{
		jobService:   jobService,
		validator:    apiValidator,
		pollInterval: pollInterval,
		logger:       logging.Component(logger, "api"),
	}
}

// Health check
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
	})
}

// OpenSession ouvre une session pour une page de la console
// @Summary Open a console session
// @Tags Sessions
// @Produce json
// @Success 201 {object} models.SessionResponse
// @Router /api/v1/sessions [post]
func (h *Handlers) OpenSession(c *gin.Context) {
	session, err := h.jobService.OpenSession(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, models.SessionResponse{
		Session:   *session,
		EventsURL: "/api/v1/sessions/" + session.ID + "/events",
	})
}

// CloseSession ferme la page: tous les pollers de la session sont arrêtés
// @Summary Close a console session
// @Tags Sessions
// @Param session_id path string true "Session ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/sessions/{session_id} [delete]
func (h *Handlers) CloseSession(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)

	if err := h.jobService.CloseSession(c.Request.Context(), sessionID); err != nil {
		h.respondJobError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Generate soumet un formulaire multipart au backend pour le flow demandé
// @Summary Submit a generation job
// @Description Validates the form, forwards it to the generation backend and starts polling the new job
// @Tags Jobs
// @Accept multipart/form-data
// @Produce json
// @Param session_id path string true "Session ID"
// @Param flow path string true "Generation flow" Enums(text_to_video, image_to_video, reference_images, first_last, extend)
// @Param prompt formData string false "Prompt"
// @Param model formData string false "Model" Enums(fast-preview, quality-preview)
// @Param aspect_ratio formData string false "Aspect ratio" Enums(16:9, 9:16)
// @Param resolution formData string false "Resolution" Enums(1080p, 720p)
// @Param duration_seconds formData int false "Duration" Enums(4, 6, 8)
// @Param image formData file false "Source image (image_to_video)"
// @Param images formData file false "Reference images, up to 3 (reference_images)"
// @Param first_frame formData file false "First frame (first_last)"
// @Param last_frame formData file false "Last frame (first_last)"
// @Param base_video formData file false "Base video (extend)"
// @Param previous_operation_name formData string false "Previous operation (extend)"
// @Success 201 {object} presentation.JobView
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 404 {object} models.ErrorResponse "Session not found"
// @Failure 502 {object} models.ErrorResponse "Backend rejected the job or was unreachable"
// @Router /api/v1/sessions/{session_id}/generate/{flow} [post]
func (h *Handlers) Generate(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)
	flow := c.MustGet(validation.ValidatedFlow).(models.Flow)

	form, err := parseGenerationForm(c, flow, h.validator)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form: " + err.Error()})
		return
	}

	job, err := h.jobService.Submit(c.Request.Context(), sessionID, form)
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presentation.NewJobView(job))
}

// respondSubmitError traduit la taxonomie d'erreurs de soumission en réponse HTTP
func (h *Handlers) respondSubmitError(c *gin.Context, err error) {
	var validationResult *validation.ValidationResult
	var rejected *backend.RejectedError
	var transport *backend.TransportError

	switch {
	case errors.As(err, &validationResult):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             validationResult.Error(),
			"validation_errors": validationResult.Errors,
		})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": rejected.Error(),
			"kind":  "rejected",
			"raw":   rejected.Raw,
		})
	case errors.As(err, &transport):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": transport.UserMessage(),
			"kind":  "transport",
		})
	default:
		h.respondJobError(c, err)
	}
}

// respondJobError gère les sentinelles du service de jobs
func (h *Handlers) respondJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, jobs.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, poller.ErrAlreadyPolling), errors.Is(err, poller.ErrTerminalStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListJobs liste les jobs de la session, plus récent en tête
// @Summary List session jobs
// @Tags Jobs
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {array} presentation.JobView
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/sessions/{session_id}/jobs [get]
func (h *Handlers) ListJobs(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)

	list, err := h.jobService.ListJobs(c.Request.Context(), sessionID)
	if err != nil {
		h.respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": presentation.NewJobViews(list)})
}

// GetJob retourne la vue d'un job
// @Summary Get a job
// @Tags Jobs
// @Produce json
// @Param session_id path string true "Session ID"
// @Param job_id path string true "Job ID (operation name)"
// @Success 200 {object} presentation.JobView
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/sessions/{session_id}/jobs/{job_id} [get]
func (h *Handlers) GetJob(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)
	jobID := c.GetString(validation.ValidatedOperation)

	job, err := h.jobService.GetJob(c.Request.Context(), sessionID, jobID)
	if err != nil {
		h.respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentation.NewJobView(job))
}

// MountJob relance le polling d'un job non terminal
// @Summary Resume polling a job
// @Tags Pollers
// @Produce json
// @Param session_id path string true "Session ID"
// @Param job_id path string true "Job ID (operation name)"
// @Success 200 {object} presentation.JobView
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Already polling or terminal"
// @Router /api/v1/sessions/{session_id}/pollers/{job_id} [put]
func (h *Handlers) MountJob(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)
	jobID := c.GetString(validation.ValidatedOperation)

	job, err := h.jobService.Mount(c.Request.Context(), sessionID, jobID)
	if err != nil {
		h.respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentation.NewJobView(job))
}

// UnmountJob arrête le polling d'un job; il garde son dernier statut
// @Summary Stop polling a job
// @Tags Pollers
// @Produce json
// @Param session_id path string true "Session ID"
// @Param job_id path string true "Job ID (operation name)"
// @Success 200 {object} presentation.JobView
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/sessions/{session_id}/pollers/{job_id} [delete]
func (h *Handlers) UnmountJob(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)
	jobID := c.GetString(validation.ValidatedOperation)

	job, err := h.jobService.Unmount(c.Request.Context(), sessionID, jobID)
	if err != nil {
		h.respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentation.NewJobView(job))
}

// PollerStats retourne les compteurs du pool de pollers
// @Summary Poller statistics
// @Tags Pollers
// @Produce json
// @Success 200 {object} models.PollerStatsResponse
// @Router /api/v1/pollers/stats [get]
func (h *Handlers) PollerStats(c *gin.Context) {
	c.JSON(http.StatusOK, models.PollerStatsResponse{
		Pollers:      h.jobService.PollerStats(),
		Sessions:     h.jobService.SessionCount(c.Request.Context()),
		PollInterval: h.pollInterval.String(),
		Timestamp:    time.Now().UTC(),
	})
}
