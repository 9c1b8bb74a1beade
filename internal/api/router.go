package api

import (
	"time"

	"veo-console/internal/jobs"
	"veo-console/internal/logging"
	"veo-console/internal/storage"
	"veo-console/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig regroupe les dépendances des routes de la console
type RouterConfig struct {
	JobService        jobs.JobService
	Videos            VideoSource
	Results           *storage.ResultService
	Validator         *validation.APIValidator
	Logger            zerolog.Logger
	PollInterval      time.Duration
	RequestsPerMinute int
	AllowedOrigin     string
	Environment       string
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Validator == nil {
		cfg.Validator = validation.NewAPIValidator(nil)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(cfg.Logger))
	r.Use(SecurityHeadersMiddleware(cfg.AllowedOrigin))
	r.Use(StandardErrorResponse())
	r.Use(validation.Middleware(cfg.Validator))

	handlers := NewHandlers(cfg.JobService, cfg.Validator, cfg.PollInterval, cfg.Logger)
	results := NewResultHandlers(cfg.Videos, cfg.Results, cfg.Logger)

	sessionParam := validation.ValidateSessionIDParam("session_id")
	jobParam := validation.ValidateOperationParam("job_id")

	// Routes
	r.GET("/health", handlers.Health)
	r.GET("/download/*operation",
		validation.ValidateRequest(validation.ValidateOperationParam("operation")),
		results.Download)

	api := r.Group("/api/v1")
	{
		api.POST("/sessions", handlers.OpenSession)
		api.GET("/pollers/stats", handlers.PollerStats)
		api.POST("/results/*operation",
			validation.ValidateRequest(validation.ValidateOperationParam("operation")),
			results.SaveResult)
		api.DELETE("/results/*operation",
			validation.ValidateRequest(validation.ValidateOperationParam("operation")),
			results.DeleteResult)
		api.GET("/results", results.ListResults)

		sessions := api.Group("/sessions/:session_id")
		sessions.Use(validation.ValidateRequest(sessionParam))
		{
			sessions.DELETE("", handlers.CloseSession)
			sessions.GET("/events", handlers.Events)
			sessions.POST("/generate/:flow",
				RateLimitMiddleware(cfg.RequestsPerMinute),
				validation.ValidateRequest(validation.ValidateFlowParam("flow")),
				handlers.Generate)
			sessions.GET("/jobs", handlers.ListJobs)
			sessions.GET("/jobs/*job_id", validation.ValidateRequest(jobParam), handlers.GetJob)
			sessions.PUT("/pollers/*job_id", validation.ValidateRequest(jobParam), handlers.MountJob)
			sessions.DELETE("/pollers/*job_id", validation.ValidateRequest(jobParam), handlers.UnmountJob)
		}
	}

	SetupSwagger(r, cfg.Environment)

	return r
}
