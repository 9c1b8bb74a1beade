package jobs

import (
	"context"
	"time"

	"veo-console/internal/backend"
	"veo-console/pkg/models"
)

// Submitter envoie un formulaire au backend de génération
type Submitter interface {
	Submit(ctx context.Context, form *models.GenerationForm) (*backend.SubmitResult, error)
}

type JobService interface {
	OpenSession(ctx context.Context) (*models.Session, error)
	CloseSession(ctx context.Context, sessionID string) error
	Submit(ctx context.Context, sessionID string, form *models.GenerationForm) (*models.Job, error)
	GetJob(ctx context.Context, sessionID, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, sessionID string) ([]*models.Job, error)
	Mount(ctx context.Context, sessionID, jobID string) (*models.Job, error)
	Unmount(ctx context.Context, sessionID, jobID string) (*models.Job, error)
	Subscribe(ctx context.Context, sessionID string) (<-chan models.JobEvent, func(), error)
	CleanupIdleSessions(ctx context.Context, maxIdle time.Duration) (int, error)
	PollerStats() models.PollerStats
	SessionCount(ctx context.Context) int
	Shutdown()
}
