package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"veo-console/internal/logging"
	"veo-console/internal/poller"
	"veo-console/internal/validation"
	"veo-console/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxFallbackSuffix = 1000

type jobServiceImpl struct {
	repo      JobRepository
	backend   Submitter
	validator *validation.APIValidator
	pool      *poller.Pool
	events    *EventBroker
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

func NewJobServiceImpl(
	repo JobRepository,
	backend Submitter,
	validator *validation.APIValidator,
	pool *poller.Pool,
	events *EventBroker,
	logger zerolog.Logger,
) JobService {
	if validator == nil {
		validator = validation.NewAPIValidator(nil)
	}
	return &jobServiceImpl{
		repo:      repo,
		backend:   backend,
		validator: validator,
		pool:      pool,
		events:    events,
		tracer:    otel.Tracer("veo-console/jobs"),
		logger:    logging.Component(logger, "jobs"),
		now:       time.Now,
	}
}

func (s *jobServiceImpl) OpenSession(ctx context.Context) (*models.Session, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.OpenSession")
	defer span.End()

	session := &models.Session{ID: uuid.New().String()}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().Str("session_id", session.ID).Msg("session opened")
	return session, nil
}

// CloseSession oublie la session puis arrête ses pollers. La suppression
// passe en premier: un poller démarré après le balayage voit la session
// absente et s'arrête (voir startPoller).
func (s *jobServiceImpl) CloseSession(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "JobService.CloseSession",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
		}
		return err
	}

	stopped := s.pool.StopSession(sessionID)
	s.events.CloseSession(sessionID)

	s.logger.Info().
		Str("session_id", sessionID).
		Int("pollers_stopped", stopped).
		Msg("session closed")
	return nil
}

// Submit valide le formulaire, l'envoie au backend puis enregistre le job
// en tête de liste et démarre son poller. Une erreur de validation est
// retournée telle quelle (*validation.ValidationResult), sans appel réseau.
func (s *jobServiceImpl) Submit(ctx context.Context, sessionID string, form *models.GenerationForm) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.Submit",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	if err := s.repo.TouchSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if form == nil {
		form = &models.GenerationForm{}
	}

	if result := s.validator.ValidateGenerationForm(form); !result.Valid {
		s.logger.Debug().
			Str("session_id", sessionID).
			Str("flow", string(form.Flow)).
			Str("reason", result.Error()).
			Msg("submission rejected by validation")
		return nil, result
	}
	span.SetAttributes(attribute.String("flow", string(form.Flow)))

	res, err := s.backend.Submit(ctx, form)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).
			Str("session_id", sessionID).
			Str("flow", string(form.Flow)).
			Msg("backend submission failed")
		return nil, fmt.Errorf("failed to submit %s job: %w", form.Flow, err)
	}

	job := &models.Job{
		ID:        res.OperationName,
		Status:    models.StatusQueued,
		Prompt:    form.Prompt,
		Type:      form.Flow,
		CreatedAt: s.now(),
	}

	if err := s.register(ctx, sessionID, job); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.events.Publish(models.JobEvent{Type: models.EventJobCreated, SessionID: sessionID, Job: *job})

	if err := s.startPoller(ctx, sessionID, job); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
			return nil, err
		}
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("poller not started")
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("job_id", job.ID).
		Str("flow", string(job.Type)).
		Msg("job submitted")
	return job, nil
}

// register insère le job. Sans nom d'opération l'id est l'heure de soumission
// en millisecondes, suffixé en cas de collision.
func (s *jobServiceImpl) register(ctx context.Context, sessionID string, job *models.Job) error {
	if job.ID != "" {
		if err := s.repo.Prepend(ctx, sessionID, job); err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.ID, err)
		}
		return nil
	}

	base := strconv.FormatInt(job.CreatedAt.UnixMilli(), 10)
	job.ID = base
	for n := 2; n <= maxFallbackSuffix; n++ {
		err := s.repo.Prepend(ctx, sessionID, job)
		if !errors.Is(err, ErrDuplicateJob) {
			if err != nil {
				return fmt.Errorf("failed to register job %s: %w", job.ID, err)
			}
			s.logger.Warn().Str("job_id", job.ID).Msg("backend returned no operation name, using fallback id")
			return nil
		}
		job.ID = fmt.Sprintf("%s-%d", base, n)
	}
	return fmt.Errorf("failed to register job %s: %w", base, ErrDuplicateJob)
}

// startPoller branche le poller sur le dépôt et le flux d'événements. Le
// poller s'arrête de lui-même si son job ou sa session disparaît.
func (s *jobServiceImpl) startPoller(ctx context.Context, sessionID string, job *models.Job) error {
	key := poller.Key{SessionID: sessionID, JobID: job.ID}

	handle, err := s.pool.Start(key, job.Status, func(status models.JobStatus) bool {
		updated, changed, err := s.repo.UpdateStatus(context.Background(), sessionID, job.ID, status)
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrJobNotFound) {
			return false
		}
		if err == nil && changed {
			s.events.Publish(models.JobEvent{Type: models.EventJobStatus, SessionID: sessionID, Job: *updated})
		}
		return true
	})
	if err != nil {
		return err
	}

	// session fermée pendant le démarrage: StopSession est déjà passé
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		handle.Stop()
		return err
	}
	return nil
}

func (s *jobServiceImpl) GetJob(ctx context.Context, sessionID, jobID string) (*models.Job, error) {
	_, span := s.tracer.Start(ctx, "JobService.GetJob")
	defer span.End()

	job, err := s.repo.GetJob(ctx, sessionID, jobID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return job, nil
}

func (s *jobServiceImpl) ListJobs(ctx context.Context, sessionID string) ([]*models.Job, error) {
	_, span := s.tracer.Start(ctx, "JobService.ListJobs")
	defer span.End()

	if err := s.repo.TouchSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListJobs(ctx, sessionID)
}

// Mount relance le polling d'un job non terminal sans poller actif
func (s *jobServiceImpl) Mount(ctx context.Context, sessionID, jobID string) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, sessionID, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.startPoller(ctx, sessionID, job); err != nil {
		return job, err
	}

	s.logger.Debug().Str("session_id", sessionID).Str("job_id", jobID).Msg("job mounted")
	return job, nil
}

// Unmount arrête le poller du job; le job garde son dernier statut
func (s *jobServiceImpl) Unmount(ctx context.Context, sessionID, jobID string) (*models.Job, error) {
	if _, err := s.repo.GetJob(ctx, sessionID, jobID); err != nil {
		return nil, err
	}

	if s.pool.Stop(poller.Key{SessionID: sessionID, JobID: jobID}) {
		s.logger.Debug().Str("session_id", sessionID).Str("job_id", jobID).Msg("job unmounted")
	}

	// relu après l'arrêt: plus aucune écriture possible
	return s.repo.GetJob(ctx, sessionID, jobID)
}

func (s *jobServiceImpl) Subscribe(ctx context.Context, sessionID string) (<-chan models.JobEvent, func(), error) {
	if err := s.repo.TouchSession(ctx, sessionID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.events.Subscribe(sessionID)
	return ch, cancel, nil
}

// CleanupIdleSessions ferme les sessions sans abonné ni activité récente
func (s *jobServiceImpl) CleanupIdleSessions(ctx context.Context, maxIdle time.Duration) (int, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.CleanupIdleSessions")
	defer span.End()

	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	cutoff := s.now().Add(-maxIdle)
	closed := 0
	for _, session := range sessions {
		if session.LastActivity.After(cutoff) || s.events.Subscribers(session.ID) > 0 {
			continue
		}
		if err := s.CloseSession(ctx, session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
			return closed, err
		}
		closed++
	}

	return closed, nil
}

func (s *jobServiceImpl) PollerStats() models.PollerStats {
	return s.pool.GetStats()
}

func (s *jobServiceImpl) SessionCount(ctx context.Context) int {
	return s.repo.CountSessions(ctx)
}

// Shutdown arrête tous les pollers
func (s *jobServiceImpl) Shutdown() {
	s.pool.StopAll()
}
