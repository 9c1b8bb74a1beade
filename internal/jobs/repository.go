package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"veo-console/pkg/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrDuplicateJob    = errors.New("job id already present in session")
)

// JobRepository stocke les sessions et leurs listes de jobs.
// Les valeurs retournées sont des copies.
type JobRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	TouchSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]*models.Session, error)
	CountSessions(ctx context.Context) int
	Prepend(ctx context.Context, sessionID string, job *models.Job) error
	GetJob(ctx context.Context, sessionID, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, sessionID string) ([]*models.Job, error)
	UpdateStatus(ctx context.Context, sessionID, jobID string, status models.JobStatus) (*models.Job, bool, error)
}

type sessionEntry struct {
	session models.Session
	jobs    []*models.Job // plus récent en tête
}

type memoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewJobRepository crée le dépôt en mémoire. Rien n'est persisté.
func NewJobRepository() JobRepository {
	return &memoryRepository{
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

func (r *memoryRepository) CreateSession(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}

	now := r.now()
	session.CreatedAt = now
	session.LastActivity = now
	r.sessions[session.ID] = &sessionEntry{session: *session}
	return nil
}

func (r *memoryRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (r *memoryRepository) TouchSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}
	entry.session.LastActivity = r.now()
	return nil
}

func (r *memoryRepository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memoryRepository) ListSessions(ctx context.Context) ([]*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(r.sessions))
	for _, entry := range r.sessions {
		session := entry.session
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

func (r *memoryRepository) CountSessions(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Prepend ajoute un job en tête de la liste de la session
func (r *memoryRepository) Prepend(ctx context.Context, sessionID string, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}
	for _, existing := range entry.jobs {
		if existing.ID == job.ID {
			return ErrDuplicateJob
		}
	}

	stored := *job
	entry.jobs = append([]*models.Job{&stored}, entry.jobs...)
	entry.session.LastActivity = r.now()
	return nil
}

func (r *memoryRepository) GetJob(ctx context.Context, sessionID, jobID string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, err := r.findLocked(sessionID, jobID)
	if err != nil {
		return nil, err
	}
	copied := *job
	return &copied, nil
}

func (r *memoryRepository) ListJobs(ctx context.Context, sessionID string) ([]*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	jobs := make([]*models.Job, 0, len(entry.jobs))
	for _, job := range entry.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs, nil
}

// UpdateStatus fait avancer le statut d'un job. changed=false quand la
// transition est refusée ou sans effet.
func (r *memoryRepository) UpdateStatus(ctx context.Context, sessionID, jobID string, status models.JobStatus) (*models.Job, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.findLocked(sessionID, jobID)
	if err != nil {
		return nil, false, err
	}

	changed := job.Status != status && job.Status.CanAdvanceTo(status)
	if changed {
		job.Status = status
	}

	copied := *job
	return &copied, changed, nil
}

func (r *memoryRepository) findLocked(sessionID, jobID string) (*models.Job, error) {
	entry, exists := r.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	for _, job := range entry.jobs {
		if job.ID == jobID {
			return job, nil
		}
	}
	return nil, ErrJobNotFound
}
