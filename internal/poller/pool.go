// internal/poller/pool.go
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"veo-console/internal/backend"
	"veo-console/internal/logging"
	"veo-console/pkg/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultInterval est l'intervalle de polling par défaut
const DefaultInterval = 5 * time.Second

var (
	// ErrAlreadyPolling: un poller tourne déjà pour cette clé
	ErrAlreadyPolling = errors.New("job is already being polled")
	// ErrTerminalStatus: un job terminé n'a plus besoin d'être suivi
	ErrTerminalStatus = errors.New("job status is terminal")
	// ErrPoolClosed: le pool a été arrêté
	ErrPoolClosed = errors.New("poller pool is closed")
)

// StatusFetcher interroge le backend pour une opération
type StatusFetcher interface {
	Status(ctx context.Context, operation string) (*backend.StatusReport, error)
}

// ApplyFunc reçoit chaque nouveau statut normalisé, dans l'ordre. Elle
// retourne false quand le job n'existe plus: le poller s'arrête alors.
type ApplyFunc func(status models.JobStatus) bool

// Pool gère un poller par job suivi
type Pool struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer

	mu      sync.Mutex
	handles map[Key]*Handle
	closed  bool

	// Statistiques - atomic pour éviter les locks
	started           int64
	pollsIssued       int64
	transientFailures int64
	jobsCompleted     int64
	jobsFailed        int64
	stopped           int64
}

// NewPool crée un pool de pollers
func NewPool(fetcher StatusFetcher, interval time.Duration, logger zerolog.Logger) *Pool {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Pool{
		fetcher:  fetcher,
		interval: interval,
		logger:   logging.Component(logger, "poller"),
		tracer:   otel.Tracer("veo-console/poller"),
		handles:  make(map[Key]*Handle),
	}
}

// Start lance le polling d'un job à partir de son statut courant. Le
// premier appel /status a lieu après un intervalle.
func (p *Pool) Start(key Key, initial models.JobStatus, apply ApplyFunc) (*Handle, error) {
	if initial.IsTerminal() {
		return nil, ErrTerminalStatus
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if _, exists := p.handles[key]; exists {
		return nil, ErrAlreadyPolling
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := newHandle(key, cancel)
	p.handles[key] = h
	atomic.AddInt64(&p.started, 1)

	go p.run(ctx, h, initial, apply)

	p.logger.Debug().
		Str("session_id", key.SessionID).
		Str("job_id", key.JobID).
		Str("status", string(initial)).
		Msg("poller started")

	return h, nil
}

// Stop arrête le poller d'un job s'il existe. Retourne false sinon.
func (p *Pool) Stop(key Key) bool {
	p.mu.Lock()
	h, exists := p.handles[key]
	p.mu.Unlock()

	if !exists {
		return false
	}
	h.Stop()
	return true
}

// StopSession arrête tous les pollers d'une session
func (p *Pool) StopSession(sessionID string) int {
	handles := p.collect(func(k Key) bool { return k.SessionID == sessionID })
	stopHandles(handles)
	return len(handles)
}

// StopAll arrête tous les pollers et refuse les nouveaux démarrages
func (p *Pool) StopAll() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	handles := p.collect(func(Key) bool { return true })
	p.logger.Info().Int("pollers", len(handles)).Msg("Stopping all pollers")
	stopHandles(handles)
}

// Running indique si un poller est actif pour la clé
func (p *Pool) Running(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, exists := p.handles[key]
	return exists
}

// GetStats retourne les statistiques du pool
func (p *Pool) GetStats() models.PollerStats {
	p.mu.Lock()
	active := len(p.handles)
	p.mu.Unlock()

	return models.PollerStats{
		Active:            active,
		Started:           atomic.LoadInt64(&p.started),
		PollsIssued:       atomic.LoadInt64(&p.pollsIssued),
		TransientFailures: atomic.LoadInt64(&p.transientFailures),
		JobsCompleted:     atomic.LoadInt64(&p.jobsCompleted),
		JobsFailed:        atomic.LoadInt64(&p.jobsFailed),
		Stopped:           atomic.LoadInt64(&p.stopped),
	}
}

func (p *Pool) collect(match func(Key) bool) []*Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	var handles []*Handle
	for key, h := range p.handles {
		if match(key) {
			handles = append(handles, h)
		}
	}
	return handles
}

func stopHandles(handles []*Handle) {
	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			h.Stop()
		}(h)
	}
	wg.Wait()
}

// remove retire le handle de la table s'il y est toujours
func (p *Pool) remove(h *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, exists := p.handles[h.key]; exists && current == h {
		delete(p.handles, h.key)
	}
}

// run est la boucle d'un poller: une requête par tick, jamais deux en vol
func (p *Pool) run(ctx context.Context, h *Handle, current models.JobStatus, apply ApplyFunc) {
	defer close(h.done)
	defer p.remove(h)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger := p.logger.With().
		Str("session_id", h.key.SessionID).
		Str("job_id", h.key.JobID).
		Logger()

	for {
		select {
		case <-ctx.Done():
			atomic.AddInt64(&p.stopped, 1)
			logger.Debug().Str("status", string(current)).Msg("poller stopped")
			return
		case <-ticker.C:
			next, ok := p.poll(ctx, h.key, logger)

			// Réponse arrivée après l'annulation: ignorée
			if ctx.Err() != nil {
				atomic.AddInt64(&p.stopped, 1)
				return
			}
			if !ok || next == current || !current.CanAdvanceTo(next) {
				continue
			}

			keep := true
			if !h.deliver(func() { keep = apply(next) }) {
				atomic.AddInt64(&p.stopped, 1)
				return
			}
			if !keep {
				atomic.AddInt64(&p.stopped, 1)
				logger.Info().Str("status", string(next)).Msg("job no longer tracked, poller stopped")
				return
			}
			logger.Info().
				Str("from", string(current)).
				Str("to", string(next)).
				Msg("job status changed")
			current = next

			switch current {
			case models.StatusCompleted:
				atomic.AddInt64(&p.jobsCompleted, 1)
				return
			case models.StatusFailed:
				atomic.AddInt64(&p.jobsFailed, 1)
				return
			}
		}
	}
}

// poll effectue un appel /status et normalise la réponse
func (p *Pool) poll(ctx context.Context, key Key, logger zerolog.Logger) (models.JobStatus, bool) {
	ctx, span := p.tracer.Start(ctx, "Poller.Poll",
		trace.WithAttributes(
			attribute.String("session_id", key.SessionID),
			attribute.String("job_id", key.JobID),
		))
	defer span.End()

	atomic.AddInt64(&p.pollsIssued, 1)

	report, err := p.fetcher.Status(ctx, key.JobID)
	if err != nil {
		if ctx.Err() != nil {
			return "", false
		}
		span.RecordError(err)
		atomic.AddInt64(&p.transientFailures, 1)
		logger.Warn().Err(err).Msg("status poll failed")
		return "", false
	}

	status, ok := Normalize(report)
	if !ok {
		atomic.AddInt64(&p.transientFailures, 1)
		logger.Warn().
			Str("backend_status", report.Status).
			Msg("unrecognised status response")
		return "", false
	}

	span.SetAttributes(attribute.String("status", string(status)))
	return status, true
}
