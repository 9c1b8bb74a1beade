package jobs

import (
	"sync"

	"veo-console/pkg/models"

	"github.com/rs/zerolog"
)

const defaultEventBuffer = 32

// EventBroker diffuse les événements de jobs aux abonnés d'une session.
// Un abonné lent perd des événements plutôt que de bloquer le poller.
type EventBroker struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan models.JobEvent
	nextID int
	buffer int
	logger zerolog.Logger
}

func NewEventBroker(buffer int, logger zerolog.Logger) *EventBroker {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &EventBroker{
		subs:   make(map[string]map[int]chan models.JobEvent),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe retourne un canal d'événements et sa fonction de désabonnement
func (b *EventBroker) Subscribe(sessionID string) (<-chan models.JobEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan models.JobEvent, b.buffer)
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]chan models.JobEvent)
	}
	b.subs[sessionID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(sessionID, id) })
	}
}

func (b *EventBroker) unsubscribe(sessionID string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sessionID]
	if ch, exists := subs[id]; exists {
		delete(subs, id)
		close(ch)
	}
	if len(subs) == 0 {
		delete(b.subs, sessionID)
	}
}

// Publish envoie l'événement sans jamais bloquer
func (b *EventBroker) Publish(event models.JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn().
				Str("session_id", event.SessionID).
				Str("job_id", event.Job.ID).
				Str("event", event.Type).
				Msg("subscriber too slow, event dropped")
		}
	}
}

// Subscribers compte les abonnés d'une session
func (b *EventBroker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs[sessionID])
}

// CloseSession ferme tous les canaux d'une session
func (b *EventBroker) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs[sessionID] {
		delete(b.subs[sessionID], id)
		close(ch)
	}
	delete(b.subs, sessionID)
}
