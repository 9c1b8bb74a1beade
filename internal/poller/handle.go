// internal/poller/handle.go
package poller

import (
	"context"
	"sync"
)

// Key identifie un poller: un job dans une session
type Key struct {
	SessionID string
	JobID     string
}

// Handle possède la goroutine de polling d'un job. Stop est idempotent et
// attend la fin de la goroutine.
type Handle struct {
	key    Key
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// mu sérialise l'application d'un statut avec l'arrêt
	mu      sync.Mutex
	stopped bool
}

func newHandle(key Key, cancel context.CancelFunc) *Handle {
	return &Handle{
		key:    key,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Stop annule le polling. Après son retour plus aucun statut n'est appliqué.
// Ne doit pas être appelé depuis le callback apply.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()
		h.cancel()
	})
	<-h.done
}

// Done est fermé quand la goroutine de polling s'est terminée
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// deliver applique fn sauf si le handle a été arrêté entre-temps
func (h *Handle) deliver(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	fn()
	return true
}
