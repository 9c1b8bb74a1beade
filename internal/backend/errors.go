package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GenericSubmitFailure est le message affiché quand le backend ne fournit
// aucun détail exploitable.
const GenericSubmitFailure = "Failed to submit job. Check backend logs."

var (
	// ErrMalformedStatus signale une réponse de statut illisible
	ErrMalformedStatus = errors.New("malformed status payload")
	// ErrResultNotReady signale une vidéo pas encore disponible (404 sur /download)
	ErrResultNotReady = errors.New("video not ready")
	// ErrUnknownFlow signale un flow sans endpoint backend
	ErrUnknownFlow = errors.New("unknown generation flow")
)

// RejectedError: le backend a répondu en HTTP 2xx mais sans ok=true.
// Raw conserve la charge utile brute pour l'affichage.
type RejectedError struct {
	Raw json.RawMessage
}

func (e *RejectedError) Error() string {
	return "Backend returned an error: " + string(e.Raw)
}

// TransportError couvre les échecs réseau et les réponses HTTP non 2xx
type TransportError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("backend %s failed (HTTP %d): %s", e.Op, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("backend %s failed (HTTP %d)", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage retourne le détail du backend s'il existe, sinon le message générique
func (e *TransportError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return GenericSubmitFailure
}

// extractDetail lit le champ "detail" d'une réponse d'erreur du backend.
// Un detail non textuel (liste d'erreurs de validation) est renvoyé en JSON.
func extractDetail(raw []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	if string(payload.Detail) == "null" {
		return ""
	}
	return string(payload.Detail)
}
