package models

import (
	"time"
)

// JobStatus est le statut client d'un job de génération.
// Le vocabulaire du backend (COMPLETE, POLLING, ...) ne sort jamais du poller.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// rank ordonne les statuts: queued < processing < {completed, failed}.
func (s JobStatus) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// Valid indique si le statut appartient à l'énumération fermée
func (s JobStatus) Valid() bool {
	return s.rank() >= 0
}

// IsTerminal indique si aucune transition n'est plus possible
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanAdvanceTo vérifie qu'une transition respecte l'ordre
// queued -> processing -> {completed | failed}. processing -> processing
// est accepté (idempotent), rien ne sort d'un état terminal.
func (s JobStatus) CanAdvanceTo(next JobStatus) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	return next.rank() >= s.rank()
}

// Flow identifie le type de génération demandé
type Flow string

const (
	FlowTextToVideo     Flow = "text_to_video"
	FlowImageToVideo    Flow = "image_to_video"
	FlowReferenceImages Flow = "reference_images"
	FlowFirstLast       Flow = "first_last"
	FlowExtend          Flow = "extend"
)

// Flows liste les flows supportés dans l'ordre de la console
var Flows = []Flow{
	FlowTextToVideo,
	FlowImageToVideo,
	FlowReferenceImages,
	FlowFirstLast,
	FlowExtend,
}

// ParseFlow convertit une chaîne en Flow connu
func ParseFlow(s string) (Flow, bool) {
	for _, f := range Flows {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// ExposesModel indique si le formulaire du flow propose le choix du modèle.
// first_last et reference_images utilisent le modèle par défaut du backend.
func (f Flow) ExposesModel() bool {
	switch f {
	case FlowTextToVideo, FlowImageToVideo, FlowExtend:
		return true
	default:
		return false
	}
}

// Fichiers acceptés par chaque flow. text_to_video n'en prend aucun.
var flowUploads = map[Flow][]string{
	FlowImageToVideo:    {FieldImage},
	FlowReferenceImages: {FieldImages},
	FlowFirstLast:       {FieldFirstFrame, FieldLastFrame},
	FlowExtend:          {FieldBaseVideo},
}

// UploadFields retourne les champs fichier envoyés pour ce flow
func (f Flow) UploadFields() []string {
	return flowUploads[f]
}

// AcceptsUpload indique si le flow utilise le champ fichier donné
func (f Flow) AcceptsUpload(field string) bool {
	for _, accepted := range f.UploadFields() {
		if accepted == field {
			return true
		}
	}
	return false
}

// Job représente une génération suivie par la console.
// Seul Status change après la création, et uniquement via le poller.
type Job struct {
	ID        string    `json:"id" example:"models/veo-3.1-fast-generate-preview/operations/abc123"`
	Status    JobStatus `json:"status" example:"queued" enums:"queued,processing,completed,failed"`
	Prompt    string    `json:"prompt" example:"A drone shot over a misty forest at dawn"`
	Type      Flow      `json:"type" example:"text_to_video"`
	CreatedAt time.Time `json:"created_at" example:"2025-01-17T10:30:00Z"`
} // @name Job

// Session représente une page ouverte de la console et sa liste de jobs
type Session struct {
	ID           string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
} // @name Session

// Types d'événements diffusés aux abonnés d'une session
const (
	EventJobCreated = "job_created"
	EventJobStatus  = "job_status"
)

// JobEvent est émis à chaque création ou changement de statut d'un job
type JobEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Job       Job    `json:"job"`
}
