// pkg/models/swagger.go
package models

import (
	"time"
)

// ErrorResponse représente une réponse d'erreur standard
// @Description Réponse d'erreur standard de l'API
type ErrorResponse struct {
	Error            string            `json:"error" example:"Validation failed"`
	Kind             string            `json:"kind,omitempty" example:"transport" enums:"rejected,transport"`
	Raw              interface{}       `json:"raw,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
} // @name ErrorResponse

// ValidationError représente une erreur de validation spécifique
// @Description Détail d'une erreur de validation
type ValidationError struct {
	Field   string `json:"field" example:"prompt"`
	Value   string `json:"value" example:""`
	Message string `json:"message" example:"Please enter a prompt"`
	Code    string `json:"code" example:"REQUIRED"`
} // @name ValidationError

// HealthResponse représente la réponse du health check
// @Description Statut de santé du service
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy" enums:"healthy,degraded,unhealthy"`
	Service   string    `json:"service" example:"veo-console"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-17T10:30:00Z"`
} // @name HealthResponse

// SessionResponse est renvoyé à l'ouverture d'une page
// @Description Session de console nouvellement ouverte
type SessionResponse struct {
	Session   Session `json:"session"`
	EventsURL string  `json:"events_url" example:"/api/v1/sessions/550e8400-e29b-41d4-a716-446655440000/events"`
} // @name SessionResponse

// SaveResultResponse décrit un résultat enregistré dans le stockage
// @Description Résultat vidéo copié dans le stockage configuré
type SaveResultResponse struct {
	Operation string `json:"operation" example:"models/veo-3.1-generate-preview/operations/abc123"`
	Path      string `json:"file_path" example:"results/models/veo-3.1-generate-preview/operations/abc123.mp4"`
	URL       string `json:"url" example:"results/models/veo-3.1-generate-preview/operations/abc123.mp4"`
	Cached    bool   `json:"cached" example:"false"`
} // @name SaveResultResponse

// StoredResult est un résultat présent dans le stockage
type StoredResult struct {
	Operation   string `json:"operation" example:"models/veo-3.1-generate-preview/operations/abc123"`
	DownloadURL string `json:"download_url" example:"/download/models/veo-3.1-generate-preview/operations/abc123"`
} // @name StoredResult

// ResultListResponse liste les résultats enregistrés
// @Description Résultats vidéo présents dans le stockage configuré
type ResultListResponse struct {
	Results []StoredResult `json:"results"`
	Count   int            `json:"count" example:"1"`
} // @name ResultListResponse
