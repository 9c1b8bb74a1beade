// Package presentation traduit les jobs en vues affichables par la console.
package presentation

import (
	"net/url"
	"strings"
	"time"

	"veo-console/pkg/models"
)

const (
	// NoPromptText remplace un prompt vide à l'affichage
	NoPromptText = "No prompt provided"
	shortIDRunes = 8
	downloadPath = "/download/"
)

// StatusDisplay décrit le rendu d'un statut
type StatusDisplay struct {
	Icon    string `json:"icon" example:"loader"`
	Label   string `json:"label" example:"processing"`
	Tone    string `json:"tone" example:"blue"`
	Animate bool   `json:"animate" example:"true"`
} // @name StatusDisplay

var displays = map[models.JobStatus]StatusDisplay{
	models.StatusQueued:     {Icon: "clock", Label: "queued", Tone: "slate"},
	models.StatusProcessing: {Icon: "loader", Label: "processing", Tone: "blue", Animate: true},
	models.StatusCompleted:  {Icon: "check-circle", Label: "completed", Tone: "emerald"},
	models.StatusFailed:     {Icon: "alert-circle", Label: "failed", Tone: "red"},
}

// DisplayFor retourne le rendu d'un statut. Un statut hors énumération est
// rendu comme queued.
func DisplayFor(status models.JobStatus) StatusDisplay {
	if d, ok := displays[status]; ok {
		return d
	}
	return displays[models.StatusQueued]
}

// JobView est la carte d'un job telle que la console l'affiche
type JobView struct {
	ID            string           `json:"id" example:"models/veo-3.1-fast-generate-preview/operations/abc123"`
	ShortID       string           `json:"short_id" example:"models/v"`
	Status        models.JobStatus `json:"status" example:"completed"`
	Display       StatusDisplay    `json:"display"`
	Type          models.Flow      `json:"type" example:"text_to_video"`
	Prompt        string           `json:"prompt"`
	PromptDisplay string           `json:"prompt_display" example:"A drone shot over a misty forest at dawn"`
	CreatedAt     time.Time        `json:"created_at"`
	VideoURL      string           `json:"video_url,omitempty" example:"/download/models/veo-3.1-fast-generate-preview/operations/abc123"`
	DownloadURL   string           `json:"download_url,omitempty" example:"/download/models/veo-3.1-fast-generate-preview/operations/abc123"`
} // @name JobView

// NewJobView construit la vue d'un job. Seul un job completed expose la vidéo.
func NewJobView(job *models.Job) JobView {
	view := JobView{
		ID:            job.ID,
		ShortID:       ShortID(job.ID),
		Status:        job.Status,
		Display:       DisplayFor(job.Status),
		Type:          job.Type,
		Prompt:        job.Prompt,
		PromptDisplay: job.Prompt,
		CreatedAt:     job.CreatedAt,
	}

	if view.PromptDisplay == "" {
		view.PromptDisplay = NoPromptText
	}

	if job.Status == models.StatusCompleted {
		url := DownloadURL(job.ID)
		view.VideoURL = url
		view.DownloadURL = url
	}

	return view
}

// NewJobViews conserve l'ordre de la liste (plus récent en tête)
func NewJobViews(jobs []*models.Job) []JobView {
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, NewJobView(job))
	}
	return views
}

// ShortID retourne les 8 premiers caractères de l'identifiant
func ShortID(id string) string {
	runes := []rune(id)
	if len(runes) <= shortIDRunes {
		return id
	}
	return string(runes[:shortIDRunes])
}

// DownloadURL est l'URL déterministe du résultat d'une opération. Chaque
// segment est échappé, les "/" du nom restent des séparateurs.
func DownloadURL(operation string) string {
	segments := strings.Split(strings.Trim(operation, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return downloadPath + strings.Join(segments, "/")
}
