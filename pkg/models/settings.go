package models

import (
	"io"
	"strconv"
)

// Model est le choix de modèle exposé par la console
type Model string

const (
	ModelFastPreview    Model = "fast-preview"
	ModelQualityPreview Model = "quality-preview"
)

type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

type Resolution string

const (
	Resolution1080p Resolution = "1080p"
	Resolution720p  Resolution = "720p"
)

// Valeurs légales de chaque réglage
var (
	AllowedModels       = []Model{ModelFastPreview, ModelQualityPreview}
	AllowedAspectRatios = []AspectRatio{AspectLandscape, AspectPortrait}
	AllowedResolutions  = []Resolution{Resolution1080p, Resolution720p}
	AllowedDurations    = []int{4, 6, 8}
)

// Settings contient les réglages avancés d'une soumission. Non persistés.
type Settings struct {
	Model           Model       `json:"model" example:"fast-preview" enums:"fast-preview,quality-preview"`
	AspectRatio     AspectRatio `json:"aspect_ratio" example:"16:9" enums:"16:9,9:16"`
	Resolution      Resolution  `json:"resolution" example:"1080p" enums:"1080p,720p"`
	DurationSeconds int         `json:"duration_seconds" example:"8" enums:"4,6,8"`
} // @name Settings

// DefaultSettings retourne les réglages initiaux du formulaire
func DefaultSettings() Settings {
	return Settings{
		Model:           ModelFastPreview,
		AspectRatio:     AspectLandscape,
		Resolution:      Resolution1080p,
		DurationSeconds: 8,
	}
}

// WithDefaults complète les champs laissés vides
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.AspectRatio == "" {
		s.AspectRatio = d.AspectRatio
	}
	if s.Resolution == "" {
		s.Resolution = d.Resolution
	}
	if s.DurationSeconds == 0 {
		s.DurationSeconds = d.DurationSeconds
	}
	return s
}

// DurationString formats the duration the way the backend form expects it.
func (s Settings) DurationString() string {
	return strconv.Itoa(s.DurationSeconds)
}

// Noms des champs multipart attendus par le backend
const (
	FieldImage                 = "image"
	FieldImages                = "images"
	FieldFirstFrame            = "first_frame"
	FieldLastFrame             = "last_frame"
	FieldBaseVideo             = "base_video"
	FieldPreviousOperationName = "previous_operation_name"
)

// Upload décrit un fichier joint à une soumission, quelle que soit sa source
// (formulaire HTTP, fichier local du CLI).
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// GenerationForm regroupe tout ce qu'un utilisateur soumet pour un flow
type GenerationForm struct {
	Flow                  Flow
	Prompt                string
	Settings              Settings
	Image                 *Upload
	Images                []*Upload
	FirstFrame            *Upload
	LastFrame             *Upload
	BaseVideo             *Upload
	PreviousOperationName string
}

// Uploads retourne les fichiers joints dans l'ordre d'envoi. Les champs
// que le flow n'utilise pas sont ignorés.
func (f *GenerationForm) Uploads() []*Upload {
	candidates := []*Upload{f.Image}
	candidates = append(candidates, f.Images...)
	candidates = append(candidates, f.FirstFrame, f.LastFrame, f.BaseVideo)

	var uploads []*Upload
	for _, upload := range candidates {
		if upload != nil && f.Flow.AcceptsUpload(upload.Field) {
			uploads = append(uploads, upload)
		}
	}
	return uploads
}
