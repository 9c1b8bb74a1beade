// internal/validation/api_validation.go - Validation des soumissions de la console

package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"veo-console/pkg/models"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Messages affichés quand un champ obligatoire du flow manque
const (
	MsgPromptRequired     = "Please enter a prompt"
	MsgImageRequired      = "Please upload an image and enter a prompt"
	MsgReferenceRequired  = "Please upload at least one reference image and enter a prompt"
	MsgFirstLastRequired  = "Please upload both first and last frames and enter a prompt"
	MsgBaseVideoRequired  = "Please provide a base video or a previous operation and enter a prompt"
	maxOperationNameBytes = 512
)

// APIValidator gère la validation des requêtes de la console
type APIValidator struct {
	validationService *ValidationService
	config            *ValidationConfig
}

// NewAPIValidator crée un nouveau validateur d'API
func NewAPIValidator(config *ValidationConfig) *APIValidator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &APIValidator{
		validationService: NewValidationService(config),
		config:            config,
	}
}

// ValidateGenerationForm applique la politique de champs obligatoires du
// flow, puis les domaines des réglages et les règles des fichiers. Un champ
// obligatoire manquant court-circuite le reste: aucun appel réseau n'est fait.
func (av *APIValidator) ValidateGenerationForm(form *models.GenerationForm) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if form == nil {
		result.AddError("form", "", "form is required", "REQUIRED")
		return result
	}

	if _, ok := models.ParseFlow(string(form.Flow)); !ok {
		result.AddError("flow", string(form.Flow), "unknown generation flow", "INVALID_FLOW")
		return result
	}

	if required := av.validateRequired(form); !required.Valid {
		return required
	}

	// compté en forme NFC: "é" décomposé compte pour un caractère
	if utf8.RuneCountInString(norm.NFC.String(form.Prompt)) > av.config.MaxPromptLength {
		result.AddError("prompt", "",
			fmt.Sprintf("prompt too long (max %d characters)", av.config.MaxPromptLength),
			"PROMPT_TOO_LONG")
	}

	result.Merge(av.ValidateSettings(form.Flow, form.Settings))

	if form.Flow.AcceptsUpload(models.FieldImages) && len(form.Images) > av.config.MaxReferenceImages {
		result.AddError(models.FieldImages, fmt.Sprintf("%d files", len(form.Images)),
			fmt.Sprintf("too many reference images (max %d)", av.config.MaxReferenceImages),
			"TOO_MANY_FILES")
	}

	for _, upload := range form.Uploads() {
		kind := KindImage
		if upload.Field == models.FieldBaseVideo {
			kind = KindVideo
		}
		result.Merge(av.validationService.ValidateUpload(upload.Field, upload, kind))
	}
	result.Merge(av.validationService.ValidateTotalSize(form.Uploads()))

	if form.PreviousOperationName != "" {
		if form.Flow != models.FlowExtend {
			result.AddError(models.FieldPreviousOperationName, form.PreviousOperationName,
				"previous operation is only accepted by the extend flow", "NOT_ALLOWED")
		} else {
			result.Merge(av.ValidateOperationName(models.FieldPreviousOperationName, form.PreviousOperationName))
		}
	}

	return result
}

// validateRequired retourne une seule erreur par flow: un formulaire
// incomplet est rejeté de la même façon quel que soit le champ manquant.
func (av *APIValidator) validateRequired(form *models.GenerationForm) *ValidationResult {
	result := &ValidationResult{Valid: true}
	hasPrompt := strings.TrimSpace(form.Prompt) != ""

	switch form.Flow {
	case models.FlowTextToVideo:
		if !hasPrompt {
			result.AddError("prompt", "", MsgPromptRequired, "REQUIRED")
		}
	case models.FlowImageToVideo:
		if !hasPrompt || form.Image == nil {
			result.AddError(models.FieldImage, "", MsgImageRequired, "REQUIRED")
		}
	case models.FlowReferenceImages:
		if !hasPrompt || len(form.Images) == 0 {
			result.AddError(models.FieldImages, "", MsgReferenceRequired, "REQUIRED")
		}
	case models.FlowFirstLast:
		if !hasPrompt || form.FirstFrame == nil || form.LastFrame == nil {
			result.AddError("first_last_frames", "", MsgFirstLastRequired, "REQUIRED")
		}
	case models.FlowExtend:
		if !hasPrompt || (form.BaseVideo == nil && strings.TrimSpace(form.PreviousOperationName) == "") {
			result.AddError(models.FieldBaseVideo, "", MsgBaseVideoRequired, "REQUIRED")
		}
	}

	return result
}

// ValidateSettings vérifie les réglages contre leurs domaines. Le modèle
// n'est contrôlé que pour les flows qui l'exposent.
func (av *APIValidator) ValidateSettings(flow models.Flow, s models.Settings) *ValidationResult {
	result := &ValidationResult{Valid: true}
	s = s.WithDefaults()

	if flow.ExposesModel() && !contains(models.AllowedModels, s.Model) {
		result.AddError("model", string(s.Model),
			"invalid model (must be: fast-preview, quality-preview)", "INVALID_MODEL")
	}
	if !contains(models.AllowedAspectRatios, s.AspectRatio) {
		result.AddError("aspect_ratio", string(s.AspectRatio),
			"invalid aspect ratio (must be: 16:9, 9:16)", "INVALID_ASPECT_RATIO")
	}
	if !contains(models.AllowedResolutions, s.Resolution) {
		result.AddError("resolution", string(s.Resolution),
			"invalid resolution (must be: 1080p, 720p)", "INVALID_RESOLUTION")
	}
	if !contains(models.AllowedDurations, s.DurationSeconds) {
		result.AddError("duration_seconds", fmt.Sprintf("%d", s.DurationSeconds),
			"invalid duration (must be: 4, 6, 8)", "INVALID_DURATION")
	}

	return result
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// ValidateOperationName valide un nom d'opération backend
// (ex: models/veo-3.1-generate-preview/operations/abc123)
func (av *APIValidator) ValidateOperationName(field, op string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	op = strings.Trim(op, "/")
	if op == "" {
		result.AddError(field, "", "operation name is required", "REQUIRED")
		return result
	}
	if len(op) > maxOperationNameBytes {
		result.AddError(field, op,
			fmt.Sprintf("operation name too long (max %d characters)", maxOperationNameBytes),
			"TOO_LONG")
	}
	for _, segment := range strings.Split(op, "/") {
		if segment == "" || segment == "." || segment == ".." {
			result.AddError(field, op, "operation name contains an invalid path segment", "INVALID_OPERATION")
			break
		}
	}
	if strings.IndexFunc(op, func(r rune) bool { return unicode.IsControl(r) || unicode.IsSpace(r) }) >= 0 {
		result.AddError(field, op, "operation name contains whitespace or control characters", "INVALID_OPERATION")
	}

	return result
}

// ValidateSessionIDParam valide un paramètre session_id depuis l'URL
func (av *APIValidator) ValidateSessionIDParam(sessionIDStr string) (string, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if sessionIDStr == "" {
		result.AddError("session_id", "", "session ID is required", "REQUIRED")
		return "", result
	}

	id, err := uuid.Parse(sessionIDStr)
	if err != nil {
		result.AddError("session_id", sessionIDStr, "session ID must be a valid UUID", "INVALID_UUID")
		return "", result
	}

	return id.String(), result
}

// ValidateFlowParam valide un paramètre flow depuis l'URL
func (av *APIValidator) ValidateFlowParam(flowStr string) (models.Flow, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	flow, ok := models.ParseFlow(flowStr)
	if !ok {
		result.AddError("flow", flowStr,
			"invalid flow (must be: text_to_video, image_to_video, reference_images, first_last, extend)",
			"INVALID_FLOW")
	}

	return flow, result
}

// SanitizeFilename expose le nettoyage des noms de fichiers aux handlers
func (av *APIValidator) SanitizeFilename(filename string) string {
	return SanitizeFilename(filename)
}
