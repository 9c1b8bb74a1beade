// internal/validation/validation.go - Validation des fichiers et des champs

package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"veo-console/pkg/models"
)

// FileKind distingue les règles appliquées aux images et aux vidéos
type FileKind string

const (
	KindImage FileKind = "image"
	KindVideo FileKind = "video"
)

// ValidationConfig contient la configuration de validation
type ValidationConfig struct {
	MaxImageSize       int64 // Taille max d'une image (bytes)
	MaxVideoSize       int64 // Taille max d'une vidéo (bytes)
	MaxTotalSize       int64 // Taille max cumulée d'une soumission
	MaxReferenceImages int
	MaxFilenameLength  int
	MaxPromptLength    int // en runes
	ImageExtensions    map[string]bool
	VideoExtensions    map[string]bool
	ImageMimeTypes     map[string]bool
	VideoMimeTypes     map[string]bool
}

// DefaultValidationConfig retourne une configuration par défaut
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxImageSize:       20 * 1024 * 1024,
		MaxVideoSize:       200 * 1024 * 1024,
		MaxTotalSize:       300 * 1024 * 1024,
		MaxReferenceImages: 3,
		MaxFilenameLength:  255,
		MaxPromptLength:    4000,
		ImageExtensions: map[string]bool{
			".png":  true,
			".jpg":  true,
			".jpeg": true,
			".webp": true,
		},
		VideoExtensions: map[string]bool{
			".mp4":  true,
			".mov":  true,
			".webm": true,
		},
		ImageMimeTypes: map[string]bool{
			"image/png":                true,
			"image/jpeg":               true,
			"image/webp":               true,
			"application/octet-stream": true, // navigateurs sans détection
		},
		VideoMimeTypes: map[string]bool{
			"video/mp4":                true,
			"video/quicktime":          true,
			"video/webm":               true,
			"application/octet-stream": true,
		},
	}
}

// ValidationService applique les règles unitaires (fichiers, noms)
type ValidationService struct {
	config *ValidationConfig
}

// NewValidationService crée un nouveau service de validation
func NewValidationService(config *ValidationConfig) *ValidationService {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &ValidationService{
		config: config,
	}
}

// ValidationError représente une erreur de validation avec détails
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult contient le résultat de validation. Il implémente error
// pour remonter tel quel depuis la couche service.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError ajoute une erreur de validation
func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

// Merge ajoute les erreurs d'un autre résultat
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil || other.Valid {
		return
	}
	vr.Valid = false
	vr.Errors = append(vr.Errors, other.Errors...)
}

// Error retourne le premier message, celui que la console affiche
func (vr *ValidationResult) Error() string {
	if len(vr.Errors) == 0 {
		return "validation failed"
	}
	return vr.Errors[0].Message
}

// HasCode indique si une erreur porte le code donné
func (vr *ValidationResult) HasCode(code string) bool {
	for _, err := range vr.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

var forbiddenChars = []string{
	"..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|",
	"\x00", "\x01", "\x02", "\x03", "\x04", "\x05", "\x06", "\x07",
	"\x08", "\x09", "\x0a", "\x0b", "\x0c", "\x0d", "\x0e", "\x0f",
}

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// ValidateFilename valide le nom d'un fichier joint selon son type
func (vs *ValidationService) ValidateFilename(field, filename string, kind FileKind) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if filename == "" {
		result.AddError(field, "", "filename is required", "REQUIRED")
		return result
	}

	if len(filename) > vs.config.MaxFilenameLength {
		result.AddError(field, filename,
			fmt.Sprintf("filename too long (max %d characters)", vs.config.MaxFilenameLength),
			"TOO_LONG")
	}

	if !utf8.ValidString(filename) {
		result.AddError(field, filename, "filename must be valid UTF-8", "INVALID_ENCODING")
	}

	for _, char := range forbiddenChars {
		if strings.Contains(filename, char) {
			result.AddError(field, filename,
				fmt.Sprintf("filename contains forbidden character: %q", char),
				"FORBIDDEN_CHAR")
		}
	}

	baseName := strings.ToUpper(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if reservedNames[baseName] {
		result.AddError(field, filename,
			fmt.Sprintf("filename uses reserved name: %s", baseName),
			"RESERVED_NAME")
	}

	if strings.HasPrefix(filename, " ") || strings.HasSuffix(filename, " ") ||
		strings.HasPrefix(filename, ".") || strings.HasSuffix(filename, ".") {
		result.AddError(field, filename,
			"filename cannot start or end with space or dot",
			"INVALID_FORMAT")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	allowed := vs.config.ImageExtensions
	if kind == KindVideo {
		allowed = vs.config.VideoExtensions
	}
	if ext == "" {
		result.AddError(field, filename, "filename must have an extension", "NO_EXTENSION")
	} else if !allowed[ext] {
		result.AddError(field, filename,
			fmt.Sprintf("file extension %s not allowed for %s", ext, kind),
			"FORBIDDEN_EXTENSION")
	}

	return result
}

// ValidateUpload valide un fichier joint: nom, taille et type MIME
func (vs *ValidationService) ValidateUpload(field string, upload *models.Upload, kind FileKind) *ValidationResult {
	result := vs.ValidateFilename(field, upload.Filename, kind)

	maxSize := vs.config.MaxImageSize
	mimeTypes := vs.config.ImageMimeTypes
	if kind == KindVideo {
		maxSize = vs.config.MaxVideoSize
		mimeTypes = vs.config.VideoMimeTypes
	}

	if upload.Size > maxSize {
		result.AddError(field, fmt.Sprintf("%d", upload.Size),
			fmt.Sprintf("file too large (max %d bytes)", maxSize),
			"FILE_TOO_LARGE")
	}

	if upload.Size == 0 {
		result.AddError(field, "0", "file is empty", "EMPTY_FILE")
	}

	if upload.ContentType != "" {
		mainType := strings.TrimSpace(strings.Split(upload.ContentType, ";")[0])
		if !mimeTypes[mainType] {
			result.AddError(field, upload.ContentType,
				fmt.Sprintf("content type %s not allowed", mainType),
				"FORBIDDEN_MIME_TYPE")
		}
	}

	return result
}

// ValidateTotalSize vérifie la taille cumulée d'une soumission
func (vs *ValidationService) ValidateTotalSize(uploads []*models.Upload) *ValidationResult {
	result := &ValidationResult{Valid: true}

	var total int64
	for _, u := range uploads {
		total += u.Size
	}
	if total > vs.config.MaxTotalSize {
		result.AddError("total_size", fmt.Sprintf("%d", total),
			fmt.Sprintf("total size too large (max %d bytes)", vs.config.MaxTotalSize),
			"TOTAL_SIZE_TOO_LARGE")
	}

	return result
}

var (
	dotRunsPattern   = regexp.MustCompile(`\.\.+`)
	dangerousPattern = regexp.MustCompile(`[\/\\:*?"<>|\x00-\x1f]+`)
	dotsPattern      = regexp.MustCompile(`\.+`)
	underscoreRuns   = regexp.MustCompile(`_+`)
)

// SanitizeFilename nettoie un nom de fichier envoyé par le navigateur.
// L'extension est conservée, le nom de base est réduit à des caractères sûrs.
func SanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	if strings.ContainsAny(ext, `/\`) {
		// "a.b/c" : l'extension apparente fait partie du chemin
		base, ext = filename, ""
	}

	base = dotRunsPattern.ReplaceAllString(base, "_")
	base = dangerousPattern.ReplaceAllString(base, "_")
	base = dotsPattern.ReplaceAllString(base, "_")
	base = underscoreRuns.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_ ")

	if len(ext) < 2 || len(ext) > 16 {
		ext = ""
	}
	if base == "" {
		base = "unnamed_file"
	}

	if len(base)+len(ext) > 200 {
		base = base[:200-len(ext)]
	}

	return base + ext
}
