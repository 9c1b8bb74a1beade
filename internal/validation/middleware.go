// internal/validation/middleware.go
package validation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Clés de contexte des valeurs déjà validées
const (
	validatorKey        = "validator"
	ValidatedSessionID  = "validated_session_id"
	ValidatedFlow       = "validated_flow"
	ValidatedOperation  = "validated_operation"
	validationErrorText = "Validation failed"
)

// RequestValidator définit une fonction de validation pour une requête
type RequestValidator func(*gin.Context, *APIValidator) *ValidationResult

// Middleware injecte l'APIValidator dans le contexte
func Middleware(validator *APIValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(validatorKey, validator)
		c.Next()
	}
}

// GetValidator récupère le validator du contexte
func GetValidator(c *gin.Context) *APIValidator {
	if validator, exists := c.Get(validatorKey); exists {
		if apiValidator, ok := validator.(*APIValidator); ok {
			return apiValidator
		}
	}
	return nil
}

// ValidateRequest exécute les validators dans l'ordre et répond 400 au premier échec
func ValidateRequest(validators ...RequestValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		validator := GetValidator(c)
		if validator == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation service unavailable"})
			c.Abort()
			return
		}

		for _, validate := range validators {
			if result := validate(c, validator); !result.Valid {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":             validationErrorText,
					"validation_errors": result.Errors,
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// ValidateSessionIDParam valide le paramètre de session et stocke sa forme canonique
func ValidateSessionIDParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		sessionID, result := v.ValidateSessionIDParam(c.Param(paramName))
		if result.Valid {
			c.Set(ValidatedSessionID, sessionID)
		}
		return result
	}
}

// ValidateFlowParam valide le paramètre de flow
func ValidateFlowParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		flow, result := v.ValidateFlowParam(c.Param(paramName))
		if result.Valid {
			c.Set(ValidatedFlow, flow)
		}
		return result
	}
}

// ValidateOperationParam valide un paramètre wildcard (*operation). Gin
// conserve le "/" initial, il est retiré ici.
func ValidateOperationParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		op := strings.TrimPrefix(c.Param(paramName), "/")
		result := v.ValidateOperationName(paramName, op)
		if result.Valid {
			c.Set(ValidatedOperation, strings.Trim(op, "/"))
		}
		return result
	}
}
