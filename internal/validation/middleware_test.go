package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupValidationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(NewAPIValidator(nil)))

	router.GET("/sessions/:session_id/generate/:flow",
		ValidateRequest(ValidateSessionIDParam("session_id"), ValidateFlowParam("flow")),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"session_id": c.GetString(ValidatedSessionID),
				"flow":       c.MustGet(ValidatedFlow),
			})
		})
	router.GET("/download/*operation",
		ValidateRequest(ValidateOperationParam("operation")),
		func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString(ValidatedOperation))
		})

	return router
}

func TestValidateRequestMiddleware(t *testing.T) {
	router := setupValidationRouter()

	t.Run("valid params", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/sessions/550e8400-e29b-41d4-a716-446655440000/generate/extend", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", body["session_id"])
		assert.Equal(t, "extend", body["flow"])
	})

	t.Run("invalid session", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sessions/nope/generate/extend", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Validation failed", body["error"])
		assert.NotEmpty(t, body["validation_errors"])
	})

	t.Run("invalid flow", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/sessions/550e8400-e29b-41d4-a716-446655440000/generate/slideshow", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("operation wildcard", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/download/models/veo/operations/abc123", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "models/veo/operations/abc123", w.Body.String())
	})

	t.Run("operation traversal", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/download/operations/%2E%2E/secret", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestValidateRequestWithoutValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x/:session_id", ValidateRequest(ValidateSessionIDParam("session_id")), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/abc", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
