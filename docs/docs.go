// Package docs contient la spécification Swagger servie sur /swagger.
// Régénérer avec: swag init -g cmd/console/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/api/v1/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Open a console session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SessionResponse"}}
                }
            }
        },
        "/api/v1/sessions/{session_id}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Close a console session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{session_id}/events": {
            "get": {
                "description": "WebSocket feed: a snapshot of the job list, then job_created and job_status events. Clients may send {\"type\":\"mount\"|\"unmount\",\"job_id\":...}.",
                "tags": ["Sessions"],
                "summary": "Session event feed",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{session_id}/generate/{flow}": {
            "post": {
                "description": "Validates the form, forwards it to the generation backend and starts polling the new job",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Submit a generation job",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true},
                    {"enum": ["text_to_video", "image_to_video", "reference_images", "first_last", "extend"], "type": "string", "description": "Generation flow", "name": "flow", "in": "path", "required": true},
                    {"type": "string", "description": "Prompt", "name": "prompt", "in": "formData"},
                    {"enum": ["fast-preview", "quality-preview"], "type": "string", "description": "Model", "name": "model", "in": "formData"},
                    {"enum": ["16:9", "9:16"], "type": "string", "description": "Aspect ratio", "name": "aspect_ratio", "in": "formData"},
                    {"enum": ["1080p", "720p"], "type": "string", "description": "Resolution", "name": "resolution", "in": "formData"},
                    {"enum": [4, 6, 8], "type": "integer", "description": "Duration", "name": "duration_seconds", "in": "formData"},
                    {"type": "file", "description": "Source image (image_to_video)", "name": "image", "in": "formData"},
                    {"type": "file", "description": "Reference images, up to 3 (reference_images)", "name": "images", "in": "formData"},
                    {"type": "file", "description": "First frame (first_last)", "name": "first_frame", "in": "formData"},
                    {"type": "file", "description": "Last frame (first_last)", "name": "last_frame", "in": "formData"},
                    {"type": "file", "description": "Base video (extend)", "name": "base_video", "in": "formData"},
                    {"type": "string", "description": "Previous operation (extend)", "name": "previous_operation_name", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/JobView"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Backend rejected the job or was unreachable", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{session_id}/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "List session jobs",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/JobView"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{session_id}/jobs/{job_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Get a job",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true},
                    {"type": "string", "description": "Job ID (operation name)", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{session_id}/pollers/{job_id}": {
            "put": {
                "produces": ["application/json"],
                "tags": ["Pollers"],
                "summary": "Resume polling a job",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true},
                    {"type": "string", "description": "Job ID (operation name)", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Already polling or terminal", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Pollers"],
                "summary": "Stop polling a job",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true},
                    {"type": "string", "description": "Job ID (operation name)", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/pollers/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Pollers"],
                "summary": "Poller statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PollerStatsResponse"}}
                }
            }
        },
        "/api/v1/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Results"],
                "summary": "List stored videos",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResultListResponse"}},
                    "503": {"description": "Storage not configured", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/results/{operation}": {
            "delete": {
                "tags": ["Results"],
                "summary": "Delete a stored video",
                "parameters": [
                    {"type": "string", "description": "Operation name", "name": "operation", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not stored", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "503": {"description": "Storage not configured", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["Results"],
                "summary": "Save a generated video",
                "parameters": [
                    {"type": "string", "description": "Operation name", "name": "operation", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Already stored", "schema": {"$ref": "#/definitions/SaveResultResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SaveResultResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Video not ready", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/download/{operation}": {
            "get": {
                "description": "Serves the stored copy when present, otherwise proxies the backend download. Add ?download=1 for an attachment.",
                "produces": ["video/mp4"],
                "tags": ["Results"],
                "summary": "Stream a generated video",
                "parameters": [
                    {"type": "string", "description": "Operation name", "name": "operation", "in": "path", "required": true},
                    {"type": "boolean", "description": "Force attachment", "name": "download", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Video stream", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Video not ready", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "description": "Réponse d'erreur standard de l'API",
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Validation failed"},
                "kind": {"type": "string", "enum": ["rejected", "transport"], "example": "transport"},
                "raw": {},
                "validation_errors": {"type": "array", "items": {"$ref": "#/definitions/ValidationError"}}
            }
        },
        "ValidationError": {
            "description": "Détail d'une erreur de validation",
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "REQUIRED"},
                "field": {"type": "string", "example": "prompt"},
                "message": {"type": "string", "example": "Please enter a prompt"},
                "value": {"type": "string", "example": ""}
            }
        },
        "HealthResponse": {
            "description": "Statut de santé du service",
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "veo-console"},
                "status": {"type": "string", "enum": ["healthy", "degraded", "unhealthy"], "example": "healthy"},
                "timestamp": {"type": "string", "example": "2025-01-17T10:30:00Z"}
            }
        },
        "Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"},
                "created_at": {"type": "string"},
                "last_activity": {"type": "string"}
            }
        },
        "SessionResponse": {
            "description": "Session de console nouvellement ouverte",
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/Session"},
                "events_url": {"type": "string", "example": "/api/v1/sessions/550e8400-e29b-41d4-a716-446655440000/events"}
            }
        },
        "StatusDisplay": {
            "type": "object",
            "properties": {
                "animate": {"type": "boolean", "example": true},
                "icon": {"type": "string", "example": "loader"},
                "label": {"type": "string", "example": "processing"},
                "tone": {"type": "string", "example": "blue"}
            }
        },
        "JobView": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "models/veo-3.1-fast-generate-preview/operations/abc123"},
                "short_id": {"type": "string", "example": "models/v"},
                "status": {"type": "string", "enum": ["queued", "processing", "completed", "failed"], "example": "completed"},
                "display": {"$ref": "#/definitions/StatusDisplay"},
                "type": {"type": "string", "example": "text_to_video"},
                "prompt": {"type": "string"},
                "prompt_display": {"type": "string", "example": "A drone shot over a misty forest at dawn"},
                "created_at": {"type": "string"},
                "video_url": {"type": "string", "example": "/download/models/veo-3.1-fast-generate-preview/operations/abc123"},
                "download_url": {"type": "string", "example": "/download/models/veo-3.1-fast-generate-preview/operations/abc123"}
            }
        },
        "PollerStats": {
            "description": "Compteurs du pool de pollers",
            "type": "object",
            "properties": {
                "active": {"type": "integer", "example": 3},
                "started": {"type": "integer", "example": 42},
                "polls_issued": {"type": "integer", "example": 1250},
                "transient_failures": {"type": "integer", "example": 4},
                "jobs_completed": {"type": "integer", "example": 37},
                "jobs_failed": {"type": "integer", "example": 2},
                "stopped": {"type": "integer", "example": 3}
            }
        },
        "PollerStatsResponse": {
            "description": "Statistiques des pollers à un instant donné",
            "type": "object",
            "properties": {
                "pollers": {"$ref": "#/definitions/PollerStats"},
                "sessions": {"type": "integer", "example": 2},
                "poll_interval": {"type": "string", "example": "5s"},
                "timestamp": {"type": "string", "example": "2025-01-17T10:30:00Z"}
            }
        },
        "SaveResultResponse": {
            "description": "Résultat vidéo copié dans le stockage configuré",
            "type": "object",
            "properties": {
                "operation": {"type": "string", "example": "models/veo-3.1-generate-preview/operations/abc123"},
                "file_path": {"type": "string", "example": "results/models/veo-3.1-generate-preview/operations/abc123.mp4"},
                "url": {"type": "string"},
                "cached": {"type": "boolean", "example": false}
            }
        },
        "StoredResult": {
            "type": "object",
            "properties": {
                "operation": {"type": "string", "example": "models/veo-3.1-generate-preview/operations/abc123"},
                "download_url": {"type": "string", "example": "/download/models/veo-3.1-generate-preview/operations/abc123"}
            }
        },
        "ResultListResponse": {
            "description": "Résultats vidéo présents dans le stockage configuré",
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/StoredResult"}},
                "count": {"type": "integer", "example": 1}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8081",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Veo Console API",
	Description:      "Console de génération vidéo: soumission des jobs, suivi du statut et téléchargement des résultats.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
