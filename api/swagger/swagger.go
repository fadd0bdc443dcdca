// Package swagger holds the static Swagger document served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Learn Coach API",
        "description": "AI-assisted learning coach decision core",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and profile"},
        {"name": "Paths", "description": "Learning path generation"},
        {"name": "Sessions", "description": "Study session logging"},
        {"name": "Assessments", "description": "Quiz and exam results"},
        {"name": "Progress", "description": "Topic progress ledger"},
        {"name": "Schedule", "description": "Weekly schedule optimizer"},
        {"name": "Recommendations", "description": "Adaptive study recommendations"},
        {"name": "Reports", "description": "Asynchronous exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current student profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/paths": {
            "post": {
                "tags": ["Paths"],
                "summary": "Create learning path",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePathRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Paths"],
                "summary": "Get active learning path",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active path"}
                }
            }
        },
        "/paths/regenerate": {
            "post": {
                "tags": ["Paths"],
                "summary": "Regenerate path, preserving progress by topic name",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePathRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Log a study session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LogSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Sessions"],
                "summary": "List study sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Log an assessment result",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LogAssessmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Progress for all topics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progress/{topicId}/complete": {
            "post": {
                "tags": ["Progress"],
                "summary": "Manually mark a topic completed",
                "parameters": [
                    {"name": "topicId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progress/{topicId}/reset": {
            "post": {
                "tags": ["Progress"],
                "summary": "Reset a topic to not started",
                "parameters": [
                    {"name": "topicId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Current schedule snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/preferences": {
            "put": {
                "tags": ["Schedule"],
                "summary": "Update availability and rebuild the schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePreferencesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recommendations": {
            "get": {
                "tags": ["Recommendations"],
                "summary": "Derive study recommendations",
                "parameters": [
                    {"name": "ai", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Enqueue a report export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreatePathRequest": {
            "type": "object",
            "required": ["goal"],
            "properties": {
                "goal": {"type": "string"},
                "focus": {"type": "array", "items": {"type": "string"}},
                "weekly_hours": {"type": "number"}
            }
        },
        "LogSessionRequest": {
            "type": "object",
            "required": ["raw_topic", "duration_minutes", "mood", "productivity"],
            "properties": {
                "raw_topic": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "mood": {"type": "integer", "minimum": 1, "maximum": 5},
                "productivity": {"type": "integer", "minimum": 1, "maximum": 5},
                "notes": {"type": "string"},
                "occurred_at": {"type": "string", "format": "date-time"},
                "use_ai": {"type": "boolean"}
            }
        },
        "LogAssessmentRequest": {
            "type": "object",
            "required": ["topic_id", "type", "score_pct"],
            "properties": {
                "topic_id": {"type": "string"},
                "type": {"type": "string", "enum": ["quiz", "project", "practice"]},
                "score_pct": {"type": "integer", "minimum": 0, "maximum": 100},
                "notes": {"type": "string"},
                "occurred_at": {"type": "string", "format": "date-time"}
            }
        },
        "UpdatePreferencesRequest": {
            "type": "object",
            "required": ["available_days", "time_slots", "weekly_hours"],
            "properties": {
                "available_days": {"type": "array", "items": {"type": "string"}},
                "time_slots": {"type": "array", "items": {"type": "string", "enum": ["morning", "afternoon", "evening"]}},
                "weekly_hours": {"type": "number"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["type", "format"],
            "properties": {
                "type": {"type": "string", "enum": ["progress", "sessions", "summary"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
