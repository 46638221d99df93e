package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Wedding Dispatch API",
        "description": "Photographer dispatch, check-in confirmations and overdue alerts",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and own account"},
        {"name": "Checkins", "description": "Wake, depart and arrive confirmations"},
        {"name": "Alerts", "description": "Overdue deadline board"},
        {"name": "Photos", "description": "Arrival photo evidence"},
        {"name": "Schedules", "description": "Wedding engagements"},
        {"name": "Photographers", "description": "Roster"},
        {"name": "Halls", "description": "Venue directory"}
    ],
    "paths": {
        "/health": {"get": {"summary": "Liveness", "responses": {"200": {"description": "OK"}}}},
        "/ready": {"get": {"summary": "Database readiness", "responses": {"200": {"description": "Ready"}, "503": {"description": "Database unavailable"}}}},
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate photographer or admin",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/api/keepalive_needed": {
            "get": {
                "tags": ["Alerts"],
                "summary": "Whether uptime pingers should keep the service warm",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/KeepaliveStatus"}}}
            }
        },
        "/api/my": {
            "get": {
                "tags": ["Checkins"],
                "summary": "Own schedules for the current week",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/checkins/{id}/{kind}": {
            "post": {
                "tags": ["Checkins"],
                "summary": "Confirm wake, depart or arrive for every schedule of the trip",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["wake", "depart", "arrive"]},
                    {"name": "photo", "in": "formData", "type": "file"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/alerts": {
            "get": {
                "tags": ["Alerts"],
                "summary": "Alert board",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "only", "in": "query", "type": "boolean"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/alerts/feed": {
            "get": {
                "tags": ["Alerts"],
                "summary": "Overdue rows for polling",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/alerts/export": {
            "get": {
                "tags": ["Alerts"],
                "summary": "Download the alert board",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/admin/photos": {
            "get": {
                "tags": ["Photos"],
                "summary": "Arrival photos with signed links",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/photos/{token}": {
            "get": {
                "tags": ["Photos"],
                "summary": "Serve a photo through a signed token",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Image"}, "404": {"description": "Replaced or missing"}, "410": {"description": "Link expired"}}
            }
        },
        "/admin/schedules": {
            "get": {"tags": ["Schedules"], "summary": "List schedules", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Schedules"], "summary": "Create schedule", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/schedules/{id}": {
            "get": {"tags": ["Schedules"], "summary": "Get schedule", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Schedules"], "summary": "Update schedule", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Schedules"], "summary": "Delete schedule", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/admin/schedules/bulk-delete": {
            "post": {"tags": ["Schedules"], "summary": "Delete several schedules", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/schedules/import": {
            "post": {"tags": ["Schedules"], "summary": "Import normalised rows", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/photographers": {
            "get": {"tags": ["Photographers"], "summary": "List photographers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Photographers"], "summary": "Create photographer", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Name taken"}}}
        },
        "/admin/photographers/{id}": {
            "get": {"tags": ["Photographers"], "summary": "Get photographer", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Photographers"], "summary": "Update or rename photographer", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Photographers"], "summary": "Delete unassigned photographer", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Still assigned"}}}
        },
        "/admin/photographers/import": {
            "post": {"tags": ["Photographers"], "summary": "Import roster rows", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/halls": {
            "get": {"tags": ["Halls"], "summary": "List halls", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Halls"], "summary": "Create or update hall by name", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/halls/{id}": {
            "put": {"tags": ["Halls"], "summary": "Edit hall", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Halls"], "summary": "Delete hall", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/admin/halls/{id}/propagate": {
            "post": {"tags": ["Halls"], "summary": "Copy hall address to its schedules", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}},
            "required": ["username", "password"]
        },
        "KeepaliveStatus": {
            "type": "object",
            "properties": {
                "keepalive": {"type": "boolean"},
                "in_window": {"type": "boolean"},
                "has_wedding": {"type": "boolean"},
                "today": {"type": "string"},
                "now": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
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
