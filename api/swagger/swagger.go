package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Automatic timetable generation service for school sections",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Generation, viewing and export of section timetables"},
        {"name": "Templates", "description": "Period template catalogue"}
    ],
    "paths": {
        "/sections/{id}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a section timetable",
                "description": "Runs the constraint solver and commits the result atomically. Locked slots are preserved verbatim.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Generation in progress or calendar changed mid-run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid template, missing qualified teacher or infeasible demand", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a section's committed timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sessionId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/timetable/runs": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List generation runs for a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sessionId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/timetable/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export a section's timetable as CSV or PDF",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sessionId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered file"},
                    "404": {"description": "No committed timetable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/slots/{slotId}/lock": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Toggle the publish lock on a slot assignment",
                "parameters": [
                    {"name": "slotId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LockSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Slot not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List period templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get a period template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "templateId": {"type": "string"}
            },
            "required": ["sessionId", "templateId"]
        },
        "LockSlotRequest": {
            "type": "object",
            "properties": {
                "locked": {"type": "boolean"}
            }
        },
        "SlotAssignment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "section_id": {"type": "string"},
                "session_id": {"type": "string"},
                "day_of_week": {"type": "integer"},
                "slot_number": {"type": "integer"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_locked": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Warning": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "day_of_week": {"type": "integer"},
                "slot_number": {"type": "integer"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "SolveStats": {
            "type": "object",
            "properties": {
                "expansions": {"type": "integer"},
                "backtracks": {"type": "integer"},
                "unfilledCells": {"type": "integer"},
                "elapsedMillis": {"type": "integer"},
                "score": {"type": "number"}
            }
        },
        "GenerationRun": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "section_id": {"type": "string"},
                "session_id": {"type": "string"},
                "template_id": {"type": "string"},
                "score": {"type": "number"},
                "warning_count": {"type": "integer"},
                "stats": {"type": "object"},
                "created_at": {"type": "string"}
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
