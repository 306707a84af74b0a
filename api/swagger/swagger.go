package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Training Assignment API",
        "description": "Training assignment engine: categorization, manual and automatic session placement",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Categories", "description": "Trainee categorization snapshots"},
        {"name": "Assignments", "description": "Manual trainee placement"},
        {"name": "AutoAssign", "description": "Bulk planner runs"},
        {"name": "Trainers", "description": "Trainer session commitments"}
    ],
    "paths": {
        "/schedules/{scheduleID}/categories": {
            "get": {
                "tags": ["Categories"],
                "summary": "Categorize a schedule's trainees",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleID}/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign one trainee to a session reference",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Delete every assignment of a schedule",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Confirmation token mismatch"}
                }
            }
        },
        "/schedules/{scheduleID}/assignments/bulk": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a set of trainees to the same session reference",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleID}/assignments/group": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove a trainee from a whole group",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleID}/assignments/course": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove a trainee from one course at a group",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleID}/assignments/count": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Count a schedule's assignment records",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{scheduleID}/trainees/{traineeID}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List one trainee's assignments in a schedule",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"},
                    {"name": "traineeID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Trainee unknown"}
                }
            }
        },
        "/schedules/{scheduleID}/auto-assign": {
            "post": {
                "tags": ["AutoAssign"],
                "summary": "Start a background auto-assign run",
                "parameters": [
                    {"name": "scheduleID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auto-assign/runs/{runID}": {
            "get": {
                "tags": ["AutoAssign"],
                "summary": "Poll an auto-assign run",
                "parameters": [
                    {"name": "runID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Run expired or unknown"}
                }
            }
        },
        "/trainers/{id}/sessions": {
            "get": {
                "tags": ["Trainers"],
                "summary": "List a trainer's committed sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Trainers"],
                "summary": "Commit a trainer to a set of sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TrainerAssignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AssignRequest": {
            "type": "object",
            "properties": {
                "trainee_id": {"type": "string"},
                "target_id": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["trainee_id", "target_id"]
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "trainee_ids": {"type": "array", "items": {"type": "string"}},
                "target_id": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["trainee_ids", "target_id"]
        },
        "RemoveRequest": {
            "type": "object",
            "properties": {
                "trainee_id": {"type": "string"},
                "target_id": {"type": "string"}
            },
            "required": ["trainee_id", "target_id"]
        },
        "ResetScheduleRequest": {
            "type": "object",
            "properties": {
                "confirm": {"type": "string"}
            },
            "required": ["confirm"]
        },
        "TrainerAssignRequest": {
            "type": "object",
            "properties": {
                "schedule_id": {"type": "string"},
                "session_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["schedule_id", "session_ids"]
        },
        "Assignment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "schedule_id": {"type": "string"},
                "trainee_id": {"type": "string"},
                "level": {"type": "string"},
                "course_id": {"type": "string"},
                "session_id": {"type": "string"},
                "group_id": {"type": "string"},
                "location": {"type": "string"},
                "functional_area": {"type": "string"},
                "type": {"type": "string"},
                "note": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
