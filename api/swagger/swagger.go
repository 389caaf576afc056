package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Markaz API",
        "description": "Education-center back office: enrollment, attendance, assessments, reports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and profile"},
        {"name": "Learners", "description": "Learner accounts and point balances"},
        {"name": "Groups", "description": "Cohorts with capacity limits"},
        {"name": "Enrollments", "description": "Learner group membership"},
        {"name": "Sessions", "description": "Planned class occurrences"},
        {"name": "Attendance", "description": "Presence and punctuality"},
        {"name": "Assessments", "description": "Tests, written assessments, assignments"},
        {"name": "Reports", "description": "Matrix and roster aggregation"},
        {"name": "Imports", "description": "Bulk learner import"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/learners": {
            "get": {
                "tags": ["Learners"],
                "summary": "List learners",
                "parameters": [
                    {"name": "groupId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Learners"],
                "summary": "Register learner",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLearnerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/learners/{id}/points": {
            "post": {
                "tags": ["Learners"],
                "summary": "Adjust learner points",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdjustPointsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Learner not found"}
                }
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll learner into a group",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Learner or group not found"},
                    "409": {"description": "Group capacity exceeded"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for a class day",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No class scheduled for the date"}
                }
            }
        },
        "/reports/groups/{groupId}/matrix": {
            "get": {
                "tags": ["Reports"],
                "summary": "Per-date, per-learner matrix report",
                "parameters": [
                    {"name": "groupId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/roster/{date}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Daily roster across all groups",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/learners": {
            "post": {
                "tags": ["Imports"],
                "summary": "Bulk import learners",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Partial-success summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateLearnerRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "phone": {"type": "string"}
            },
            "required": ["full_name"]
        },
        "AdjustPointsRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "direction": {"type": "string", "enum": ["CREDIT", "DEBIT"]}
            },
            "required": ["amount", "direction"]
        },
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "learner_id": {"type": "string"},
                "group_id": {"type": "string"}
            },
            "required": ["learner_id", "group_id"]
        },
        "RecordAttendanceRequest": {
            "type": "object",
            "properties": {
                "learner_id": {"type": "string"},
                "group_id": {"type": "string"},
                "date": {"type": "string"},
                "session_id": {"type": "string"},
                "present": {"type": "boolean"},
                "arrived_at": {"type": "string", "format": "date-time"}
            },
            "required": ["learner_id", "group_id", "date"]
        },
        "ImportRequest": {
            "type": "object",
            "properties": {
                "rows": {
                    "type": "array",
                    "items": {"type": "array", "items": {"type": "string"}}
                }
            },
            "required": ["rows"]
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
