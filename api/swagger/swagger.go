package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hostel Ops API",
        "description": "Hostel attendance, gate pass and notice board backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login, token refresh and logout"},
        {"name": "Attendance", "description": "Geofenced nightly attendance"},
        {"name": "GatePass", "description": "Gate pass requests, approvals and gate events"},
        {"name": "Settings", "description": "Hostel policy settings"},
        {"name": "Notices", "description": "Notice board"},
        {"name": "Alerts", "description": "Emergency alerts"},
        {"name": "Reports", "description": "Downloadable CSV/PDF reports"},
        {"name": "Metrics", "description": "Operational metrics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Access and refresh tokens", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the presented refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Logged out"}
                }
            }
        },
        "/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark tonight's attendance from inside the geofence",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Attendance recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already marked, outside window or out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/today": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Check whether tonight's attendance is marked",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Today's state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/report": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Present/absent roll call for a date",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Daily report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/students/{studentId}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance history for one student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "History page", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gatepasses": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Request a new gate pass",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Pass created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Too many pending passes", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["GatePass"],
                "summary": "List gate passes visible to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Pass list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gatepasses/{id}/parent-decision": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Record the parent's decision",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Updated pass", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Pass is not awaiting this decision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gatepasses/{id}/warden-decision": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Record the warden's decision",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Updated pass", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Pass is not awaiting this decision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gatepasses/currently-out": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Students currently outside the hostel",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Out ledger", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notices": {
            "get": {
                "tags": ["Notices"],
                "summary": "List notices",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Notice page", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "List hostel settings",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
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
