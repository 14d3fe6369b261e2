// Package docs registra la spec OpenAPI servida en /swagger/*.
// Regenerar con: swag init -g cmd/api/main.go -o docs
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
        "/access/check": {
            "get": {
                "produces": ["application/json"],
                "tags": ["access"],
                "summary": "Consultar si el caller puede acceder a una categoría de un paciente",
                "parameters": [
                    {"type": "string", "description": "paciente", "name": "patient_id", "in": "query", "required": true},
                    {"type": "string", "description": "categoría", "name": "scope", "in": "query", "required": true},
                    {"type": "string", "description": "read (default) o write", "name": "level", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authz.checkResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        },
        "/grants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Historial de grants del paciente (incluye revocados y vencidos)",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/accessgrants.grantResponse"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Otorgar acceso a un destinatario",
                "parameters": [
                    {"description": "grant", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/accessgrants.createGrantRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/accessgrants.grantResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        },
        "/grants/{grantID}/revoke": {
            "post": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Revocar un grant (idempotente)",
                "parameters": [
                    {"type": "string", "description": "grant id", "name": "grantID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accessgrants.grantResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        },
        "/invitations/redeem": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Redimir un código de invitación",
                "parameters": [
                    {"description": "código de 8 caracteres", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/invitations.redeemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/invitations.redeemResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}},
                    "409": {"description": "ya usado", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}},
                    "410": {"description": "vencido", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        },
        "/me/grants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Pacientes que compartieron datos con el caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/accessgrants.sharedWithMeResponse"}}}
                }
            }
        },
        "/me/profile": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Crear o actualizar el perfil del paciente",
                "parameters": [
                    {"description": "perfil", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/patients.profileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/patients.profileResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        },
        "/tokens": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tokens"],
                "summary": "Listar tokens emitidos por el caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accesstokens.listTokensResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tokens"],
                "summary": "Crear token de acceso",
                "parameters": [
                    {"description": "scope y vencimiento", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/accesstokens.createTokenRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/accesstokens.createTokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        },
        "/tokens/{tokenID}": {
            "delete": {
                "tags": ["tokens"],
                "summary": "Borrar token (idempotente)",
                "parameters": [
                    {"type": "string", "description": "token id", "name": "tokenID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpjson.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "accessgrants.createGrantRequest": {
            "type": "object",
            "properties": {
                "data_types": {"type": "array", "items": {"type": "string"}},
                "expires_at": {"type": "string"},
                "granted_to_id": {"type": "string"},
                "permission": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "accessgrants.grantResponse": {
            "type": "object",
            "properties": {
                "data_types": {"type": "array", "items": {"type": "string"}},
                "expires_at": {"type": "string"},
                "granted_at": {"type": "string"},
                "granted_to_id": {"type": "string"},
                "granted_to_role": {"type": "string"},
                "id": {"type": "string"},
                "patient_id": {"type": "string"},
                "permission": {"type": "string"},
                "revoked_at": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "accessgrants.patientResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "patient_id": {"type": "string"}
            }
        },
        "accessgrants.sharedWithMeResponse": {
            "type": "object",
            "properties": {
                "grant": {"$ref": "#/definitions/accessgrants.grantResponse"},
                "patient": {"$ref": "#/definitions/accessgrants.patientResponse"}
            }
        },
        "accesstokens.createTokenRequest": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "kind": {"type": "string"},
                "recipient_hint": {"type": "string"},
                "scope": {"type": "array", "items": {"type": "string"}},
                "ttl_hours": {"type": "integer"}
            }
        },
        "accesstokens.createTokenResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "token": {"$ref": "#/definitions/accesstokens.tokenResponse"}
            }
        },
        "accesstokens.listTokensResponse": {
            "type": "object",
            "properties": {
                "active": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/accesstokens.tokenResponse"}},
                "used": {"type": "integer"}
            }
        },
        "accesstokens.tokenResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "id": {"type": "string"},
                "is_used": {"type": "boolean"},
                "issuer_id": {"type": "string"},
                "kind": {"type": "string"},
                "recipient_hint": {"type": "string"},
                "scope": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "used_at": {"type": "string"},
                "used_by_id": {"type": "string"}
            }
        },
        "authz.checkResponse": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"},
                "level": {"type": "string"},
                "patient_id": {"type": "string"},
                "scope": {"type": "string"}
            }
        },
        "httpjson.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "invitations.grantSummary": {
            "type": "object",
            "properties": {
                "data_types": {"type": "array", "items": {"type": "string"}},
                "id": {"type": "string"},
                "patient_id": {"type": "string"},
                "permission": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "invitations.redeemRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"}
            }
        },
        "invitations.redeemResponse": {
            "type": "object",
            "properties": {
                "grant": {"$ref": "#/definitions/invitations.grantSummary"},
                "redemption": {"$ref": "#/definitions/invitations.redemptionResponse"}
            }
        },
        "invitations.redemptionResponse": {
            "type": "object",
            "properties": {
                "issuer_id": {"type": "string"},
                "kind": {"type": "string"},
                "scope": {"type": "array", "items": {"type": "string"}},
                "token_id": {"type": "string"},
                "used_at": {"type": "string"}
            }
        },
        "patients.profileRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "patients.profileResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "patient-access API",
	Description:      "Tokens de invitación, grants de acceso y evaluación de permisos sobre datos de pacientes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
