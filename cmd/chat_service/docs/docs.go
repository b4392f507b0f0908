// Package docs swagger document of chat_service
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
        "/": {
            "get": {
                "tags": ["Shared"],
                "summary": "Check chat service status",
                "responses": {"200": {"description": "chat service start!", "schema": {"type": "string"}}}
            }
        },
        "/debug": {
            "post": {
                "tags": ["Shared"],
                "summary": "Toggle Debug Log Flag",
                "parameters": [
                    {"type": "boolean", "description": "Debug status", "name": "status", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "debug mode updated", "schema": {"type": "string"}},
                    "400": {"description": "Invalid status value", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "List conversations",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Conversation"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/conversations/unread": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "Unread summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UnreadSummary"}}
                }
            }
        },
        "/conversations/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "Get conversation",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Conversation"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/app.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/conversations/{id}/read": {
            "post": {
                "tags": ["Conversations"],
                "summary": "Mark conversation read",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/conversations/{id}/messages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List messages",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "description": "Group by day", "name": "grouped", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Send text message",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true},
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/app.SendTextRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Message"}}
                }
            }
        },
        "/conversations/{id}/messages/{messageId}/respond": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Offers"],
                "summary": "Respond to offer",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Offer message ID", "name": "messageId", "in": "path", "required": true},
                    {"description": "accepted | declined", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/app.RespondRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Message"}},
                    "409": {"description": "offer already answered", "schema": {"$ref": "#/definitions/app.ErrorResponse"}},
                    "422": {"description": "message is not an offer", "schema": {"$ref": "#/definitions/app.ErrorResponse"}}
                }
            }
        },
        "/offers": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Offers"],
                "summary": "Send job offer / gig invite",
                "parameters": [
                    {"description": "Offer", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/app.SendOfferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/app.DispatchResponse"}}
                }
            }
        },
        "/offers/catalog": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Offers"],
                "summary": "Send offer from catalog",
                "parameters": [
                    {"description": "Catalog reference", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/app.SendCatalogOfferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/app.DispatchResponse"}}
                }
            }
        }
    },
    "definitions": {
        "app.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "error_code": {"type": "string"}}
        },
        "app.SendTextRequest": {
            "type": "object",
            "properties": {"content": {"type": "string"}}
        },
        "app.RespondRequest": {
            "type": "object",
            "properties": {"decision": {"type": "string", "enum": ["accepted", "declined"]}}
        },
        "app.SendOfferRequest": {
            "type": "object",
            "properties": {
                "recipient": {"$ref": "#/definitions/domain.Participant"},
                "offer": {"$ref": "#/definitions/domain.OfferDetails"},
                "note": {"type": "string"}
            }
        },
        "app.SendCatalogOfferRequest": {
            "type": "object",
            "properties": {
                "recipient": {"$ref": "#/definitions/domain.Participant"},
                "kind": {"type": "string", "enum": ["job_offer", "gig_invite"]},
                "reference_id": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "app.DispatchResponse": {
            "type": "object",
            "properties": {
                "conversation": {"$ref": "#/definitions/domain.Conversation"},
                "message": {"$ref": "#/definitions/domain.Message"}
            }
        },
        "domain.Participant": {
            "type": "object",
            "properties": {"user_id": {"type": "string"}, "display_name": {"type": "string"}, "avatar_url": {"type": "string"}}
        },
        "domain.OfferDetails": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "reference_id": {"type": "string"},
                "title": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "end_time": {"type": "string"},
                "location": {"type": "string"},
                "studio": {"type": "string"},
                "studio_id": {"type": "string"},
                "rate": {"type": "string"},
                "class_type": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "responded_by": {"type": "string"},
                "responded_at": {"type": "integer"}
            }
        },
        "domain.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "conversation_id": {"type": "string"},
                "sender_id": {"type": "string"},
                "sender_name": {"type": "string"},
                "timestamp": {"type": "integer"},
                "type": {"type": "string"},
                "content": {"type": "string"},
                "payload": {"$ref": "#/definitions/domain.OfferDetails"}
            }
        },
        "domain.Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "participants": {"type": "array", "items": {"type": "string"}},
                "participant_details": {"type": "object"},
                "last_message": {
                    "type": "object",
                    "properties": {"content": {"type": "string"}, "timestamp": {"type": "integer"}, "sender_id": {"type": "string"}}
                },
                "unread_count": {"type": "object", "additionalProperties": {"type": "integer"}},
                "created_at": {"type": "integer"}
            }
        },
        "domain.UnreadSummary": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "conversations": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {"conversation_id": {"type": "string"}, "unread_count": {"type": "integer"}, "last_activity_at": {"type": "integer"}}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8083",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Studio Marketplace Chat API",
	Description:      "Conversations, messages and offer negotiation between studios and instructors",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
