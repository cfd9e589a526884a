// Package swagger registers the API description served under /swagger
package swagger

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
        "/ping": {
            "get": {
                "description": "Returns a basic message",
                "produces": ["application/json"],
                "tags": ["test"],
                "summary": "Endpoint just pings the server",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/session": {
            "get": {
                "description": "Returns the room and player stored in the session cookie, so a reloaded client can reconnect",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Current session",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/rooms": {
            "post": {
                "description": "Opens a room hosted by the caller and returns the host's player token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Create a room",
                "parameters": [{"description": "Host display name", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"name": {"type": "string"}}}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/rooms/{room_id}": {
            "get": {
                "description": "Returns the current room document",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Get a room",
                "parameters": [{"type": "string", "description": "Room code", "name": "room_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/rooms/{room_id}/join": {
            "post": {
                "description": "Adds the caller to the room behind the code",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Join a room",
                "parameters": [
                    {"type": "string", "description": "Room code", "name": "room_id", "in": "path", "required": true},
                    {"description": "Display name", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"name": {"type": "string"}}}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/rooms/{room_id}/history": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Rounds played so far and the total per player. Only members of the room may read it.",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Drink history of a room",
                "parameters": [
                    {"type": "string", "description": "Room code", "name": "room_id", "in": "path", "required": true},
                    {"type": "string", "description": "Bearer player token", "name": "Authorization", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/rooms/{room_id}/players/me": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Removes the caller from the room. The room closes when the host leaves.",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Leave a room",
                "parameters": [
                    {"type": "string", "description": "Room code", "name": "room_id", "in": "path", "required": true},
                    {"type": "string", "description": "Bearer player token", "name": "Authorization", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Nhauzo API",
	Description:      "Gin-Gonic server for the \"Nhauzo\" drinking party game",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
