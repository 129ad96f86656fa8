// Package docs registers the OpenAPI description of the poll API with swag
// so the /swagger/ UI can load it from /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "Principal": {"type": "apiKey", "name": "X-Principal", "in": "header"}
    },
    "paths": {
        "/polls": {
            "post": {
                "summary": "Create a poll and charge the creation fee",
                "security": [{"Principal": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePollRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CreatePollResponse"}},
                    "400": {"description": "Invalid field", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Caller or authority not verified", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Title taken or capacity reached", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "424": {"description": "Ledger transfer failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/polls/count": {
            "get": {
                "summary": "Number of polls created",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PollCountResponse"}}}
            }
        },
        "/polls/exists": {
            "get": {
                "summary": "Whether a title is taken",
                "parameters": [{"in": "query", "name": "title", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PollExistenceResponse"}}}
            }
        },
        "/polls/{poll_id}": {
            "get": {
                "summary": "Read a poll",
                "parameters": [{"$ref": "#/parameters/PollID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PollResponse"}},
                    "404": {"description": "Unknown poll", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "summary": "Update title, duration and quorum",
                "security": [{"Principal": []}],
                "parameters": [
                    {"$ref": "#/parameters/PollID"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OKResponse"}},
                    "403": {"description": "Caller is not the creator", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/polls/{poll_id}/update": {
            "get": {
                "summary": "Last update applied to a poll",
                "parameters": [{"$ref": "#/parameters/PollID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PollUpdateResponse"}}}
            }
        },
        "/polls/{poll_id}/votes": {
            "post": {
                "summary": "Cast a hidden vote and stake MinStake",
                "security": [{"Principal": []}],
                "parameters": [
                    {"$ref": "#/parameters/PollID"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CastVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OKResponse"}},
                    "409": {"description": "Window closed, already voted or anomaly", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/polls/{poll_id}/reveals": {
            "post": {
                "summary": "Reveal option and salt",
                "security": [{"Principal": []}],
                "parameters": [
                    {"$ref": "#/parameters/PollID"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RevealVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OKResponse"}},
                    "422": {"description": "Commitment missing or mismatched", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/polls/{poll_id}/finalize": {
            "post": {
                "summary": "Close a poll after the grace period once quorum is met",
                "security": [{"Principal": []}],
                "parameters": [{"$ref": "#/parameters/PollID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TallyResponse"}},
                    "409": {"description": "Too early or quorum not met", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/polls/{poll_id}/tally": {
            "get": {
                "summary": "Revealed vote counts",
                "parameters": [{"$ref": "#/parameters/PollID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/TallyResponse"}}}
            }
        },
        "/polls/{poll_id}/voters/{voter}": {
            "get": {
                "summary": "Vote state of one voter",
                "parameters": [
                    {"$ref": "#/parameters/PollID"},
                    {"in": "path", "name": "voter", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VoteStatusResponse"}}}
            }
        },
        "/commitments": {
            "post": {
                "summary": "Compute a commitment for an option and salt",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CommitmentRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/CommitmentResponse"}}}
            }
        },
        "/settings": {
            "get": {
                "summary": "Fee, authority target and poll capacity",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SettingsResponse"}}}
            }
        },
        "/settings/authority": {
            "put": {
                "summary": "Bind the authority target once",
                "security": [{"Principal": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SetAuthorityRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OKResponse"}},
                    "409": {"description": "Already bound", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/settings/creation-fee": {
            "put": {
                "summary": "Set the creation fee",
                "security": [{"Principal": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SetCreationFeeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OKResponse"}},
                    "403": {"description": "Authority not bound", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "parameters": {
        "PollID": {"in": "path", "name": "poll_id", "type": "integer", "format": "uint64", "required": true}
    },
    "definitions": {
        "CreatePollRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "duration": {"type": "integer"},
                "quorum": {"type": "integer"},
                "voting_type": {"type": "string", "enum": ["single", "multiple"]},
                "anonymity": {"type": "boolean"},
                "poll_type": {"type": "string", "enum": ["governance", "survey", "election"]},
                "reward_rate": {"type": "integer"},
                "grace_period": {"type": "integer"},
                "location": {"type": "string"},
                "category": {"type": "string", "enum": ["dao", "community", "corporate"]},
                "min_stake": {"type": "integer"},
                "max_votes": {"type": "integer"}
            }
        },
        "CreatePollResponse": {"type": "object", "properties": {"poll_id": {"type": "integer"}}},
        "UpdatePollRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}, "duration": {"type": "integer"}, "quorum": {"type": "integer"}}
        },
        "SetAuthorityRequest": {"type": "object", "properties": {"target": {"type": "string"}}},
        "SetCreationFeeRequest": {"type": "object", "properties": {"fee": {"type": "integer"}}},
        "CastVoteRequest": {"type": "object", "properties": {"commitment": {"type": "string", "description": "hex digest"}}},
        "RevealVoteRequest": {
            "type": "object",
            "properties": {"option": {"type": "integer"}, "salt": {"type": "string", "description": "hex bytes"}}
        },
        "CommitmentRequest": {
            "type": "object",
            "properties": {"option": {"type": "integer"}, "salt": {"type": "string", "description": "hex bytes"}}
        },
        "CommitmentResponse": {"type": "object", "properties": {"commitment": {"type": "string"}}},
        "PollResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "title": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "duration": {"type": "integer"},
                "quorum": {"type": "integer"},
                "voting_type": {"type": "string"},
                "anonymity": {"type": "boolean"},
                "poll_type": {"type": "string"},
                "reward_rate": {"type": "integer"},
                "grace_period": {"type": "integer"},
                "location": {"type": "string"},
                "category": {"type": "string"},
                "min_stake": {"type": "integer"},
                "max_votes": {"type": "integer"},
                "status": {"type": "string", "enum": ["open", "closed"]},
                "creator": {"type": "string"},
                "timestamp": {"type": "integer"},
                "start_block": {"type": "integer"},
                "end_block": {"type": "integer"},
                "anomalous": {"type": "boolean"}
            }
        },
        "PollUpdateResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "title": {"type": "string"},
                "duration": {"type": "integer"},
                "quorum": {"type": "integer"},
                "timestamp": {"type": "integer"},
                "updater": {"type": "string"}
            }
        },
        "PollCountResponse": {"type": "object", "properties": {"count": {"type": "integer"}}},
        "PollExistenceResponse": {"type": "object", "properties": {"title": {"type": "string"}, "exists": {"type": "boolean"}}},
        "TallyResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "counts": {"type": "array", "items": {"type": "integer"}},
                "total": {"type": "integer"}
            }
        },
        "VoteStatusResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "integer"},
                "voter": {"type": "string"},
                "state": {"type": "string", "enum": ["none", "committed", "revealed"]}
            }
        },
        "SettingsResponse": {
            "type": "object",
            "properties": {
                "creation_fee": {"type": "integer"},
                "authority_target": {"type": "string"},
                "max_polls": {"type": "integer"}
            }
        },
        "OKResponse": {"type": "object", "properties": {"ok": {"type": "boolean"}}},
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "error_code": {"type": "integer"},
                "kind": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds the values substituted into docTemplate.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "pollgov API",
	Description:      "Governed commit-reveal polls driven by block height.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
