// Package docs registers the OpenAPI description served by the Swagger UI at
// /swagger/index.html.
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
        "/auth/register": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Register a user and log in",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Log in with email and password",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/auth/logout": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Clear the session",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/session": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Current session user",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "patch": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Auth"
                ],
                "summary": "Update the session profile",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/users": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Users"
                ],
                "summary": "List effective users",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Users"
                ],
                "summary": "Delete all stored users",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/users/{email}/role": {
            "put": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Users"
                ],
                "summary": "Change a user's role",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "List suggestions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Submit a suggestion",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Delete all suggestions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/export.csv": {
            "get": {
                "produces": [
                    "text/csv"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Export the admin review queue",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/bulk-status": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Set the status of many suggestions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/recompute-sentiment": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Recompute sentiment for all suggestions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/seed": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Seed demo suggestions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Get a suggestion",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "patch": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Edit a suggestion",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Delete a suggestion",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/{id}/vote": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Upvote a suggestion",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/{id}/status": {
            "put": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Set a suggestion's status",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/{id}/similar": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Find similar suggestions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/suggestions/{id}/comments": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Comments"
                ],
                "summary": "List comments",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Comments"
                ],
                "summary": "Add a comment",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/comments/{id}": {
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Comments"
                ],
                "summary": "Delete a comment",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/notifications": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Notifications"
                ],
                "summary": "List the session user's notifications",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/notifications/unread-count": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Notifications"
                ],
                "summary": "Count unread notifications",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/notifications/read-all": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Notifications"
                ],
                "summary": "Mark all notifications read",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Notifications"
                ],
                "summary": "Mark a notification read",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/settings": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Settings"
                ],
                "summary": "Get settings",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "patch": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Settings"
                ],
                "summary": "Update settings",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/leaderboard": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Insights"
                ],
                "summary": "Contributor leaderboard",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/analytics": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Insights"
                ],
                "summary": "Suggestion analytics",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/analytics/export.csv": {
            "get": {
                "produces": [
                    "text/csv"
                ],
                "tags": [
                    "Insights"
                ],
                "summary": "Export an analytics table",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/dashboard": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Insights"
                ],
                "summary": "Dashboard counters",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/admin/kpis": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Insights"
                ],
                "summary": "Admin KPIs",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/meta": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Insights"
                ],
                "summary": "Client metadata",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/live": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Live"
                ],
                "summary": "Refresh events over websocket",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/reset": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Admin"
                ],
                "summary": "Remove every stored document",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Suggestion Box API",
	Description:      "Employee suggestion box with sentiment, voting, review workflow and analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
