package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>review-service Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "review-service", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "code": {"type":"string","enum":["not_found","forbidden","invalid_state","validation_error","conflict","unavailable","internal_error"]} } },
      "Document": { "type": "object", "properties": { "id": {"type":"string"}, "title": {"type":"string"}, "content": {"type":"string"}, "status": {"type":"string","enum":["draft","pending","approved","rejected"]}, "creatorId": {"type":"string"}, "creator": {"$ref":"#/components/schemas/User"}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"}, "approvals": {"type":"array","items":{"$ref":"#/components/schemas/Approval"}} } },
      "User": { "type": "object", "properties": { "id": {"type":"string"}, "name": {"type":"string"}, "email": {"type":"string"}, "role": {"type":"string","enum":["user","approver","admin"]} } },
      "DocumentSummary": { "type": "object", "properties": { "id": {"type":"string"}, "title": {"type":"string"}, "status": {"type":"string","enum":["draft","pending","approved","rejected"]} } },
      "Approval": { "type": "object", "properties": { "id": {"type":"string"}, "documentId": {"type":"string"}, "document": {"$ref":"#/components/schemas/DocumentSummary"}, "approverId": {"type":"string"}, "approver": {"$ref":"#/components/schemas/User"}, "action": {"type":"string","enum":["approved","rejected"]}, "comment": {"type":"string","nullable":true}, "createdAt": {"type":"string","format":"date-time"} } },
      "Stats": { "type": "object", "properties": { "total": {"type":"integer"}, "approved": {"type":"integer"}, "rejected": {"type":"integer"} } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/api/v1/documents": {
      "post": { "summary": "Create a draft", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["title","content"],"properties":{"title":{"type":"string","minLength":3},"content":{"type":"string","minLength":10}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "validation error" } } },
      "get": { "summary": "List documents, newest first", "parameters": [ {"name":"status","in":"query","schema":{"type":"string"}}, {"name":"creatorId","in":"query","schema":{"type":"string"}} ], "responses": { "200": { "description": "documents" } } }
    },
    "/api/v1/documents/mine": { "get": { "summary": "List the caller's documents", "responses": { "200": { "description": "documents" } } } },
    "/api/v1/documents/{id}": {
      "get": { "summary": "Get a document with its approvals", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit title/content", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string","minLength":3},"content":{"type":"string","minLength":10}}}}}}, "responses": { "200": { "description": "updated" }, "400": { "description": "locked or invalid" }, "403": { "description": "not the creator" } } },
      "delete": { "summary": "Delete a document and its approvals", "responses": { "204": { "description": "deleted" }, "400": { "description": "approved document" }, "403": { "description": "not the creator" } } }
    },
    "/api/v1/documents/{id}/submit": { "post": { "summary": "Submit for approval", "responses": { "200": { "description": "pending" }, "400": { "description": "not draft or rejected" }, "403": { "description": "not the creator" } } } },
    "/api/v1/approvals": { "get": { "summary": "List approvals", "parameters": [ {"name":"documentId","in":"query","schema":{"type":"string"}}, {"name":"approverId","in":"query","schema":{"type":"string"}}, {"name":"action","in":"query","schema":{"type":"string"}} ], "responses": { "200": { "description": "approvals" } } } },
    "/api/v1/approvals/documents/{documentId}": {
      "post": { "summary": "Approve or reject a pending document", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["action"],"properties":{"action":{"type":"string","enum":["approved","rejected"]},"comment":{"type":"string","minLength":3}}}}}}, "responses": { "201": { "description": "decision recorded" }, "400": { "description": "not pending, self-approval or duplicate" }, "403": { "description": "role may not decide" }, "404": { "description": "document not found" } } },
      "get": { "summary": "List a document's approvals", "responses": { "200": { "description": "approvals" }, "404": { "description": "document not found" } } }
    },
    "/api/v1/approvals/mine": { "get": { "summary": "List the caller's decisions", "responses": { "200": { "description": "approvals" }, "403": { "description": "approvers and admins only" } } } },
    "/api/v1/approvals/stats": { "get": { "summary": "Caller's decision counts", "responses": { "200": { "description": "stats" }, "403": { "description": "approvers and admins only" } } } },
    "/api/v1/approvals/stats/all": { "get": { "summary": "Decision counts across approvers", "responses": { "200": { "description": "stats" }, "403": { "description": "admins only" } } } },
    "/api/v1/approvals/{id}": { "get": { "summary": "Get one approval", "responses": { "200": { "description": "approval" }, "404": { "description": "not found" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
