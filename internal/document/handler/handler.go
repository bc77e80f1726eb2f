// Package handler exposes the review workflow over HTTP.
package handler

import (
	"net/http"

	"github.com/docflow/review-service/internal/access"
	"github.com/docflow/review-service/internal/document"
	"github.com/docflow/review-service/internal/document/service"
	"github.com/docflow/review-service/internal/models"
	"github.com/docflow/review-service/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	lifecycle *service.Lifecycle
	ledger    *service.Ledger
	resolver  ProfileResolver
}

// New creates the handler. profiles may be nil, in which case responses
// only carry actor ids.
func New(lifecycle *service.Lifecycle, ledger *service.Ledger, profiles ProfileResolver) *Handler {
	return &Handler{lifecycle: lifecycle, ledger: ledger, resolver: profiles}
}

// Register mounts the document and approval routes on rg. rg must already
// run middleware.AuthMiddleware.
func (h *Handler) Register(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.POST("", h.createDocument)
	docs.GET("", h.listDocuments)
	docs.GET("/mine", h.listMyDocuments)
	docs.GET("/:id", h.getDocument)
	docs.PATCH("/:id", h.updateDocument)
	docs.DELETE("/:id", h.deleteDocument)
	docs.POST("/:id/submit", h.submitDocument)

	ownDecisions := middleware.RequireCapability(access.ViewOwnDecisions, "Only approvers and admins can view decisions")
	approvals := rg.Group("/approvals")
	approvals.POST("/documents/:documentId", h.decide)
	approvals.GET("", h.listApprovals)
	approvals.GET("/mine", ownDecisions, h.listMyApprovals)
	approvals.GET("/stats", ownDecisions, h.myStats)
	approvals.GET("/stats/all", middleware.RequireCapability(access.ViewAllStats, "Only admins can view all stats"), h.allStats)
	approvals.GET("/documents/:documentId", h.listDocumentApprovals)
	approvals.GET("/:id", h.getApproval)
}

func actor(c *gin.Context) (models.Actor, bool) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return a, ok
}

func (h *Handler) createDocument(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBindError(c, err)
		return
	}
	d, err := h.lifecycle.Create(c.Request.Context(), req.Title, req.Content, a.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.documentView(c.Request.Context(), d))
}

func (h *Handler) listDocuments(c *gin.Context) {
	var q listDocumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	list, err := h.lifecycle.List(c.Request.Context(), document.Filter{Status: document.Status(q.Status), CreatorID: q.CreatorID})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.documentViews(c.Request.Context(), list))
}

func (h *Handler) listMyDocuments(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.lifecycle.ListMine(c.Request.Context(), a.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.documentViews(c.Request.Context(), list))
}

// getDocument returns the document with its decisions, newest first.
func (h *Handler) getDocument(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := h.lifecycle.Get(ctx, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	approvals, err := h.ledger.ListByDocument(ctx, d.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.documentWithApprovals(ctx, d, approvals))
}

func (h *Handler) updateDocument(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBindError(c, err)
		return
	}
	d, err := h.lifecycle.Update(c.Request.Context(), c.Param("id"), document.Patch{Title: req.Title, Content: req.Content}, a)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.documentView(c.Request.Context(), d))
}

func (h *Handler) deleteDocument(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.lifecycle.Delete(c.Request.Context(), c.Param("id"), a); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitDocument(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.lifecycle.Submit(c.Request.Context(), c.Param("id"), a.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.documentView(c.Request.Context(), d))
}

func (h *Handler) decide(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBindError(c, err)
		return
	}
	ap, err := h.ledger.Decide(c.Request.Context(), c.Param("documentId"), document.Action(req.Action), req.Comment, a)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.approvalView(c.Request.Context(), ap))
}

func (h *Handler) listApprovals(c *gin.Context) {
	var q listApprovalsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	list, err := h.ledger.List(c.Request.Context(), document.ApprovalFilter{
		DocumentID: q.DocumentID,
		ApproverID: q.ApproverID,
		Action:     document.Action(q.Action),
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.approvalViews(c.Request.Context(), list))
}

func (h *Handler) listMyApprovals(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.ledger.ListByApprover(c.Request.Context(), a.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.approvalViews(c.Request.Context(), list))
}

func (h *Handler) myStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	h.stats(c, a.ID)
}

func (h *Handler) allStats(c *gin.Context) {
	h.stats(c, "")
}

func (h *Handler) stats(c *gin.Context, approverID string) {
	s, err := h.ledger.Stats(c.Request.Context(), approverID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// listDocumentApprovals 404s for unknown documents rather than returning [].
func (h *Handler) listDocumentApprovals(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := h.lifecycle.Get(ctx, c.Param("documentId"))
	if err != nil {
		renderError(c, err)
		return
	}
	list, err := h.ledger.ListByDocument(ctx, d.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.approvalViews(c.Request.Context(), list))
}

func (h *Handler) getApproval(c *gin.Context) {
	ap, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.approvalView(c.Request.Context(), ap))
}
