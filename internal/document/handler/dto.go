package handler

import (
	"time"

	"github.com/docflow/review-service/internal/document"
	"github.com/docflow/review-service/internal/models"
)

type createDocumentRequest struct {
	Title   string `json:"title" binding:"required,min=3"`
	Content string `json:"content" binding:"required,min=10"`
}

// updateDocumentRequest only carries the editable fields; anything else in
// the body is ignored.
type updateDocumentRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=3"`
	Content *string `json:"content" binding:"omitempty,min=10"`
}

type listDocumentsQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=draft pending approved rejected"`
	CreatorID string `form:"creatorId"`
}

type decideRequest struct {
	Action  string  `json:"action" binding:"required,oneof=approved rejected"`
	Comment *string `json:"comment" binding:"omitempty,min=3"`
}

type listApprovalsQuery struct {
	DocumentID string `form:"documentId"`
	ApproverID string `form:"approverId"`
	Action     string `form:"action" binding:"omitempty,oneof=approved rejected"`
}

type userView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email,omitempty"`
	Role  models.Role `json:"role,omitempty"`
}

type documentSummary struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Status document.Status `json:"status"`
}

type documentView struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Status    document.Status `json:"status"`
	CreatorID string          `json:"creatorId"`
	Creator   userView        `json:"creator"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Approvals []approvalView  `json:"approvals,omitempty"`
}

type approvalView struct {
	ID         string           `json:"id"`
	DocumentID string           `json:"documentId"`
	Document   *documentSummary `json:"document,omitempty"`
	ApproverID string           `json:"approverId"`
	Approver   userView         `json:"approver"`
	Action     document.Action  `json:"action"`
	Comment    *string          `json:"comment"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// toUserView falls back to the bare id for actors never seen.
func toUserView(id string, profiles map[string]*models.User) userView {
	u, ok := profiles[id]
	if !ok {
		return userView{ID: id}
	}
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func toDocumentView(d *document.Document, profiles map[string]*models.User) documentView {
	return documentView{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Status:    d.Status,
		CreatorID: d.CreatorID,
		Creator:   toUserView(d.CreatorID, profiles),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toApprovalView(a *document.Approval, profiles map[string]*models.User, docs map[string]*document.Document) approvalView {
	v := approvalView{
		ID:         a.ID,
		DocumentID: a.DocumentID,
		ApproverID: a.ApproverID,
		Approver:   toUserView(a.ApproverID, profiles),
		Action:     a.Action,
		Comment:    a.Comment,
		CreatedAt:  a.CreatedAt,
	}
	if d, ok := docs[a.DocumentID]; ok {
		v.Document = &documentSummary{ID: d.ID, Title: d.Title, Status: d.Status}
	}
	return v
}
