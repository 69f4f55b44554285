package handler

import (
	"time"

	lotapp "github.com/ftzops/backend/internal/application/lot"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles lot document API endpoints. Documents are
// customs paperwork (manifests, entry summaries, inspection reports)
// stored in object storage and attached to a lot.
type DocumentHandler struct {
	BaseHandler
	documentService *lotapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *lotapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// DownloadURLResponse carries a presigned download URL
type DownloadURLResponse struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// InitiateUpload creates a pending document record and returns a presigned
// upload URL. The client PUTs the file directly to object storage, then
// confirms.
func (h *DocumentHandler) InitiateUpload(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	var req lotapp.InitiateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.LotID = lotID

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	req.UploadedBy = actor

	result, err := h.documentService.InitiateUpload(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ConfirmUpload marks a pending document as uploaded after verifying the
// object exists in storage
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.documentService.ConfirmUpload(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}

// GetDownloadURL returns a presigned download URL for a confirmed document
func (h *DocumentHandler) GetDownloadURL(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	url, expiresAt, err := h.documentService.GetDownloadURL(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, DownloadURLResponse{
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	})
}

// ListByLot returns every document attached to a lot
func (h *DocumentHandler) ListByLot(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	docs, err := h.documentService.ListByLot(c.Request.Context(), lotID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, docs)
}

// Delete removes a document record and its stored object
func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), documentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
