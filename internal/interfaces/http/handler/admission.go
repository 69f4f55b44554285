package handler

import (
	"strings"

	admissionapp "github.com/ftzops/backend/internal/application/admission"
	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdmissionHandler handles preadmission filing API endpoints
type AdmissionHandler struct {
	BaseHandler
	admissionService *admissionapp.Service
}

// NewAdmissionHandler creates a new AdmissionHandler
func NewAdmissionHandler(admissionService *admissionapp.Service) *AdmissionHandler {
	return &AdmissionHandler{admissionService: admissionService}
}

// Create files a new pending preadmission
func (h *AdmissionHandler) Create(c *gin.Context) {
	var req admissionapp.CreatePreadmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Customer principals can only file for themselves
	if scopeID, scoped := middleware.CustomerScope(c); scoped && req.CustomerID != scopeID {
		h.Forbidden(c, "Cannot file a preadmission for another customer")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	req.CreatedBy = actor

	filing, err := h.admissionService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, filing)
}

// Process admits a pending filing into a live lot. Operator only.
func (h *AdmissionHandler) Process(c *gin.Context) {
	filingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preadmission ID format")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	result, err := h.admissionService.Process(c.Request.Context(), filingID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel withdraws a pending filing
func (h *AdmissionHandler) Cancel(c *gin.Context) {
	filingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preadmission ID format")
		return
	}

	if !h.authorizeFilingAccess(c, filingID) {
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	filing, err := h.admissionService.Cancel(c.Request.Context(), filingID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, filing)
}

// GetByID returns a single filing
func (h *AdmissionHandler) GetByID(c *gin.Context) {
	filingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preadmission ID format")
		return
	}

	filing, err := h.admissionService.GetByID(c.Request.Context(), filingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if scopeID, scoped := middleware.CustomerScope(c); scoped && filing.CustomerID != scopeID {
		h.NotFound(c, "Preadmission not found")
		return
	}

	h.Success(c, filing)
}

// List returns a paginated filing listing scoped to the caller
func (h *AdmissionHandler) List(c *gin.Context) {
	filter := domain.PreadmissionFilter{Filter: bindListFilter(c)}

	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		filter.CustomerID = &scopeID
	} else if raw := c.Query("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		filter.CustomerID = &customerID
	}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.PreadmissionStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !status.IsValid() {
				h.BadRequest(c, "Invalid preadmission status: "+s)
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	result, err := h.admissionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// authorizeFilingAccess verifies that a customer principal owns the filing.
// Operators pass unconditionally. Writes the error response on failure.
func (h *AdmissionHandler) authorizeFilingAccess(c *gin.Context, filingID uuid.UUID) bool {
	scopeID, scoped := middleware.CustomerScope(c)
	if !scoped {
		return true
	}
	filing, err := h.admissionService.GetByID(c.Request.Context(), filingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return false
	}
	if filing.CustomerID != scopeID {
		h.NotFound(c, "Preadmission not found")
		return false
	}
	return true
}
