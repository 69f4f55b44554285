package handler

import (
	"strings"

	shipmentapp "github.com/ftzops/backend/internal/application/shipment"
	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShipmentHandler handles preshipment API endpoints
type ShipmentHandler struct {
	BaseHandler
	shipmentService *shipmentapp.Service
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipmentService *shipmentapp.Service) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// Create builds a draft preshipment with its lot lines
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req shipmentapp.CreatePreshipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Customer principals can only request shipments of their own inventory
	if scopeID, scoped := middleware.CustomerScope(c); scoped && req.CustomerID != scopeID {
		h.Forbidden(c, "Cannot request a shipment for another customer")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	req.CreatedBy = actor

	shipment, err := h.shipmentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, shipment)
}

// Allocate withdraws the requested quantities from each lot. Operator only.
func (h *ShipmentHandler) Allocate(c *gin.Context) {
	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preshipment ID format")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	result, err := h.shipmentService.Allocate(c.Request.Context(), shipmentID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// MarkShipped marks an allocated preshipment as physically departed.
// Operator only.
func (h *ShipmentHandler) MarkShipped(c *gin.Context) {
	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preshipment ID format")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	shipment, err := h.shipmentService.MarkShipped(c.Request.Context(), shipmentID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, shipment)
}

// Cancel withdraws a draft preshipment
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preshipment ID format")
		return
	}

	if !h.authorizeShipmentAccess(c, shipmentID) {
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	shipment, err := h.shipmentService.Cancel(c.Request.Context(), shipmentID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, shipment)
}

// GetByID returns a single preshipment
func (h *ShipmentHandler) GetByID(c *gin.Context) {
	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preshipment ID format")
		return
	}

	shipment, err := h.shipmentService.GetByID(c.Request.Context(), shipmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if scopeID, scoped := middleware.CustomerScope(c); scoped && shipment.CustomerID != scopeID {
		h.NotFound(c, "Preshipment not found")
		return
	}

	h.Success(c, shipment)
}

// List returns a paginated preshipment listing scoped to the caller
func (h *ShipmentHandler) List(c *gin.Context) {
	filter := domain.PreshipmentFilter{Filter: bindListFilter(c)}

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
			status := domain.PreshipmentStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !status.IsValid() {
				h.BadRequest(c, "Invalid preshipment status: "+s)
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	result, err := h.shipmentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// authorizeShipmentAccess verifies that a customer principal owns the
// preshipment. Operators pass unconditionally. Writes the error response
// on failure.
func (h *ShipmentHandler) authorizeShipmentAccess(c *gin.Context, shipmentID uuid.UUID) bool {
	scopeID, scoped := middleware.CustomerScope(c)
	if !scoped {
		return true
	}
	shipment, err := h.shipmentService.GetByID(c.Request.Context(), shipmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return false
	}
	if shipment.CustomerID != scopeID {
		h.NotFound(c, "Preshipment not found")
		return false
	}
	return true
}
