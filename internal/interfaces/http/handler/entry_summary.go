package handler

import (
	shipmentapp "github.com/ftzops/backend/internal/application/shipment"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EntrySummaryHandler serves read-only customs entry filing queries.
// Filings are produced by the broker feed; this API never mutates them.
type EntrySummaryHandler struct {
	BaseHandler
	entryService    *shipmentapp.EntrySummaryService
	shipmentService *shipmentapp.Service
}

// NewEntrySummaryHandler creates a new EntrySummaryHandler
func NewEntrySummaryHandler(
	entryService *shipmentapp.EntrySummaryService,
	shipmentService *shipmentapp.Service,
) *EntrySummaryHandler {
	return &EntrySummaryHandler{
		entryService:    entryService,
		shipmentService: shipmentService,
	}
}

// GetByID returns one entry filing
func (h *EntrySummaryHandler) GetByID(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry summary ID format")
		return
	}

	entry, err := h.entryService.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if scopeID, scoped := middleware.CustomerScope(c); scoped && entry.CustomerID != scopeID {
		h.NotFound(c, "Entry summary not found")
		return
	}

	h.Success(c, entry)
}

// List returns the caller's entry filings. Operators must name a customer;
// customer principals are locked to their own scope.
func (h *EntrySummaryHandler) List(c *gin.Context) {
	filter := bindListFilter(c)

	var customerID uuid.UUID
	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		customerID = scopeID
	} else {
		raw := c.Query("customer_id")
		if raw == "" {
			h.BadRequest(c, "customer_id query parameter is required")
			return
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		customerID = parsed
	}

	result, err := h.entryService.ListByCustomer(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListByPreshipment returns the filings referencing one shipment
func (h *EntrySummaryHandler) ListByPreshipment(c *gin.Context) {
	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid preshipment ID format")
		return
	}

	// Verify the caller may see the shipment before listing its filings
	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		shipment, err := h.shipmentService.GetByID(c.Request.Context(), shipmentID)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		if shipment.CustomerID != scopeID {
			h.NotFound(c, "Preshipment not found")
			return
		}
	}

	entries, err := h.entryService.ListByPreshipment(c.Request.Context(), shipmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}
