package handler

import (
	installmentapp "github.com/bnpl/backend/internal/application/installment"
	"github.com/bnpl/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlanModificationHandler handles plan modification API endpoints
type PlanModificationHandler struct {
	BaseHandler
	modificationService *installmentapp.ModificationService
}

// NewPlanModificationHandler creates a new PlanModificationHandler
func NewPlanModificationHandler(modificationService *installmentapp.ModificationService) *PlanModificationHandler {
	return &PlanModificationHandler{
		modificationService: modificationService,
	}
}

// getActor returns the acting username from JWT claims, falling back to the
// X-User-Name header for development.
func getActor(c *gin.Context) string {
	if username := middleware.GetJWTUsername(c); username != "" {
		return username
	}
	if username := c.GetHeader("X-User-Name"); username != "" {
		return username
	}
	return "system"
}

// Request handles POST /installment/plans/:id/modifications
func (h *PlanModificationHandler) Request(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req installmentapp.RequestModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mod, err := h.modificationService.Request(c.Request.Context(), tenantID, planID, getActor(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, mod)
}

// Preview handles POST /installment/plans/:id/modifications/preview
func (h *PlanModificationHandler) Preview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req installmentapp.PreviewModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	preview, err := h.modificationService.Preview(c.Request.Context(), tenantID, planID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}

// ListByPlan handles GET /installment/plans/:id/modifications
func (h *PlanModificationHandler) ListByPlan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var filter installmentapp.ModificationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mods, err := h.modificationService.ListByPlan(c.Request.Context(), tenantID, planID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, mods)
}

// List handles GET /installment/modifications
func (h *PlanModificationHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter installmentapp.ModificationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mods, err := h.modificationService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, mods)
}

// GetByID handles GET /installment/modifications/:id
func (h *PlanModificationHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	modID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid modification ID format")
		return
	}

	mod, err := h.modificationService.GetByID(c.Request.Context(), tenantID, modID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, mod)
}

// Approve handles POST /installment/modifications/:id/approve
func (h *PlanModificationHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	modID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid modification ID format")
		return
	}

	var req installmentapp.DecideModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mod, err := h.modificationService.Approve(c.Request.Context(), tenantID, modID, getActor(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, mod)
}

// Reject handles POST /installment/modifications/:id/reject
func (h *PlanModificationHandler) Reject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	modID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid modification ID format")
		return
	}

	var req installmentapp.DecideModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mod, err := h.modificationService.Reject(c.Request.Context(), tenantID, modID, getActor(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, mod)
}

// Apply handles POST /installment/modifications/:id/apply
func (h *PlanModificationHandler) Apply(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	modID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid modification ID format")
		return
	}

	plan, err := h.modificationService.Apply(c.Request.Context(), tenantID, modID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}
