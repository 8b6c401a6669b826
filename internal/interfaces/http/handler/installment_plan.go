package handler

import (
	"time"

	installmentapp "github.com/bnpl/backend/internal/application/installment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InstallmentPlanHandler handles installment plan API endpoints
type InstallmentPlanHandler struct {
	BaseHandler
	planService  *installmentapp.PlanService
	sweepService *installmentapp.OverdueSweepService
}

// NewInstallmentPlanHandler creates a new InstallmentPlanHandler
func NewInstallmentPlanHandler(
	planService *installmentapp.PlanService,
	sweepService *installmentapp.OverdueSweepService,
) *InstallmentPlanHandler {
	return &InstallmentPlanHandler{
		planService:  planService,
		sweepService: sweepService,
	}
}

// Create handles POST /installment/plans
func (h *InstallmentPlanHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req installmentapp.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, plan)
}

// GetByID handles GET /installment/plans/:id
func (h *InstallmentPlanHandler) GetByID(c *gin.Context) {
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

	plan, err := h.planService.GetByID(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// GetByPlanNumber handles GET /installment/plans/number/:plan_number
func (h *InstallmentPlanHandler) GetByPlanNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planNumber := c.Param("plan_number")
	if planNumber == "" {
		h.BadRequest(c, "Plan number is required")
		return
	}

	plan, err := h.planService.GetByPlanNumber(c.Request.Context(), tenantID, planNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// GetBySale handles GET /installment/plans/sale/:sale_id
func (h *InstallmentPlanHandler) GetBySale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	saleID, err := uuid.Parse(c.Param("sale_id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	plan, err := h.planService.GetBySale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// List handles GET /installment/plans
func (h *InstallmentPlanHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter installmentapp.PlanListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.planService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// RecordPayment handles POST /installment/plans/:id/payments
func (h *InstallmentPlanHandler) RecordPayment(c *gin.Context) {
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

	var req installmentapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.RecordPayment(c.Request.Context(), tenantID, planID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// Cancel handles POST /installment/plans/:id/cancel
func (h *InstallmentPlanHandler) Cancel(c *gin.Context) {
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

	plan, err := h.planService.Cancel(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// MarkDefaulted handles POST /installment/plans/:id/default
func (h *InstallmentPlanHandler) MarkDefaulted(c *gin.Context) {
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

	plan, err := h.planService.MarkDefaulted(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// PortfolioSummary handles GET /installment/plans/summary
func (h *InstallmentPlanHandler) PortfolioSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	summary, err := h.planService.GetPortfolioSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// SweepOverdue handles POST /installment/plans/sweep-overdue
//
// Runs the overdue sweep synchronously and returns its stats. The scheduler
// runs the same sweep on an interval; this endpoint exists for operators who
// do not want to wait for the next tick.
func (h *InstallmentPlanHandler) SweepOverdue(c *gin.Context) {
	stats, err := h.sweepService.SweepOverdue(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}
