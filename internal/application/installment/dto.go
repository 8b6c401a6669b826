package installment

import (
	"time"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Plan DTOs ====================

// ProductLineInput represents a financed product in the create request
type ProductLineInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	Category    string          `json:"category" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
}

// CreatePlanRequest represents a request to finance a sale in installments
type CreatePlanRequest struct {
	SaleID               uuid.UUID          `json:"sale_id" binding:"required"`
	CustomerID           uuid.UUID          `json:"customer_id" binding:"required"`
	Products             []ProductLineInput `json:"products" binding:"required,min=1,dive"`
	TotalPrice           decimal.Decimal    `json:"total_price" binding:"required"`
	DownPayment          decimal.Decimal    `json:"down_payment"`
	NumberOfInstallments int                `json:"number_of_installments" binding:"required,min=1,max=120"`
	InterestRate         decimal.Decimal    `json:"interest_rate"`
	StartDate            *time.Time         `json:"start_date"`
}

// RecordPaymentRequest represents a payment against one schedule line
type RecordPaymentRequest struct {
	InstallmentIndex int             `json:"installment_index" binding:"min=0"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	PaidAt           *time.Time      `json:"paid_at"`
}

// PlanListFilter represents filter options for the plan list
type PlanListFilter struct {
	Search     string                  `form:"search"`
	CustomerID *uuid.UUID              `form:"customer_id"`
	SaleID     *uuid.UUID              `form:"sale_id"`
	Status     *installment.PlanStatus `form:"status"`
	StartDate  *time.Time              `form:"start_date"`
	EndDate    *time.Time              `form:"end_date"`
	Overdue    *bool                   `form:"overdue"`
	Page       int                     `form:"page" binding:"min=0"`
	PageSize   int                     `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string                  `form:"order_by"`
	OrderDir   string                  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ScheduleLineResponse represents one schedule line in API responses
type ScheduleLineResponse struct {
	Index      int             `json:"index"`
	DueDate    time.Time       `json:"due_date"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Status     string          `json:"status"`
}

// ProductLineResponse represents a financed product in API responses
type ProductLineResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

// PlanResponse represents a full plan with its schedule
type PlanResponse struct {
	ID                      uuid.UUID              `json:"id"`
	PlanNumber              string                 `json:"plan_number"`
	SaleID                  uuid.UUID              `json:"sale_id"`
	CustomerID              uuid.UUID              `json:"customer_id"`
	Products                []ProductLineResponse  `json:"products"`
	TotalPrice              decimal.Decimal        `json:"total_price"`
	DownPayment             decimal.Decimal        `json:"down_payment"`
	Principal               decimal.Decimal        `json:"principal"`
	InterestRate            decimal.Decimal        `json:"interest_rate"`
	TotalAmountWithInterest decimal.Decimal        `json:"total_amount_with_interest"`
	NumberOfInstallments    int                    `json:"number_of_installments"`
	StartDate               time.Time              `json:"start_date"`
	EndDate                 time.Time              `json:"end_date"`
	Status                  string                 `json:"status"`
	TotalPaid               decimal.Decimal        `json:"total_paid"`
	RemainingBalance        decimal.Decimal        `json:"remaining_balance"`
	PaidInstallments        int                    `json:"paid_installments"`
	PendingInstallments     int                    `json:"pending_installments"`
	OverdueInstallments     int                    `json:"overdue_installments"`
	NextDueDate             *time.Time             `json:"next_due_date,omitempty"`
	Schedule                []ScheduleLineResponse `json:"schedule"`
	CompletedAt             *time.Time             `json:"completed_at,omitempty"`
	CancelledAt             *time.Time             `json:"cancelled_at,omitempty"`
	DefaultedAt             *time.Time             `json:"defaulted_at,omitempty"`
	Version                 int                    `json:"version"`
	CreatedAt               time.Time              `json:"created_at"`
	UpdatedAt               time.Time              `json:"updated_at"`
}

// PlanListItemResponse represents a plan row in list responses
type PlanListItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	PlanNumber           string          `json:"plan_number"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	NumberOfInstallments int             `json:"number_of_installments"`
	Status               string          `json:"status"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	RemainingBalance     decimal.Decimal `json:"remaining_balance"`
	OverdueInstallments  int             `json:"overdue_installments"`
	NextDueDate          *time.Time      `json:"next_due_date,omitempty"`
	StartDate            time.Time       `json:"start_date"`
	CreatedAt            time.Time       `json:"created_at"`
}

// PortfolioSummary aggregates a tenant's installment book
type PortfolioSummary struct {
	ActivePlans      int64             `json:"active_plans"`
	CompletedPlans   int64             `json:"completed_plans"`
	DefaultedPlans   int64             `json:"defaulted_plans"`
	CancelledPlans   int64             `json:"cancelled_plans"`
	TotalFinanced    valueobject.Money `json:"total_financed"`
	TotalCollected   valueobject.Money `json:"total_collected"`
	TotalOutstanding valueobject.Money `json:"total_outstanding"`
}

// ==================== Modification DTOs ====================

// RequestModificationRequest represents a request to modify a plan
type RequestModificationRequest struct {
	Type                  installment.ModificationType `json:"type" binding:"required"`
	Reason                string                       `json:"reason" binding:"required,min=1,max=500"`
	NewInstallmentCount   *int                         `json:"new_installment_count"`
	NewInterestRate       *decimal.Decimal             `json:"new_interest_rate"`
	AdditionalProducts    []ProductLineInput           `json:"additional_products"`
	AdditionalDownPayment *decimal.Decimal             `json:"additional_down_payment"`
}

// PreviewModificationRequest carries the same payload fields without
// creating a modification record
type PreviewModificationRequest struct {
	Type                  installment.ModificationType `json:"type" binding:"required"`
	NewInstallmentCount   *int                         `json:"new_installment_count"`
	NewInterestRate       *decimal.Decimal             `json:"new_interest_rate"`
	AdditionalProducts    []ProductLineInput           `json:"additional_products"`
	AdditionalDownPayment *decimal.Decimal             `json:"additional_down_payment"`
}

// DecideModificationRequest approves or rejects a pending modification
type DecideModificationRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// ModificationListFilter represents filter options for the modification list
type ModificationListFilter struct {
	PlanID   *uuid.UUID                      `form:"plan_id"`
	Type     *installment.ModificationType   `form:"type"`
	Status   *installment.ModificationStatus `form:"status"`
	Page     int                             `form:"page" binding:"min=0"`
	PageSize int                             `form:"page_size" binding:"min=0,max=100"`
}

// ModificationResponse represents a modification request with its decision
type ModificationResponse struct {
	ID              uuid.UUID                       `json:"id"`
	PlanID          uuid.UUID                       `json:"plan_id"`
	Type            installment.ModificationType    `json:"type"`
	Status          installment.ModificationStatus  `json:"status"`
	Reason          string                          `json:"reason"`
	RequestedBy     string                          `json:"requested_by"`
	Payload         installment.ModificationPayload `json:"payload"`
	ApprovedBy      string                          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time                      `json:"approved_at,omitempty"`
	ApprovalNotes   string                          `json:"approval_notes,omitempty"`
	RejectedBy      string                          `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time                      `json:"rejected_at,omitempty"`
	RejectionReason string                          `json:"rejection_reason,omitempty"`
	AppliedAt       *time.Time                      `json:"applied_at,omitempty"`
	CreatedAt       time.Time                       `json:"created_at"`
}

// ==================== Conversions ====================

func toProductLines(inputs []ProductLineInput) installment.ProductLines {
	lines := make(installment.ProductLines, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, installment.ProductLine{
			ProductID:   in.ProductID,
			Name:        in.Name,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			Category:    in.Category,
			Description: in.Description,
		})
	}
	return lines
}

func toModificationPayload(
	modType installment.ModificationType,
	count *int,
	rate *decimal.Decimal,
	products []ProductLineInput,
	downPayment *decimal.Decimal,
) installment.ModificationPayload {
	payload := installment.ModificationPayload{}
	switch modType {
	case installment.ModificationChangeInstallmentCount:
		payload.NewInstallmentCount = count
	case installment.ModificationChangeInterestRate:
		payload.NewInterestRate = rate
	case installment.ModificationAddProducts:
		if len(products) > 0 {
			payload.AdditionalProducts = toProductLines(products)
		}
	case installment.ModificationChangeDownPayment:
		payload.AdditionalDownPayment = downPayment
	}
	return payload
}

// ToPlanResponse converts a plan aggregate to its API representation
func ToPlanResponse(p *installment.InstallmentPlan) PlanResponse {
	products := make([]ProductLineResponse, 0, len(p.Products))
	for i := range p.Products {
		line := p.Products[i]
		products = append(products, ProductLineResponse{
			ProductID:   line.ProductID,
			Name:        line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal(),
			Category:    line.Category,
			Description: line.Description,
		})
	}

	schedule := make([]ScheduleLineResponse, 0, len(p.Payments))
	for i := range p.Payments {
		line := p.Payments[i]
		schedule = append(schedule, ScheduleLineResponse{
			Index:      i,
			DueDate:    line.DueDate,
			AmountDue:  line.AmountDue,
			AmountPaid: line.AmountPaid,
			PaidAt:     line.PaidAt,
			Status:     line.Status.String(),
		})
	}

	return PlanResponse{
		ID:                      p.ID,
		PlanNumber:              p.PlanNumber,
		SaleID:                  p.SaleID,
		CustomerID:              p.CustomerID,
		Products:                products,
		TotalPrice:              p.TotalPrice,
		DownPayment:             p.DownPayment,
		Principal:               p.Principal(),
		InterestRate:            p.InterestRate,
		TotalAmountWithInterest: p.TotalAmountWithInterest(),
		NumberOfInstallments:    p.NumberOfInstallments,
		StartDate:               p.StartDate,
		EndDate:                 p.EndDate,
		Status:                  p.Status.String(),
		TotalPaid:               p.TotalPaid,
		RemainingBalance:        p.RemainingBalance,
		PaidInstallments:        p.PaidInstallments(),
		PendingInstallments:     p.PendingInstallments(),
		OverdueInstallments:     p.OverdueInstallments(),
		NextDueDate:             p.NextDueDate(),
		Schedule:                schedule,
		CompletedAt:             p.CompletedAt,
		CancelledAt:             p.CancelledAt,
		DefaultedAt:             p.DefaultedAt,
		Version:                 p.GetVersion(),
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

// ToPlanListItemResponse converts a plan to its list representation
func ToPlanListItemResponse(p *installment.InstallmentPlan) PlanListItemResponse {
	return PlanListItemResponse{
		ID:                   p.ID,
		PlanNumber:           p.PlanNumber,
		CustomerID:           p.CustomerID,
		TotalPrice:           p.TotalPrice,
		NumberOfInstallments: p.NumberOfInstallments,
		Status:               p.Status.String(),
		TotalPaid:            p.TotalPaid,
		RemainingBalance:     p.RemainingBalance,
		OverdueInstallments:  p.OverdueInstallments(),
		NextDueDate:          p.NextDueDate(),
		StartDate:            p.StartDate,
		CreatedAt:            p.CreatedAt,
	}
}

// ToModificationResponse converts a modification aggregate to its API representation
func ToModificationResponse(m *installment.PlanModification) ModificationResponse {
	return ModificationResponse{
		ID:              m.ID,
		PlanID:          m.PlanID,
		Type:            m.Type,
		Status:          m.Status,
		Reason:          m.Reason,
		RequestedBy:     m.RequestedBy,
		Payload:         m.Payload,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		ApprovalNotes:   m.ApprovalNotes,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
		AppliedAt:       m.AppliedAt,
		CreatedAt:       m.CreatedAt,
	}
}
