package installment

import (
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanCreatedEvent is raised when a new installment plan is created
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	PlanID               uuid.UUID       `json:"plan_id"`
	PlanNumber           string          `json:"plan_number"`
	SaleID               uuid.UUID       `json:"sale_id"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	StartDate            time.Time       `json:"start_date"`
}

// EventType returns the event type name
func (e *PlanCreatedEvent) EventType() string {
	return "InstallmentPlanCreated"
}

// NewPlanCreatedEvent creates a new PlanCreatedEvent
func NewPlanCreatedEvent(p *InstallmentPlan) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent("InstallmentPlanCreated", "InstallmentPlan", p.ID, p.TenantID),
		PlanID:               p.ID,
		PlanNumber:           p.PlanNumber,
		SaleID:               p.SaleID,
		CustomerID:           p.CustomerID,
		TotalPrice:           p.TotalPrice,
		DownPayment:          p.DownPayment,
		NumberOfInstallments: p.NumberOfInstallments,
		InterestRate:         p.InterestRate,
		StartDate:            p.StartDate,
	}
}

// PaymentRecordedEvent is raised when a payment is applied to a schedule line
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PlanID           uuid.UUID       `json:"plan_id"`
	PlanNumber       string          `json:"plan_number"`
	InstallmentIndex int             `json:"installment_index"`
	Amount           decimal.Decimal `json:"amount"`
	PaidAt           time.Time       `json:"paid_at"`
	LineStatus       PaymentStatus   `json:"line_status"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "InstallmentPaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *InstallmentPlan, index int, amount decimal.Decimal, paidAt time.Time) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("InstallmentPaymentRecorded", "InstallmentPlan", p.ID, p.TenantID),
		PlanID:           p.ID,
		PlanNumber:       p.PlanNumber,
		InstallmentIndex: index,
		Amount:           amount,
		PaidAt:           paidAt,
		LineStatus:       p.Payments[index].Status,
		TotalPaid:        p.TotalPaid,
		RemainingBalance: p.RemainingBalance,
	}
}

// PlanCompletedEvent is raised when every installment has been paid
type PlanCompletedEvent struct {
	shared.BaseDomainEvent
	PlanID     uuid.UUID       `json:"plan_id"`
	PlanNumber string          `json:"plan_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
}

// EventType returns the event type name
func (e *PlanCompletedEvent) EventType() string {
	return "InstallmentPlanCompleted"
}

// NewPlanCompletedEvent creates a new PlanCompletedEvent
func NewPlanCompletedEvent(p *InstallmentPlan) *PlanCompletedEvent {
	return &PlanCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentPlanCompleted", "InstallmentPlan", p.ID, p.TenantID),
		PlanID:          p.ID,
		PlanNumber:      p.PlanNumber,
		CustomerID:      p.CustomerID,
		TotalPaid:       p.TotalPaid,
	}
}

// PlanPaymentsOverdueEvent is raised when an overdue sweep marks lines
type PlanPaymentsOverdueEvent struct {
	shared.BaseDomainEvent
	PlanID       uuid.UUID `json:"plan_id"`
	PlanNumber   string    `json:"plan_number"`
	CustomerID   uuid.UUID `json:"customer_id"`
	MarkedCount  int       `json:"marked_count"`
	OverdueTotal int       `json:"overdue_total"`
}

// EventType returns the event type name
func (e *PlanPaymentsOverdueEvent) EventType() string {
	return "InstallmentPlanPaymentsOverdue"
}

// NewPlanPaymentsOverdueEvent creates a new PlanPaymentsOverdueEvent
func NewPlanPaymentsOverdueEvent(p *InstallmentPlan, marked int) *PlanPaymentsOverdueEvent {
	return &PlanPaymentsOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentPlanPaymentsOverdue", "InstallmentPlan", p.ID, p.TenantID),
		PlanID:          p.ID,
		PlanNumber:      p.PlanNumber,
		CustomerID:      p.CustomerID,
		MarkedCount:     marked,
		OverdueTotal:    p.OverdueInstallments(),
	}
}

// PlanCancelledEvent is raised when an active plan is cancelled
type PlanCancelledEvent struct {
	shared.BaseDomainEvent
	PlanID     uuid.UUID `json:"plan_id"`
	PlanNumber string    `json:"plan_number"`
}

// EventType returns the event type name
func (e *PlanCancelledEvent) EventType() string {
	return "InstallmentPlanCancelled"
}

// NewPlanCancelledEvent creates a new PlanCancelledEvent
func NewPlanCancelledEvent(p *InstallmentPlan) *PlanCancelledEvent {
	return &PlanCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentPlanCancelled", "InstallmentPlan", p.ID, p.TenantID),
		PlanID:          p.ID,
		PlanNumber:      p.PlanNumber,
	}
}

// PlanDefaultedEvent is raised when an active plan is marked defaulted
type PlanDefaultedEvent struct {
	shared.BaseDomainEvent
	PlanID           uuid.UUID       `json:"plan_id"`
	PlanNumber       string          `json:"plan_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// EventType returns the event type name
func (e *PlanDefaultedEvent) EventType() string {
	return "InstallmentPlanDefaulted"
}

// NewPlanDefaultedEvent creates a new PlanDefaultedEvent
func NewPlanDefaultedEvent(p *InstallmentPlan) *PlanDefaultedEvent {
	return &PlanDefaultedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("InstallmentPlanDefaulted", "InstallmentPlan", p.ID, p.TenantID),
		PlanID:           p.ID,
		PlanNumber:       p.PlanNumber,
		CustomerID:       p.CustomerID,
		RemainingBalance: p.RemainingBalance,
	}
}
