package models

import (
	"time"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentPlanModel is the persistence model for the InstallmentPlan aggregate root.
type InstallmentPlanModel struct {
	TenantAggregateModel
	PlanNumber           string                      `gorm:"type:varchar(50);not null;uniqueIndex:idx_plan_tenant_number,priority:2"`
	SaleID               uuid.UUID                   `gorm:"type:uuid;not null;index"`
	CustomerID           uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Products             installment.ProductLines    `gorm:"type:jsonb;not null"`
	TotalPrice           decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	DownPayment          decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfInstallments int                         `gorm:"not null"`
	InterestRate         decimal.Decimal             `gorm:"type:decimal(9,4);not null;default:0"`
	StartDate            time.Time                   `gorm:"not null"`
	EndDate              time.Time                   `gorm:"not null"`
	Status               installment.PlanStatus      `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Payments             installment.PaymentSchedule `gorm:"type:jsonb;not null"`
	TotalPaid            decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingBalance     decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	CompletedAt          *time.Time
	CancelledAt          *time.Time
	DefaultedAt          *time.Time

	// NextDueDate and OverdueCount are denormalized from the payment schedule
	// so sweep and overdue queries do not have to unpack the JSONB column.
	NextDueDate  *time.Time `gorm:"index"`
	OverdueCount int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InstallmentPlanModel) TableName() string {
	return "installment_plans"
}

// ToDomain converts the persistence model to a domain InstallmentPlan entity.
func (m *InstallmentPlanModel) ToDomain() *installment.InstallmentPlan {
	plan := &installment.InstallmentPlan{
		PlanNumber:           m.PlanNumber,
		SaleID:               m.SaleID,
		CustomerID:           m.CustomerID,
		Products:             m.Products,
		TotalPrice:           m.TotalPrice,
		DownPayment:          m.DownPayment,
		NumberOfInstallments: m.NumberOfInstallments,
		InterestRate:         m.InterestRate,
		StartDate:            m.StartDate,
		EndDate:              m.EndDate,
		Status:               m.Status,
		Payments:             m.Payments,
		TotalPaid:            m.TotalPaid,
		RemainingBalance:     m.RemainingBalance,
		CompletedAt:          m.CompletedAt,
		CancelledAt:          m.CancelledAt,
		DefaultedAt:          m.DefaultedAt,
	}
	m.PopulateTenantAggregateRoot(&plan.TenantAggregateRoot)
	return plan
}

// FromDomain populates the persistence model from a domain InstallmentPlan entity.
func (m *InstallmentPlanModel) FromDomain(p *installment.InstallmentPlan) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PlanNumber = p.PlanNumber
	m.SaleID = p.SaleID
	m.CustomerID = p.CustomerID
	m.Products = p.Products
	m.TotalPrice = p.TotalPrice
	m.DownPayment = p.DownPayment
	m.NumberOfInstallments = p.NumberOfInstallments
	m.InterestRate = p.InterestRate
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
	m.Status = p.Status
	m.Payments = p.Payments
	m.TotalPaid = p.TotalPaid
	m.RemainingBalance = p.RemainingBalance
	m.CompletedAt = p.CompletedAt
	m.CancelledAt = p.CancelledAt
	m.DefaultedAt = p.DefaultedAt
	m.NextDueDate = p.Payments.NextUnpaidDueDate()
	m.OverdueCount = p.Payments.CountByStatus(installment.PaymentStatusOverdue)
}

// InstallmentPlanModelFromDomain creates a new persistence model from a domain InstallmentPlan.
func InstallmentPlanModelFromDomain(p *installment.InstallmentPlan) *InstallmentPlanModel {
	m := &InstallmentPlanModel{}
	m.FromDomain(p)
	return m
}

// PlanModificationModel is the persistence model for the PlanModification aggregate root.
type PlanModificationModel struct {
	TenantAggregateModel
	PlanID          uuid.UUID                       `gorm:"type:uuid;not null;index"`
	Type            installment.ModificationType    `gorm:"type:varchar(30);not null"`
	Reason          string                          `gorm:"type:varchar(500);not null"`
	RequestedBy     string                          `gorm:"type:varchar(100);not null"`
	Payload         installment.ModificationPayload `gorm:"type:jsonb;not null"`
	Status          installment.ModificationStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy      string                          `gorm:"type:varchar(100)"`
	ApprovedAt      *time.Time
	ApprovalNotes   string `gorm:"type:varchar(500)"`
	RejectedBy      string `gorm:"type:varchar(100)"`
	RejectedAt      *time.Time
	RejectionReason string `gorm:"type:varchar(500)"`
	AppliedAt       *time.Time
}

// TableName returns the table name for GORM
func (PlanModificationModel) TableName() string {
	return "plan_modifications"
}

// ToDomain converts the persistence model to a domain PlanModification entity.
func (m *PlanModificationModel) ToDomain() *installment.PlanModification {
	mod := &installment.PlanModification{
		PlanID:          m.PlanID,
		Type:            m.Type,
		Reason:          m.Reason,
		RequestedBy:     m.RequestedBy,
		Payload:         m.Payload,
		Status:          m.Status,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		ApprovalNotes:   m.ApprovalNotes,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
		AppliedAt:       m.AppliedAt,
	}
	m.PopulateTenantAggregateRoot(&mod.TenantAggregateRoot)
	return mod
}

// FromDomain populates the persistence model from a domain PlanModification entity.
func (m *PlanModificationModel) FromDomain(mod *installment.PlanModification) {
	m.FromDomainTenantAggregateRoot(mod.TenantAggregateRoot)
	m.PlanID = mod.PlanID
	m.Type = mod.Type
	m.Reason = mod.Reason
	m.RequestedBy = mod.RequestedBy
	m.Payload = mod.Payload
	m.Status = mod.Status
	m.ApprovedBy = mod.ApprovedBy
	m.ApprovedAt = mod.ApprovedAt
	m.ApprovalNotes = mod.ApprovalNotes
	m.RejectedBy = mod.RejectedBy
	m.RejectedAt = mod.RejectedAt
	m.RejectionReason = mod.RejectionReason
	m.AppliedAt = mod.AppliedAt
}

// PlanModificationModelFromDomain creates a new persistence model from a domain PlanModification.
func PlanModificationModelFromDomain(mod *installment.PlanModification) *PlanModificationModel {
	m := &PlanModificationModel{}
	m.FromDomain(mod)
	return m
}
