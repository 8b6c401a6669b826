package installment

import (
	"fmt"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanStatus represents the lifecycle state of an installment plan
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusDefaulted PlanStatus = "DEFAULTED"
	PlanStatusCancelled PlanStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PlanStatus
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusActive, PlanStatusCompleted, PlanStatusDefaulted, PlanStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PlanStatus
func (s PlanStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the plan can no longer change state
func (s PlanStatus) IsTerminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusDefaulted || s == PlanStatusCancelled
}

// Term bounds: single-product plans may run longer than multi-product ones
const (
	MaxInstallmentsSingleProduct = 120
	MaxInstallmentsMultiProduct  = 60
)

// Plan errors
var (
	ErrNoProducts         = shared.NewDomainError("NO_PRODUCTS", "Plan must contain at least one product")
	ErrInvalidProductLine = shared.NewDomainError("INVALID_PRODUCT_LINE", "Product line must have an id, a name, a positive price and a positive quantity")
	ErrInvalidTotalPrice  = shared.NewDomainError("INVALID_TOTAL_PRICE", "Total price must be positive and match the sum of product lines")
	ErrInvalidDownPayment = shared.NewDomainError("INVALID_DOWN_PAYMENT", "Down payment must be non-negative and less than the total price")
	ErrIndexOutOfRange    = shared.NewDomainError("INDEX_OUT_OF_RANGE", "Installment index does not exist on this plan")
	ErrAlreadyPaid        = shared.NewDomainError("ALREADY_PAID", "Installment has already been settled in full")
	ErrInvalidAmount      = shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	ErrPlanNotActive      = shared.NewDomainError("PLAN_NOT_ACTIVE", "Operation is only permitted on an active plan")
)

// InstallmentPlan is the aggregate root for a financed sale: the product
// lines, the generated payment schedule and the running totals.
type InstallmentPlan struct {
	shared.TenantAggregateRoot
	PlanNumber           string          `json:"plan_number"`
	SaleID               uuid.UUID       `json:"sale_id"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	Products             ProductLines    `json:"products"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InterestRate         decimal.Decimal `json:"interest_rate"` // annual, percent
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	Status               PlanStatus      `json:"status"`
	Payments             PaymentSchedule `json:"payments"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	RemainingBalance     decimal.Decimal `json:"remaining_balance"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
	DefaultedAt          *time.Time      `json:"defaulted_at,omitempty"`
}

// NewInstallmentPlan creates a plan with its full payment schedule generated.
// The financed principal is totalPrice minus downPayment; the schedule sums
// exactly to the principal plus simple add-on interest.
func NewInstallmentPlan(
	tenantID uuid.UUID,
	planNumber string,
	saleID uuid.UUID,
	customerID uuid.UUID,
	products ProductLines,
	totalPrice decimal.Decimal,
	downPayment decimal.Decimal,
	numberOfInstallments int,
	interestRate decimal.Decimal,
	startDate time.Time,
) (*InstallmentPlan, error) {
	if planNumber == "" {
		return nil, shared.NewDomainError("INVALID_PLAN_NUMBER", "Plan number cannot be empty")
	}
	if saleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	if err := products.Validate(); err != nil {
		return nil, err
	}
	if !totalPrice.IsPositive() || !totalPrice.Equal(products.Total()) {
		return nil, ErrInvalidTotalPrice
	}
	if downPayment.IsNegative() || downPayment.GreaterThanOrEqual(totalPrice) {
		return nil, ErrInvalidDownPayment
	}
	if interestRate.IsNegative() || interestRate.GreaterThan(hundred) {
		return nil, ErrInvalidRate
	}
	maxTerm := MaxInstallmentsSingleProduct
	if len(products) > 1 {
		maxTerm = MaxInstallmentsMultiProduct
	}
	if numberOfInstallments < 1 || numberOfInstallments > maxTerm {
		return nil, ErrInvalidTerm
	}

	principal := totalPrice.Sub(downPayment)
	schedule, err := GenerateSchedule(principal, interestRate, numberOfInstallments, startDate)
	if err != nil {
		return nil, err
	}

	plan := &InstallmentPlan{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		PlanNumber:           planNumber,
		SaleID:               saleID,
		CustomerID:           customerID,
		Products:             products,
		TotalPrice:           totalPrice,
		DownPayment:          downPayment,
		NumberOfInstallments: numberOfInstallments,
		InterestRate:         interestRate,
		StartDate:            startDate,
		EndDate:              AddMonths(startDate, numberOfInstallments),
		Status:               PlanStatusActive,
		Payments:             schedule,
		TotalPaid:            decimal.Zero,
		RemainingBalance:     schedule.TotalDue(),
	}

	plan.AddDomainEvent(NewPlanCreatedEvent(plan))

	return plan, nil
}

// RecordPayment applies a payment to the schedule line at the given index.
// Partial payments accumulate; the line flips to PAID once the cumulative
// amount covers the amount due. When every line is paid the plan completes.
func (p *InstallmentPlan) RecordPayment(index int, amount decimal.Decimal, paidAt time.Time) error {
	if p.Status != PlanStatusActive {
		return ErrPlanNotActive
	}
	if index < 0 || index >= len(p.Payments) {
		return ErrIndexOutOfRange
	}
	line := &p.Payments[index]
	if line.IsPaid() {
		return ErrAlreadyPaid
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	line.AmountPaid = line.AmountPaid.Add(amount)
	line.PaidAt = &paidAt
	if line.AmountPaid.GreaterThanOrEqual(line.AmountDue) {
		line.Status = PaymentStatusPaid
	}

	p.recalcTotals()
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentRecordedEvent(p, index, amount, paidAt))

	if p.Payments.UnpaidCount() == 0 {
		now := time.Now()
		p.Status = PlanStatusCompleted
		p.CompletedAt = &now
		p.AddDomainEvent(NewPlanCompletedEvent(p))
	}

	return nil
}

// MarkOverdue flips every pending line whose due date has passed to OVERDUE.
// Idempotent; settled lines are never touched. Returns the number of lines
// newly marked.
func (p *InstallmentPlan) MarkOverdue(now time.Time) int {
	marked := 0
	for i := range p.Payments {
		line := &p.Payments[i]
		if line.Status == PaymentStatusPending && line.DueDate.Before(now) {
			line.Status = PaymentStatusOverdue
			marked++
		}
	}
	if marked > 0 {
		p.UpdatedAt = time.Now()
		p.IncrementVersion()
		p.AddDomainEvent(NewPlanPaymentsOverdueEvent(p, marked))
	}
	return marked
}

// Cancel transitions an active plan to CANCELLED (terminal)
func (p *InstallmentPlan) Cancel() error {
	if p.Status != PlanStatusActive {
		return ErrPlanNotActive
	}
	now := time.Now()
	p.Status = PlanStatusCancelled
	p.CancelledAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPlanCancelledEvent(p))
	return nil
}

// MarkDefaulted transitions an active plan to DEFAULTED (terminal)
func (p *InstallmentPlan) MarkDefaulted() error {
	if p.Status != PlanStatusActive {
		return ErrPlanNotActive
	}
	now := time.Now()
	p.Status = PlanStatusDefaulted
	p.DefaultedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPlanDefaultedEvent(p))
	return nil
}

// recalcTotals re-derives the plan-level running totals from the schedule
func (p *InstallmentPlan) recalcTotals() {
	p.TotalPaid = p.Payments.TotalPaid()
	p.RemainingBalance = p.Payments.Outstanding()
}

// Derived values

// Principal returns the financed amount: total price minus down payment
func (p *InstallmentPlan) Principal() decimal.Decimal {
	return p.TotalPrice.Sub(p.DownPayment)
}

// TotalAmountWithInterest returns the financed principal plus simple
// add-on interest, at currency precision
func (p *InstallmentPlan) TotalAmountWithInterest() decimal.Decimal {
	return TotalPayable(p.Principal(), p.InterestRate).Round(2)
}

// PaidInstallments returns how many lines are settled in full
func (p *InstallmentPlan) PaidInstallments() int {
	return p.Payments.CountByStatus(PaymentStatusPaid)
}

// PendingInstallments returns how many lines are still pending
func (p *InstallmentPlan) PendingInstallments() int {
	return p.Payments.CountByStatus(PaymentStatusPending)
}

// OverdueInstallments returns how many lines are overdue
func (p *InstallmentPlan) OverdueInstallments() int {
	return p.Payments.CountByStatus(PaymentStatusOverdue)
}

// IsCompleted returns true when every installment has been paid
func (p *InstallmentPlan) IsCompleted() bool {
	return p.PaidInstallments() == len(p.Payments)
}

// NextDueDate returns the due date of the earliest pending line, or nil
func (p *InstallmentPlan) NextDueDate() *time.Time {
	return p.Payments.NextDueDate()
}

// OutstandingBalance returns the unpaid remainder across unsettled lines.
// Partially paid lines contribute only their unpaid portion.
func (p *InstallmentPlan) OutstandingBalance() decimal.Decimal {
	return p.Payments.Outstanding()
}

// UnpaidInstallments returns how many lines are not settled in full
func (p *InstallmentPlan) UnpaidInstallments() int {
	return p.Payments.UnpaidCount()
}

// String implements fmt.Stringer for log output
func (p *InstallmentPlan) String() string {
	return fmt.Sprintf("InstallmentPlan(%s, %s, %d/%d paid)", p.PlanNumber, p.Status, p.PaidInstallments(), len(p.Payments))
}
